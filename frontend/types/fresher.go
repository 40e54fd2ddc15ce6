package types

// Fresher keeps track of new type variable IDs.
// It is mutable and not suitable for concurrent use
type Fresher struct {
	freshCount TypeVarID
}

func NewFresher() *Fresher {
	return &Fresher{}
}

// NewTypeVarRef returns a type variable with an ID no other variable from this Fresher has.
// bound may be nil.
func (f *Fresher) NewTypeVarRef(name string, variance Variance, bound Type) *TypeVarRef {
	variable := &TypeVarRef{
		ID:       f.freshCount,
		Name:     name,
		Variance: variance,
		Bound:    bound,
	}
	f.freshCount++
	return variable
}
