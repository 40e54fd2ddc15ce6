package types

import "github.com/hashicorp/go-set/v3"

type expansionKey struct {
	alias AliasID
	args  uint64
}

// RecursionGuard records the (alias, argument shape) pairs being expanded on the
// current call path. It is scoped to a single expansion and must not be shared.
type RecursionGuard struct {
	active *set.Set[expansionKey]
}

func NewRecursionGuard() *RecursionGuard {
	return &RecursionGuard{active: set.New[expansionKey](2)}
}

func keyOf(ref *AliasRef) expansionKey {
	return expansionKey{alias: ref.Alias, args: ref.argsHash()}
}

// enter returns false if ref is already being expanded
func (g *RecursionGuard) enter(ref *AliasRef) bool {
	return g.active.Insert(keyOf(ref))
}

func (g *RecursionGuard) leave(ref *AliasRef) {
	g.active.Remove(keyOf(ref))
}

// Active reports whether ref is being expanded on the current call path.
// A nil guard has nothing active.
func (g *RecursionGuard) Active(ref *AliasRef) bool {
	return g != nil && g.active.Contains(keyOf(ref))
}

// Substitute replaces the type variables in bindings throughout t.
// An alias reference that guard is currently expanding is replaced by a SelfRef
// instead of being kept for another round of expansion. guard may be nil.
func Substitute(t Type, bindings map[TypeVarID]Type, guard *RecursionGuard) Type {
	sub := func(t Type) Type { return Substitute(t, bindings, guard) }
	switch t := t.(type) {
	case *TypeVarRef:
		if bound, ok := bindings[t.ID]; ok {
			return bound
		}
		return t
	case *SelfRef:
		return t
	case *AliasRef:
		ref := t.doMap(sub).(*AliasRef)
		if guard.Active(ref) {
			return &SelfRef{Ref: ref}
		}
		return ref
	default:
		return t.doMap(sub)
	}
}
