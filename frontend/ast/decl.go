package ast

// Scope is where a declaration lives. Aliases may only be recursive at module or class scope.
type Scope uint8

const (
	_ Scope = iota
	ScopeModule
	ScopeClass
	ScopeFunction
)

func (s Scope) String() string {
	switch s {
	case ScopeModule:
		return "module"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	default:
		return "invalid"
	}
}

// ParseScope is the inverse of Scope.String
func ParseScope(s string) (Scope, bool) {
	switch s {
	case "module", "":
		return ScopeModule, true
	case "class":
		return ScopeClass, true
	case "function":
		return ScopeFunction, true
	default:
		return 0, false
	}
}

type Variance uint8

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

// TypeParam is a type variable declared by a generic class or alias.
// Bound may be nil, meaning object.
type TypeParam struct {
	Name     string
	Variance Variance
	Bound    Type
	Range
}

// AliasStmt is a syntactic alias statement `Name = Target`.
// Owner is the enclosing class or function name, and is empty at module scope.
type AliasStmt struct {
	Name   TypeName
	Params []TypeParam
	Target Type
	Scope  Scope
	Owner  string
	Range
}

// ClassDef declares a nominal class for annotations to refer to
type ClassDef struct {
	Name   TypeName
	Params []TypeParam
	Bases  []Type
	Range
}
