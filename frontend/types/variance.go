package types

import "github.com/cottand/tyre/frontend/ast"

type Variance = ast.Variance

const (
	Invariant     = ast.Invariant
	Covariant     = ast.Covariant
	Contravariant = ast.Contravariant
)

// varianceInfo says in which directions a type argument must be compatible
// for two instances of the same class to be compatible
type varianceInfo struct {
	covariant, contravariant bool
}

var (
	varianceBivariant     = varianceInfo{covariant: true, contravariant: true}
	varianceCovariant     = varianceInfo{covariant: true}
	varianceContravariant = varianceInfo{contravariant: true}
	varianceInvariant     = varianceInfo{}
)

func varianceOf(v Variance) varianceInfo {
	switch v {
	case Covariant:
		return varianceCovariant
	case Contravariant:
		return varianceContravariant
	default:
		return varianceInvariant
	}
}

// argCompatible checks a single type argument pair under v.
// Invariant arguments must be compatible in both directions.
func (v varianceInfo) argCompatible(lhs, rhs Type, isSub func(Type, Type) bool) bool {
	switch v {
	case varianceBivariant:
		return true
	case varianceCovariant:
		return isSub(lhs, rhs)
	case varianceContravariant:
		return isSub(rhs, lhs)
	default:
		return isSub(lhs, rhs) && isSub(rhs, lhs)
	}
}
