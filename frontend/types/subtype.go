package types

import (
	"sort"

	"github.com/cottand/tyre/frontend/ast"
	"github.com/hashicorp/go-set/v3"
	xset "github.com/xtgo/set"
)

const (
	defaultStartingFuel = 10000
	defaultDepthLimit   = 250
)

// assumption is a pair of types currently being compared, by hash
type assumption struct {
	lhs, rhs uint64
}

// subtypeChecker holds the state of a single IsSubtype call
type subtypeChecker struct {
	ctx *TypeCtx
	// proper disables Any compatibility and numeric promotions
	proper bool
	// assuming are the pairs involving aliases on the current comparison path.
	// Meeting one of them again means the comparison is coinductively true.
	assuming *set.Set[assumption]
	fuel     int
	depth    int
}

func (ctx *TypeCtx) newSubtypeChecker(proper bool) *subtypeChecker {
	return &subtypeChecker{
		ctx:      ctx,
		proper:   proper,
		assuming: set.New[assumption](4),
		fuel:     defaultStartingFuel,
	}
}

// IsSubtype reports whether a value of lhs can be used where rhs is expected.
// Any is compatible with everything, and numeric promotions apply.
func (ctx *TypeCtx) IsSubtype(lhs, rhs Type) bool {
	return ctx.newSubtypeChecker(false).isSub(lhs, rhs)
}

// IsProperSubtype is IsSubtype without Any compatibility on the left nor promotions
func (ctx *TypeCtx) IsProperSubtype(lhs, rhs Type) bool {
	return ctx.newSubtypeChecker(true).isSub(lhs, rhs)
}

// IsEquivalent reports whether a and b are subtypes of each other
func (ctx *TypeCtx) IsEquivalent(a, b Type) bool {
	return ctx.IsSubtype(a, b) && ctx.IsSubtype(b, a)
}

// IsSameType reports whether a and b are the same type up to alias expansion
// and union member order
func (ctx *TypeCtx) IsSameType(a, b Type) bool {
	return Equal(a, b) || ctx.IsProperSubtype(a, b) && ctx.IsProperSubtype(b, a)
}

func isAliasLike(t Type) bool {
	switch t.(type) {
	case *AliasRef, *SelfRef:
		return true
	}
	return false
}

// unfold expands t if it is an alias reference, and returns it unchanged otherwise
func (ctx *TypeCtx) unfold(t Type) Type {
	switch t := t.(type) {
	case *AliasRef:
		return ctx.expand(t, NewRecursionGuard(), ast.Range{}, ctx.reporter())
	case *SelfRef:
		return ctx.expand(t.Ref, NewRecursionGuard(), ast.Range{}, ctx.reporter())
	}
	return t
}

func (c *subtypeChecker) isSub(lhs, rhs Type) bool {
	if Equal(lhs, rhs) {
		return true
	}
	c.fuel--
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > defaultDepthLimit || c.fuel <= 0 {
		c.ctx.logger.Warn("subtype check gave up", "lhs", lhs, "rhs", rhs, "depth", c.depth, "fuel", c.fuel)
		return false
	}

	if isAliasLike(lhs) || isAliasLike(rhs) {
		key := assumption{lhs: lhs.Hash(), rhs: rhs.Hash()}
		if c.assuming.Contains(key) {
			return true
		}
		c.assuming.Insert(key)
		defer c.assuming.Remove(key)
		return c.isSub(c.ctx.unfold(lhs), c.ctx.unfold(rhs))
	}

	if isAny(rhs) {
		return true
	}
	if isAny(lhs) {
		return !c.proper || isObject(rhs)
	}
	if isBottom(lhs) {
		return true
	}
	if l, ok := lhs.(*Union); ok {
		for _, item := range l.Items {
			if !c.isSub(item, rhs) {
				return false
			}
		}
		return true
	}
	if r, ok := rhs.(*Union); ok {
		return c.isSubOfUnion(lhs, r)
	}
	if isObject(rhs) {
		return true
	}

	switch l := lhs.(type) {
	case *TypeVarRef:
		return c.isSub(l.upperBound(), rhs)
	case *Instance:
		switch r := rhs.(type) {
		case *Instance:
			return c.isSubInstance(l, r)
		case *TypeOfType:
			return l.Class == typeClass && (isAny(r.Item) || isObject(r.Item))
		}
	case *Tuple:
		switch r := rhs.(type) {
		case *Tuple:
			if len(l.Items) != len(r.Items) {
				return false
			}
			for i := range l.Items {
				if !c.isSub(l.Items[i], r.Items[i]) {
					return false
				}
			}
			return true
		case *Instance:
			return c.isSub(l.Fallback, r)
		}
	case *Callable:
		switch r := rhs.(type) {
		case *Callable:
			return c.isSubCallable(l, r)
		case *Instance:
			return c.isSub(NewInstance(functionClass), r)
		}
	case *TypeOfType:
		switch r := rhs.(type) {
		case *TypeOfType:
			return c.isSub(l.Item, r.Item)
		case *Instance:
			return c.isSub(NewInstance(typeClass), r)
		}
	}
	return false
}

func isObject(t Type) bool {
	inst, ok := t.(*Instance)
	return ok && inst.Class == objectClass
}

// hashSet is a sorted, duplicate-free list of type hashes, for xtgo/set
type hashSet []uint64

func (h hashSet) Len() int           { return len(h) }
func (h hashSet) Less(i, j int) bool { return h[i] < h[j] }
func (h hashSet) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

// newHashSet returns the sorted hashes of ts, followed by those of more in a second
// segment starting at the returned pivot
func newHashSet(ts []Type, more []Type) (hashSet, int) {
	first := hashSet(hashes(ts))
	sort.Sort(first)
	first = first[:xset.Uniq(first)]
	second := hashSet(hashes(more))
	sort.Sort(second)
	second = second[:xset.Uniq(second)]
	return append(first, second...), len(first)
}

func (c *subtypeChecker) isSubOfUnion(lhs Type, rhs *Union) bool {
	if l, ok := lhs.(*Union); ok {
		if data, pivot := newHashSet(l.Items, rhs.Items); xset.IsSub(data, pivot) {
			return true
		}
	}
	for _, item := range rhs.Items {
		if c.isSub(lhs, item) {
			return true
		}
	}
	if tv, ok := lhs.(*TypeVarRef); ok {
		return c.isSub(tv.upperBound(), rhs)
	}
	return false
}

func (c *subtypeChecker) isSubInstance(lhs, rhs *Instance) bool {
	mapped, ok := c.ctx.mapInstanceToSupertype(lhs, rhs.Class)
	if !ok {
		return !c.proper && c.promotes(lhs, rhs)
	}
	info, ok := c.ctx.classes[rhs.Class]
	if !ok {
		return len(mapped.Args) == 0 && len(rhs.Args) == 0
	}
	for i, param := range info.Params {
		lhsArg, rhsArg := argAt(mapped.Args, i), argAt(rhs.Args, i)
		if !varianceOf(param.Variance).argCompatible(lhsArg, rhsArg, c.isSub) {
			return false
		}
	}
	return true
}

// promotes reports whether lhs, or one of its bases, promotes to the class of rhs
func (c *subtypeChecker) promotes(lhs, rhs *Instance) bool {
	if len(rhs.Args) > 0 {
		return false
	}
	for _, class := range c.ctx.mro(lhs.Class) {
		if c.ctx.promotesTo(class, rhs.Class) {
			return true
		}
	}
	return false
}

func argAt(args []Type, i int) Type {
	if i < len(args) {
		return args[i]
	}
	return Any
}

// isSubCallable compares parameters contravariantly and returns covariantly
func (c *subtypeChecker) isSubCallable(lhs, rhs *Callable) bool {
	if !c.isSub(lhs.Ret, rhs.Ret) {
		return false
	}
	if rhs.AnyArgs {
		return true
	}
	if lhs.AnyArgs {
		return !c.proper
	}
	if len(lhs.Args) != len(rhs.Args) {
		return false
	}
	for i := range lhs.Args {
		if !c.isSub(rhs.Args[i], lhs.Args[i]) {
			return false
		}
	}
	return true
}
