package types

import (
	"slices"

	xset "github.com/xtgo/set"
)

// Meet returns the greatest lower bound of s and t. Types with no common values
// meet to Uninhabited.
func (ctx *TypeCtx) Meet(s, t Type) Type {
	ret := ctx.meet(s, t)
	ctx.logger.Debug("meet", "s", s, "t", t, "result", ret)
	return ret
}

func (ctx *TypeCtx) trivialMeet(s, t Type) Type {
	if ctx.IsSubtype(s, t) {
		return s
	}
	if ctx.IsSubtype(t, s) {
		return t
	}
	return Uninhabited
}

func (ctx *TypeCtx) meet(s, t Type) Type {
	if Equal(s, t) {
		return s
	}
	if isAliasLike(s) || isAliasLike(t) {
		return ctx.trivialMeet(s, t)
	}
	if isAny(s) {
		return t
	}
	if isAny(t) {
		return s
	}
	if isBottom(s) {
		return s
	}
	if isBottom(t) {
		return t
	}

	sUnion, sIsUnion := s.(*Union)
	tUnion, tIsUnion := t.(*Union)
	switch {
	case sIsUnion && tIsUnion:
		return ctx.meetUnions(sUnion, tUnion)
	case sIsUnion:
		return ctx.meetEach(sUnion.Items, t)
	case tIsUnion:
		return ctx.meetEach(tUnion.Items, s)
	}

	if ctx.IsSubtype(s, t) {
		return s
	}
	if ctx.IsSubtype(t, s) {
		return t
	}

	switch s := s.(type) {
	case *Instance:
		if t, ok := t.(*Instance); ok && s.Class == t.Class {
			return ctx.meetInstances(s, t)
		}
	case *Tuple:
		if t, ok := t.(*Tuple); ok && len(s.Items) == len(t.Items) {
			items := make([]Type, len(s.Items))
			for i := range s.Items {
				items[i] = ctx.meet(s.Items[i], t.Items[i])
				if isBottom(items[i]) {
					return Uninhabited
				}
			}
			return NewTuple(items...)
		}
	case *Callable:
		if t, ok := t.(*Callable); ok && !s.AnyArgs && !t.AnyArgs && len(s.Args) == len(t.Args) {
			args := make([]Type, len(s.Args))
			for i := range s.Args {
				args[i] = ctx.join(s.Args[i], t.Args[i])
			}
			return NewCallable(args, ctx.meet(s.Ret, t.Ret))
		}
	case *TypeOfType:
		if t, ok := t.(*TypeOfType); ok {
			item := ctx.meet(s.Item, t.Item)
			if isBottom(item) {
				return Uninhabited
			}
			return NewTypeOfType(item)
		}
	}
	return Uninhabited
}

func (ctx *TypeCtx) meetEach(items []Type, t Type) Type {
	met := make([]Type, len(items))
	for i, item := range items {
		met[i] = ctx.meet(item, t)
	}
	return NewUnion(met...)
}

// meetUnions keeps the members s and t have in common, plus the meets of the
// pairs of members that are not shared
func (ctx *TypeCtx) meetUnions(s, t *Union) Type {
	data, pivot := newHashSet(s.Items, t.Items)
	common := data[:xset.Inter(data, pivot)]

	var met []Type
	for _, item := range s.Items {
		if slices.Contains(common, item.Hash()) {
			met = append(met, item)
		}
	}
	for _, sItem := range s.Items {
		for _, tItem := range t.Items {
			if slices.Contains(common, sItem.Hash()) && slices.Contains(common, tItem.Hash()) {
				continue
			}
			met = append(met, ctx.meet(sItem, tItem))
		}
	}
	return NewUnion(met...)
}

func (ctx *TypeCtx) meetInstances(s, t *Instance) Type {
	info, ok := ctx.classes[s.Class]
	if !ok {
		return Uninhabited
	}
	args := make([]Type, len(info.Params))
	for i, param := range info.Params {
		sArg, tArg := argAt(s.Args, i), argAt(t.Args, i)
		switch param.Variance {
		case Covariant:
			args[i] = ctx.meet(sArg, tArg)
		case Contravariant:
			args[i] = ctx.join(sArg, tArg)
		default:
			switch {
			case isAny(sArg):
				args[i] = tArg
			case isAny(tArg) || ctx.IsEquivalent(sArg, tArg):
				args[i] = sArg
			default:
				return Uninhabited
			}
		}
	}
	return NewInstance(s.Class, args...)
}
