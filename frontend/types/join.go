package types

// Join returns the least upper bound of s and t, or a union of both when no
// simpler common supertype exists
func (ctx *TypeCtx) Join(s, t Type) Type {
	ret := ctx.join(s, t)
	ctx.logger.Debug("join", "s", s, "t", t, "result", ret)
	return ret
}

// JoinList joins every type in ts. The join of nothing is Uninhabited
func (ctx *TypeCtx) JoinList(ts []Type) Type {
	if len(ts) == 0 {
		return Uninhabited
	}
	joined := ts[0]
	for _, t := range ts[1:] {
		joined = ctx.join(joined, t)
	}
	return joined
}

// trivialJoin is the join of types that cannot be compared structurally without
// unrolling them, like recursive aliases
func (ctx *TypeCtx) trivialJoin(s, t Type) Type {
	if ctx.IsSubtype(s, t) {
		return t
	}
	if ctx.IsSubtype(t, s) {
		return s
	}
	return NewUnion(s, t)
}

func (ctx *TypeCtx) join(s, t Type) Type {
	if Equal(s, t) {
		return s
	}
	if isAliasLike(s) || isAliasLike(t) {
		return ctx.trivialJoin(s, t)
	}
	if isAny(s) || isAny(t) {
		return Any
	}
	if isBottom(s) {
		return t
	}
	if isBottom(t) {
		return s
	}
	if ctx.IsSubtype(s, t) {
		return t
	}
	if ctx.IsSubtype(t, s) {
		return s
	}
	_, sIsUnion := s.(*Union)
	_, tIsUnion := t.(*Union)
	if sIsUnion || tIsUnion {
		return ctx.simplifiedUnion(s, t)
	}

	switch s := s.(type) {
	case *Instance:
		switch t := t.(type) {
		case *Instance:
			return ctx.joinInstances(s, t)
		case *Tuple:
			return ctx.join(s, t.Fallback)
		}
	case *Tuple:
		switch t := t.(type) {
		case *Tuple:
			if len(s.Items) == len(t.Items) {
				items := make([]Type, len(s.Items))
				for i := range s.Items {
					items[i] = ctx.join(s.Items[i], t.Items[i])
				}
				return NewTuple(items...)
			}
			return ctx.join(s.Fallback, t.Fallback)
		case *Instance:
			return ctx.join(s.Fallback, t)
		}
	case *Callable:
		if t, ok := t.(*Callable); ok {
			return ctx.joinCallables(s, t)
		}
	case *TypeOfType:
		if t, ok := t.(*TypeOfType); ok {
			return NewTypeOfType(ctx.join(s.Item, t.Item))
		}
	}
	return NewUnion(s, t)
}

// joinInstances joins instances of the same class argument by argument, and instances
// of different classes through their nearest common base other than object
func (ctx *TypeCtx) joinInstances(s, t *Instance) Type {
	if s.Class == t.Class {
		info, ok := ctx.classes[s.Class]
		if !ok {
			return NewUnion(s, t)
		}
		args := make([]Type, len(info.Params))
		for i, param := range info.Params {
			sArg, tArg := argAt(s.Args, i), argAt(t.Args, i)
			switch param.Variance {
			case Covariant:
				args[i] = ctx.join(sArg, tArg)
			case Contravariant:
				args[i] = ctx.meet(sArg, tArg)
			default:
				if isAny(sArg) || isAny(tArg) {
					args[i] = Any
				} else if ctx.IsEquivalent(sArg, tArg) {
					args[i] = sArg
				} else {
					return NewUnion(s, t)
				}
			}
		}
		return NewInstance(s.Class, args...)
	}
	for _, base := range ctx.mro(s.Class) {
		if base == objectClass {
			continue
		}
		tBase, ok := ctx.mapInstanceToSupertype(t, base)
		if !ok {
			continue
		}
		sBase, _ := ctx.mapInstanceToSupertype(s, base)
		return ctx.joinInstances(sBase, tBase)
	}
	return NewUnion(s, t)
}

func (ctx *TypeCtx) joinCallables(s, t *Callable) Type {
	ret := ctx.join(s.Ret, t.Ret)
	if s.AnyArgs || t.AnyArgs {
		return &Callable{AnyArgs: true, Ret: ret}
	}
	if len(s.Args) != len(t.Args) {
		return NewUnion(s, t)
	}
	args := make([]Type, len(s.Args))
	for i := range s.Args {
		args[i] = ctx.meet(s.Args[i], t.Args[i])
	}
	return NewCallable(args, ret)
}

// simplifiedUnion is the union of ts where members that are proper subtypes of
// another member are left out
func (ctx *TypeCtx) simplifiedUnion(ts ...Type) Type {
	union, ok := NewUnion(ts...).(*Union)
	if !ok {
		return NewUnion(ts...)
	}
	kept := make([]Type, 0, len(union.Items))
	for i, item := range union.Items {
		subsumed := false
		for j, other := range union.Items {
			if i == j || isAny(other) || isAliasLike(other) || isAliasLike(item) {
				continue
			}
			if ctx.IsProperSubtype(item, other) && !ctx.IsProperSubtype(other, item) {
				subsumed = true
				break
			}
		}
		if !subsumed {
			kept = append(kept, item)
		}
	}
	return NewUnion(kept...)
}
