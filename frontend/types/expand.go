package types

import (
	"github.com/cottand/tyre/frontend/ast"
	"github.com/cottand/tyre/frontend/ilerr"
)

// Expand returns the type ref stands for. Arguments are bound positionally to the
// alias parameters. A recursive alias is unrolled a single layer: its nested references
// stay as AliasRef, or become a SelfRef when they repeat ref itself.
// Nested references to non-recursive aliases are inlined.
func (ctx *TypeCtx) Expand(ref *AliasRef) Type {
	return ctx.expand(ref, NewRecursionGuard(), ast.Range{}, ctx.reporter())
}

// reporter returns a func that adds errors straight to ctx
func (ctx *TypeCtx) reporter() func(ilerr.IleError) {
	return func(err ilerr.IleError) {
		ctx.addError(ilerr.New(err))
	}
}

func (ctx *TypeCtx) expand(ref *AliasRef, guard *RecursionGuard, at ast.Positioner, report func(ilerr.IleError)) Type {
	def, ok := ctx.Aliases.definition(ref.Alias)
	if !ok {
		ctx.addFailure("expanding unknown alias "+ref.Name, at)
		return Any
	}
	if !def.Resolved {
		ctx.addFailure("expanding alias "+def.Fullname+" before it was resolved", at)
		return Any
	}
	if def.Invalid {
		return def.Target
	}
	args, ok := ctx.aliasArgs(def, ref.Args, at, report)
	if !ok {
		return Any
	}
	if def.NoArgs {
		target, isInstance := def.Target.(*Instance)
		if !isInstance {
			ctx.addFailure("alias without arguments does not target a class", at)
			return Any
		}
		return NewInstance(target.Class, args...)
	}

	applied := &AliasRef{Alias: ref.Alias, Name: ref.Name, Args: args}
	if !guard.enter(applied) {
		return &SelfRef{Ref: applied}
	}
	defer guard.leave(applied)

	expanded := Substitute(def.Target, def.bindings(args), guard)
	ctx.logger.Debug("expanded alias", "alias", applied, "expanded", expanded)
	return ctx.inlineAliases(expanded, guard, at, report)
}

// inlineAliases replaces references to non-recursive aliases in t by their expansion
func (ctx *TypeCtx) inlineAliases(t Type, guard *RecursionGuard, at ast.Positioner, report func(ilerr.IleError)) Type {
	inline := func(t Type) Type { return ctx.inlineAliases(t, guard, at, report) }
	switch t := t.(type) {
	case *SelfRef:
		return t
	case *AliasRef:
		ref := t.doMap(inline).(*AliasRef)
		def, ok := ctx.Aliases.definition(ref.Alias)
		if ok && def.Recursive {
			return ref
		}
		return ctx.expand(ref, guard, at, report)
	default:
		return t.doMap(inline)
	}
}

// aliasArgs checks args against the parameters of def.
// A bare reference to a generic alias gets Any for every parameter.
func (ctx *TypeCtx) aliasArgs(def *AliasDefinition, args []Type, at ast.Positioner, report func(ilerr.IleError)) ([]Type, bool) {
	expected := ctx.arity(def)
	switch {
	case len(args) == expected:
		return args, true
	case len(args) == 0:
		if ctx.settings.DisallowAnyGenerics {
			report(ilerr.NewMissingTypeParameters{Positioner: ast.RangeOf(at), Name: def.Name})
		}
		filled := make([]Type, expected)
		for i := range filled {
			filled[i] = Any
		}
		return filled, true
	default:
		report(ilerr.NewAliasArgumentCount{Positioner: ast.RangeOf(at), Expected: expected, Given: len(args)})
		return nil, false
	}
}

// arity is the number of arguments a reference to def must carry
func (ctx *TypeCtx) arity(def *AliasDefinition) int {
	if !def.Resolved {
		return len(def.stmt.Params)
	}
	if def.NoArgs {
		if target, ok := def.Target.(*Instance); ok {
			if info, ok := ctx.classes[target.Class]; ok {
				return len(info.Params)
			}
		}
	}
	return len(def.Params)
}
