package types

import (
	"fmt"
	"strings"

	"github.com/cottand/tyre/frontend/ast"
	"github.com/cottand/tyre/frontend/ilerr"
	"github.com/hashicorp/go-set/v3"
)

// typeAnalyzer turns an ast.Type into a Type.
// Errors are buffered until flush, because an attempt to resolve an alias can be
// abandoned and retried later, and only the final attempt may report.
type typeAnalyzer struct {
	ctx    *TypeCtx
	scope  ast.Scope
	owner  string
	params map[string]*TypeVarRef

	// resolving is set while aliases are being resolved: references to aliases are then
	// kept as AliasRef so that cycles between them can be classified afterwards
	resolving bool
	// allowBareGeneric suppresses the missing type parameters error on bare generic classes
	allowBareGeneric bool

	// deferred are the unresolved aliases this analysis could not proceed without
	deferred *set.Set[AliasID]
	errs     []ilerr.IleError
}

func newTypeAnalyzer(ctx *TypeCtx, scope ast.Scope, owner string) *typeAnalyzer {
	return &typeAnalyzer{
		ctx:      ctx,
		scope:    scope,
		owner:    owner,
		params:   make(map[string]*TypeVarRef),
		deferred: set.New[AliasID](0),
	}
}

func (a *typeAnalyzer) report(err ilerr.IleError) {
	a.errs = append(a.errs, ilerr.New(err))
}

func (a *typeAnalyzer) flush() {
	for _, err := range a.errs {
		a.ctx.addError(err)
	}
	a.errs = nil
}

// AnalyzeType resolves an annotation appearing at module scope, after ResolveAll.
// Errors are added to ctx.
func (ctx *TypeCtx) AnalyzeType(t ast.Type) Type {
	a := newTypeAnalyzer(ctx, ast.ScopeModule, "")
	ret := a.analyze(t)
	if !a.deferred.Empty() {
		ctx.addFailure("annotation refers to aliases that were never resolved", t)
	}
	a.flush()
	return ret
}

func (a *typeAnalyzer) analyze(t ast.Type) Type {
	switch t := t.(type) {
	case *ast.TypeName:
		return a.analyzeName(t.Name, nil, false, t)
	case *ast.AppliedType:
		return a.analyzeName(t.Base.Name, t.Args, true, t)
	case *ast.ForwardRef:
		return a.analyze(t.Inner)
	case *ast.TypeList:
		a.report(ilerr.NewInvalidAnnotation{Positioner: t, Message: fmt.Sprintf("Bracketed expression %q is not valid as a type", "[...]")})
		return Any
	case *ast.Ellipsis:
		a.report(ilerr.NewInvalidAnnotation{Positioner: t, Message: `Unexpected "..."`})
		return Any
	default:
		a.ctx.addFailure(fmt.Sprintf("unexpected annotation node %T", t), t)
		return Any
	}
}

func (a *typeAnalyzer) analyzeAll(ts []ast.Type) []Type {
	analyzed := make([]Type, len(ts))
	for i, t := range ts {
		analyzed[i] = a.analyze(t)
	}
	return analyzed
}

var builtinModulePrefixes = []string{"typing.", "typing_extensions.", "builtins."}

func stripModule(name string) string {
	for _, prefix := range builtinModulePrefixes {
		if stripped, ok := strings.CutPrefix(name, prefix); ok {
			return stripped
		}
	}
	return name
}

// analyzeName looks name up as a type parameter, then as an alias (innermost scope
// first), then as a class, and finally as a special form
func (a *typeAnalyzer) analyzeName(name string, args []ast.Type, applied bool, at ast.Type) Type {
	if tv, ok := a.params[name]; ok {
		if applied {
			a.report(ilerr.NewInvalidAnnotation{Positioner: at, Message: fmt.Sprintf("Type variable %q is not subscriptable", name)})
		}
		return tv
	}
	if id, ok := a.ctx.Aliases.lookup(name, a.owner); ok {
		return a.analyzeAlias(id, args, at)
	}
	short := stripModule(name)
	isSpecialClass := applied && (short == tupleClass || short == typeClass)
	if info, ok := a.ctx.classes[short]; ok && !isSpecialClass {
		return a.instance(info, a.analyzeAll(args), applied, at)
	}
	if special, ok := specialForms[short]; ok {
		return special(a, args, applied, at)
	}
	a.report(ilerr.NewUndefinedName{Positioner: at, Name: name})
	return Any
}

// placeholdersAllowed reports whether a reference to the unresolved def may be kept
// as an AliasRef, to be checked once every alias is resolved
func (a *typeAnalyzer) placeholdersAllowed(def *AliasDefinition) bool {
	return a.resolving &&
		a.ctx.settings.EnableRecursiveAliases &&
		a.scope != ast.ScopeFunction &&
		def.Scope != ast.ScopeFunction
}

func (a *typeAnalyzer) analyzeAlias(id AliasID, argsAst []ast.Type, at ast.Type) Type {
	def, _ := a.ctx.Aliases.definition(id)
	args := a.analyzeAll(argsAst)
	if !def.Resolved {
		if !a.placeholdersAllowed(def) {
			a.deferred.Insert(id)
			return Any
		}
		if len(def.stmt.Params) == 0 {
			// arguments may be forwarded to a class once the target is known
			return NewAliasRef(id, def.Name, args...)
		}
	}
	checked, ok := a.ctx.aliasArgs(def, args, at, a.report)
	if !ok {
		return Any
	}
	ref := NewAliasRef(id, def.Name, checked...)
	if a.resolving || def.Recursive {
		return ref
	}
	return a.ctx.expand(ref, NewRecursionGuard(), at, a.report)
}

func anys(n int) []Type {
	filled := make([]Type, n)
	for i := range filled {
		filled[i] = Any
	}
	return filled
}

func pluralArgs(n int) string {
	if n == 1 {
		return "1 type argument"
	}
	return fmt.Sprintf("%d type arguments", n)
}

func (a *typeAnalyzer) instance(info *ClassInfo, args []Type, applied bool, at ast.Type) Type {
	expected := len(info.Params)
	switch {
	case !applied && expected > 0:
		if a.ctx.settings.DisallowAnyGenerics && !a.allowBareGeneric {
			a.report(ilerr.NewMissingTypeParameters{Positioner: at, Name: info.Name})
		}
		return NewInstance(info.Name, anys(expected)...)
	case len(args) != expected:
		a.report(ilerr.NewInvalidAnnotation{
			Positioner: at,
			Message:    fmt.Sprintf("%q expects %s, but %d given", info.Name, pluralArgs(expected), len(args)),
		})
		return NewInstance(info.Name, anys(expected)...)
	default:
		return NewInstance(info.Name, args...)
	}
}

type specialForm func(a *typeAnalyzer, args []ast.Type, applied bool, at ast.Type) Type

var specialForms map[string]specialForm

func init() {
	specialForms = map[string]specialForm{
		"Any":       func(*typeAnalyzer, []ast.Type, bool, ast.Type) Type { return Any },
		"NoReturn":  func(*typeAnalyzer, []ast.Type, bool, ast.Type) Type { return Never },
		"Never":     func(*typeAnalyzer, []ast.Type, bool, ast.Type) Type { return Never },
		"Union":     analyzeUnion,
		"Optional":  analyzeOptional,
		"Callable":  analyzeCallable,
		"Tuple":     analyzeTuple,
		tupleClass:  analyzeTuple,
		"Type":      analyzeTypeOfType,
		typeClass:   analyzeTypeOfType,
		"List":      aliasOfClass("list"),
		"Dict":      aliasOfClass("dict"),
		"Set":       aliasOfClass("set"),
		"FrozenSet": aliasOfClass("frozenset"),
	}
}

func aliasOfClass(class string) specialForm {
	return func(a *typeAnalyzer, args []ast.Type, applied bool, at ast.Type) Type {
		info, ok := a.ctx.classes[class]
		if !ok {
			a.ctx.addFailure("builtin class "+class+" is missing", at)
			return Any
		}
		return a.instance(info, a.analyzeAll(args), applied, at)
	}
}

func analyzeUnion(a *typeAnalyzer, args []ast.Type, applied bool, at ast.Type) Type {
	if !applied {
		a.report(ilerr.NewInvalidAnnotation{Positioner: at, Message: `Variable "typing.Union" is not valid as a type`})
		return Any
	}
	return NewUnion(a.analyzeAll(args)...)
}

func analyzeOptional(a *typeAnalyzer, args []ast.Type, applied bool, at ast.Type) Type {
	if len(args) != 1 {
		a.report(ilerr.NewInvalidAnnotation{Positioner: at, Message: "Optional[...] must have exactly one type argument"})
		return Any
	}
	return NewUnion(a.analyze(args[0]), NewInstance(noneClass))
}

func analyzeCallable(a *typeAnalyzer, args []ast.Type, applied bool, at ast.Type) Type {
	if !applied {
		return &Callable{AnyArgs: true, Ret: Any}
	}
	if len(args) != 2 {
		a.report(ilerr.NewInvalidAnnotation{Positioner: at, Message: `Please use "Callable[[<parameters>], <return type>]" or "Callable"`})
		return &Callable{AnyArgs: true, Ret: Any}
	}
	ret := a.analyze(args[1])
	switch params := args[0].(type) {
	case *ast.TypeList:
		return NewCallable(a.analyzeAll(params.Items), ret)
	case *ast.Ellipsis:
		return &Callable{AnyArgs: true, Ret: ret}
	default:
		a.report(ilerr.NewInvalidAnnotation{
			Positioner: params,
			Message:    `The first argument to Callable must be a list of types, parameter specification, or "..."`,
		})
		return &Callable{AnyArgs: true, Ret: ret}
	}
}

func analyzeTuple(a *typeAnalyzer, args []ast.Type, applied bool, at ast.Type) Type {
	if !applied {
		return NewInstance(tupleClass, Any)
	}
	if len(args) == 2 {
		if _, ok := args[1].(*ast.Ellipsis); ok {
			return NewInstance(tupleClass, a.analyze(args[0]))
		}
	}
	return NewTuple(a.analyzeAll(args)...)
}

func analyzeTypeOfType(a *typeAnalyzer, args []ast.Type, applied bool, at ast.Type) Type {
	if !applied {
		return NewTypeOfType(Any)
	}
	if len(args) != 1 {
		a.report(ilerr.NewInvalidAnnotation{Positioner: at, Message: "Type[...] must have exactly one type argument"})
		return NewTypeOfType(Any)
	}
	return NewTypeOfType(a.analyze(args[0]))
}
