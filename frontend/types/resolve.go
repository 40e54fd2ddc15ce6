package types

import (
	"slices"

	"github.com/cottand/tyre/frontend/ast"
	"github.com/cottand/tyre/frontend/ilerr"
	"github.com/cottand/tyre/util"
	"github.com/hashicorp/go-set/v3"
)

// The fixpoint over pending aliases runs at most
// max(minResolvePasses, resolvePassFactor * number of pending aliases) passes.
// Every pass that makes progress resolves at least one alias, so the bound only
// matters for input that keeps deferring.
const (
	minResolvePasses  = 3
	resolvePassFactor = 2
)

// ResolveAll resolves every registered alias, classifies the cycles between them,
// and freezes the registry. Problems are reported on ctx and the offending aliases
// degrade to Any (or Type[Any]); no alias is left unresolved.
func (ctx *TypeCtx) ResolveAll() {
	registry := ctx.Aliases
	if registry.Frozen() {
		ctx.addFailure("aliases were already resolved", nil)
		return
	}
	pending := ctx.pendingAliases()
	for len(pending) > 0 {
		pending = ctx.resolvePasses(pending)
		if len(pending) == 0 {
			break
		}
		ctx.rejectUnresolvable(pending)
		pending = ctx.pendingAliases()
	}
	ctx.classifyCycles()
	ctx.inlineTargets()
	registry.freeze()
	ctx.logger.Debug("resolved aliases", "count", registry.Len())
}

func (ctx *TypeCtx) pendingAliases() []AliasID {
	var pending []AliasID
	for _, def := range ctx.Aliases.defs {
		if !def.Resolved {
			pending = append(pending, def.ID)
		}
	}
	return pending
}

// resolvePasses retries pending aliases until they are all resolved, a pass makes
// no progress, or the pass bound is hit. It returns the aliases still pending.
func (ctx *TypeCtx) resolvePasses(pending []AliasID) []AliasID {
	bound := max(minResolvePasses, resolvePassFactor*len(pending))
	for pass := 0; pass < bound && len(pending) > 0; pass++ {
		var next []AliasID
		for _, id := range pending {
			def, _ := ctx.Aliases.definition(id)
			if !ctx.attemptAlias(def) {
				next = append(next, id)
			}
		}
		progressed := len(next) < len(pending)
		pending = next
		ctx.logger.Debug("alias resolution pass", "pass", pass, "pending", len(pending))
		if !progressed {
			break
		}
	}
	return pending
}

// attemptAlias analyses the target of def, and returns false if it refers to
// aliases that are not resolved yet. A failed attempt leaves no trace apart from
// def.waitingOn.
func (ctx *TypeCtx) attemptAlias(def *AliasDefinition) bool {
	stmt := def.stmt
	a := newTypeAnalyzer(ctx, def.Scope, def.Owner)
	a.resolving = true

	params := make([]*TypeVarRef, len(stmt.Params))
	for i, param := range stmt.Params {
		params[i] = ctx.fresher.NewTypeVarRef(param.Name, param.Variance, nil)
		a.params[param.Name] = params[i]
	}
	for i, param := range stmt.Params {
		if param.Bound != nil {
			params[i].Bound = a.analyze(param.Bound)
		}
	}
	noArgs := len(stmt.Params) == 0 && a.isBareGenericClass(stmt.Target)
	a.allowBareGeneric = noArgs
	target := a.analyze(stmt.Target)

	if !a.deferred.Empty() {
		def.waitingOn = a.deferred
		ctx.logger.Debug("deferred alias", "alias", def.Fullname, "waitingOn", a.deferred.String())
		return false
	}
	def.Params = params
	def.Target = target
	def.NoArgs = noArgs
	def.Resolved = true
	def.waitingOn = nil
	a.flush()
	return true
}

// isBareGenericClass reports whether t names a generic class without arguments
func (a *typeAnalyzer) isBareGenericClass(t ast.Type) bool {
	name, ok := t.(*ast.TypeName)
	if !ok {
		return false
	}
	if _, isParam := a.params[name.Name]; isParam {
		return false
	}
	if _, isAlias := a.ctx.Aliases.lookup(name.Name, a.owner); isAlias {
		return false
	}
	short := stripModule(name.Name)
	if special, ok := specialClassNames[short]; ok {
		short = special
	}
	info, ok := a.ctx.classes[short]
	return ok && len(info.Params) > 0
}

var specialClassNames = map[string]string{
	"List":      "list",
	"Dict":      "dict",
	"Set":       "set",
	"FrozenSet": "frozenset",
}

// rejectUnresolvable gives up on the pending aliases that wait on each other.
// They are reported and become Any, so that whatever depends on them can be retried.
func (ctx *TypeCtx) rejectUnresolvable(pending []AliasID) {
	pendingSet := set.From(pending)
	succ := func(id AliasID) []AliasID {
		def, _ := ctx.Aliases.definition(id)
		if def.waitingOn == nil {
			return nil
		}
		var next []AliasID
		for _, dep := range util.SortedFromSet(def.waitingOn) {
			if pendingSet.Contains(dep) {
				next = append(next, dep)
			}
		}
		return next
	}
	var rejected []AliasID
	for _, component := range stronglyConnected(pending, succ) {
		if isCyclic(component, succ) {
			rejected = append(rejected, component...)
		}
	}
	if len(rejected) == 0 {
		// nothing cyclic is left, but nothing resolves either
		rejected = pending
	}
	slices.Sort(rejected)
	for _, id := range rejected {
		def, _ := ctx.Aliases.definition(id)
		ctx.addError(ilerr.New(ilerr.NewCannotResolveName{Positioner: def.Range, Name: def.Name}))
		if def.Scope == ast.ScopeFunction {
			ctx.addError(ilerr.New(ilerr.NewRecursiveAliasAtFunctionScope{Positioner: def.Range}))
		}
		ctx.invalidate(def, Any)
	}
}

func (ctx *TypeCtx) invalidate(def *AliasDefinition, fallback Type) {
	params := make([]*TypeVarRef, len(def.stmt.Params))
	for i, param := range def.stmt.Params {
		params[i] = ctx.fresher.NewTypeVarRef(param.Name, param.Variance, nil)
	}
	def.Params = params
	def.Target = fallback
	def.Resolved = true
	def.Invalid = true
	def.Recursive = false
	def.NoArgs = false
	def.waitingOn = nil
	ctx.logger.Info("alias rejected", "alias", def.Fullname, "fallback", fallback)
}

// inlineTargets expands the references to non-recursive aliases left in the targets
// of resolved aliases, now that it is known which aliases are recursive
func (ctx *TypeCtx) inlineTargets() {
	for _, def := range ctx.Aliases.defs {
		if def.Invalid {
			continue
		}
		def.Target = ctx.inlineAliases(def.Target, NewRecursionGuard(), def.Range, ctx.reporter())
	}
}
