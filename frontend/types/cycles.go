package types

import (
	"slices"

	"github.com/cottand/tyre/frontend/ilerr"
	"github.com/cottand/tyre/util"
	"github.com/hashicorp/go-set/v3"
)

// edgeKind is the position an alias reference occupies in the target of another alias
type edgeKind uint8

const (
	// edgeDirect is the target itself, or a member of a top level union
	edgeDirect edgeKind = iota
	// edgeTypeOf is the argument of a top level Type[...]
	edgeTypeOf
	// edgeContainer is anywhere inside a class argument, a callable or a tuple
	edgeContainer
)

type aliasEdge struct {
	to   AliasID
	kind edgeKind
}

// nested is the position of something at inner, inside something at outer.
// Type[...] nested in Type[...] is no longer at the top level.
func nested(outer, inner edgeKind) edgeKind {
	switch {
	case outer == edgeContainer || inner == edgeContainer:
		return edgeContainer
	case outer == edgeTypeOf && inner == edgeTypeOf:
		return edgeContainer
	default:
		return max(outer, inner)
	}
}

// walkPositions calls visit on every alias reference and type variable in t, with
// the position it occupies. The argument of a generic alias takes the position
// paramKinds gives its parameter in that alias, or edgeContainer when unknown.
func walkPositions(t Type, paramKinds func(AliasID) []edgeKind, visit func(Type, edgeKind)) {
	type item struct {
		t    Type
		kind edgeKind
	}
	var stack util.Stack[item]
	stack.Push(item{t, edgeDirect})
	for stack.Len() > 0 {
		current, _ := stack.Pop()
		switch t := current.t.(type) {
		case *AliasRef:
			visit(t, current.kind)
			kinds := paramKinds(t.Alias)
			for i, arg := range t.Args {
				kind := edgeContainer
				if i < len(kinds) {
					kind = nested(current.kind, kinds[i])
				}
				stack.Push(item{arg, kind})
			}
		case *TypeVarRef:
			visit(t, current.kind)
		case *SelfRef:
			stack.Push(item{t.Ref, current.kind})
		case *Union:
			for _, member := range t.Items {
				stack.Push(item{member, current.kind})
			}
		case *TypeOfType:
			stack.Push(item{t.Item, nested(current.kind, edgeTypeOf)})
		default:
			for child := range t.children() {
				stack.Push(item{child, edgeContainer})
			}
		}
	}
}

// aliasEdges lists the alias references in t, with the position each one occupies
func aliasEdges(t Type, paramKinds func(AliasID) []edgeKind) []aliasEdge {
	var edges []aliasEdge
	walkPositions(t, paramKinds, func(t Type, kind edgeKind) {
		if ref, ok := t.(*AliasRef); ok {
			edges = append(edges, aliasEdge{to: ref.Alias, kind: kind})
		}
	})
	return edges
}

// paramPositions returns the lookup of the position each parameter of an alias has
// in its target. A parameter used in several places takes its least nested one.
// Aliases still being looked at count as containers of their arguments.
func (ctx *TypeCtx) paramPositions() func(AliasID) []edgeKind {
	memo := make(map[AliasID][]edgeKind)
	var paramKinds func(AliasID) []edgeKind
	paramKinds = func(id AliasID) []edgeKind {
		if kinds, ok := memo[id]; ok {
			return kinds
		}
		memo[id] = nil
		def, ok := ctx.Aliases.definition(id)
		if !ok || def.Invalid || def.NoArgs || len(def.Params) == 0 {
			return nil
		}
		index := make(map[TypeVarID]int, len(def.Params))
		kinds := make([]edgeKind, len(def.Params))
		for i, param := range def.Params {
			index[param.ID] = i
			kinds[i] = edgeContainer
		}
		walkPositions(def.Target, paramKinds, func(t Type, kind edgeKind) {
			if ref, ok := t.(*TypeVarRef); ok {
				if i, isParam := index[ref.ID]; isParam {
					kinds[i] = min(kinds[i], kind)
				}
			}
		})
		memo[id] = kinds
		return kinds
	}
	return paramKinds
}

// classifyCycles looks for cycles among resolved aliases. Cycles through a direct union
// member, or through the argument of Type[...] alone, are rejected. Every alias left
// on a cycle is recursive.
func (ctx *TypeCtx) classifyCycles() {
	edges := make(map[AliasID][]aliasEdge)
	var nodes []AliasID
	paramKinds := ctx.paramPositions()
	for _, def := range ctx.Aliases.defs {
		if def.Invalid {
			continue
		}
		nodes = append(nodes, def.ID)
		edges[def.ID] = aliasEdges(def.Target, paramKinds)
	}
	// restricted returns the successors within members through edges of the given kinds
	restricted := func(members *set.Set[AliasID], kinds ...edgeKind) func(AliasID) []AliasID {
		return func(id AliasID) []AliasID {
			var next []AliasID
			for _, e := range edges[id] {
				if members.Contains(e.to) && slices.Contains(kinds, e.kind) {
					next = append(next, e.to)
				}
			}
			return next
		}
	}
	all := []edgeKind{edgeDirect, edgeTypeOf, edgeContainer}

	for _, component := range stronglyConnected(nodes, restricted(set.From(nodes), all...)) {
		members := set.From(component)
		if !isCyclic(component, restricted(members, all...)) {
			continue
		}
		slices.Sort(component)
		ctx.rejectCycles(component, members, restricted(members, edgeDirect), func(def *AliasDefinition) {
			ctx.addError(ilerr.New(ilerr.NewRecursiveUnionItem{Positioner: def.Range, Alias: def.Name}))
			ctx.invalidate(def, Any)
		})
		ctx.rejectCycles(component, members, restricted(members, edgeDirect, edgeTypeOf), func(def *AliasDefinition) {
			ctx.addError(ilerr.New(ilerr.NewNestedTypeOfType{Positioner: def.Range, Alias: def.Name}))
			ctx.invalidate(def, NewTypeOfType(Any))
		})
		remaining := members.Slice()
		slices.Sort(remaining)
		for _, sub := range stronglyConnected(remaining, restricted(members, all...)) {
			if !isCyclic(sub, restricted(members, all...)) {
				continue
			}
			for _, id := range sub {
				def, _ := ctx.Aliases.definition(id)
				def.Recursive = true
				ctx.logger.Debug("alias is recursive", "alias", def.Fullname)
			}
		}
	}
}

// rejectCycles calls reject on every alias of component that is on a cycle of succ,
// and removes it from members
func (ctx *TypeCtx) rejectCycles(component []AliasID, members *set.Set[AliasID], succ func(AliasID) []AliasID, reject func(*AliasDefinition)) {
	var live []AliasID
	for _, id := range component {
		if members.Contains(id) {
			live = append(live, id)
		}
	}
	var rejected []AliasID
	for _, sub := range stronglyConnected(live, succ) {
		if isCyclic(sub, succ) {
			rejected = append(rejected, sub...)
		}
	}
	slices.Sort(rejected)
	for _, id := range rejected {
		def, _ := ctx.Aliases.definition(id)
		reject(def)
		members.Remove(id)
	}
}
