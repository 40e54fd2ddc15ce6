package types

import (
	"github.com/cottand/tyre/util"
	"github.com/hashicorp/go-set/v3"
)

const (
	objectClass   = "object"
	noneClass     = "None"
	typeClass     = "type"
	functionClass = "function"
	tupleClass    = "tuple"
)

// ClassInfo is a nominal class. Bases are instances over the class' own Params,
// and Promote lists the classes this one is implicitly convertible to (`int` to `float`).
type ClassInfo struct {
	Name    string
	Params  []*TypeVarRef
	Bases   []*Instance
	Promote []string
}

// bindings maps the class parameters to args, filling missing arguments with Any
func (c *ClassInfo) bindings(args []Type) map[TypeVarID]Type {
	bound := make(map[TypeVarID]Type, len(c.Params))
	for i, param := range c.Params {
		if i < len(args) {
			bound[param.ID] = args[i]
		} else {
			bound[param.ID] = Any
		}
	}
	return bound
}

// builtinClasses are the classes every module can refer to without declaring them
func (f *Fresher) builtinClasses() map[string]*ClassInfo {
	object := NewInstance(objectClass)
	classes := make(map[string]*ClassInfo)
	simple := func(name string, base *Instance, promote ...string) {
		classes[name] = &ClassInfo{Name: name, Bases: []*Instance{base}, Promote: promote}
	}
	generic := func(name string, variances []Variance, bases func(params []Type) []*Instance) {
		info := &ClassInfo{Name: name}
		params := make([]Type, len(variances))
		for i, v := range variances {
			tv := f.NewTypeVarRef(name+"#"+string(rune('T'+i)), v, nil)
			info.Params = append(info.Params, tv)
			params[i] = tv
		}
		info.Bases = bases(params)
		classes[name] = info
	}
	classes[objectClass] = &ClassInfo{Name: objectClass}
	simple("int", object, "float")
	simple("float", object, "complex")
	simple("complex", object)
	simple("bool", NewInstance("int"))
	simple("bytes", object)
	simple(noneClass, object)
	simple(typeClass, object)
	simple(functionClass, object)

	co, inv := []Variance{Covariant}, []Variance{Invariant}
	generic("Iterable", co, func([]Type) []*Instance { return []*Instance{object} })
	generic("Sequence", co, func(ps []Type) []*Instance { return []*Instance{NewInstance("Iterable", ps...)} })
	generic("list", inv, func(ps []Type) []*Instance { return []*Instance{NewInstance("Sequence", ps...)} })
	generic(tupleClass, co, func(ps []Type) []*Instance { return []*Instance{NewInstance("Sequence", ps...)} })
	generic("set", inv, func(ps []Type) []*Instance { return []*Instance{NewInstance("Iterable", ps...)} })
	generic("frozenset", co, func(ps []Type) []*Instance { return []*Instance{NewInstance("Iterable", ps...)} })
	generic("Mapping", []Variance{Invariant, Covariant}, func(ps []Type) []*Instance {
		return []*Instance{NewInstance("Iterable", ps[0])}
	})
	generic("dict", []Variance{Invariant, Invariant}, func(ps []Type) []*Instance {
		return []*Instance{NewInstance("Mapping", ps...)}
	})
	classes["str"] = &ClassInfo{Name: "str", Bases: []*Instance{NewInstance("Sequence", NewInstance("str"))}}
	return classes
}

// mapInstanceToSupertype views t as an instance of the class named super,
// or returns false when super is not among its bases
func (ctx *TypeCtx) mapInstanceToSupertype(t *Instance, super string) (*Instance, bool) {
	if t.Class == super {
		return t, true
	}
	visited := set.New[string](4)
	var stack util.Stack[*Instance]
	stack.Push(t)
	for stack.Len() > 0 {
		current, _ := stack.Pop()
		if !visited.Insert(current.Class) {
			continue
		}
		info, ok := ctx.classes[current.Class]
		if !ok {
			continue
		}
		bindings := info.bindings(current.Args)
		for _, base := range info.Bases {
			mapped, ok := Substitute(base, bindings, nil).(*Instance)
			if !ok {
				ctx.addFailure("base class did not substitute to an instance", nil)
				continue
			}
			if mapped.Class == super {
				return mapped, true
			}
			stack.Push(mapped)
		}
	}
	return nil, false
}

// mro returns the names of class and all its ancestors, nearest first
func (ctx *TypeCtx) mro(class string) []string {
	var order []string
	visited := set.New[string](4)
	queue := []string{class}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if !visited.Insert(current) {
			continue
		}
		order = append(order, current)
		if info, ok := ctx.classes[current]; ok {
			for _, base := range info.Bases {
				queue = append(queue, base.Class)
			}
		}
	}
	return order
}

func (ctx *TypeCtx) promotesTo(class, target string) bool {
	visited := set.New[string](2)
	queue := []string{class}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if !visited.Insert(current) {
			continue
		}
		info, ok := ctx.classes[current]
		if !ok {
			continue
		}
		for _, promoted := range info.Promote {
			if promoted == target {
				return true
			}
			queue = append(queue, promoted)
		}
	}
	return false
}

// Class returns a copy of the named class, if known
func (ctx *TypeCtx) Class(name string) (ClassInfo, bool) {
	info, ok := ctx.classes[name]
	if !ok {
		return ClassInfo{}, false
	}
	return *info, true
}
