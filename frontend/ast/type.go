package ast

import (
	"strconv"
	"strings"
)

// Type is a type annotation as written by the user, before any name in it is resolved.
// It is produced by the front end (or by parser.ParseType for annotation strings)
// and turned into a types.Type during semantic analysis.
type Type interface {
	Positioner
	String() string
	isType()
}

var (
	_ Type = (*TypeName)(nil)
	_ Type = (*AppliedType)(nil)
	_ Type = (*TypeList)(nil)
	_ Type = (*Ellipsis)(nil)
	_ Type = (*ForwardRef)(nil)
)

// TypeName is a possibly dotted name, like `int`, `T` or `typing.Sequence`
type TypeName struct {
	Name string
	Range
}

func (*TypeName) isType()          {}
func (n *TypeName) String() string { return n.Name }

// AppliedType is a subscripted name, like `Sequence[int]` or `Callable[[int], str]`
type AppliedType struct {
	Base TypeName
	Args []Type
	Range
}

func (*AppliedType) isType() {}
func (t *AppliedType) String() string {
	return t.Base.Name + "[" + joinTypes(t.Args) + "]"
}

// TypeList is a bracketed list of types which is only valid as the first argument of Callable
type TypeList struct {
	Items []Type
	Range
}

func (*TypeList) isType()          {}
func (t *TypeList) String() string { return "[" + joinTypes(t.Items) + "]" }

// Ellipsis is `...`, as found in `Tuple[int, ...]` or `Callable[..., int]`
type Ellipsis struct {
	Range
}

func (*Ellipsis) isType()        {}
func (*Ellipsis) String() string { return "..." }

// ForwardRef is a quoted annotation, like `"Node"`, whose contents are parsed lazily
type ForwardRef struct {
	Inner Type
	Range
}

func (*ForwardRef) isType()          {}
func (t *ForwardRef) String() string { return strconv.Quote(t.Inner.String()) }

func joinTypes(ts []Type) string {
	strs := make([]string, len(ts))
	for i, t := range ts {
		strs[i] = t.String()
	}
	return strings.Join(strs, ", ")
}

// Names returns every TypeName mentioned in t, in order of appearance
func Names(t Type) []*TypeName {
	var names []*TypeName
	var visit func(Type)
	visit = func(t Type) {
		switch t := t.(type) {
		case *TypeName:
			names = append(names, t)
		case *AppliedType:
			names = append(names, &t.Base)
			for _, arg := range t.Args {
				visit(arg)
			}
		case *TypeList:
			for _, item := range t.Items {
				visit(item)
			}
		case *ForwardRef:
			visit(t.Inner)
		}
	}
	visit(t)
	return names
}
