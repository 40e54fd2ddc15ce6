package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"iter"
	"slices"

	"github.com/cottand/tyre/util"
	"github.com/hashicorp/go-set/v3"
)

// Type is an immutable type. New types are built by the constructors in this file
// and by doMap, never by mutating an existing one.
type Type interface {
	fmt.Stringer
	Hash() uint64
	doMap(func(Type) Type) Type
	children() iter.Seq[Type]
}

// Equal can be used to compare Type instances for equality.
// Two types are equal when they hash the same: union hashes ignore member order,
// while tuple and callable hashes do not.
func Equal[H, HH set.Hasher[uint64]](this H, other HH) bool {
	return this.Hash() == other.Hash()
}

var (
	_ Type = (*Instance)(nil)
	_ Type = (*Union)(nil)
	_ Type = (*Callable)(nil)
	_ Type = (*Tuple)(nil)
	_ Type = (*TypeOfType)(nil)
	_ Type = (*TypeVarRef)(nil)
	_ Type = (*AliasRef)(nil)
	_ Type = (*SelfRef)(nil)
	_ Type = AnyType{}
	_ Type = NeverType{}
	_ Type = UninhabitedType{}
)

const (
	kindInstance byte = iota + 1
	kindUnion
	kindCallable
	kindTuple
	kindTypeOfType
	kindTypeVar
	kindAliasRef
	kindSelfRef
	kindAny
	kindNever
	kindUninhabited
)

func hashOf(kind byte, name string, parts ...uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte{kind})
	_, _ = h.Write([]byte(name))
	var buf [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(buf[:], p)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func hashes(ts []Type) []uint64 {
	hs := make([]uint64, len(ts))
	for i, t := range ts {
		hs[i] = t.Hash()
	}
	return hs
}

var emptySeqType iter.Seq[Type] = func(_ func(Type) bool) {}

func mapTypes(ts []Type, f func(Type) Type) []Type {
	if ts == nil {
		return nil
	}
	mapped := make([]Type, len(ts))
	for i, t := range ts {
		mapped[i] = f(t)
	}
	return mapped
}

// AnyType is the dynamic type, compatible in both directions with every other type
type AnyType struct{}

// NeverType is the bottom type as written by the user (`NoReturn`, `Never`)
type NeverType struct{}

// UninhabitedType is the bottom type as produced by the engine, for example by
// an empty union or the meet of unrelated types
type UninhabitedType struct{}

var (
	Any         Type = AnyType{}
	Never       Type = NeverType{}
	Uninhabited Type = UninhabitedType{}
)

func (AnyType) String() string                 { return "Any" }
func (AnyType) Hash() uint64                   { return hashOf(kindAny, "") }
func (t AnyType) doMap(func(Type) Type) Type   { return t }
func (AnyType) children() iter.Seq[Type]       { return emptySeqType }
func (NeverType) String() string               { return "Never" }
func (NeverType) Hash() uint64                 { return hashOf(kindNever, "") }
func (t NeverType) doMap(func(Type) Type) Type { return t }
func (NeverType) children() iter.Seq[Type]     { return emptySeqType }
func (UninhabitedType) String() string         { return "<nothing>" }
func (UninhabitedType) Hash() uint64           { return hashOf(kindUninhabited, "") }
func (t UninhabitedType) doMap(func(Type) Type) Type {
	return t
}
func (UninhabitedType) children() iter.Seq[Type] { return emptySeqType }

func isBottom(t Type) bool {
	switch t.(type) {
	case NeverType, UninhabitedType:
		return true
	}
	return false
}

func isAny(t Type) bool {
	_, ok := t.(AnyType)
	return ok
}

// Instance is a nominal class applied to type arguments, like `list[int]`.
// Args is empty for non-generic classes.
type Instance struct {
	Class string
	Args  []Type
}

func NewInstance(class string, args ...Type) *Instance {
	return &Instance{Class: class, Args: args}
}

func (t *Instance) String() string {
	if len(t.Args) == 0 {
		return t.Class
	}
	return t.Class + "[" + util.JoinString(t.Args, ", ") + "]"
}
func (t *Instance) Hash() uint64             { return hashOf(kindInstance, t.Class, hashes(t.Args)...) }
func (t *Instance) children() iter.Seq[Type] { return slices.Values(t.Args) }
func (t *Instance) doMap(f func(Type) Type) Type {
	return &Instance{Class: t.Class, Args: mapTypes(t.Args, f)}
}

// Union is a set of alternatives. Items keeps the order in which members were first
// seen, which only matters for display.
//
// Construct with NewUnion
type Union struct {
	Items []Type
}

// NewUnion flattens nested unions and drops duplicate members.
// A single remaining member is returned as is, and no members at all give Uninhabited.
func NewUnion(items ...Type) Type {
	seen := set.NewHashSet[Type, uint64](len(items))
	flat := make([]Type, 0, len(items))
	var add func(Type)
	add = func(t Type) {
		switch t := t.(type) {
		case *Union:
			for _, item := range t.Items {
				add(item)
			}
		case UninhabitedType:
		default:
			if seen.Insert(t) {
				flat = append(flat, t)
			}
		}
	}
	for _, item := range items {
		add(item)
	}
	switch len(flat) {
	case 0:
		return Uninhabited
	case 1:
		return flat[0]
	default:
		return &Union{Items: flat}
	}
}

func (t *Union) String() string { return "Union[" + util.JoinString(t.Items, ", ") + "]" }

// Hash does not depend on the order of Items
func (t *Union) Hash() uint64 {
	return hashOf(kindUnion, "", t.sortedHashes()...)
}

func (t *Union) sortedHashes() []uint64 {
	hs := hashes(t.Items)
	slices.Sort(hs)
	return hs
}

func (t *Union) children() iter.Seq[Type] { return slices.Values(t.Items) }
func (t *Union) doMap(f func(Type) Type) Type {
	return NewUnion(mapTypes(t.Items, f)...)
}

// Callable is a function type. When AnyArgs is set the parameters are unchecked,
// as in `Callable[..., int]`, and Args is empty.
type Callable struct {
	Args    []Type
	Ret     Type
	AnyArgs bool
}

func NewCallable(args []Type, ret Type) *Callable {
	return &Callable{Args: args, Ret: ret}
}

func (t *Callable) String() string {
	if t.AnyArgs {
		return "Callable[..., " + t.Ret.String() + "]"
	}
	return "Callable[[" + util.JoinString(t.Args, ", ") + "], " + t.Ret.String() + "]"
}
func (t *Callable) Hash() uint64 {
	name := "fixed"
	if t.AnyArgs {
		name = "variadic"
	}
	return hashOf(kindCallable, name, append(hashes(t.Args), t.Ret.Hash())...)
}
func (t *Callable) children() iter.Seq[Type] {
	return util.ConcatIter(slices.Values(t.Args), util.SingleIter(t.Ret))
}
func (t *Callable) doMap(f func(Type) Type) Type {
	return &Callable{Args: mapTypes(t.Args, f), Ret: f(t.Ret), AnyArgs: t.AnyArgs}
}

// Tuple is a fixed-length tuple. Fallback is the `tuple[...]` instance it behaves as
// when compared against other classes. Variable-length tuples are plain instances of `tuple`.
type Tuple struct {
	Items    []Type
	Fallback *Instance
}

func NewTuple(items ...Type) *Tuple {
	return &Tuple{Items: items, Fallback: NewInstance(tupleClass, NewUnion(items...))}
}

func (t *Tuple) String() string {
	if len(t.Items) == 0 {
		return "Tuple[()]"
	}
	return "Tuple[" + util.JoinString(t.Items, ", ") + "]"
}
func (t *Tuple) Hash() uint64             { return hashOf(kindTuple, "", hashes(t.Items)...) }
func (t *Tuple) children() iter.Seq[Type] { return slices.Values(t.Items) }
func (t *Tuple) doMap(f func(Type) Type) Type {
	items := mapTypes(t.Items, f)
	if t.Fallback == nil {
		return NewTuple(items...)
	}
	fallback, ok := f(t.Fallback).(*Instance)
	if !ok {
		return NewTuple(items...)
	}
	return &Tuple{Items: items, Fallback: fallback}
}

// TypeOfType is `Type[X]`, the type of the class object X
type TypeOfType struct {
	Item Type
}

func NewTypeOfType(item Type) *TypeOfType {
	return &TypeOfType{Item: item}
}

func (t *TypeOfType) String() string           { return "Type[" + t.Item.String() + "]" }
func (t *TypeOfType) Hash() uint64             { return hashOf(kindTypeOfType, "", t.Item.Hash()) }
func (t *TypeOfType) children() iter.Seq[Type] { return util.SingleIter(t.Item) }
func (t *TypeOfType) doMap(f func(Type) Type) Type {
	return &TypeOfType{Item: f(t.Item)}
}

type TypeVarID = uint64

// TypeVarRef is a reference to a type parameter of a class or an alias.
// A nil Bound means object.
//
// Construct with Fresher.NewTypeVarRef
type TypeVarRef struct {
	ID       TypeVarID
	Name     string
	Variance Variance
	Bound    Type
}

func (t *TypeVarRef) String() string           { return t.Name }
func (t *TypeVarRef) Hash() uint64             { return hashOf(kindTypeVar, t.Name, t.ID) }
func (t *TypeVarRef) children() iter.Seq[Type] { return emptySeqType }
func (t *TypeVarRef) doMap(func(Type) Type) Type {
	return t
}

// upperBound is the bound of the variable, or object when it has none
func (t *TypeVarRef) upperBound() Type {
	if t.Bound == nil {
		return NewInstance(objectClass)
	}
	return t.Bound
}

type AliasID = int

// AliasRef is an unexpanded reference to a type alias applied to Args.
// Recursive aliases are kept as AliasRef and only unrolled on demand by TypeCtx.Expand.
type AliasRef struct {
	Alias AliasID
	Name  string
	Args  []Type
}

func NewAliasRef(alias AliasID, name string, args ...Type) *AliasRef {
	return &AliasRef{Alias: alias, Name: name, Args: args}
}

func (t *AliasRef) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	return t.Name + "[" + util.JoinString(t.Args, ", ") + "]"
}
func (t *AliasRef) Hash() uint64 {
	return hashOf(kindAliasRef, t.Name, append([]uint64{uint64(t.Alias)}, hashes(t.Args)...)...)
}
func (t *AliasRef) children() iter.Seq[Type] { return slices.Values(t.Args) }
func (t *AliasRef) doMap(f func(Type) Type) Type {
	return &AliasRef{Alias: t.Alias, Name: t.Name, Args: mapTypes(t.Args, f)}
}

// argsHash identifies the shape of the arguments an alias is applied to
func (t *AliasRef) argsHash() uint64 {
	return hashOf(kindAliasRef, "", hashes(t.Args)...)
}

// SelfRef marks the point where expanding Ref would re-enter an expansion already
// in progress. It stands for Ref itself, and is expanded again only when a comparison
// descends into it.
type SelfRef struct {
	Ref *AliasRef
}

func (t *SelfRef) String() string           { return t.Ref.String() }
func (t *SelfRef) Hash() uint64             { return hashOf(kindSelfRef, "", t.Ref.Hash()) }
func (t *SelfRef) children() iter.Seq[Type] { return emptySeqType }
func (t *SelfRef) doMap(func(Type) Type) Type {
	return t
}

// Walk visits t and every type nested in it, depth first, until visit returns false.
// It does not look inside SelfRef markers nor expand aliases.
func Walk(t Type, visit func(Type) bool) {
	var stack util.Stack[Type]
	stack.Push(t)
	for stack.Len() > 0 {
		current, _ := stack.Pop()
		if !visit(current) {
			return
		}
		children := slices.Collect(current.children())
		for child := range util.Reverse(children) {
			stack.Push(child)
		}
	}
}

// ContainsAny reports whether Any appears anywhere in t
func ContainsAny(t Type) bool {
	found := false
	Walk(t, func(t Type) bool {
		found = isAny(t)
		return !found
	})
	return found
}
