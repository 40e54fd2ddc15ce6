package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	intT   = NewInstance("int")
	strT   = NewInstance("str")
	bytesT = NewInstance("bytes")
	boolT  = NewInstance("bool")
	floatT = NewInstance("float")
	noneT  = NewInstance("None")
	objT   = NewInstance("object")
)

func TestUnionEqualityIgnoresOrder(t *testing.T) {
	a := NewUnion(intT, strT)
	b := NewUnion(strT, intT)

	assert.True(t, Equal(a, b))
	assert.Equal(t, a.Hash(), b.Hash())
	// display keeps the written order
	assert.Equal(t, "Union[int, str]", a.String())
	assert.Equal(t, "Union[str, int]", b.String())
}

func TestNewUnion(t *testing.T) {
	testCases := []struct {
		name     string
		items    []Type
		expected string
	}{
		{name: "no members", items: nil, expected: "<nothing>"},
		{name: "single member collapses", items: []Type{intT}, expected: "int"},
		{name: "duplicates are dropped", items: []Type{intT, strT, NewInstance("int")}, expected: "Union[int, str]"},
		{name: "nested unions flatten", items: []Type{NewUnion(intT, strT), NewUnion(bytesT, intT)}, expected: "Union[int, str, bytes]"},
		{name: "uninhabited members vanish", items: []Type{Uninhabited, intT}, expected: "int"},
		{name: "never is kept", items: []Type{Never, intT}, expected: "Union[Never, int]"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NewUnion(tc.items...).String())
		})
	}
}

func TestOrderedVariantsKeepOrder(t *testing.T) {
	assert.False(t, Equal(NewTuple(intT, strT), NewTuple(strT, intT)))
	assert.False(t, Equal(NewCallable([]Type{intT, strT}, noneT), NewCallable([]Type{strT, intT}, noneT)))
	assert.True(t, Equal(NewTuple(intT, strT), NewTuple(NewInstance("int"), NewInstance("str"))))
}

func TestSameInstancesAreEqual(t *testing.T) {
	a := NewInstance("dict", strT, NewInstance("list", intT))
	b := NewInstance("dict", NewInstance("str"), NewInstance("list", NewInstance("int")))
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, NewInstance("dict", strT, NewInstance("list", strT))))
}

func TestDistinctVariantsDoNotCollide(t *testing.T) {
	ref := NewAliasRef(0, "Nested", intT)
	all := []Type{
		Any, Never, Uninhabited,
		intT,
		NewInstance("list", intT),
		NewTuple(intT),
		NewTypeOfType(intT),
		NewCallable(nil, intT),
		&Callable{AnyArgs: true, Ret: intT},
		ref,
		&SelfRef{Ref: ref},
		NewAliasRef(1, "Nested", intT),
	}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, Equal(a, b), "%s (%T) should differ from %s (%T)", a, a, b, b)
			}
		}
	}
}

func TestString(t *testing.T) {
	fresher := NewFresher()
	tv := fresher.NewTypeVarRef("T", Invariant, nil)
	testCases := []struct {
		typ      Type
		expected string
	}{
		{NewInstance("list", intT), "list[int]"},
		{NewInstance("dict", strT, NewUnion(intT, noneT)), "dict[str, Union[int, None]]"},
		{NewCallable([]Type{intT, strT}, boolT), "Callable[[int, str], bool]"},
		{&Callable{AnyArgs: true, Ret: intT}, "Callable[..., int]"},
		{NewTuple(intT, strT), "Tuple[int, str]"},
		{NewTuple(), "Tuple[()]"},
		{NewTypeOfType(intT), "Type[int]"},
		{tv, "T"},
		{NewAliasRef(3, "Nested", tv), "Nested[T]"},
		{&SelfRef{Ref: NewAliasRef(3, "Nested", intT)}, "Nested[int]"},
		{Any, "Any"},
		{Never, "Never"},
		{Uninhabited, "<nothing>"},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.typ.String())
		})
	}
}

func TestFreshTypeVariablesAreDistinct(t *testing.T) {
	fresher := NewFresher()
	a := fresher.NewTypeVarRef("T", Invariant, nil)
	b := fresher.NewTypeVarRef("T", Invariant, nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, Equal(a, b))
}

func TestSubstitute(t *testing.T) {
	fresher := NewFresher()
	tv := fresher.NewTypeVarRef("T", Invariant, nil)
	other := fresher.NewTypeVarRef("U", Invariant, nil)
	bindings := map[TypeVarID]Type{tv.ID: intT}

	testCases := []struct {
		name     string
		input    Type
		expected string
	}{
		{"variable", tv, "int"},
		{"unbound variable", other, "U"},
		{"instance args", NewInstance("list", tv), "list[int]"},
		{"union members", NewUnion(tv, strT), "Union[int, str]"},
		{"union flattens", NewUnion(tv, intT), "int"},
		{"callable", NewCallable([]Type{tv}, NewTypeOfType(tv)), "Callable[[int], Type[int]]"},
		{"tuple", NewTuple(tv, other), "Tuple[int, U]"},
		{"alias args", NewAliasRef(0, "A", tv), "A[int]"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Substitute(tc.input, bindings, nil).String())
		})
	}
}

func TestSubstituteMarksActiveExpansions(t *testing.T) {
	fresher := NewFresher()
	tv := fresher.NewTypeVarRef("T", Invariant, nil)
	guard := NewRecursionGuard()
	active := NewAliasRef(0, "Nested", intT)
	assert.True(t, guard.enter(active))

	substituted := Substitute(NewInstance("list", NewAliasRef(0, "Nested", tv)), map[TypeVarID]Type{tv.ID: intT}, guard)
	inst := substituted.(*Instance)
	self, isSelf := inst.Args[0].(*SelfRef)
	assert.True(t, isSelf, "expected a self reference, got %T", inst.Args[0])
	assert.True(t, Equal(self.Ref, active))

	// a different argument shape is not the same expansion
	other := Substitute(NewAliasRef(0, "Nested", tv), map[TypeVarID]Type{tv.ID: strT}, guard)
	assert.IsType(t, &AliasRef{}, other)

	guard.leave(active)
	assert.False(t, guard.Active(active))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny(NewInstance("list", NewUnion(intT, Any))))
	assert.False(t, ContainsAny(NewCallable([]Type{intT}, NewTuple(strT))))
}
