package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	testCases := []struct {
		s, t     string
		expected string
	}{
		{"int", "int", "int"},
		{"int", "Any", "Any"},
		{"Any", "str", "Any"},
		{"int", "Never", "int"},
		{"Never", "str", "str"},
		{"int", "str", "Union[int, str]"},
		{"bool", "int", "int"},
		{"int", "bool", "int"},
		{"int", "float", "float"},
		{"int", "object", "object"},
		{"None", "int", "Union[None, int]"},
		{"Union[int, str]", "bool", "Union[int, str]"},
		{"Union[int, str]", "bytes", "Union[int, str, bytes]"},
		{"Union[bool, str]", "int", "Union[str, int]"},
		{"list[int]", "list[str]", "Union[list[int], list[str]]"},
		{"list[int]", "list[Any]", "list[Any]"},
		{"Sequence[int]", "Sequence[str]", "Sequence[Union[int, str]]"},
		{"list[int]", "Sequence[str]", "Sequence[Union[int, str]]"},
		{"list[int]", "tuple[str]", "Sequence[Union[int, str]]"},
		{"dict[str, int]", "list[str]", "Iterable[str]"},
		{"dict[str, bool]", "Mapping[str, int]", "Mapping[str, int]"},
		{"Mapping[str, bool]", "Mapping[str, bytes]", "Mapping[str, Union[bool, bytes]]"},
		{"Tuple[int, str]", "Tuple[str, int]", "Tuple[Union[int, str], Union[str, int]]"},
		{"Tuple[bool, str]", "Tuple[int, str]", "Tuple[int, str]"},
		{"Tuple[int]", "Tuple[int, int]", "tuple[int]"},
		{"Tuple[int, str]", "list[bytes]", "Sequence[Union[int, str, bytes]]"},
		{"Type[bool]", "Type[str]", "Type[Union[bool, str]]"},
		{"Type[bool]", "Type[int]", "Type[int]"},
		{"Callable[[int], int]", "Callable[[int], str]", "Callable[[int], Union[int, str]]"},
		{"Callable[[int], int]", "Callable[[bool], int]", "Callable[[bool], int]"},
		{"Callable[[int], int]", "Callable[[int, int], int]", "Union[Callable[[int], int], Callable[[int, int], int]]"},
		{"Callable[..., str]", "Callable[[int], int]", "Callable[..., Union[str, int]]"},
		{"Callable[[int], int]", "int", "Union[Callable[[int], int], int]"},
	}
	for _, tc := range testCases {
		t.Run(tc.s+" v "+tc.t, func(t *testing.T) {
			ctx := resolved(t, Settings{})
			s, other := typeOf(t, ctx, tc.s), typeOf(t, ctx, tc.t)
			assert.Equal(t, tc.expected, ctx.Join(s, other).String())
			requireNoFailures(t, ctx)
		})
	}
}

func TestJoinList(t *testing.T) {
	ctx := resolved(t, Settings{})
	assert.Equal(t, Uninhabited, ctx.JoinList(nil))
	assert.Equal(t, "int", ctx.JoinList([]Type{intT}).String())
	assert.Equal(t, "float", ctx.JoinList([]Type{boolT, intT, floatT}).String())
	assert.Equal(t, "Union[int, str, None]", ctx.JoinList([]Type{intT, strT, noneT, boolT}).String())
}

// sampleTypes covers every kind of type, for the algebraic properties of join and meet
var sampleTypes = []string{
	"int", "bool", "str", "bytes", "object", "None", "Any", "Never",
	"list[int]", "list[str]", "list[Any]", "Sequence[int]", "Sequence[object]",
	"dict[str, int]", "Mapping[str, object]",
	"Tuple[int, str]", "Tuple[str, int]", "Tuple[bool]", "tuple[int]",
	"Optional[int]", "Union[int, str]", "Union[bool, bytes]",
	"Callable[[int], str]", "Callable[[object], bool]", "Callable[..., int]",
	"Type[int]", "Type[bool]", "type",
}

func samples(t *testing.T, ctx *TypeCtx) []Type {
	ts := make([]Type, len(sampleTypes))
	for i, src := range sampleTypes {
		ts[i] = typeOf(t, ctx, src)
	}
	require.Empty(t, messages(ctx))
	return ts
}

func TestJoinIsAnUpperBound(t *testing.T) {
	ctx := resolved(t, Settings{})
	ts := samples(t, ctx)
	for _, s := range ts {
		for _, other := range ts {
			joined := ctx.Join(s, other)
			assert.True(t, ctx.IsSubtype(s, joined), "%s should be a subtype of %s v %s = %s", s, s, other, joined)
			assert.True(t, ctx.IsSubtype(other, joined), "%s should be a subtype of %s v %s = %s", other, s, other, joined)
			assert.True(t, ctx.IsEquivalent(joined, ctx.Join(other, s)), "%s v %s should commute", s, other)
		}
	}
	requireNoFailures(t, ctx)
}

func TestJoinOfRecursiveAliases(t *testing.T) {
	ctx := resolved(t, recursiveAliases, aliasStmt(t, "Nested", "Sequence[Union[T, Nested[T]]]", "T"))
	nestedInt, nestedObj := typeOf(t, ctx, "Nested[int]"), typeOf(t, ctx, "Nested[object]")

	assert.Equal(t, nestedObj, ctx.Join(nestedInt, nestedObj))
	assert.Equal(t, nestedObj, ctx.Join(nestedObj, nestedInt))
	assert.Equal(t, "Union[Nested[int], bytes]", ctx.Join(nestedInt, bytesT).String())
	assert.Equal(t, nestedInt, ctx.Join(nestedInt, NewInstance("Sequence", intT)))
	requireNoFailures(t, ctx)
}
