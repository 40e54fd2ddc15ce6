package types

import (
	"fmt"
	"testing"

	"github.com/cottand/tyre/frontend/ast"
	"github.com/cottand/tyre/frontend/ilerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	unionItemOfItself  = "Invalid recursive alias: a union item of itself"
	typeInsideType     = "Type[...] cannot contain another Type[...]"
	functionScopeNote  = "Recursive types are not allowed at function scope"
	cannotResolveAlias = "Cannot resolve name %q (possible cyclic definition)"
)

func TestRecursiveAliasThroughContainer(t *testing.T) {
	ctx := resolved(t, recursiveAliases, aliasStmt(t, "Nested", "Sequence[Union[T, Nested[T]]]", "T"))
	require.Empty(t, messages(ctx))

	def := definitionOf(t, ctx, "Nested")
	assert.True(t, def.Recursive)
	assert.False(t, def.Invalid)
	assert.True(t, def.Resolved)

	ref := typeOf(t, ctx, "Nested[int]")
	require.IsType(t, &AliasRef{}, ref)

	expanded := ctx.Expand(ref.(*AliasRef))
	assert.Equal(t, "Sequence[Union[int, Nested[int]]]", expanded.String())
	seq := expanded.(*Instance)
	union := seq.Args[0].(*Union)
	assert.IsType(t, &SelfRef{}, union.Items[1])

	again := ctx.Expand(ref.(*AliasRef))
	assert.True(t, ctx.IsSubtype(expanded, again))
	assert.True(t, ctx.IsSubtype(ref, expanded))
	assert.True(t, ctx.IsSubtype(expanded, ref))
	requireNoFailures(t, ctx)
}

func TestExpansionComparesAgainstOneMoreUnrolling(t *testing.T) {
	ctx := resolved(t, recursiveAliases, aliasStmt(t, "Nested", "Sequence[Union[T, Nested[T]]]", "T"))
	ref := typeOf(t, ctx, "Nested[int]").(*AliasRef)
	once := ctx.Expand(ref)
	// unroll the self reference by hand
	twice := once.doMap(func(t Type) Type {
		union := t.(*Union)
		return NewUnion(union.Items[0], ctx.Expand(union.Items[1].(*SelfRef).Ref))
	})

	assert.True(t, ctx.IsSubtype(once, twice))
	assert.True(t, ctx.IsSubtype(twice, once))
	assert.True(t, ctx.IsSubtype(ref, typeOf(t, ctx, "Nested[object]")))
	assert.False(t, ctx.IsSubtype(ref, typeOf(t, ctx, "Nested[str]")))
	assert.True(t, ctx.IsSubtype(typeOf(t, ctx, "Sequence[int]"), ref))
	requireNoFailures(t, ctx)
}

func TestMutuallyRecursiveUnionIsRejected(t *testing.T) {
	ctx := resolved(t, recursiveAliases,
		aliasStmt(t, "A", "Union[B, int]"),
		aliasStmt(t, "B", "Union[A, int]"),
	)
	assert.Equal(t, []string{unionItemOfItself, unionItemOfItself}, messages(ctx))
	for _, name := range []string{"A", "B"} {
		def := definitionOf(t, ctx, name)
		assert.True(t, def.Invalid)
		assert.False(t, def.Recursive)
	}

	assert.Equal(t, Any, typeOf(t, ctx, "A"))
	assert.Equal(t, "list[Any]", typeOf(t, ctx, "list[B]").String())
	// later checks keep working
	assert.True(t, ctx.IsSubtype(typeOf(t, ctx, "A"), intT))
	assert.Equal(t, Any, ctx.Join(typeOf(t, ctx, "A"), strT))
	requireNoFailures(t, ctx)
}

func TestDirectSelfUnionIsRejected(t *testing.T) {
	ctx := resolved(t, recursiveAliases, aliasStmt(t, "A", "int | A"))
	assert.Equal(t, []string{unionItemOfItself}, messages(ctx))
}

func TestTypeOfItselfIsRejected(t *testing.T) {
	ctx := resolved(t, recursiveAliases, aliasStmt(t, "S", "Type[S]"))
	assert.Equal(t, []string{typeInsideType}, messages(ctx))
	assert.Equal(t, "Type[Any]", typeOf(t, ctx, "S").String())
	assert.True(t, definitionOf(t, ctx, "S").Invalid)
}

func TestTypeOfThroughAnotherAliasIsRejected(t *testing.T) {
	ctx := resolved(t, recursiveAliases,
		aliasStmt(t, "S", "Type[R]"),
		aliasStmt(t, "R", "S"),
	)
	assert.Equal(t, []string{typeInsideType, typeInsideType}, messages(ctx))
	assert.Equal(t, "Type[Any]", typeOf(t, ctx, "R").String())
}

func TestGenericAliasArgumentsKeepTheirPosition(t *testing.T) {
	testCases := []struct {
		name     string
		stmts    func(t *testing.T) []*ast.AliasStmt
		alias    string
		expected []string
		fallback string
	}{
		{
			name: "union item through an identity alias",
			stmts: func(t *testing.T) []*ast.AliasStmt {
				return []*ast.AliasStmt{
					aliasStmt(t, "Id", "T", "T"),
					aliasStmt(t, "A", "Union[int, Id[A]]"),
				}
			},
			alias:    "A",
			expected: []string{unionItemOfItself},
			fallback: "Any",
		},
		{
			name: "union item through a union alias",
			stmts: func(t *testing.T) []*ast.AliasStmt {
				return []*ast.AliasStmt{
					aliasStmt(t, "OrNone", "Union[T, None]", "T"),
					aliasStmt(t, "A", "OrNone[A]"),
				}
			},
			alias:    "A",
			expected: []string{unionItemOfItself},
			fallback: "Any",
		},
		{
			name: "type of itself through an alias",
			stmts: func(t *testing.T) []*ast.AliasStmt {
				return []*ast.AliasStmt{
					aliasStmt(t, "TT", "Type[T]", "T"),
					aliasStmt(t, "S", "TT[S]"),
				}
			},
			alias:    "S",
			expected: []string{typeInsideType},
			fallback: "Type[Any]",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := resolved(t, recursiveAliases, tc.stmts(t)...)
			assert.Equal(t, tc.expected, messages(ctx))

			def := definitionOf(t, ctx, tc.alias)
			assert.True(t, def.Invalid)
			assert.False(t, def.Recursive)
			assert.Equal(t, tc.fallback, def.Target.String())
			requireNoFailures(t, ctx)
		})
	}
}

func TestGenericAliasArgumentInContainerIsRecursive(t *testing.T) {
	ctx := resolved(t, recursiveAliases,
		aliasStmt(t, "Box", "list[T]", "T"),
		aliasStmt(t, "B", "Union[int, Box[B]]"),
	)
	require.Empty(t, messages(ctx))
	def := definitionOf(t, ctx, "B")
	assert.True(t, def.Recursive)
	assert.False(t, def.Invalid)
	assert.Equal(t, "Union[int, list[B]]", def.Target.String())
	assert.False(t, ctx.IsSubtype(typeOf(t, ctx, "str"), typeOf(t, ctx, "B")))
	assert.True(t, ctx.IsSubtype(typeOf(t, ctx, "int"), typeOf(t, ctx, "B")))
}

func TestFunctionScopeRecursionIsRejected(t *testing.T) {
	testCases := []struct {
		name  string
		stmts func(t *testing.T) []*ast.AliasStmt
		names []string
	}{
		{
			name: "through a container",
			stmts: func(t *testing.T) []*ast.AliasStmt {
				return []*ast.AliasStmt{inFunction("f", aliasStmt(t, "A", "List[A]"))}
			},
			names: []string{"A"},
		},
		{
			name: "mutual",
			stmts: func(t *testing.T) []*ast.AliasStmt {
				return []*ast.AliasStmt{
					inFunction("f", aliasStmt(t, "A", "Sequence[B]")),
					inFunction("f", aliasStmt(t, "B", "Union[A, int]")),
				}
			},
			names: []string{"A", "B"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := resolved(t, recursiveAliases, tc.stmts(t)...)
			var expected []string
			var expectedSeverities []ilerr.Severity
			for _, name := range tc.names {
				expected = append(expected, fmt.Sprintf(cannotResolveAlias, name), functionScopeNote)
				expectedSeverities = append(expectedSeverities, ilerr.SeverityError, ilerr.SeverityNote)
			}
			assert.Equal(t, expected, messages(ctx))
			assert.Equal(t, expectedSeverities, severities(ctx))
			for _, name := range tc.names {
				def := definitionOf(t, ctx, "f."+name)
				assert.True(t, def.Invalid)
				assert.Equal(t, Any, def.Target)
			}
		})
	}
}

func TestFunctionScopeMayUseModuleRecursiveAlias(t *testing.T) {
	ctx := resolved(t, recursiveAliases,
		inFunction("f", aliasStmt(t, "Local", "list[Json]")),
		aliasStmt(t, "Json", "Union[int, str, list[Json], dict[str, Json]]"),
	)
	require.Empty(t, messages(ctx))
	assert.Equal(t, "list[Json]", definitionOf(t, ctx, "f.Local").Target.String())
	assert.False(t, definitionOf(t, ctx, "f.Local").Recursive)
	assert.True(t, definitionOf(t, ctx, "Json").Recursive)
}

func TestCyclesWithoutRecursiveAliases(t *testing.T) {
	ctx := resolved(t, Settings{}, aliasStmt(t, "A", "list[A]"))
	assert.Equal(t, []string{fmt.Sprintf(cannotResolveAlias, "A")}, messages(ctx))
	assert.Equal(t, Any, typeOf(t, ctx, "A"))
}

func TestDependentsOfUnresolvableAliasAreRetried(t *testing.T) {
	ctx := resolved(t, Settings{},
		aliasStmt(t, "C", "dict[str, A]"),
		aliasStmt(t, "A", "list[B]"),
		aliasStmt(t, "B", "A"),
	)
	assert.Equal(t, []string{
		fmt.Sprintf(cannotResolveAlias, "A"),
		fmt.Sprintf(cannotResolveAlias, "B"),
	}, messages(ctx))
	assert.Equal(t, "dict[str, Any]", typeOf(t, ctx, "C").String())
	assert.False(t, definitionOf(t, ctx, "C").Invalid)
}

func TestForwardReferencesResolve(t *testing.T) {
	for _, settings := range []Settings{{}, recursiveAliases} {
		t.Run(fmt.Sprintf("%+v", settings), func(t *testing.T) {
			ctx := resolved(t, settings,
				aliasStmt(t, "B", "list[A]"),
				aliasStmt(t, "A", "Optional[int]"),
			)
			require.Empty(t, messages(ctx))
			assert.Equal(t, "list[Union[int, None]]", definitionOf(t, ctx, "B").Target.String())
			assert.False(t, definitionOf(t, ctx, "B").Recursive)
			assert.Equal(t, "list[Union[int, None]]", typeOf(t, ctx, "B").String())
		})
	}
}

func TestLongForwardChainResolves(t *testing.T) {
	const length = 12
	var stmts []*ast.AliasStmt
	for i := 0; i < length; i++ {
		stmts = append(stmts, aliasStmt(t, fmt.Sprintf("A%d", i), fmt.Sprintf("A%d", i+1)))
	}
	stmts = append(stmts, aliasStmt(t, fmt.Sprintf("A%d", length), "int"))

	ctx := resolved(t, Settings{}, stmts...)
	require.Empty(t, messages(ctx))
	assert.Equal(t, "int", typeOf(t, ctx, "A0").String())
}

func TestMutuallyRecursiveContainers(t *testing.T) {
	ctx := resolved(t, recursiveAliases,
		aliasStmt(t, "Tree", "Union[int, Forest]"),
		aliasStmt(t, "Forest", "list[Tree]"),
	)
	require.Empty(t, messages(ctx))
	assert.True(t, definitionOf(t, ctx, "Tree").Recursive)
	assert.True(t, definitionOf(t, ctx, "Forest").Recursive)

	forest := typeOf(t, ctx, "Forest")
	assert.True(t, ctx.IsSubtype(typeOf(t, ctx, "list[Tree]"), forest))
	assert.True(t, ctx.IsSubtype(intT, typeOf(t, ctx, "Tree")))
	assert.True(t, ctx.IsSubtype(forest, typeOf(t, ctx, "Tree")))
	assert.False(t, ctx.IsSubtype(strT, typeOf(t, ctx, "Tree")))
	requireNoFailures(t, ctx)
}

func TestClassScopeRecursion(t *testing.T) {
	ctx := resolved(t, recursiveAliases, inClass("Node", aliasStmt(t, "Children", "list[Children]")))
	require.Empty(t, messages(ctx))
	def := definitionOf(t, ctx, "Node.Children")
	assert.True(t, def.Recursive)
	assert.Equal(t, ast.ScopeClass, def.Scope)
	assert.Equal(t, "Children", typeOf(t, ctx, "Node.Children").String())
}

func TestUndefinedNames(t *testing.T) {
	ctx := resolved(t, Settings{}, aliasStmt(t, "A", "list[Missing]"))
	assert.Equal(t, []string{`Name "Missing" is not defined`}, messages(ctx))
	assert.Equal(t, "list[Any]", typeOf(t, ctx, "A").String())
}

func TestAliasArguments(t *testing.T) {
	testCases := []struct {
		name     string
		settings Settings
		use      string
		expected string
		errors   []string
	}{
		{name: "applied", use: "Pair[int]", expected: "Tuple[int, int]"},
		{name: "bare fills Any", use: "Pair", expected: "Tuple[Any, Any]"},
		{
			name:     "bare with disallow_any_generics",
			settings: Settings{DisallowAnyGenerics: true},
			use:      "Pair",
			expected: "Tuple[Any, Any]",
			errors:   []string{`Missing type parameters for generic type "Pair"`},
		},
		{
			name:     "too many",
			use:      "Pair[int, str]",
			expected: "Any",
			errors:   []string{"Bad number of arguments for type alias, expected: 1, given: 2"},
		},
		{name: "forwarded to class", use: "L[int]", expected: "list[int]"},
		{name: "bare forward", use: "L", expected: "list[Any]"},
		{
			name:     "forwarded with the wrong count",
			use:      "L[int, str]",
			expected: "Any",
			errors:   []string{"Bad number of arguments for type alias, expected: 1, given: 2"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := resolved(t, tc.settings,
				aliasStmt(t, "Pair", "Tuple[T, T]", "T"),
				aliasStmt(t, "L", "List"),
			)
			require.Empty(t, messages(ctx))
			assert.True(t, definitionOf(t, ctx, "L").NoArgs)

			assert.Equal(t, tc.expected, typeOf(t, ctx, tc.use).String())
			assert.Equal(t, tc.errors, messages(ctx))
		})
	}
}

func TestRegistryIsFrozenAfterResolution(t *testing.T) {
	ctx := NewTypeCtx(Settings{})
	id := ctx.Aliases.Register(aliasStmt(t, "A", "int"))
	_, ok := ctx.Aliases.Definition(id)
	assert.False(t, ok)
	_, ok = ctx.Aliases.Lookup("A")
	assert.False(t, ok)

	ctx.ResolveAll()
	assert.True(t, ctx.Aliases.Frozen())
	def, ok := ctx.Aliases.Definition(id)
	require.True(t, ok)
	assert.Equal(t, "int", def.Target.String())

	ctx.ResolveAll()
	assert.Len(t, ctx.Failures, 1)
}

func TestClassesAndBases(t *testing.T) {
	ctx := NewTypeCtx(Settings{})
	ctx.DefineClasses([]*ast.ClassDef{
		{Name: ast.TypeName{Name: "Animal"}},
		{Name: ast.TypeName{Name: "Dog"}, Bases: []ast.Type{parseType(t, "Animal")}},
		{
			Name:   ast.TypeName{Name: "Box"},
			Params: []ast.TypeParam{{Name: "T", Variance: ast.Covariant}},
			Bases:  []ast.Type{parseType(t, "Sequence[T]")},
		},
	})
	requireNoFailures(t, ctx)
	require.Empty(t, messages(ctx))

	dog, animal := typeOf(t, ctx, "Dog"), typeOf(t, ctx, "Animal")
	assert.True(t, ctx.IsSubtype(dog, animal))
	assert.False(t, ctx.IsSubtype(animal, dog))
	assert.True(t, ctx.IsSubtype(typeOf(t, ctx, "Box[Dog]"), typeOf(t, ctx, "Sequence[Animal]")))
	assert.True(t, ctx.IsSubtype(typeOf(t, ctx, "Box[Dog]"), typeOf(t, ctx, "Box[Animal]")))
	assert.Equal(t, "Animal", ctx.Join(dog, animal).String())
}
