package types

import (
	"go/token"
	"testing"

	"github.com/cottand/tyre/frontend/ast"
	"github.com/cottand/tyre/frontend/ilerr"
	"github.com/cottand/tyre/parser"
	"github.com/cottand/tyre/util"
	"github.com/stretchr/testify/require"
)

var recursiveAliases = Settings{EnableRecursiveAliases: true}

func parseType(t *testing.T, src string) ast.Type {
	t.Helper()
	parsed, errs := parser.ParseType(src, token.NoPos)
	require.Nil(t, errs, "could not parse %q: %v", src, errs.Errors())
	return parsed
}

func aliasStmt(t *testing.T, name, target string, params ...string) *ast.AliasStmt {
	t.Helper()
	stmt := &ast.AliasStmt{
		Name:   ast.TypeName{Name: name},
		Target: parseType(t, target),
		Scope:  ast.ScopeModule,
	}
	for _, param := range params {
		stmt.Params = append(stmt.Params, ast.TypeParam{Name: param})
	}
	return stmt
}

func inFunction(owner string, stmt *ast.AliasStmt) *ast.AliasStmt {
	stmt.Scope = ast.ScopeFunction
	stmt.Owner = owner
	return stmt
}

func inClass(owner string, stmt *ast.AliasStmt) *ast.AliasStmt {
	stmt.Scope = ast.ScopeClass
	stmt.Owner = owner
	return stmt
}

// resolved registers stmts and resolves them, failing on internal failures
func resolved(t *testing.T, settings Settings, stmts ...*ast.AliasStmt) *TypeCtx {
	t.Helper()
	ctx := NewTypeCtx(settings)
	for _, stmt := range stmts {
		ctx.Aliases.Register(stmt)
	}
	ctx.ResolveAll()
	requireNoFailures(t, ctx)
	return ctx
}

func requireNoFailures(t *testing.T, ctx *TypeCtx) {
	t.Helper()
	if len(ctx.Failures) != 0 {
		t.Fatalf("Failures found:\n  %s\n", util.JoinErrorsWith("", ctx.Failures, "\n  "))
	}
}

func messages(ctx *TypeCtx) []string {
	var msgs []string
	for _, err := range ctx.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

func severities(ctx *TypeCtx) []ilerr.Severity {
	var sev []ilerr.Severity
	for _, err := range ctx.Errors {
		sev = append(sev, err.Severity())
	}
	return sev
}

// typeOf analyses src as an annotation at module scope
func typeOf(t *testing.T, ctx *TypeCtx, src string) Type {
	t.Helper()
	return ctx.AnalyzeType(parseType(t, src))
}

func definitionOf(t *testing.T, ctx *TypeCtx, name string) AliasDefinition {
	t.Helper()
	id, ok := ctx.Aliases.Lookup(name)
	require.True(t, ok, "alias %s not found", name)
	def, ok := ctx.Aliases.Definition(id)
	require.True(t, ok)
	return def
}
