package tyre

import (
	"fmt"
	"go/token"
	"log/slog"
	"strings"

	"github.com/cottand/tyre/frontend/ast"
	"github.com/cottand/tyre/frontend/ilerr"
	"github.com/cottand/tyre/frontend/options"
	"github.com/cottand/tyre/frontend/types"
	"github.com/cottand/tyre/internal/log"
	"github.com/cottand/tyre/parser"
	"github.com/cottand/tyre/util"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var moduleLogger = log.DefaultLogger.With("section", "module")

// Module is a single source file being checked.
// It owns its TypeCtx: nothing mutable is shared between modules.
type Module struct {
	ID   uuid.UUID
	desc Description

	fset *token.FileSet
	file *token.File

	// Options are the effective options, once Check applied the configuration comments
	Options options.Options
	TypeCtx *types.TypeCtx

	checked bool
	errors  *ilerr.Errors
	logger  *slog.Logger
	// configFailure is set when the parsed configuration comments could not be applied
	configFailure error
}

// NewModule prepares desc for checking. It fails if desc refers to lines its
// source does not have.
func NewModule(desc Description) (*Module, error) {
	fset := token.NewFileSet()
	file := fset.AddFile(desc.Path, -1, len(desc.Source))
	file.SetLinesForContent([]byte(desc.Source))

	for _, alias := range desc.Aliases {
		if alias.Line > file.LineCount() {
			return nil, errors.Errorf("alias %s is on line %d, but %s has %d lines", alias.Name, alias.Line, desc.Path, file.LineCount())
		}
	}
	for _, class := range desc.Classes {
		if class.Line > file.LineCount() {
			return nil, errors.Errorf("class %s is on line %d, but %s has %d lines", class.Name, class.Line, desc.Path, file.LineCount())
		}
	}
	for _, query := range desc.Queries {
		if query.Line > file.LineCount() {
			return nil, errors.Errorf("%s query is on line %d, but %s has %d lines", query.Kind, query.Line, desc.Path, file.LineCount())
		}
	}

	id := uuid.New()
	return &Module{
		ID:      id,
		desc:    desc,
		fset:    fset,
		file:    file,
		Options: desc.Options,
		logger:  moduleLogger.With("module", id.String(), "path", desc.Path),
	}, nil
}

func (m *Module) Path() string {
	return m.desc.Path
}

// Check runs every phase on the module and returns the diagnostics found.
// The returned error is only set for internal failures, which are bugs rather
// than problems of the module. Calling Check again returns the same result.
func (m *Module) Check() (*ilerr.Errors, error) {
	if m.checked {
		return m.errors, m.failures()
	}
	m.checked = true
	m.logger.Debug("checking module")

	m.applyInlineConfig()
	m.TypeCtx = types.NewTypeCtx(m.Options.TypeSettings()).WithLogger(m.logger)

	m.TypeCtx.DefineClasses(m.classDefs())
	for _, stmt := range m.aliasStmts() {
		m.TypeCtx.Aliases.Register(stmt)
	}
	m.TypeCtx.ResolveAll()
	m.answerQueries()

	m.errors = m.errors.With(m.TypeCtx.Errors...)
	m.logger.Debug("checked module", "errors", m.errors)
	return m.errors, m.failures()
}

func (m *Module) failures() error {
	if m.configFailure != nil {
		return errors.Wrapf(m.configFailure, "internal failure while checking %s", m.desc.Path)
	}
	if m.TypeCtx == nil || len(m.TypeCtx.Failures) == 0 {
		return nil
	}
	return errors.Errorf("internal failures while checking %s:\n  %s", m.desc.Path, util.JoinErrorsWith("", m.TypeCtx.Failures, "\n  "))
}

func (m *Module) applyInlineConfig() {
	directives := options.ExtractDirectives(m.desc.Source, token.Pos(m.file.Base()))
	if len(directives) == 0 {
		return
	}
	cfg, errs := options.ParseInlineConfig(directives)
	m.errors = m.errors.Merge(errs)
	applied, err := m.Options.Apply(cfg)
	if err != nil {
		m.logger.Error("inline configuration not applied", "error", err)
		m.configFailure = err
		return
	}
	m.Options = applied
}

// lineRange spans line, or is invalid for line 0
func (m *Module) lineRange(line int) ast.Range {
	if line <= 0 {
		return ast.Range{}
	}
	start := m.file.LineStart(line)
	end := token.Pos(m.file.Base() + m.file.Size())
	if line < m.file.LineCount() {
		end = m.file.LineStart(line+1) - 1
	}
	return ast.Range{PosStart: start, PosEnd: end}
}

// annotation parses src, which is written on line. Positions point into the source
// line when src appears on it verbatim. A malformed annotation is reported and
// stands for Any.
func (m *Module) annotation(src string, line int) ast.Type {
	at := m.lineRange(line)
	base := at.Pos()
	if at.IsValid() {
		text := m.desc.Source[m.file.Offset(at.Pos()):m.file.Offset(at.End())]
		if i := strings.Index(text, src); i >= 0 {
			base += token.Pos(i)
		}
	}
	parsed, errs := parser.ParseType(src, base)
	if errs != nil {
		m.errors = m.errors.Merge(errs)
		return &ast.TypeName{Name: "Any", Range: at}
	}
	return parsed
}

func (m *Module) params(line int, descs []ParamDesc) []ast.TypeParam {
	params := make([]ast.TypeParam, len(descs))
	for i, desc := range descs {
		params[i] = ast.TypeParam{Name: desc.Name, Variance: desc.variance(), Range: m.lineRange(line)}
		if desc.Bound != "" {
			params[i].Bound = m.annotation(desc.Bound, line)
		}
	}
	return params
}

func (m *Module) classDefs() []*ast.ClassDef {
	defs := make([]*ast.ClassDef, len(m.desc.Classes))
	for i, class := range m.desc.Classes {
		at := m.lineRange(class.Line)
		def := &ast.ClassDef{
			Name:   ast.TypeName{Name: class.Name, Range: at},
			Params: m.params(class.Line, class.Params),
			Range:  at,
		}
		for _, base := range class.Bases {
			def.Bases = append(def.Bases, m.annotation(base, class.Line))
		}
		defs[i] = def
	}
	return defs
}

func (m *Module) aliasStmts() []*ast.AliasStmt {
	stmts := make([]*ast.AliasStmt, len(m.desc.Aliases))
	for i, alias := range m.desc.Aliases {
		// validated already
		scope, _ := ast.ParseScope(alias.Scope)
		at := m.lineRange(alias.Line)
		stmts[i] = &ast.AliasStmt{
			Name:   ast.TypeName{Name: alias.Name, Range: at},
			Params: m.params(alias.Line, alias.Params),
			Target: m.annotation(alias.Target, alias.Line),
			Scope:  scope,
			Owner:  alias.Owner,
			Range:  at,
		}
	}
	return stmts
}

func (m *Module) answerQueries() {
	ctx := m.TypeCtx
	for _, query := range m.desc.Queries {
		typ := ctx.AnalyzeType(m.annotation(query.Type, query.Line))
		var message string
		switch query.Kind {
		case "reveal":
			message = fmt.Sprintf("Revealed type is %q", revealed(ctx, typ).String())
		case "subtype":
			other := ctx.AnalyzeType(m.annotation(query.Other, query.Line))
			relation := "is a subtype of"
			if !ctx.IsSubtype(typ, other) {
				relation = "is not a subtype of"
			}
			message = fmt.Sprintf("%q %s %q", typ.String(), relation, other.String())
		case "join":
			other := ctx.AnalyzeType(m.annotation(query.Other, query.Line))
			message = fmt.Sprintf("Join of %q and %q is %q", typ.String(), other.String(), ctx.Join(typ, other).String())
		case "meet":
			other := ctx.AnalyzeType(m.annotation(query.Other, query.Line))
			message = fmt.Sprintf("Meet of %q and %q is %q", typ.String(), other.String(), ctx.Meet(typ, other).String())
		}
		m.errors = m.errors.With(ilerr.New(ilerr.NewQueryResult{Positioner: m.lineRange(query.Line), Message: message}))
	}
}

// revealed unrolls a recursive alias once, so that its structure shows
func revealed(ctx *types.TypeCtx, t types.Type) types.Type {
	if ref, ok := t.(*types.AliasRef); ok {
		return ctx.Expand(ref)
	}
	return t
}
