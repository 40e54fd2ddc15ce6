package types

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/cottand/tyre/frontend/ast"
	"github.com/cottand/tyre/frontend/ilerr"
	"github.com/cottand/tyre/internal/log"
)

var logger = log.DefaultLogger.With("section", "types")

type typeError struct {
	message string
	// Positioner may be nil
	ast.Positioner
	stack []byte
}

func (err typeError) String() string {
	stack := strings.Split(string(err.stack), "\n")
	at := ""
	if len(stack) > 6 {
		at = strings.TrimSpace(stack[6])
	}
	return fmt.Sprintf("( %s ): %s", at, err.message)
}
func (err typeError) Error() string {
	return err.String()
}

// Settings are the checker options the type engine depends on.
// They are passed in explicitly so that resolution does not depend on global state.
type Settings struct {
	// EnableRecursiveAliases lets module and class scoped aliases refer to themselves.
	// When unset, every alias cycle is reported as unresolvable.
	EnableRecursiveAliases bool
	// DisallowAnyGenerics reports generic aliases used without type arguments
	DisallowAnyGenerics bool
}

// TypeCtx holds the class table and alias registry of a single module, as well as settings
type TypeCtx struct {
	classes  map[string]*ClassInfo
	Aliases  *AliasRegistry
	settings Settings

	// logger should carry the module being checked as an attribute (when there is one)
	logger *slog.Logger

	*TypeState
}

// TypeState is part of TypeCtx and is shared across all copies of it.
// It is not concurrency safe
type TypeState struct {
	// fresher keeps track of new type variables
	fresher *Fresher

	// Failures are irrecoverable unexpected scenarios
	// that a well-formed module should never hit
	Failures []error
	// Errors are language problems that a malformed module could cause
	Errors []ilerr.IleError
}

// NewTypeCtx should be the entry point to get a TypeCtx. The builtin classes
// are always defined.
func NewTypeCtx(settings Settings) *TypeCtx {
	fresher := NewFresher()
	return &TypeCtx{
		classes:  fresher.builtinClasses(),
		Aliases:  newAliasRegistry(),
		settings: settings,
		logger:   logger,
		TypeState: &TypeState{
			fresher: fresher,
		},
	}
}

// WithLogger returns a copy of ctx sharing its state but logging through l
func (ctx *TypeCtx) WithLogger(l *slog.Logger) *TypeCtx {
	copied := *ctx
	copied.logger = l.With("section", "types")
	return &copied
}

func (ctx *TypeCtx) Settings() Settings {
	return ctx.settings
}

// DefineClasses adds user classes to the class table. Names are declared first so
// that bases may refer to classes later in defs.
func (ctx *TypeCtx) DefineClasses(defs []*ast.ClassDef) {
	pending := make([]*ClassInfo, len(defs))
	for i, def := range defs {
		if _, exists := ctx.classes[def.Name.Name]; exists {
			ctx.logger.Debug("class shadows an existing class", "class", def.Name.Name)
		}
		info := &ClassInfo{Name: def.Name.Name}
		for _, param := range def.Params {
			info.Params = append(info.Params, ctx.fresher.NewTypeVarRef(param.Name, param.Variance, nil))
		}
		ctx.classes[info.Name] = info
		pending[i] = info
	}
	for i, def := range defs {
		info := pending[i]
		a := newTypeAnalyzer(ctx, ast.ScopeModule, "")
		for j, param := range def.Params {
			a.params[param.Name] = info.Params[j]
		}
		for j, param := range def.Params {
			if param.Bound != nil {
				info.Params[j].Bound = a.analyze(param.Bound)
			}
		}
		for _, base := range def.Bases {
			analyzed := a.analyze(base)
			inst, ok := analyzed.(*Instance)
			if !ok {
				if !isAny(analyzed) {
					a.report(ilerr.NewInvalidAnnotation{
						Positioner: base,
						Message:    fmt.Sprintf("Invalid base class %q", base.String()),
					})
				}
				continue
			}
			info.Bases = append(info.Bases, inst)
		}
		if len(info.Bases) == 0 && info.Name != objectClass {
			info.Bases = []*Instance{NewInstance(objectClass)}
		}
		a.flush()
	}
}

func (ctx *TypeState) addFailure(message string, pos ast.Positioner) {
	logger.Error("failure during type resolution", "message", message)
	ctx.Failures = append(ctx.Failures, typeError{message: message, Positioner: pos, stack: debug.Stack()})
}

func (ctx *TypeState) addError(ileError ilerr.IleError) {
	logger.Info("error during type resolution", "message", ileError.Error(), "at", ilerr.FormatWithCode(ileError))
	ctx.Errors = append(ctx.Errors, ileError)
}
