package ilerr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cottand/tyre/frontend/ast"
)

// enableDebugErrorPrinting makes errors include their stacktrace when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	UndefinedName
	CannotResolveName
	RecursiveAliasAtFunctionScope
	RecursiveUnionItem
	NestedTypeOfType
	AliasArgumentCount
	MissingTypeParameters
	InvalidAnnotation
	InlineConfig
	Syntax
	Query
)

type Severity uint8

const (
	SeverityError Severity = iota
	SeverityNote
)

func (s Severity) String() string {
	if s == SeverityNote {
		return "note"
	}
	return "error"
}

type IleError interface {
	Error() string
	Code() ErrCode
	Severity() Severity
	ast.Positioner

	withStack([]byte) IleError
	getStack() []byte
}

func FormatWithCode(e IleError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E IleError](err E) IleError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	ast.Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode      { return None }
func (e Unclassified) Severity() Severity { return SeverityError }
func (e Unclassified) getStack() []byte   { return e.stack }
func (e Unclassified) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewUndefinedName struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewUndefinedName) Error() string {
	return fmt.Sprintf("Name %q is not defined", e.Name)
}
func (e NewUndefinedName) Code() ErrCode      { return UndefinedName }
func (e NewUndefinedName) Severity() Severity { return SeverityError }
func (e NewUndefinedName) getStack() []byte   { return e.stack }
func (e NewUndefinedName) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewCannotResolveName is reported for an alias whose definition never closes
type NewCannotResolveName struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewCannotResolveName) Error() string {
	return fmt.Sprintf("Cannot resolve name %q (possible cyclic definition)", e.Name)
}
func (e NewCannotResolveName) Code() ErrCode      { return CannotResolveName }
func (e NewCannotResolveName) Severity() Severity { return SeverityError }
func (e NewCannotResolveName) getStack() []byte   { return e.stack }
func (e NewCannotResolveName) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewRecursiveAliasAtFunctionScope is the note paired with NewCannotResolveName inside functions
type NewRecursiveAliasAtFunctionScope struct {
	ast.Positioner
	stack []byte
}

func (e NewRecursiveAliasAtFunctionScope) Error() string {
	return "Recursive types are not allowed at function scope"
}
func (e NewRecursiveAliasAtFunctionScope) Code() ErrCode      { return RecursiveAliasAtFunctionScope }
func (e NewRecursiveAliasAtFunctionScope) Severity() Severity { return SeverityNote }
func (e NewRecursiveAliasAtFunctionScope) getStack() []byte   { return e.stack }
func (e NewRecursiveAliasAtFunctionScope) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewRecursiveUnionItem struct {
	ast.Positioner
	Alias string
	stack []byte
}

func (e NewRecursiveUnionItem) Error() string {
	return "Invalid recursive alias: a union item of itself"
}
func (e NewRecursiveUnionItem) Code() ErrCode      { return RecursiveUnionItem }
func (e NewRecursiveUnionItem) Severity() Severity { return SeverityError }
func (e NewRecursiveUnionItem) getStack() []byte   { return e.stack }
func (e NewRecursiveUnionItem) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewNestedTypeOfType struct {
	ast.Positioner
	Alias string
	stack []byte
}

func (e NewNestedTypeOfType) Error() string {
	return "Type[...] cannot contain another Type[...]"
}
func (e NewNestedTypeOfType) Code() ErrCode      { return NestedTypeOfType }
func (e NewNestedTypeOfType) Severity() Severity { return SeverityError }
func (e NewNestedTypeOfType) getStack() []byte   { return e.stack }
func (e NewNestedTypeOfType) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewAliasArgumentCount struct {
	ast.Positioner
	Expected, Given int
	stack           []byte
}

func (e NewAliasArgumentCount) Error() string {
	return fmt.Sprintf("Bad number of arguments for type alias, expected: %d, given: %d", e.Expected, e.Given)
}
func (e NewAliasArgumentCount) Code() ErrCode      { return AliasArgumentCount }
func (e NewAliasArgumentCount) Severity() Severity { return SeverityError }
func (e NewAliasArgumentCount) getStack() []byte   { return e.stack }
func (e NewAliasArgumentCount) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewMissingTypeParameters struct {
	ast.Positioner
	Name  string
	stack []byte
}

func (e NewMissingTypeParameters) Error() string {
	return fmt.Sprintf("Missing type parameters for generic type %q", e.Name)
}
func (e NewMissingTypeParameters) Code() ErrCode      { return MissingTypeParameters }
func (e NewMissingTypeParameters) Severity() Severity { return SeverityError }
func (e NewMissingTypeParameters) getStack() []byte   { return e.stack }
func (e NewMissingTypeParameters) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewInvalidAnnotation covers annotations that are well-formed syntax but not valid types,
// like `Union` without arguments or `Callable[int]`
type NewInvalidAnnotation struct {
	ast.Positioner
	Message string
	stack   []byte
}

func (e NewInvalidAnnotation) Error() string      { return e.Message }
func (e NewInvalidAnnotation) Code() ErrCode      { return InvalidAnnotation }
func (e NewInvalidAnnotation) Severity() Severity { return SeverityError }
func (e NewInvalidAnnotation) getStack() []byte   { return e.stack }
func (e NewInvalidAnnotation) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewInlineConfig is any problem found while parsing a `# mypy:` directive.
// The offending option is ignored.
type NewInlineConfig struct {
	ast.Positioner
	Message string
	stack   []byte
}

func (e NewInlineConfig) Error() string      { return e.Message }
func (e NewInlineConfig) Code() ErrCode      { return InlineConfig }
func (e NewInlineConfig) Severity() Severity { return SeverityError }
func (e NewInlineConfig) getStack() []byte   { return e.stack }
func (e NewInlineConfig) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewSyntax is a malformed annotation string
type NewSyntax struct {
	ast.Positioner
	Line, Column  int
	ParserMessage string
	stack         []byte
}

func (e NewSyntax) Error() string {
	return fmt.Sprintf("Syntax error in type annotation (%d:%d): %s", e.Line, e.Column, e.ParserMessage)
}
func (e NewSyntax) Code() ErrCode      { return Syntax }
func (e NewSyntax) Severity() Severity { return SeverityError }
func (e NewSyntax) getStack() []byte   { return e.stack }
func (e NewSyntax) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// NewQueryResult is the answer to a query about types, like reveal_type,
// reported as a note
type NewQueryResult struct {
	ast.Positioner
	Message string
	stack   []byte
}

func (e NewQueryResult) Error() string      { return e.Message }
func (e NewQueryResult) Code() ErrCode      { return Query }
func (e NewQueryResult) Severity() Severity { return SeverityNote }
func (e NewQueryResult) getStack() []byte   { return e.stack }
func (e NewQueryResult) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
