package parser

import (
	"fmt"
	"go/scanner"
	"go/token"
	"strconv"

	"github.com/cottand/tyre/frontend/ast"
	"github.com/cottand/tyre/frontend/ilerr"
	"github.com/cottand/tyre/internal/log"
)

var logger = log.DefaultLogger.With("section", "parser")

// ParseType parses a type annotation such as `Sequence[Union[T, Nested[T]]]`,
// `Callable[[int], str]` or `"Node"`. Positions in the result are offsets into src
// added to base.
//
// Quoted annotations are parsed eagerly into an ast.ForwardRef, and `X | Y` is read
// as `Union[X, Y]`.
func ParseType(src string, base token.Pos) (ast.Type, *ilerr.Errors) {
	p := newTypeParser(src, base)
	t := p.parseUnion()
	if p.errs == nil && p.tok != token.EOF {
		p.fail(fmt.Sprintf("unexpected %s after type", p.describe()))
	}
	if p.errs != nil {
		logger.Debug("annotation did not parse", "src", src, "errors", p.errs)
		return nil, p.errs
	}
	return t, nil
}

type typeParser struct {
	file    *token.File
	scanner scanner.Scanner
	base    token.Pos
	src     string

	pos token.Pos
	tok token.Token
	lit string

	errs *ilerr.Errors
}

func newTypeParser(src string, base token.Pos) *typeParser {
	fset := token.NewFileSet()
	p := &typeParser{
		file: fset.AddFile("annotation", -1, len(src)),
		base: base,
		src:  src,
	}
	p.scanner.Init(p.file, []byte(src), p.scanError, 0)
	p.next()
	return p
}

func (p *typeParser) scanError(pos token.Position, msg string) {
	p.errAt(p.file.Pos(pos.Offset), msg)
}

// at translates a position of the private file into one relative to base
func (p *typeParser) at(pos token.Pos) token.Pos {
	return p.base + token.Pos(p.file.Offset(pos))
}

func (p *typeParser) next() {
	p.pos, p.tok, p.lit = p.scanner.Scan()
	// the scanner inserts a semicolon at the end of a line ending in a name or a bracket
	if p.tok == token.SEMICOLON && p.lit == "\n" {
		p.tok = token.EOF
	}
	if p.tok.IsKeyword() {
		p.tok = token.IDENT
	}
}

func (p *typeParser) describe() string {
	if p.tok == token.EOF {
		return "end of annotation"
	}
	if p.lit != "" {
		return strconv.Quote(p.lit)
	}
	return strconv.Quote(p.tok.String())
}

func (p *typeParser) errAt(pos token.Pos, msg string) {
	position := p.file.Position(pos)
	p.errs = p.errs.With(ilerr.New(ilerr.NewSyntax{
		Positioner:    ast.Range{PosStart: p.at(pos), PosEnd: p.at(pos)},
		Line:          position.Line,
		Column:        position.Column,
		ParserMessage: msg,
	}))
}

func (p *typeParser) fail(msg string) {
	p.errAt(p.pos, msg)
	p.tok = token.EOF
}

func (p *typeParser) expect(tok token.Token) token.Pos {
	pos := p.pos
	if p.tok != tok {
		p.fail(fmt.Sprintf("expected %q, found %s", tok.String(), p.describe()))
		return pos
	}
	p.next()
	return pos
}

func (p *typeParser) end() token.Pos {
	return p.at(p.pos)
}

// parseUnion parses `X | Y | ...`
func (p *typeParser) parseUnion() ast.Type {
	first := p.parsePrimary()
	if p.tok != token.OR {
		return first
	}
	members := []ast.Type{first}
	for p.tok == token.OR && p.errs == nil {
		p.next()
		members = append(members, p.parsePrimary())
	}
	last := members[len(members)-1]
	return &ast.AppliedType{
		Base:  ast.TypeName{Name: "Union", Range: ast.Range{PosStart: first.Pos(), PosEnd: first.Pos()}},
		Args:  members,
		Range: ast.RangeBetween(first, last),
	}
}

func (p *typeParser) parsePrimary() ast.Type {
	start := p.at(p.pos)
	switch p.tok {
	case token.IDENT:
		return p.parseName()
	case token.ELLIPSIS:
		p.next()
		return &ast.Ellipsis{Range: ast.Range{PosStart: start, PosEnd: p.end()}}
	case token.LBRACK:
		p.next()
		items := p.parseList(token.RBRACK)
		p.expect(token.RBRACK)
		return &ast.TypeList{Items: items, Range: ast.Range{PosStart: start, PosEnd: p.end()}}
	case token.STRING:
		return p.parseForwardRef()
	default:
		p.fail(fmt.Sprintf("expected a type, found %s", p.describe()))
		return &ast.TypeName{Name: "", Range: ast.Range{PosStart: start, PosEnd: start}}
	}
}

// parseName parses a dotted name, optionally applied to arguments
func (p *typeParser) parseName() ast.Type {
	start := p.at(p.pos)
	name := p.lit
	p.next()
	for p.tok == token.PERIOD && p.errs == nil {
		p.next()
		if p.tok != token.IDENT {
			p.fail(fmt.Sprintf("expected a name after '.', found %s", p.describe()))
			break
		}
		name += "." + p.lit
		p.next()
	}
	typeName := ast.TypeName{Name: name, Range: ast.Range{PosStart: start, PosEnd: p.end()}}
	if p.tok != token.LBRACK {
		return &typeName
	}
	p.next()
	args := p.parseList(token.RBRACK)
	if len(args) == 0 && p.errs == nil {
		p.fail("expected type arguments")
	}
	p.expect(token.RBRACK)
	return &ast.AppliedType{
		Base:  typeName,
		Args:  args,
		Range: ast.Range{PosStart: start, PosEnd: p.end()},
	}
}

// parseList parses comma separated types up to closing, allowing a trailing comma
func (p *typeParser) parseList(closing token.Token) []ast.Type {
	var items []ast.Type
	for p.tok != closing && p.tok != token.EOF && p.errs == nil {
		items = append(items, p.parseUnion())
		if p.tok != token.COMMA {
			break
		}
		p.next()
	}
	return items
}

// parseForwardRef parses the contents of a quoted annotation in place
func (p *typeParser) parseForwardRef() ast.Type {
	start := p.at(p.pos)
	quoted := p.lit
	offset := p.file.Offset(p.pos)
	p.next()
	unquoted, err := strconv.Unquote(quoted)
	if err != nil {
		p.errAt(p.file.Pos(offset), "invalid string literal in annotation")
		return &ast.TypeName{Range: ast.Range{PosStart: start, PosEnd: start}}
	}
	inner, errs := ParseType(unquoted, p.base+token.Pos(offset+1))
	if errs != nil {
		p.errs = p.errs.Merge(errs)
		return &ast.TypeName{Range: ast.Range{PosStart: start, PosEnd: start}}
	}
	return &ast.ForwardRef{Inner: inner, Range: ast.Range{PosStart: start, PosEnd: p.end()}}
}
