package tyre

import (
	"fmt"
	"go/token"

	"github.com/cottand/tyre/frontend/ilerr"
)

// Diagnostic is a problem, or a query answer, located on a line of a module
type Diagnostic struct {
	Path     string
	Line     int
	Severity ilerr.Severity
	Code     ilerr.ErrCode
	Message  string
}

// String renders d as `path:line: severity: message`
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.Path, d.Line, d.Severity, d.Message)
}

// Diagnostics are the errors found by Check ordered by position. Check must be called first.
func (m *Module) Diagnostics() []Diagnostic {
	sorted := m.errors.Sorted()
	diagnostics := make([]Diagnostic, len(sorted))
	for i, err := range sorted {
		diagnostics[i] = Diagnostic{
			Path:     m.desc.Path,
			Line:     m.line(err.Pos()),
			Severity: err.Severity(),
			Code:     err.Code(),
			Message:  err.Error(),
		}
	}
	return diagnostics
}

// line is the line pos is on, or 0 when pos is not in the module
func (m *Module) line(pos token.Pos) int {
	if !pos.IsValid() {
		return 0
	}
	offset := int(pos) - m.file.Base()
	if offset < 0 {
		return 0
	}
	offset = min(offset, m.file.Size())
	return m.file.Line(m.file.Pos(offset))
}
