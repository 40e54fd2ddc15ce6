package tyre

import (
	"io"
	"io/fs"

	"github.com/cottand/tyre/frontend/ast"
	"github.com/cottand/tyre/frontend/options"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Description is a module as handed over by a front end: its source text, for
// configuration comments and positions, plus the class and alias statements it
// declares and the queries to answer about it.
//
// Annotations are written as strings, like `Sequence[Union[T, Nested[T]]]`.
// Lines are 1-based lines of Source.
type Description struct {
	Path    string          `yaml:"path" validate:"required"`
	Source  string          `yaml:"source"`
	Options options.Options `yaml:"options"`
	Classes []ClassDesc     `yaml:"classes" validate:"dive"`
	Aliases []AliasDesc     `yaml:"aliases" validate:"dive"`
	Queries []QueryDesc     `yaml:"queries" validate:"dive"`
}

type ParamDesc struct {
	Name     string `yaml:"name" validate:"required"`
	Variance string `yaml:"variance" validate:"omitempty,oneof=invariant covariant contravariant"`
	Bound    string `yaml:"bound"`
}

// UnmarshalYAML also accepts a parameter written as just its name
func (p *ParamDesc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		p.Name = node.Value
		return nil
	}
	type plain ParamDesc
	return node.Decode((*plain)(p))
}

func (p ParamDesc) variance() ast.Variance {
	switch p.Variance {
	case "covariant":
		return ast.Covariant
	case "contravariant":
		return ast.Contravariant
	default:
		return ast.Invariant
	}
}

type ClassDesc struct {
	Name   string      `yaml:"name" validate:"required"`
	Line   int         `yaml:"line" validate:"gte=0"`
	Params []ParamDesc `yaml:"params" validate:"dive"`
	Bases  []string    `yaml:"bases"`
}

type AliasDesc struct {
	Name   string      `yaml:"name" validate:"required"`
	Line   int         `yaml:"line" validate:"gte=0"`
	Scope  string      `yaml:"scope" validate:"omitempty,oneof=module class function"`
	Owner  string      `yaml:"owner" validate:"required_if=Scope class,required_if=Scope function"`
	Params []ParamDesc `yaml:"params" validate:"dive"`
	Target string      `yaml:"target" validate:"required"`
}

// QueryDesc asks about one or two types. reveal only uses Type, the other
// kinds compare Type against Other.
type QueryDesc struct {
	Kind  string `yaml:"kind" validate:"required,oneof=reveal subtype join meet"`
	Line  int    `yaml:"line" validate:"gte=0"`
	Type  string `yaml:"type" validate:"required"`
	Other string `yaml:"other" validate:"required_unless=Kind reveal"`
}

// DecodeDescription reads a YAML module description and validates it.
// Options that are not set keep their default value.
func DecodeDescription(r io.Reader) (Description, error) {
	desc := Description{Options: options.Default()}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&desc); err != nil {
		if errors.Is(err, io.EOF) {
			return desc, errors.New("module description is empty")
		}
		return desc, errors.Wrap(err, "could not decode module description")
	}
	if err := validate.Struct(desc); err != nil {
		return desc, errors.Wrap(err, "invalid module description")
	}
	return desc, nil
}

// LoadModule reads the module description at name in fsys
func LoadModule(fsys fs.FS, name string) (*Module, error) {
	file, err := fsys.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", name)
	}
	defer file.Close()
	desc, err := DecodeDescription(file)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return NewModule(desc)
}
