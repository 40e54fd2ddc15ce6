package options

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/cottand/tyre/frontend/types"
	"github.com/cottand/tyre/internal/log"
	"github.com/cottand/tyre/util"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
)

var logger = log.DefaultLogger.With("section", "options")

var (
	validate = validator.New()
	decoder  = schema.NewDecoder()
)

func init() {
	decoder.IgnoreUnknownKeys(true)
}

// Options are the checker settings in effect for a single source file.
// The schema tag of each field is the option name used in configuration comments.
type Options struct {
	EnableRecursiveAliases bool `schema:"enable_recursive_aliases" yaml:"enable_recursive_aliases"`
	DisallowAnyGenerics    bool `schema:"disallow_any_generics" yaml:"disallow_any_generics"`
	DisallowUntypedDefs    bool `schema:"disallow_untyped_defs" yaml:"disallow_untyped_defs"`
	DisallowIncompleteDefs bool `schema:"disallow_incomplete_defs" yaml:"disallow_incomplete_defs"`
	CheckUntypedDefs       bool `schema:"check_untyped_defs" yaml:"check_untyped_defs"`
	WarnNoReturn           bool `schema:"warn_no_return" yaml:"warn_no_return"`
	WarnReturnAny          bool `schema:"warn_return_any" yaml:"warn_return_any"`
	WarnUnreachable        bool `schema:"warn_unreachable" yaml:"warn_unreachable"`
	StrictOptional         bool `schema:"strict_optional" yaml:"strict_optional"`
	StrictEquality         bool `schema:"strict_equality" yaml:"strict_equality"`
	AllowRedefinition      bool `schema:"allow_redefinition" yaml:"allow_redefinition"`
	ImplicitReexport       bool `schema:"implicit_reexport" yaml:"implicit_reexport"`
	IgnoreErrors           bool `schema:"ignore_errors" yaml:"ignore_errors"`
	IgnoreMissingImports   bool `schema:"ignore_missing_imports" yaml:"ignore_missing_imports"`

	FollowImports string `schema:"follow_imports" yaml:"follow_imports" validate:"oneof=normal silent skip error"`

	AlwaysTrue       []string `schema:"always_true" yaml:"always_true"`
	AlwaysFalse      []string `schema:"always_false" yaml:"always_false"`
	DisableErrorCode []string `schema:"disable_error_code" yaml:"disable_error_code"`
	EnableErrorCode  []string `schema:"enable_error_code" yaml:"enable_error_code"`
}

// Default returns the options used when nothing is configured
func Default() Options {
	return Options{
		WarnNoReturn:     true,
		StrictOptional:   true,
		ImplicitReexport: true,
		FollowImports:    "normal",
	}
}

// TypeSettings are the options the type engine depends on
func (o Options) TypeSettings() types.Settings {
	return types.Settings{
		EnableRecursiveAliases: o.EnableRecursiveAliases,
		DisallowAnyGenerics:    o.DisallowAnyGenerics,
	}
}

// Validate checks the values of options that only accept some strings
func (o Options) Validate() error {
	return validate.Struct(o)
}

// Apply returns a copy of o with the values of cfg set.
// Options cfg does not mention keep their value. Values are checked one by one while
// parsing, so an error here means cfg was not built by ParseInlineConfig; o is then
// returned unchanged together with the error.
func (o Options) Apply(cfg InlineConfig) (Options, error) {
	applied := o
	applied.AlwaysTrue = append([]string(nil), o.AlwaysTrue...)
	applied.AlwaysFalse = append([]string(nil), o.AlwaysFalse...)
	applied.DisableErrorCode = append([]string(nil), o.DisableErrorCode...)
	applied.EnableErrorCode = append([]string(nil), o.EnableErrorCode...)

	values := make(map[string][]string, cfg.Len())
	for name, value := range cfg.All() {
		switch value := value.(type) {
		case bool:
			values[name] = []string{strconv.FormatBool(value)}
		case string:
			values[name] = []string{value}
		case []string:
			values[name] = value
		default:
			return o, errors.Errorf("option %s has unexpected value %v", name, value)
		}
	}
	if err := decoder.Decode(&applied, values); err != nil {
		return o, errors.Wrap(err, "could not apply inline configuration")
	}
	if err := applied.Validate(); err != nil {
		return o, errors.Wrap(err, "invalid inline configuration")
	}
	logger.Debug("applied inline configuration", "options", len(values))
	return applied, nil
}

type optionKind uint8

const (
	kindBool optionKind = iota + 1
	kindString
	kindList
)

// optionKinds maps the name of every option to the kind of value it holds
var optionKinds = func() map[string]optionKind {
	kinds := make(map[string]optionKind)
	for name, field := range optionFields() {
		switch field.Type.Kind() {
		case reflect.Bool:
			kinds[name] = kindBool
		case reflect.String:
			kinds[name] = kindString
		case reflect.Slice:
			kinds[name] = kindList
		}
	}
	return kinds
}()

// optionRules maps options that only accept some values to their validate tag
var optionRules = func() map[string]string {
	rules := make(map[string]string)
	for name, field := range optionFields() {
		if rule := field.Tag.Get("validate"); rule != "" {
			rules[name] = rule
		}
	}
	return rules
}()

func optionFields() iter.Seq2[string, reflect.StructField] {
	return func(yield func(string, reflect.StructField) bool) {
		t := reflect.TypeOf(Options{})
		for i := range t.NumField() {
			field := t.Field(i)
			name, _, _ := strings.Cut(field.Tag.Get("schema"), ",")
			if !yield(name, field) {
				return
			}
		}
	}
}

// checkValue validates the raw value of option name against its validate tag,
// and returns an empty message when it is accepted
func checkValue(name, raw string) string {
	rule, ok := optionRules[name]
	if !ok {
		return ""
	}
	if err := validate.Var(raw, rule); err == nil {
		return ""
	}
	if choices, isOneOf := strings.CutPrefix(rule, "oneof="); isOneOf {
		quoted := slices.Collect(util.MapIter(slices.Values(strings.Fields(choices)), func(c string) string {
			return "'" + c + "'"
		}))
		return fmt.Sprintf("%s: invalid choice '%s' (choose from %s)", name, raw, strings.Join(quoted, ", "))
	}
	return fmt.Sprintf("%s: invalid value %s", name, raw)
}
