package options

import (
	"fmt"
	"go/token"
	"iter"
	"slices"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/tyre/frontend/ast"
	"github.com/cottand/tyre/frontend/ilerr"
	"github.com/cottand/tyre/util"
)

const directivePrefix = "# mypy:"

const (
	unterminatedQuote = "Unterminated quote in configuration comment"
	strictNotInline   = `Setting "strict" not supported in inline configuration: specify it in a configuration file instead, or set individual inline flags (see "mypy -h" for the list of flags enabled in strict mode)`
)

// Directive is the text of a configuration comment, after the `# mypy:` prefix
type Directive struct {
	// Line is 1-based
	Line int
	Text string
	ast.Range
}

// ExtractDirectives finds the lines of source that start with `# mypy:`.
// base is the position of the first byte of source.
func ExtractDirectives(source string, base token.Pos) []Directive {
	var directives []Directive
	offset := 0
	lineNo := 0
	for line := range strings.Lines(source) {
		lineNo++
		start := base + token.Pos(offset)
		offset += len(line)
		text, ok := strings.CutPrefix(strings.TrimRight(line, "\r\n"), directivePrefix)
		if !ok {
			continue
		}
		directives = append(directives, Directive{
			Line:  lineNo,
			Text:  strings.TrimSpace(text),
			Range: ast.Range{PosStart: start, PosEnd: start + token.Pos(len(line))},
		})
	}
	return directives
}

// InlineConfig maps option names to the values set by configuration comments.
// Values are bool, string or []string, according to the kind of the option.
// The zero value is an empty config.
type InlineConfig struct {
	values *immutable.SortedMap[string, any]
}

func (c InlineConfig) Get(name string) (any, bool) {
	if c.values == nil {
		return nil, false
	}
	return c.values.Get(name)
}

func (c InlineConfig) Len() int {
	if c.values == nil {
		return 0
	}
	return c.values.Len()
}

// All iterates over the options in name order
func (c InlineConfig) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if c.values == nil {
			return
		}
		it := c.values.Iterator()
		for !it.Done() {
			name, value, _ := it.Next()
			if !yield(name, value) {
				return
			}
		}
	}
}

func (c InlineConfig) set(name string, value any) InlineConfig {
	values := c.values
	if values == nil {
		values = immutable.NewSortedMap[string, any](nil)
	}
	return InlineConfig{values: values.Set(name, value)}
}

func (c InlineConfig) String() string {
	var entries []string
	for name, value := range c.All() {
		entries = append(entries, fmt.Sprintf("%s: %v", name, value))
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

// ParseInlineConfig parses every directive of a file into a single config.
// Options set on later lines override earlier ones. Every problem is reported
// and the option it concerns is left out.
func ParseInlineConfig(directives []Directive) (InlineConfig, *ilerr.Errors) {
	var cfg InlineConfig
	var errs *ilerr.Errors
	for _, directive := range directives {
		report := func(message string) {
			errs = errs.With(ilerr.New(ilerr.NewInlineConfig{Positioner: directive.Range, Message: message}))
		}
		entries, ok := splitDirective(directive.Text)
		if !ok {
			report(unterminatedQuote)
		}
		names, raw := entryValues(entries)
		strict := false
		for _, name := range names {
			switch name {
			case "strict":
				strict = true
				continue
			case "python_version":
				report("python_version not supported in inline configuration")
				continue
			}
			key, value, err := parseOption(name, raw[name])
			if err != "" {
				report(err)
				continue
			}
			cfg = cfg.set(key, value)
		}
		if strict {
			report(strictNotInline)
		}
	}
	logger.Debug("parsed inline configuration", "config", cfg, "errors", errs)
	return cfg, errs
}

// splitDirective splits s on commas and semicolons outside double quotes.
// Quotes are removed. An unterminated quote drops the entry it opens and returns false.
func splitDirective(s string) ([]string, bool) {
	var parts []string
	var current strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ',', ';':
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
		case '"':
			closing := strings.IndexByte(s[i+1:], '"')
			if closing < 0 {
				return parts, false
			}
			current.WriteString(s[i+1 : i+1+closing])
			i += closing + 1
		default:
			current.WriteByte(s[i])
		}
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts, true
}

// entryValues reads `key=value`, `key value` and bare `key` entries. Dashes in
// names become underscores. A bare key has the value True.
// names keeps the order in which each name first appears, and the last value wins.
func entryValues(entries []string) (names []string, values map[string]string) {
	values = make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry == "" {
			continue
		}
		var name, value string
		if before, after, found := strings.Cut(entry, "="); found {
			name, value = strings.TrimSpace(before), strings.TrimSpace(after)
		} else if fields := strings.Fields(entry); len(fields) > 1 {
			name, value = fields[0], strings.TrimSpace(strings.TrimPrefix(entry, fields[0]))
		} else {
			name, value = entry, "True"
		}
		name = strings.ReplaceAll(name, "-", "_")
		if _, seen := values[name]; !seen {
			names = append(names, name)
		}
		values[name] = value
	}
	return names, values
}

// parseOption converts raw to the kind of the option called name, resolving `no_`,
// `allow_` and `disallow_` inversions of boolean options. On failure the returned
// message is not empty.
func parseOption(name, raw string) (string, any, string) {
	key := name
	invert := false
	kind, known := optionKinds[name]
	if !known {
		switch {
		case strings.HasPrefix(name, "no_") && optionKinds[name[3:]] != 0:
			key = name[3:]
		case strings.HasPrefix(name, "allow") && optionKinds["dis"+name] != 0:
			key = "dis" + name
		case strings.HasPrefix(name, "disallow") && optionKinds[name[3:]] != 0:
			key = name[3:]
		default:
			return "", nil, fmt.Sprintf("Unrecognized option: %s = %s", name, raw)
		}
		invert = true
		kind = optionKinds[key]
	}
	if invert && kind != kindBool {
		return "", nil, fmt.Sprintf("Can not invert non-boolean key %s", key)
	}
	switch kind {
	case kindBool:
		value, ok := convertToBoolean(raw)
		if !ok {
			return "", nil, fmt.Sprintf("%s: Not a boolean: %s", name, raw)
		}
		return key, value != invert, ""
	case kindList:
		items := strings.Split(raw, ",")
		return key, slices.Collect(util.MapIter(slices.Values(items), strings.TrimSpace)), ""
	default:
		if message := checkValue(key, raw); message != "" {
			return "", nil, message
		}
		return key, raw, ""
	}
}

var booleanStates = map[string]bool{
	"1": true, "yes": true, "true": true, "on": true,
	"0": false, "no": false, "false": false, "off": false,
}

func convertToBoolean(raw string) (bool, bool) {
	value, ok := booleanStates[strings.ToLower(raw)]
	return value, ok
}
