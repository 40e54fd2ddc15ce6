package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, description string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "module.yaml")
	require.NoError(t, os.WriteFile(path, []byte(description), 0o644))
	return path
}

func TestCheckCommand(t *testing.T) {
	clean := writeModule(t, `
path: clean.py
source: |
  # mypy: enable-recursive-aliases
  Json = Union[int, str, list[Json]]
aliases:
  - {name: Json, line: 2, target: "Union[int, str, list[Json]]"}
queries:
  - {kind: subtype, line: 2, type: "int", other: "Json"}
`)
	broken := writeModule(t, `
path: broken.py
source: |
  # mypy: enable-recursive-aliases
  A = Union[A, int]
aliases:
  - {name: A, line: 2, target: "Union[A, int]"}
`)

	testCases := []struct {
		name     string
		args     []string
		expected string
		fails    bool
	}{
		{
			name:     "no problems",
			args:     []string{clean},
			expected: "clean.py:2: note: \"int\" is a subtype of \"Json\"\nSuccess: no issues found in 1 source file\n",
		},
		{
			name: "one broken module",
			args: []string{clean, broken},
			expected: "clean.py:2: note: \"int\" is a subtype of \"Json\"\n" +
				"broken.py:2: error: Invalid recursive alias: a union item of itself\n" +
				"Found 1 error in 1 file (checked 2 source files)\n",
			fails: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			CheckCmd.SetOut(out)
			CheckCmd.SetErr(&bytes.Buffer{})
			CheckCmd.SetArgs(append([]string{"--colour", "never"}, tc.args...))
			err := CheckCmd.Execute()
			if tc.fails {
				assert.ErrorIs(t, err, errFoundProblems)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.expected, out.String())
		})
	}
}

func TestCheckCommandRejectsBadDescriptions(t *testing.T) {
	path := writeModule(t, "path: a.py\naliases: [{name: A}]")
	CheckCmd.SetOut(&bytes.Buffer{})
	CheckCmd.SetErr(&bytes.Buffer{})
	CheckCmd.SetArgs([]string{"--colour", "never", path})
	err := CheckCmd.Execute()
	require.Error(t, err)
	assert.NotErrorIs(t, err, errFoundProblems)
}

func TestRenderWithColour(t *testing.T) {
	out := &bytes.Buffer{}
	useColour, err := wantColour("auto", out)
	require.NoError(t, err)
	assert.False(t, useColour)

	_, err = wantColour("sometimes", out)
	assert.Error(t, err)
}

func TestInlineConfigCommand(t *testing.T) {
	out := &bytes.Buffer{}
	InlineConfigCmd.SetOut(out)
	InlineConfigCmd.SetErr(&bytes.Buffer{})
	InlineConfigCmd.SetArgs([]string{"no-warn-no-return, always-true=\"A,B\"", "strict"})
	err := InlineConfigCmd.Execute()
	assert.ErrorIs(t, err, errFoundProblems)

	lines := bytes.Split(out.Bytes(), []byte("\n"))
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "{always_true: [A B], warn_no_return: false}", string(lines[0]))
	assert.Contains(t, string(lines[1]), `error: Setting "strict" not supported in inline configuration`)
	assert.Contains(t, string(lines[2]), "WarnNoReturn:false")
}
