package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cottand/tyre/frontend/ilerr"
	"github.com/cottand/tyre/internal/log"
	"github.com/cottand/tyre/tyre"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:          "check module.yaml...",
	Short:        "Check the type aliases and queries of module descriptions",
	RunE:         runCheck,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	logLevel *int
	colour   *string
)

func init() {
	logLevel = CheckCmd.Flags().IntP("log-level", "l", int(slog.LevelWarn), "log level")
	colour = CheckCmd.Flags().String("colour", "auto", "colour diagnostics: auto, always or never")
}

// errFoundProblems makes the process exit with a non-zero status without
// printing anything more than the diagnostics already shown
var errFoundProblems = errors.New("errors found")

func runCheck(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))

	out := cmd.OutOrStdout()
	useColour, err := wantColour(*colour, out)
	if err != nil {
		return err
	}

	errorCount, filesWithErrors := 0, 0
	for _, arg := range args {
		target, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("could not get absolute path of target: %w", err)
		}
		module, err := tyre.LoadModule(os.DirFS(filepath.Dir(target)), filepath.Base(target))
		if err != nil {
			return fmt.Errorf("could not load module: %w", err)
		}
		errs, err := module.Check()
		if err != nil {
			return fmt.Errorf("could not check module (this is a bug and not a type error): %w", err)
		}
		for _, diagnostic := range module.Diagnostics() {
			_, _ = fmt.Fprintln(out, render(diagnostic, useColour))
			if diagnostic.Severity == ilerr.SeverityError {
				errorCount++
			}
		}
		if errs.HasError() {
			filesWithErrors++
		}
	}

	if errorCount == 0 {
		_, _ = fmt.Fprintf(out, "Success: no issues found in %s\n", plural(len(args), "source file"))
		return nil
	}
	_, _ = fmt.Fprintf(out, "Found %s in %s (checked %s)\n",
		plural(errorCount, "error"), plural(filesWithErrors, "file"), plural(len(args), "source file"))
	cmd.SilenceErrors = true
	return errFoundProblems
}

func wantColour(setting string, out io.Writer) (bool, error) {
	switch setting {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		f, ok := out.(*os.File)
		return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())), nil
	default:
		return false, fmt.Errorf("invalid --colour %q: expected auto, always or never", setting)
	}
}

const (
	red   = "\x1b[31m"
	blue  = "\x1b[34m"
	bold  = "\x1b[1m"
	reset = "\x1b[0m"
)

func render(d tyre.Diagnostic, useColour bool) string {
	if !useColour {
		return d.String()
	}
	severityColour := red
	if d.Severity == ilerr.SeverityNote {
		severityColour = blue
	}
	return fmt.Sprintf("%s%s:%d:%s %s%s:%s %s", bold, d.Path, d.Line, reset, severityColour, d.Severity, reset, d.Message)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
