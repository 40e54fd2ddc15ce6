package cmd

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/cottand/tyre/frontend/options"
	"github.com/spf13/cobra"
)

var InlineConfigCmd = &cobra.Command{
	Use:   "inline-config 'flag, flag=value'...",
	Short: "Parse configuration comments and print the options they set",
	Long: `Parse configuration comments and print the options they set.
Every argument is the text of one comment after its '# mypy: ' prefix.`,
	RunE:         runInlineConfig,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func runInlineConfig(cmd *cobra.Command, args []string) error {
	source := &strings.Builder{}
	for _, arg := range args {
		source.WriteString("# mypy: ")
		source.WriteString(arg)
		source.WriteString("\n")
	}
	directives := options.ExtractDirectives(source.String(), token.NoPos)
	cfg, errs := options.ParseInlineConfig(directives)

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, cfg)
	for _, err := range errs.Errors() {
		_, _ = fmt.Fprintf(out, "error: %s\n", err.Error())
	}

	applied, err := options.Default().Apply(cfg)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%+v\n", applied)
	if errs.HasError() {
		cmd.SilenceErrors = true
		return errFoundProblems
	}
	return nil
}
