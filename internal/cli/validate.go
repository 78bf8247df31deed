package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaucouleur/decision/internal/config"
	"github.com/vaucouleur/decision/internal/theory"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Theories []string
}

// ValidationError is one configuration problem.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// PairView is one resolved exporter→importer decision.
type PairView struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Allow bool   `json:"allow"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                 `json:"valid"`
	Config *config.EngineConfig `json:"config,omitempty"`
	Pairs  []PairView           `json:"pairs,omitempty"`
	Errors []ValidationError    `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate an engine configuration",
		Long: `Compile a CUE engine configuration against the built-in schema.

With --theories the sharing policy is also resolved against that
registration list, reporting unknown theory names and self-pairs, and
the resulting exporter→importer matrix is printed.

Examples:
  smtcomb validate policy.cue
  smtcomb validate policy.cue --theories UF,DL,LRA --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Theories, "theories", nil, "registered theory names, in order (comma-separated)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	formatter.VerboseLog("Compiling %s", path)
	cfg, err := config.LoadCUE(path)
	if err != nil {
		var cfgErr *config.Error
		if !errors.As(err, &cfgErr) {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
		}
		return outputValidationErrors(formatter, ErrCodeConfig, cfgErr)
	}

	result := ValidationResult{Valid: true, Config: &cfg}

	if len(opts.Theories) > 0 {
		formatter.VerboseLog("Resolving policy against %s", strings.Join(opts.Theories, ", "))
		matrix, err := cfg.Sharing.Resolve(opts.Theories)
		if err != nil {
			var cfgErr *config.Error
			if !errors.As(err, &cfgErr) {
				return formatter.Fail(ExitCommandError, ErrCodePolicy, "failed to resolve policy", err)
			}
			return outputValidationErrors(formatter, ErrCodePolicy, cfgErr)
		}
		result.Pairs = pairs(opts.Theories, matrix)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	writeValidateText(formatter.Writer, path, result)
	return nil
}

// pairs lists every ordered pair of distinct theories in registration
// order.
func pairs(names []string, m config.Matrix) []PairView {
	var out []PairView
	for i := range names {
		for j := range names {
			if i == j {
				continue
			}
			out = append(out, PairView{
				From:  names[i],
				To:    names[j],
				Allow: m.Allowed(theory.Index(i), theory.Index(j)),
			})
		}
	}
	return out
}

func toValidationError(e *config.Error) ValidationError {
	v := ValidationError{
		Code:    string(e.Code),
		Field:   e.Field,
		Message: e.Message,
	}
	if e.Pos.IsValid() {
		v.Line = e.Pos.Line()
		v.Column = e.Pos.Column()
	}
	return v
}

func outputValidationErrors(formatter *OutputFormatter, code string, cfgErr *config.Error) error {
	verr := toValidationError(cfgErr)
	if formatter.JSON() {
		if err := formatter.Success(ValidationResult{Valid: false, Errors: []ValidationError{verr}}); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	} else {
		w := formatter.Writer
		fmt.Fprintf(w, "✗ invalid configuration [%s]\n", code)
		loc := verr.Field
		if verr.Line > 0 {
			loc = fmt.Sprintf("line %d:%d %s", verr.Line, verr.Column, verr.Field)
		}
		fmt.Fprintf(w, "  %s: %s: %s\n", verr.Code, strings.TrimSpace(loc), verr.Message)
	}
	return WrapExitError(ExitFailure, "invalid configuration", cfgErr)
}

func writeValidateText(w io.Writer, path string, result ValidationResult) {
	fmt.Fprintf(w, "✓ %s is valid\n", path)
	d := result.Config.Debug
	fmt.Fprintf(w, "Debug: enabled=%t max_reason_lits=%d imports=%t exports=%t shared_stats=%t\n",
		d.Enabled, d.MaxReasonLits, d.LogImports, d.LogExports, d.LogSharedStats)
	fmt.Fprintf(w, "Rules: %d\n", len(result.Config.Sharing.Rules))
	if len(result.Pairs) == 0 {
		return
	}
	fmt.Fprintln(w, "Pairs:")
	for _, p := range result.Pairs {
		verdict := "allow"
		if !p.Allow {
			verdict = "deny"
		}
		fmt.Fprintf(w, "  %s -> %s: %s\n", p.From, p.To, verdict)
	}
}
