package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaucouleur/decision/internal/bundle"
	"github.com/vaucouleur/decision/internal/config"
	"github.com/vaucouleur/decision/internal/harness"
	"github.com/vaucouleur/decision/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database  string
	BundleDir string
	Config    string
	Debug     bool

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to bundle.UUIDv7Generator.
	RunIDs bundle.IDGenerator

	// BundleIDs allows overriding the bundle id generator (for testing).
	BundleIDs bundle.IDGenerator
}

// RunSummary is the JSON payload of the run command.
type RunSummary struct {
	Scenario    string      `json:"scenario"`
	Pass        bool        `json:"pass"`
	Errors      []string    `json:"errors,omitempty"`
	Theories    []string    `json:"theories"`
	Epoch       uint64      `json:"epoch"`
	Shared      []string    `json:"shared"`
	Events      []EventView `json:"events"`
	Diagnostics []string    `json:"diagnostics"`
	Digest      string      `json:"digest"`
	RunID       string      `json:"run_id,omitempty"`
	Bundle      string      `json:"bundle,omitempty"`
}

// EventView is one delivery as the CLI prints it.
type EventView struct {
	Seq     int64    `json:"seq"`
	Epoch   uint64   `json:"epoch"`
	From    string   `json:"from"`
	To      string   `json:"to"`
	A       string   `json:"a"`
	B       string   `json:"b"`
	Explain uint32   `json:"explain"`
	Because []string `json:"because,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run an equality-sharing scenario",
		Long: `Run a scenario on a fresh engine and check its expectations.

With --db the run header, every delivery, the diagnostics and the
explanation arena are stored so they can be inspected later with
"trace" and "dot". With --bundle-dir a debug bundle rooted at the last
delivery's explanation is written. --config replaces the scenario's
sharing policy and diagnostics with a CUE document.

Examples:
  smtcomb run testdata/scenarios/uf_dl_basic.yaml
  smtcomb run scenario.yaml --db ./trace.db --debug -v
  smtcomb run scenario.yaml --config policy.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database")
	cmd.Flags().StringVar(&opts.BundleDir, "bundle-dir", "", "directory for a debug bundle")
	cmd.Flags().StringVar(&opts.Config, "config", "", "CUE configuration overriding the scenario's policy and diagnostics")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "force verbose equality-sharing diagnostics")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := formatter.Logger()

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScenario, "failed to load scenario", err)
	}

	if opts.Config != "" {
		cfg, err := config.LoadCUE(opts.Config)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
		}
		scenario.Sharing = cfg.Sharing
		scenario.Debug = &cfg.Debug
	}

	runOpts := []harness.RunOption{harness.WithLogger(logger)}
	if opts.Debug {
		debug := config.DefaultDebug()
		if scenario.Debug != nil {
			debug = *scenario.Debug
		}
		runOpts = append(runOpts, harness.WithDebug(debug.Verbose()))
	}
	if opts.BundleDir != "" {
		runOpts = append(runOpts, harness.WithBundleDir(opts.BundleDir))
		if opts.BundleIDs != nil {
			runOpts = append(runOpts, harness.WithBundleIDs(opts.BundleIDs))
		}
	}

	logger.Debug("running scenario", "name", scenario.Name, "rounds", scenario.RoundCount())
	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScenario, "failed to run scenario", err)
	}

	summary := summarize(result)
	summary.Digest, err = result.Digest()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScenario, "failed to digest run", err)
	}

	if opts.Database != "" {
		ids := opts.RunIDs
		if ids == nil {
			ids = bundle.UUIDv7Generator{}
		}
		summary.RunID = ids.Generate()
		if err := persist(cmd.Context(), opts.Database, summary, scenario, result, logger); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to store run", err)
		}
	}

	if formatter.JSON() {
		if err := formatter.Success(summary); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	} else {
		writeRunText(cmd, result, summary)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func summarize(r *harness.Result) RunSummary {
	s := RunSummary{
		Scenario:    r.Name,
		Pass:        r.Pass,
		Errors:      r.Errors,
		Theories:    r.Theories,
		Epoch:       r.Epoch,
		Shared:      make([]string, len(r.Shared)),
		Events:      make([]EventView, len(r.Events)),
		Diagnostics: make([]string, len(r.Diagnostics)),
		Bundle:      r.Bundle,
	}
	for i, id := range r.Shared {
		s.Shared[i] = r.Label(id)
	}
	for i, ev := range r.Events {
		s.Events[i] = EventView{
			Seq:     int64(i + 1),
			Epoch:   ev.Epoch,
			From:    r.Theories[ev.From],
			To:      r.Theories[ev.To],
			A:       r.Label(ev.A),
			B:       r.Label(ev.B),
			Explain: uint32(ev.Explain),
			Because: r.Because(ev.Explain),
		}
	}
	for i, d := range r.Diagnostics {
		s.Diagnostics[i] = r.DiagnosticLine(d)
	}
	return s
}

// persist stores the run header, trace, diagnostics and explanations.
func persist(ctx context.Context, path string, summary RunSummary, s *harness.Scenario, r *harness.Result, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	runID := summary.RunID
	outcome := "pass"
	if !r.Pass {
		outcome = "fail"
	}
	run := store.Run{
		ID:         runID,
		Name:       s.Name,
		Theories:   r.Theories,
		Config:     r.Engine.Config(),
		Rounds:     s.RoundCount(),
		FinalEpoch: r.Epoch,
		Outcome:    outcome,
		Digest:     summary.Digest,
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return err
	}
	if err := st.WriteReasons(ctx, runID, r.Engine.Reasons()); err != nil {
		return err
	}
	if err := st.WriteEvents(ctx, runID, 1, r.Events, r.Label); err != nil {
		return err
	}
	if err := st.WriteDiagnostics(ctx, runID, 1, r.Diagnostics); err != nil {
		return err
	}

	logger.Info("run stored", "run", runID, "events", len(r.Events), "diagnostics", len(r.Diagnostics))
	return nil
}

func writeRunText(cmd *cobra.Command, r *harness.Result, s RunSummary) {
	w := cmd.OutOrStdout()
	if r.Pass {
		fmt.Fprintf(w, "✓ %s\n", r.Name)
	} else {
		fmt.Fprintf(w, "✗ %s\n", r.Name)
		for _, msg := range r.Errors {
			for _, line := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, r.Render())
	fmt.Fprintf(w, "\nDigest: %s\n", s.Digest)
	if s.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", s.RunID)
	}
	if s.Bundle != "" {
		fmt.Fprintf(w, "Bundle: %s\n", s.Bundle)
	}
}
