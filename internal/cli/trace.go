package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaucouleur/decision/internal/queryir"
	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/sat"
	"github.com/vaucouleur/decision/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Theory   string // optional - only deliveries from or to this theory
	Epoch    int    // optional - only deliveries of this epoch; -1 for all
}

// RunView is a stored run header as the CLI prints it.
type RunView struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Theories   []string `json:"theories"`
	Rounds     int      `json:"rounds"`
	FinalEpoch uint64   `json:"final_epoch"`
	Outcome    string   `json:"outcome"`
	Digest     string   `json:"digest,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run         RunView     `json:"run"`
	Events      []EventView `json:"events"`
	Diagnostics []string    `json:"diagnostics"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the stored equality-sharing trace of a run",
		Long: `Print the deliveries and diagnostics stored for a run.

Without --run, lists the stored runs in creation order.

Examples:
  smtcomb trace --db ./trace.db
  smtcomb trace --db ./trace.db --run 0190c4c2-...
  smtcomb trace --db ./trace.db --run 0190c4c2-... --theory DL --format json
  smtcomb trace --db ./trace.db --run 0190c4c2-... --epoch 2`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to print")
	cmd.Flags().StringVar(&opts.Theory, "theory", "", "only deliveries from or to this theory")
	cmd.Flags().IntVar(&opts.Epoch, "epoch", -1, "only deliveries of this epoch")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openExisting(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		return listRuns(ctx, st, formatter)
	}

	result, err := loadTrace(ctx, st, opts.RunID, opts.Theory, opts.Epoch)
	if errors.Is(err, store.ErrRunNotFound) || errors.Is(err, errTheoryNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "not found", err)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read trace", err)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	writeTraceText(cmd.OutOrStdout(), result)
	return nil
}

func listRuns(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
	}
	views := make([]RunView, len(runs))
	for i, r := range runs {
		views[i] = runView(r)
	}

	if formatter.JSON() {
		return formatter.Success(views)
	}
	if len(views) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs stored.")
		return nil
	}
	for _, v := range views {
		fmt.Fprintf(formatter.Writer, "%s  %-24s %s  epoch=%d\n", v.ID, v.Name, v.Outcome, v.FinalEpoch)
	}
	return nil
}

func runView(r store.Run) RunView {
	return RunView{
		ID:         r.ID,
		Name:       r.Name,
		Theories:   r.Theories,
		Rounds:     r.Rounds,
		FinalEpoch: r.FinalEpoch,
		Outcome:    r.Outcome,
		Digest:     r.Digest,
	}
}

var errTheoryNotFound = errors.New("theory not found")

// traceFilter builds the delivery filter for the --theory and --epoch
// flags. It returns nil when neither is set.
func traceFilter(run store.Run, theory string, epoch int) (queryir.Predicate, error) {
	var preds []queryir.Predicate
	if theory != "" {
		i := slices.Index(run.Theories, theory)
		if i < 0 {
			return nil, fmt.Errorf("%q in run %s: %w", theory, run.ID, errTheoryNotFound)
		}
		preds = append(preds, queryir.Involves{Theory: int64(i)})
	}
	if epoch >= 0 {
		preds = append(preds, queryir.Equals{Field: queryir.FieldEpoch, Value: int64(epoch)})
	}
	if len(preds) == 0 {
		return nil, nil
	}
	return queryir.And{Predicates: preds}, nil
}

// loadTrace reads a run and renders its events with the stored labels.
// theory, when set, keeps only deliveries from or to that theory; epoch,
// when not negative, keeps only deliveries of that epoch.
func loadTrace(ctx context.Context, st *store.Store, runID, theory string, epoch int) (TraceResult, error) {
	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return TraceResult{}, err
	}
	filter, err := traceFilter(run, theory, epoch)
	if err != nil {
		return TraceResult{}, err
	}
	events, err := st.QueryEvents(ctx, runID, filter)
	if err != nil {
		return TraceResult{}, err
	}
	diags, err := st.ReadDiagnostics(ctx, runID)
	if err != nil {
		return TraceResult{}, err
	}
	arena, err := st.ReadReasons(ctx, runID)
	if err != nil {
		return TraceResult{}, err
	}

	name := theoryNamer(run.Theories)
	all, err := st.ReadEvents(ctx, runID)
	if err != nil {
		return TraceResult{}, err
	}
	labels := storedLabels(all)

	result := TraceResult{
		Run:         runView(run),
		Events:      []EventView{},
		Diagnostics: []string{},
	}
	for _, ev := range events {
		from, to := name(ev.From), name(ev.To)
		result.Events = append(result.Events, EventView{
			Seq:     ev.Seq,
			Epoch:   ev.Epoch,
			From:    from,
			To:      to,
			A:       ev.LabelA,
			B:       ev.LabelB,
			Explain: uint32(ev.Explain),
			Because: because(arena, ev.Explain),
		})
	}
	for _, d := range diags {
		if theory != "" && d.FromName != theory && d.ToName != theory {
			continue
		}
		if epoch >= 0 && d.Epoch != uint64(epoch) {
			continue
		}
		line := fmt.Sprintf("@%d %s -> %s %s = %s", d.Epoch, d.FromName, d.ToName, labels(d.A), labels(d.B))
		if b := d.BecauseString(); b != "" {
			line += "  because " + b
		}
		result.Diagnostics = append(result.Diagnostics, line)
	}
	return result, nil
}

// because expands a stored explanation. Handles the arena does not hold
// render as nothing.
func because(arena *reason.Arena, id reason.ID) []string {
	if int(id) >= arena.Len() {
		return nil
	}
	lits := arena.Expand(id)
	out := make([]string, len(lits))
	for i, l := range lits {
		out[i] = sat.Format(l)
	}
	return out
}

func writeTraceText(w io.Writer, result TraceResult) {
	fmt.Fprintf(w, "Run: %s (%s)\n", result.Run.ID, result.Run.Name)
	fmt.Fprintf(w, "Theories: %s\n", strings.Join(result.Run.Theories, ", "))
	fmt.Fprintf(w, "Outcome: %s after %d round(s), epoch %d\n",
		result.Run.Outcome, result.Run.Rounds, result.Run.FinalEpoch)

	fmt.Fprintf(w, "\nEvents (%d):\n", len(result.Events))
	for _, ev := range result.Events {
		fmt.Fprintf(w, "  [%d] @%d %s -> %s %s = %s", ev.Seq, ev.Epoch, ev.From, ev.To, ev.A, ev.B)
		if len(ev.Because) > 0 {
			fmt.Fprintf(w, "  because %s", strings.Join(ev.Because, ", "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nDiagnostics (%d):\n", len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		fmt.Fprintf(w, "  %s\n", d)
	}
}
