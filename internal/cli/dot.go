package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaucouleur/decision/internal/dot"
	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/store"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/theory"
	"github.com/vaucouleur/decision/internal/trace"
)

// DotOptions holds flags for the dot command.
type DotOptions struct {
	*RootOptions
	Database     string
	RunID        string
	Reason       int // -1 renders the eqshare graph
	MaxEvents    int
	MaxLits      int
	ReasonBoxes  bool
	MaxReasonDAG int
}

// DotResult is the JSON payload of the dot command.
type DotResult struct {
	Run string `json:"run"`
	Dot string `json:"dot"`
}

// NewDotCommand creates the dot command.
func NewDotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DotOptions{RootOptions: rootOpts}
	eq := dot.DefaultEqLimits()
	rl := dot.DefaultReasonLimits()

	cmd := &cobra.Command{
		Use:   "dot",
		Short: "Render a stored run as Graphviz",
		Long: `Render the equality-sharing graph of a stored run, or with --reason
the explanation DAG rooted at one reason handle.

Examples:
  smtcomb dot --db ./trace.db --run 0190c4c2-... | dot -Tsvg > eqshare.svg
  smtcomb dot --db ./trace.db --run 0190c4c2-... --reason 4 > reason.dot`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDot(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to render (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().IntVar(&opts.Reason, "reason", -1, "render the explanation DAG rooted at this reason handle")
	cmd.Flags().IntVar(&opts.MaxEvents, "max-events", eq.MaxEvents, "maximum deliveries drawn")
	cmd.Flags().IntVar(&opts.MaxLits, "max-lits", eq.MaxReasonLits, "maximum literals per edge label")
	cmd.Flags().BoolVar(&opts.ReasonBoxes, "reason-boxes", eq.IncludeReasonNodes, "draw a box per explanation")
	cmd.Flags().IntVar(&opts.MaxReasonDAG, "max-nodes", rl.MaxNodes, "maximum reason nodes drawn with --reason")

	return cmd
}

func runDot(opts *DotOptions, cmd *cobra.Command) error {
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

	out, err := renderDot(ctx, st, opts)
	if errors.Is(err, store.ErrRunNotFound) || errors.Is(err, errReasonNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "not found", err)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
	}

	if formatter.JSON() {
		return formatter.Success(DotResult{Run: opts.RunID, Dot: out})
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

var errReasonNotFound = errors.New("reason not found")

func renderDot(ctx context.Context, st *store.Store, opts *DotOptions) (string, error) {
	run, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		return "", err
	}
	arena, err := st.ReadReasons(ctx, opts.RunID)
	if err != nil {
		return "", err
	}

	if opts.Reason >= 0 {
		if opts.Reason >= arena.Len() {
			return "", fmt.Errorf("reason %d of run %s: %w", opts.Reason, opts.RunID, errReasonNotFound)
		}
		rl := dot.DefaultReasonLimits()
		rl.MaxNodes = opts.MaxReasonDAG
		return dot.Reason(arena, reason.ID(opts.Reason), rl), nil
	}

	stored, err := st.ReadEvents(ctx, opts.RunID)
	if err != nil {
		return "", err
	}
	events := make([]trace.Event, len(stored))
	for i, ev := range stored {
		events[i] = ev.Event
	}

	lim := dot.EqLimits{
		MaxEvents:          opts.MaxEvents,
		MaxReasonLits:      opts.MaxLits,
		IncludeReasonNodes: opts.ReasonBoxes,
	}
	return dot.EqShare(events, arena, theoryNamer(run.Theories), storedLabels(stored), lim), nil
}

// openExisting opens a trace database that must already exist; store.Open
// would silently create an empty one.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return store.Open(path)
}

// theoryNamer maps registration indexes to the stored theory names.
func theoryNamer(names []string) func(theory.Index) string {
	return func(i theory.Index) string {
		if int(i) < len(names) {
			return names[i]
		}
		return fmt.Sprintf("#%d", i)
	}
}

// storedLabels maps term handles to the labels recorded with the events.
// Terms never seen in an event fall back to their handle.
func storedLabels(events []store.Event) func(term.ID) string {
	labels := make(map[term.ID]string, 2*len(events))
	for _, ev := range events {
		labels[ev.A] = ev.LabelA
		labels[ev.B] = ev.LabelB
	}
	return func(id term.ID) string {
		if l, ok := labels[id]; ok {
			return l
		}
		return id.String()
	}
}
