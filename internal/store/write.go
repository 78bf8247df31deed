package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/sat"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/trace"
)

// WriteRun inserts or replaces the run header.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	theories, err := json.Marshal(run.Theories)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	cfg, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, name, theories, config, rounds, final_epoch, outcome, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			rounds = excluded.rounds,
			final_epoch = excluded.final_epoch,
			outcome = excluded.outcome,
			digest = excluded.digest
	`,
		run.ID,
		run.Name,
		string(theories),
		string(cfg),
		run.Rounds,
		int64(run.FinalEpoch),
		run.Outcome,
		run.Digest,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteEvents appends events to a run's trace, numbering them from
// firstSeq. Rows already present for (run, seq) are left alone, so
// rewriting the same trace is a no-op. labels may be nil.
func (s *Store) WriteEvents(ctx context.Context, runID string, firstSeq int64, events []trace.Event, labels func(term.ID) string) error {
	if labels == nil {
		labels = term.ID.String
	}
	return s.inTx(ctx, "write events", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO eqshare_events
			(run_id, seq, epoch, from_theory, to_theory, term_a, term_b, explain, label_a, label_b)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, seq) DO NOTHING
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, e := range events {
			_, err := stmt.ExecContext(ctx,
				runID,
				firstSeq+int64(i),
				int64(e.Epoch),
				int(e.From),
				int(e.To),
				int64(e.A),
				int64(e.B),
				int64(e.Explain),
				labels(e.A),
				labels(e.B),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteDiagnostics appends diagnostics numbered from firstSeq, with the
// same idempotency as WriteEvents.
func (s *Store) WriteDiagnostics(ctx context.Context, runID string, firstSeq int64, diags []trace.Diagnostic) error {
	return s.inTx(ctx, "write diagnostics", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO diagnostics
			(run_id, seq, epoch, from_name, to_name, term_a, term_b, explain, because, truncated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, seq) DO NOTHING
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, d := range diags {
			because := d.Because
			if because == nil {
				because = []string{}
			}
			becauseJSON, err := json.Marshal(because)
			if err != nil {
				return err
			}
			_, err = stmt.ExecContext(ctx,
				runID,
				firstSeq+int64(i),
				int64(d.Epoch),
				d.FromName,
				d.ToName,
				int64(d.A),
				int64(d.B),
				int64(d.Explain),
				string(becauseJSON),
				d.Truncated,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteReasons stores every node of arena for the run. Nodes already
// stored are skipped, so an arena that only grew can be written again.
func (s *Store) WriteReasons(ctx context.Context, runID string, arena *reason.Arena) error {
	return s.inTx(ctx, "write reasons", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO reason_nodes (run_id, id, is_leaf, lit, kids)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(run_id, id) DO NOTHING
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := 0; i < arena.Len(); i++ {
			n := arena.Get(reason.ID(i))
			lit := 0
			kids := []reason.ID{}
			if n.IsLeaf {
				lit = sat.ToDimacs(n.Lit)
			} else {
				kids = append(kids, n.Kids...)
			}
			kidsJSON, err := json.Marshal(kids)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, runID, i, n.IsLeaf, lit, string(kidsJSON)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}
