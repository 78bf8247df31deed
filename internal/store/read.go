package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vaucouleur/decision/internal/queryir"
	"github.com/vaucouleur/decision/internal/querysql"
	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/sat"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/theory"
)

// ErrRunNotFound is returned by ReadRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns the run header.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, theories, config, rounds, final_epoch, outcome, digest
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns all runs ordered by id. Run ids are UUIDv7, so this is
// creation order.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, theories, config, rounds, final_epoch, outcome, digest
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run        Run
		theories   string
		cfg        string
		finalEpoch int64
	)
	if err := sc.Scan(&run.ID, &run.Name, &theories, &cfg, &run.Rounds, &finalEpoch, &run.Outcome, &run.Digest); err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(theories), &run.Theories); err != nil {
		return Run{}, fmt.Errorf("decode theories: %w", err)
	}
	if err := json.Unmarshal([]byte(cfg), &run.Config); err != nil {
		return Run{}, fmt.Errorf("decode config: %w", err)
	}
	run.FinalEpoch = uint64(finalEpoch)
	return run, nil
}

// ReadEvents returns a run's events ordered by seq. Returns an empty slice
// (not nil) if none exist.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]Event, error) {
	return s.QueryEvents(ctx, runID, nil)
}

// QueryEvents returns the events of a run that satisfy filter, ordered by
// seq. A nil filter selects every event.
func (s *Store) QueryEvents(ctx context.Context, runID string, filter queryir.Predicate) ([]Event, error) {
	query, params, err := querysql.CompileEvents(runID, filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			e             Event
			epoch         int64
			from, to      int
			a, b, explain int64
		)
		if err := rows.Scan(&e.Seq, &epoch, &from, &to, &a, &b, &explain, &e.LabelA, &e.LabelB); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Epoch = uint64(epoch)
		e.From = theory.Index(from)
		e.To = theory.Index(to)
		e.A = term.ID(a)
		e.B = term.ID(b)
		e.Explain = reason.ID(explain)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ReadDiagnostics returns a run's diagnostics ordered by seq.
func (s *Store) ReadDiagnostics(ctx context.Context, runID string) ([]Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, epoch, from_name, to_name, term_a, term_b, explain, because, truncated
		FROM diagnostics
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	diags := []Diagnostic{}
	for rows.Next() {
		var (
			d             Diagnostic
			epoch         int64
			a, b, explain int64
			because       string
		)
		if err := rows.Scan(&d.Seq, &epoch, &d.FromName, &d.ToName, &a, &b, &explain, &because, &d.Truncated); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		if err := json.Unmarshal([]byte(because), &d.Because); err != nil {
			return nil, fmt.Errorf("decode because: %w", err)
		}
		d.Epoch = uint64(epoch)
		d.A = term.ID(a)
		d.B = term.ID(b)
		d.Explain = reason.ID(explain)
		diags = append(diags, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return diags, nil
}

// ReadReasons rebuilds the explanation arena stored for a run. Handles in
// the result match the handles stored events refer to.
func (s *Store) ReadReasons(ctx context.Context, runID string) (*reason.Arena, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, is_leaf, lit, kids
		FROM reason_nodes
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query reasons: %w", err)
	}
	defer rows.Close()

	arena := reason.NewArena()
	for rows.Next() {
		var (
			id     int64
			isLeaf bool
			lit    int
			kids   string
		)
		if err := rows.Scan(&id, &isLeaf, &lit, &kids); err != nil {
			return nil, fmt.Errorf("scan reason: %w", err)
		}
		if id != int64(arena.Len()) {
			return nil, fmt.Errorf("reason %d missing from run %s", arena.Len(), runID)
		}
		if isLeaf {
			arena.Lit(sat.FromDimacs(lit))
			continue
		}
		var ids []reason.ID
		if err := json.Unmarshal([]byte(kids), &ids); err != nil {
			return nil, fmt.Errorf("decode kids of reason %d: %w", id, err)
		}
		arena.Push(reason.And(ids...))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reasons: %w", err)
	}
	return arena, nil
}
