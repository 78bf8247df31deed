package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaucouleur/decision/internal/config"
	"github.com/vaucouleur/decision/internal/queryir"
	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/sat"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/trace"
)

// createTestStore opens a fresh store under t.TempDir().
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(id string) Run {
	cfg := config.Default()
	cfg.Sharing = config.UFDL(true, false)
	return Run{
		ID:         id,
		Name:       "uf-dl",
		Theories:   []string{"UF", "DL"},
		Config:     cfg,
		Rounds:     2,
		FinalEpoch: 2,
		Outcome:    "pass",
		Digest:     "9f2c",
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"foreign_keys": "1",
		"busy_timeout": "5000",
		"user_version": "2",
	} {
		got, err := s.pragma(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestOpen_UpgradesOlderDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v1.db")

	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.Exec(schemaSQL)
	require.NoError(t, err)
	_, err = raw.Exec(migrations[0].stmt)
	require.NoError(t, err)
	_, err = raw.Exec("PRAGMA user_version = 1")
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	v, err := s.pragma("user_version")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, testRun("r-upgraded")))
	got, err := s.ReadRun(ctx, "r-upgraded")
	require.NoError(t, err)
	assert.Equal(t, "9f2c", got.Digest)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestStore_RunRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	run := testRun("018f0000-0000-7000-8000-000000000001")
	require.NoError(t, s.WriteRun(ctx, run))

	got, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)

	run.Outcome = "fail"
	run.Rounds = 3
	require.NoError(t, s.WriteRun(ctx, run))
	got, err = s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "fail", got.Outcome)
	assert.Equal(t, 3, got.Rounds)
}

func TestStore_ReadRunNotFound(t *testing.T) {
	_, err := createTestStore(t).ReadRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_ListRunsOrderedByID(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.WriteRun(ctx, testRun("b")))
	require.NoError(t, s.WriteRun(ctx, testRun("a")))
	require.NoError(t, s.WriteRun(ctx, testRun("c")))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
}

func TestStore_EventsOrderedAndIdempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.WriteRun(ctx, testRun("r1")))

	events := []trace.Event{
		{Epoch: 0, From: 1, To: 0, A: 3, B: 4, Explain: 2},
		{Epoch: 1, From: 0, To: 1, A: 4, B: 3, Explain: 5},
	}
	labels := func(id term.ID) string { return map[term.ID]string{3: "x", 4: "y"}[id] }

	require.NoError(t, s.WriteEvents(ctx, "r1", 1, events, labels))
	require.NoError(t, s.WriteEvents(ctx, "r1", 1, events, labels))

	got, err := s.ReadEvents(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Event{Seq: 1, Event: events[0], LabelA: "x", LabelB: "y"}, got[0])
	assert.Equal(t, Event{Seq: 2, Event: events[1], LabelA: "y", LabelB: "x"}, got[1])

	more := []trace.Event{{Epoch: 2, From: 1, To: 0, A: 3, B: 4}}
	require.NoError(t, s.WriteEvents(ctx, "r1", 3, more, nil))
	got, err = s.ReadEvents(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "t3", got[2].LabelA)
}

func TestStore_QueryEvents(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.WriteRun(ctx, testRun("r1")))
	require.NoError(t, s.WriteRun(ctx, testRun("r2")))

	events := []trace.Event{
		{Epoch: 0, From: 0, To: 1, A: 3, B: 4},
		{Epoch: 0, From: 0, To: 2, A: 3, B: 5},
		{Epoch: 1, From: 2, To: 1, A: 5, B: 6},
		{Epoch: 2, From: 1, To: 0, A: 4, B: 6},
	}
	require.NoError(t, s.WriteEvents(ctx, "r1", 1, events, nil))
	require.NoError(t, s.WriteEvents(ctx, "r2", 1, events[:1], nil))

	tests := []struct {
		name   string
		filter queryir.Predicate
		seqs   []int64
	}{
		{"all", nil, []int64{1, 2, 3, 4}},
		{"epoch", queryir.Equals{Field: queryir.FieldEpoch, Value: 0}, []int64{1, 2}},
		{"involves", queryir.Involves{Theory: 2}, []int64{2, 3}},
		{"mentions", queryir.Mentions{Term: 6}, []int64{3, 4}},
		{"epoch range and importer", queryir.And{Predicates: []queryir.Predicate{
			queryir.Range{Field: queryir.FieldEpoch, Lo: 1, Hi: 2},
			queryir.Equals{Field: queryir.FieldTo, Value: 1},
		}}, []int64{3}},
		{"not exporter", queryir.Not{Predicate: queryir.Equals{Field: queryir.FieldFrom, Value: 0}}, []int64{3, 4}},
		{"nothing", queryir.Equals{Field: queryir.FieldTermA, Value: 99}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.QueryEvents(ctx, "r1", tt.filter)
			require.NoError(t, err)
			seqs := []int64{}
			for _, e := range got {
				seqs = append(seqs, e.Seq)
			}
			assert.Equal(t, tt.seqs, seqs)
		})
	}
}

func TestStore_QueryEventsInvalidFilter(t *testing.T) {
	_, err := createTestStore(t).QueryEvents(context.Background(), "r1", queryir.Or{})
	assert.ErrorIs(t, err, queryir.ErrInvalid)
}

func TestStore_EventsRequireRun(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteEvents(context.Background(), "nope", 1, []trace.Event{{}}, nil)
	assert.Error(t, err, "foreign key enforced")
}

func TestStore_ReadEventsEmpty(t *testing.T) {
	got, err := createTestStore(t).ReadEvents(context.Background(), "none")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStore_Diagnostics(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.WriteRun(ctx, testRun("r1")))

	diags := []trace.Diagnostic{
		{
			Event:    trace.Event{Epoch: 0, From: 1, To: 0, A: 3, B: 4, Explain: 2},
			FromName: "DL", ToName: "UF",
			Because:   []string{"v1", "¬v2"},
			Truncated: true,
		},
		{
			Event:    trace.Event{Epoch: 1, From: 0, To: 1, A: 3, B: 4},
			FromName: "UF", ToName: "DL",
			Because: []string{},
		},
	}
	require.NoError(t, s.WriteDiagnostics(ctx, "r1", 1, diags))

	got, err := s.ReadDiagnostics(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Diagnostic{Seq: 1, Diagnostic: diags[0]}, got[0])
	assert.Equal(t, Diagnostic{Seq: 2, Diagnostic: diags[1]}, got[1])
}

func TestStore_ReasonsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.WriteRun(ctx, testRun("r1")))

	arena := reason.NewArena()
	l1 := arena.Lit(sat.Pos(1))
	l2 := arena.Lit(sat.Neg(2))
	inner := arena.And(l1, l2)
	root := arena.And(inner, l1)

	require.NoError(t, s.WriteReasons(ctx, "r1", arena))
	arena.Lit(sat.Pos(9))
	require.NoError(t, s.WriteReasons(ctx, "r1", arena), "grown arena can be rewritten")

	got, err := s.ReadReasons(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, arena.Len(), got.Len())
	assert.Equal(t, arena.Expand(root), got.Expand(root))
	assert.Equal(t, arena.Get(inner), got.Get(inner))
}
