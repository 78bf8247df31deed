package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execTrace(t *testing.T, opts *TraceOptions) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	err := runTrace(opts, cmd)
	return out.String(), err
}

func TestTrace_Text(t *testing.T) {
	db := storeRun(t, "run-1")

	out, err := execTrace(t, &TraceOptions{
		RootOptions: &RootOptions{Format: "text"},
		Database:    db,
		RunID:       "run-1",
		Epoch:       -1,
	})
	require.NoError(t, err)

	want := `Run: run-1 (uf_dl_basic)
Theories: UF, DL
Outcome: pass after 1 round(s), epoch 1

Events (1):
  [1] @0 UF -> DL a = b  because v3

Diagnostics (1):
  @0 UF -> DL a = b  because v3
`
	assert.Equal(t, want, out)
}

func TestTrace_JSON(t *testing.T) {
	db := storeRun(t, "run-1")

	out, err := execTrace(t, &TraceOptions{
		RootOptions: &RootOptions{Format: "json"},
		Database:    db,
		RunID:       "run-1",
		Epoch:       -1,
	})
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "pass", resp.Data.Run.Outcome)
	assert.Equal(t, uint64(1), resp.Data.Run.FinalEpoch)
	assert.Len(t, resp.Data.Run.Digest, 64)
	require.Len(t, resp.Data.Events, 1)
	ev := resp.Data.Events[0]
	assert.Equal(t, "UF", ev.From)
	assert.Equal(t, "DL", ev.To)
	assert.Equal(t, []string{"v3"}, ev.Because)
}

func TestTrace_ListRuns(t *testing.T) {
	db := storeRun(t, "run-1")

	out, err := execTrace(t, &TraceOptions{
		RootOptions: &RootOptions{Format: "text"},
		Database:    db,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "uf_dl_basic")
	assert.Contains(t, out, "epoch=1")
}

func TestTrace_TheoryFilter(t *testing.T) {
	db := storeRun(t, "run-1")

	tests := []struct {
		theory string
		events int
	}{
		{"UF", 1},
		{"DL", 1},
	}
	for _, tt := range tests {
		t.Run(tt.theory, func(t *testing.T) {
			out, err := execTrace(t, &TraceOptions{
				RootOptions: &RootOptions{Format: "json"},
				Database:    db,
				RunID:       "run-1",
				Theory:      tt.theory,
				Epoch:       -1,
			})
			require.NoError(t, err)

			var resp struct {
				Data TraceResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Len(t, resp.Data.Events, tt.events)
			assert.Len(t, resp.Data.Diagnostics, tt.events)
		})
	}
}

func TestTrace_EpochFilter(t *testing.T) {
	db := storeRun(t, "run-1")

	tests := []struct {
		epoch  int
		events int
	}{
		{-1, 1},
		{0, 1},
		{1, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.epoch), func(t *testing.T) {
			out, err := execTrace(t, &TraceOptions{
				RootOptions: &RootOptions{Format: "json"},
				Database:    db,
				RunID:       "run-1",
				Epoch:       tt.epoch,
			})
			require.NoError(t, err)

			var resp struct {
				Data TraceResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Len(t, resp.Data.Events, tt.events)
			assert.Len(t, resp.Data.Diagnostics, tt.events)
		})
	}
}

func TestTrace_Errors(t *testing.T) {
	db := storeRun(t, "run-1")

	tests := []struct {
		name string
		opts TraceOptions
		code string
	}{
		{
			name: "missing database",
			opts: TraceOptions{Database: filepath.Join(t.TempDir(), "absent.db"), RunID: "run-1"},
			code: ErrCodeStore,
		},
		{
			name: "unknown theory",
			opts: TraceOptions{Database: db, RunID: "run-1", Theory: "LRA", Epoch: -1},
			code: ErrCodeNotFound,
		},
		{
			name: "unknown run",
			opts: TraceOptions{Database: db, RunID: "run-2"},
			code: ErrCodeNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.RootOptions = &RootOptions{Format: "text"}

			out, err := execTrace(t, &opts)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}
