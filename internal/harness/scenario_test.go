package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/uf_dl_basic.yaml")
	require.NoError(t, err)

	assert.Equal(t, "uf_dl_basic", scenario.Name)
	assert.Len(t, scenario.Terms, 4)
	require.Len(t, scenario.Theories, 2)
	assert.Equal(t, "UF", scenario.Theories[0].Name)
	assert.True(t, scenario.Theories[0].IsSharing())
	require.Len(t, scenario.Theories[0].Exports, 1)
	assert.Equal(t, []int{3}, scenario.Theories[0].Exports[0][0].Lits)
	assert.Len(t, scenario.Sharing.Rules, 2)
	assert.Nil(t, scenario.Debug)
	assert.Equal(t, 1, scenario.RoundCount())

	require.NotNil(t, scenario.Expect.Epoch)
	assert.Equal(t, uint64(1), *scenario.Expect.Epoch)
	assert.NotNil(t, scenario.Expect.Imports["UF"], "an empty list still means 'check for none'")
	assert.Empty(t, scenario.Expect.Imports["UF"])
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	content := `
name: tiny
description: "one theory, nothing shared"
theories:
  - name: UF
expect:
  events: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", scenario.Name)
	require.NotNil(t, scenario.Expect.Events)
	assert.Equal(t, 0, *scenario.Expect.Events)
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "misspelled key"
theory:
  - name: UF
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_NestedUnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "misspelled debug key"
theories:
  - name: UF
debug:
  enable: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\ntheories: [{name: UF}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\ntheories: [{name: UF}]\n",
			want: "description is required",
		},
		{
			name: "no theories",
			yaml: "name: n\ndescription: d\n",
			want: "theories list is required",
		},
		{
			name: "negative rounds",
			yaml: "name: n\ndescription: d\nrounds: -1\ntheories: [{name: UF}]\n",
			want: "rounds must be non-negative",
		},
		{
			name: "duplicate theory",
			yaml: "name: n\ndescription: d\ntheories: [{name: UF}, {name: UF}]\n",
			want: `theories[1]: duplicate theory "UF"`,
		},
		{
			name: "duplicate term",
			yaml: "name: n\ndescription: d\nterms: [{name: x}, {name: x}]\ntheories: [{name: UF}]\n",
			want: `terms[1]: duplicate term "x"`,
		},
		{
			name: "two term kinds",
			yaml: "name: n\ndescription: d\nterms: [{name: x}, {name: e, eq: [x, x], not: x}]\ntheories: [{name: UF}]\n",
			want: "at most one of fn, eq, le, not and int",
		},
		{
			name: "eq arity",
			yaml: "name: n\ndescription: d\nterms: [{name: x}, {name: e, eq: [x]}]\ntheories: [{name: UF}]\n",
			want: "eq takes exactly 2 terms",
		},
		{
			name: "args without fn",
			yaml: "name: n\ndescription: d\nterms: [{name: x, args: [x]}]\ntheories: [{name: UF}]\n",
			want: "args requires fn",
		},
		{
			name: "non-sharing exporter",
			yaml: "name: n\ndescription: d\nterms: [{name: x}]\ntheories: [{name: ARR, sharing: false, exports: [[{a: x, b: x}]]}]\n",
			want: "ARR does not share",
		},
		{
			name: "zero literal",
			yaml: "name: n\ndescription: d\nterms: [{name: x}]\ntheories: [{name: UF, exports: [[{a: x, b: x, lits: [0]}]]}]\n",
			want: "0 is not a literal",
		},
		{
			name: "atom round out of range",
			yaml: "name: n\ndescription: d\nterms: [{name: x}]\ntheories: [{name: UF}]\natoms: [{term: x, theory: UF, round: 1}]\n",
			want: "atoms[0]: round 1 outside [0, 1)",
		},
		{
			name: "hop with one side",
			yaml: "name: n\ndescription: d\ntheories: [{name: UF}]\nexpect: {hops: [{from: UF, to: UF, a: x}]}\n",
			want: "a and b must be given together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
