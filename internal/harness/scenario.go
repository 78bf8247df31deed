package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vaucouleur/decision/internal/config"
)

// Scenario defines one equality-sharing run and what it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Terms are created in order; later terms may refer to earlier ones.
	Terms []TermDef `yaml:"terms"`

	// Theories are registered in order.
	Theories []TheoryDef `yaml:"theories"`

	// Atoms are registered in order, each before the round it names.
	Atoms []AtomDef `yaml:"atoms,omitempty"`

	// Sharing restricts which exporter→importer pairs receive equalities.
	Sharing config.SharingPolicy `yaml:"sharing,omitempty"`

	// Debug replaces config.DefaultDebug() when set.
	Debug *config.DebugEqSharing `yaml:"debug,omitempty"`

	// Rounds is the number of rounds to run. Zero means one.
	Rounds int `yaml:"rounds,omitempty"`

	Expect Expect `yaml:"expect"`
}

// TermDef declares a named term. Exactly one of Fn, Eq, Le, Not and Int may
// be set; with none of them the term is a constant called Name.
type TermDef struct {
	Name string `yaml:"name"`

	// Sort of a constant or the result sort of an application.
	// Empty or "Int" means the integer sort.
	Sort string `yaml:"sort,omitempty"`

	Fn   string   `yaml:"fn,omitempty"`
	Args []string `yaml:"args,omitempty"`

	Eq  []string `yaml:"eq,omitempty"`
	Le  []string `yaml:"le,omitempty"`
	Not string   `yaml:"not,omitempty"`
	Int *int64   `yaml:"int,omitempty"`
}

// TheoryDef declares a scripted theory.
type TheoryDef struct {
	Name string `yaml:"name"`

	// Sharing defaults to true. A non-sharing theory contributes endpoints
	// but never exports or imports.
	Sharing *bool `yaml:"sharing,omitempty"`

	// Endpoints maps an atom term to the terms it mentions.
	Endpoints map[string][]string `yaml:"endpoints,omitempty"`

	// Exports[i] is exported on the i-th round.
	Exports [][]ExportDef `yaml:"exports,omitempty"`

	// RepeatLast keeps exporting the last entry of Exports after it runs out.
	RepeatLast bool `yaml:"repeat_last,omitempty"`

	// OnlyShared drops exports whose terms are not both shared.
	OnlyShared bool `yaml:"only_shared,omitempty"`
}

// IsSharing reports whether the theory takes part in equality sharing.
func (d TheoryDef) IsSharing() bool {
	return d.Sharing == nil || *d.Sharing
}

// ExportDef is one scripted equality. Lits are DIMACS literals.
type ExportDef struct {
	A    string `yaml:"a"`
	B    string `yaml:"b"`
	Lits []int  `yaml:"lits,omitempty"`
}

// AtomDef assigns an atom term to its owning theory.
type AtomDef struct {
	Term   string `yaml:"term"`
	Theory string `yaml:"theory"`

	// Round is the 0-based round before which the atom is added.
	Round int `yaml:"round,omitempty"`
}

// Expect lists the checks run after the last round. Unset fields are not
// checked.
type Expect struct {
	// Epoch is the engine epoch after the last round.
	Epoch *uint64 `yaml:"epoch,omitempty"`

	// Shared is the shared set after the last round, in any order.
	Shared []string `yaml:"shared,omitempty"`

	// Events is the total number of deliveries.
	Events *int `yaml:"events,omitempty"`

	// Diagnostics is the total number of diagnostics.
	Diagnostics *int `yaml:"diagnostics,omitempty"`

	// Hops must each appear in the trace.
	Hops []Hop `yaml:"hops,omitempty"`

	// NoHops must not appear in the trace.
	NoHops []Hop `yaml:"no_hops,omitempty"`

	// Imports maps a theory name to the exact sequence of equalities it
	// imported.
	Imports map[string][]ExpectedImport `yaml:"imports,omitempty"`
}

// Hop is a delivery from one theory to another. With A and B empty it
// matches any delivery in that direction; otherwise A and B match in
// either orientation.
type Hop struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	A    string `yaml:"a,omitempty"`
	B    string `yaml:"b,omitempty"`
}

// ExpectedImport is one imported equality. Because, when set, is the exact
// expansion of its explanation as DIMACS literals.
type ExpectedImport struct {
	A       string `yaml:"a"`
	B       string `yaml:"b"`
	Because []int  `yaml:"because,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "theory:" vs "theories:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// RoundCount returns the number of rounds to run.
func (s *Scenario) RoundCount() int {
	if s.Rounds == 0 {
		return 1
	}
	return s.Rounds
}

// validateScenario checks the shape of a scenario. Name references are
// resolved when the scenario is built.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Rounds < 0 {
		return fmt.Errorf("rounds must be non-negative")
	}
	if len(s.Theories) == 0 {
		return fmt.Errorf("theories list is required and must be non-empty")
	}

	terms := make(map[string]bool, len(s.Terms))
	for i, td := range s.Terms {
		if td.Name == "" {
			return fmt.Errorf("terms[%d]: name is required", i)
		}
		if terms[td.Name] {
			return fmt.Errorf("terms[%d]: duplicate term %q", i, td.Name)
		}
		terms[td.Name] = true
		if err := validateTermDef(td); err != nil {
			return fmt.Errorf("terms[%d]: %w", i, err)
		}
	}

	theories := make(map[string]bool, len(s.Theories))
	for i, td := range s.Theories {
		if td.Name == "" {
			return fmt.Errorf("theories[%d]: name is required", i)
		}
		if theories[td.Name] {
			return fmt.Errorf("theories[%d]: duplicate theory %q", i, td.Name)
		}
		theories[td.Name] = true
		if !td.IsSharing() && (len(td.Exports) > 0 || td.RepeatLast || td.OnlyShared) {
			return fmt.Errorf("theories[%d]: %s does not share and cannot export", i, td.Name)
		}
		for r, round := range td.Exports {
			for j, ex := range round {
				if ex.A == "" || ex.B == "" {
					return fmt.Errorf("theories[%d].exports[%d][%d]: a and b are required", i, r, j)
				}
				for _, l := range ex.Lits {
					if l == 0 {
						return fmt.Errorf("theories[%d].exports[%d][%d]: 0 is not a literal", i, r, j)
					}
				}
			}
		}
	}

	for i, a := range s.Atoms {
		if a.Term == "" || a.Theory == "" {
			return fmt.Errorf("atoms[%d]: term and theory are required", i)
		}
		if a.Round < 0 || a.Round >= s.RoundCount() {
			return fmt.Errorf("atoms[%d]: round %d outside [0, %d)", i, a.Round, s.RoundCount())
		}
	}

	for i, h := range append(append([]Hop(nil), s.Expect.Hops...), s.Expect.NoHops...) {
		if h.From == "" || h.To == "" {
			return fmt.Errorf("expect hop %d: from and to are required", i)
		}
		if (h.A == "") != (h.B == "") {
			return fmt.Errorf("expect hop %d: a and b must be given together", i)
		}
	}

	return nil
}

func validateTermDef(td TermDef) error {
	kinds := 0
	if td.Fn != "" {
		kinds++
	}
	if td.Eq != nil {
		kinds++
		if len(td.Eq) != 2 {
			return fmt.Errorf("eq takes exactly 2 terms")
		}
	}
	if td.Le != nil {
		kinds++
		if len(td.Le) != 2 {
			return fmt.Errorf("le takes exactly 2 terms")
		}
	}
	if td.Not != "" {
		kinds++
	}
	if td.Int != nil {
		kinds++
	}
	if kinds > 1 {
		return fmt.Errorf("at most one of fn, eq, le, not and int may be set")
	}
	if td.Fn == "" && len(td.Args) > 0 {
		return fmt.Errorf("args requires fn")
	}
	return nil
}
