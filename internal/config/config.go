// Package config holds the static policy that governs a combination round:
// which exporter→importer pairs may exchange equalities, and how much
// diagnostic output the engine produces.
//
// Configuration comes from Go values, CUE documents (see LoadCUE) or the
// YAML scenario files used by the harness. Theory names in rules are only
// checked when resolved against a concrete registration list (Resolve).
package config

// EngineConfig is the complete engine configuration.
type EngineConfig struct {
	Sharing SharingPolicy  `yaml:"sharing" json:"sharing"`
	Debug   DebugEqSharing `yaml:"debug" json:"debug"`
}

// SharingPolicy restricts equality propagation between theory pairs.
// Pairs not named by any rule are allowed. When several rules name the
// same pair the last one wins.
type SharingPolicy struct {
	Rules []PairRule `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// PairRule allows or blocks equalities exported by From and imported by To.
type PairRule struct {
	From  string `yaml:"from" json:"from"`
	To    string `yaml:"to" json:"to"`
	Allow bool   `yaml:"allow" json:"allow"`
}

// DebugEqSharing controls diagnostic logging of equality sharing.
// Diagnostics never change which equalities are delivered.
type DebugEqSharing struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// MaxReasonLits caps the literals expanded into one diagnostic message.
	MaxReasonLits int `yaml:"max_reason_lits" json:"max_reason_lits"`

	LogImports bool `yaml:"log_imports" json:"log_imports"`
	LogExports bool `yaml:"log_exports" json:"log_exports"`

	// LogSharedStats logs the shared term count at the start of every round.
	LogSharedStats bool `yaml:"log_shared_stats" json:"log_shared_stats"`
}

// DefaultMaxReasonLits is the literal cap used when diagnostics are off.
const DefaultMaxReasonLits = 8

// VerboseMaxReasonLits is the literal cap applied by Verbose.
const VerboseMaxReasonLits = 16

// Default returns the configuration with every pair allowed and
// diagnostics disabled.
func Default() EngineConfig {
	return EngineConfig{Debug: DefaultDebug()}
}

// DefaultDebug returns diagnostics disabled with all log toggles on, so
// enabling them only requires flipping Enabled.
func DefaultDebug() DebugEqSharing {
	return DebugEqSharing{
		Enabled:        false,
		MaxReasonLits:  DefaultMaxReasonLits,
		LogImports:     true,
		LogExports:     true,
		LogSharedStats: true,
	}
}

// Verbose returns d with diagnostics enabled and a larger literal cap.
func (d DebugEqSharing) Verbose() DebugEqSharing {
	d.Enabled = true
	d.MaxReasonLits = VerboseMaxReasonLits
	return d
}

// Validate checks value ranges that do not depend on registered theories.
func (c EngineConfig) Validate() error {
	if c.Debug.MaxReasonLits < 0 {
		return &Error{
			Code:    ErrCodeInvalidValue,
			Field:   "debug.max_reason_lits",
			Message: "must not be negative",
		}
	}
	for i, r := range c.Sharing.Rules {
		if r.From == "" || r.To == "" {
			return &Error{
				Code:    ErrCodeInvalidValue,
				Field:   ruleField(i),
				Message: "from and to are required",
			}
		}
	}
	return nil
}

// Names of the two theories the stock UF/DL configuration talks about.
const (
	TheoryUF = "UF"
	TheoryDL = "DL"
)

// UFDL returns a policy with the two directions between the UF and DL
// theories set explicitly.
func UFDL(ufToDL, dlToUF bool) SharingPolicy {
	return SharingPolicy{Rules: []PairRule{
		{From: TheoryUF, To: TheoryDL, Allow: ufToDL},
		{From: TheoryDL, To: TheoryUF, Allow: dlToUF},
	}}
}
