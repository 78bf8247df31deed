package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// LoadCUE reads and compiles a CUE configuration file.
func LoadCUE(path string) (EngineConfig, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseCUE(src, path)
}

// ParseCUE compiles src as a configuration document. filename is used in
// error positions only.
func ParseCUE(src []byte, filename string) (EngineConfig, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompileCUE(v)
}

// CompileCUE converts a CUE value into an EngineConfig. The value is
// unified with the embedded #Config schema first, so unknown fields and
// ill-typed values are reported with their source position. Fields not
// present keep their Default values.
//
//	sharing: rules: [{from: "UF", to: "DL", allow: false}]
//	debug: {enabled: true, max_reason_lits: 16}
func CompileCUE(v cue.Value) (EngineConfig, error) {
	if err := v.Err(); err != nil {
		return EngineConfig{}, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return EngineConfig{}, fmt.Errorf("compile embedded schema: %w", err)
	}
	v = schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return EngineConfig{}, formatCUEError(err)
	}

	cfg := Default()

	rules := v.LookupPath(cue.ParsePath("sharing.rules"))
	if rules.Exists() {
		iter, err := rules.List()
		if err != nil {
			return EngineConfig{}, formatCUEError(err)
		}
		for iter.Next() {
			var r PairRule
			if err := iter.Value().Decode(&r); err != nil {
				return EngineConfig{}, formatCUEError(err)
			}
			cfg.Sharing.Rules = append(cfg.Sharing.Rules, r)
		}
	}

	// Shorthand for the stock two-theory setup.
	for _, dir := range []struct {
		path     string
		from, to string
	}{
		{"sharing.uf_to_dl", TheoryUF, TheoryDL},
		{"sharing.dl_to_uf", TheoryDL, TheoryUF},
	} {
		var allow bool
		ok, err := lookupBool(v, dir.path, &allow)
		if err != nil {
			return EngineConfig{}, err
		}
		if ok {
			cfg.Sharing.Rules = append(cfg.Sharing.Rules, PairRule{From: dir.from, To: dir.to, Allow: allow})
		}
	}

	for path, dst := range map[string]*bool{
		"debug.enabled":          &cfg.Debug.Enabled,
		"debug.log_imports":      &cfg.Debug.LogImports,
		"debug.log_exports":      &cfg.Debug.LogExports,
		"debug.log_shared_stats": &cfg.Debug.LogSharedStats,
	} {
		if _, err := lookupBool(v, path, dst); err != nil {
			return EngineConfig{}, err
		}
	}

	maxLits := v.LookupPath(cue.ParsePath("debug.max_reason_lits"))
	if maxLits.Exists() {
		n, err := maxLits.Int64()
		if err != nil {
			return EngineConfig{}, formatCUEError(err)
		}
		cfg.Debug.MaxReasonLits = int(n)
	}

	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

func lookupBool(v cue.Value, path string, dst *bool) (bool, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return false, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	*dst = b
	return true, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	e := &Error{
		Code:    ErrCodeInvalidValue,
		Field:   "cue",
		Message: first.Error(),
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
