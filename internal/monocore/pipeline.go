// Package monocore wires the three monomorphization passes into the single
// pure entry point the upstream and downstream compiler stages call
// against (spec §2, §6): data types, then functions/globals, then
// structural equality, run in that fixed order.
package monocore

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sunholo/monocore/internal/datatypes"
	"github.com/sunholo/monocore/internal/errors"
	"github.com/sunholo/monocore/internal/ir"
	"github.com/sunholo/monocore/internal/specialize"
	"github.com/sunholo/monocore/internal/structeq"
	"github.com/sunholo/monocore/internal/trace"
)

// TraceFlags selects which debug trace channels of §6 are active.
type TraceFlags = trace.Flags

// Config configures one pipeline run. It is YAML-loadable via LoadConfig so
// a scenario fixture can ship its pipeline settings alongside its program.
type Config struct {
	Trace TraceFlags `yaml:"trace"`

	// ExcludedFiles names files the surrounding build has marked excluded;
	// declarations targeting them are dropped with a WARN002 instead of
	// emitted, mirroring the teacher's per-file build configuration.
	ExcludedFiles map[string]bool `yaml:"excluded_files"`

	// PointerCompared seeds internal/structeq's abstract-type table (§4.4,
	// supplemented feature; see DESIGN.md).
	PointerCompared map[string]bool `yaml:"pointer_compared"`

	// Out receives trace output when any Trace flag is set. Ignored
	// otherwise, and never populated by LoadConfig.
	Out io.Writer `yaml:"-"`
}

// LoadConfig decodes a Config from YAML, the format cmd/monocore's -config
// flag reads.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the three passes over prog in sequence and returns the
// rewritten program together with any accumulated warnings. A non-nil
// error is a MONO### internal-invariant violation (§7), or a plain error
// for an expression node the data-type pass does not recognize; warnings
// never stop the pipeline.
func Run(prog *ir.Program, cfg Config) (*ir.Program, *errors.Diagnostics, error) {
	diag := &errors.Diagnostics{}
	tracer := &trace.Tracer{Flags: cfg.Trace, Out: cfg.Out}

	afterTypes, err := datatypes.Run(prog, diag, tracer)
	if err != nil {
		return nil, diag, err
	}

	afterFuncs, err := specialize.Run(afterTypes, diag, tracer)
	if err != nil {
		return nil, diag, err
	}

	afterEquality, err := structeq.Run(afterFuncs, cfg.PointerCompared, diag, tracer)
	if err != nil {
		return nil, diag, err
	}

	dropExcluded(afterEquality, cfg.ExcludedFiles, diag)

	return afterEquality, diag, nil
}

// dropExcluded removes declarations whose home file is excluded from the
// build, recording a WARN002 for each (§6 DropDeclaration).
func dropExcluded(prog *ir.Program, excluded map[string]bool, diag *errors.Diagnostics) {
	if len(excluded) == 0 {
		return
	}
	for fi, f := range prog.Files {
		if !excluded[f.Name] {
			continue
		}
		for _, d := range f.Decls {
			diag.DropDeclaration(d.Lid.String(), f.Name)
		}
		prog.Files[fi].Decls = nil
	}
}
