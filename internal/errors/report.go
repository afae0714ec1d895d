package errors

import (
	"encoding/json"
	"errors"

	"github.com/sunholo/monocore/internal/ast"
)

// Report is the canonical structured error type for the monomorphization
// backend. All error builders should return *Report, which can be wrapped
// as ReportError.
type Report struct {
	Schema  string         `json:"schema"`         // Always ErrorSchema
	Code    string         `json:"code"`           // Error code (MONO001, WARN001, etc.)
	Phase   string         `json:"phase"`          // Phase: always "monomorphize" for this backend
	Message string         `json:"message"`        // Human-readable message
	Span    *ast.Span      `json:"span,omitempty"` // Source location (optional)
	Data    map[string]any `json:"data,omitempty"` // Structured data (sorted keys)
	Fix     *Fix           `json:"fix,omitempty"`  // Suggested fix (optional)
}

// ReportError wraps a Report as an error
// This allows structured reports to survive errors.As() unwrapping
type ReportError struct {
	Rep *Report
}

// Error implements the error interface
func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport attempts to extract a Report from an error chain
// Returns the Report and true if found, nil and false otherwise
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps a Report as a ReportError
// Call sites should return errors.WrapReport(report) to preserve structure
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON converts a Report to JSON (deterministic, sorted keys)
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error

	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}

	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NewGeneric creates a generic error report for a pass that has no
// dedicated code for the failure it hit.
func NewGeneric(phase string, err error) *Report {
	return &Report{
		Schema:  ErrorSchema,
		Code:    "ERR000",
		Phase:   phase,
		Message: err.Error(),
		Data:    map[string]any{},
	}
}

// NewFatal builds a Report for one of the MONO### internal-invariant
// violations of §7 and wraps it as an error via WrapReport.
func NewFatal(code, message string, data map[string]any) error {
	return WrapReport(&Report{
		Schema:  ErrorSchema,
		Code:    code,
		Phase:   "monomorphize",
		Message: message,
		Data:    data,
	})
}

// NewWarning builds a Report for one of the WARN### user-visible
// diagnostics of §7. Unlike NewFatal it is not wrapped as an error —
// callers append it to a Diagnostics bus and continue.
func NewWarning(code, message string, data map[string]any) *Report {
	return &Report{
		Schema:  ErrorSchema,
		Code:    code,
		Phase:   "monomorphize",
		Message: message,
		Data:    data,
	}
}

// Diagnostics accumulates non-fatal warnings across a pipeline run, the
// "warning bus (file-name, warning-kind)" of §6. Passes append to it and
// keep going; only a MONO### fatal error stops the pipeline outright.
type Diagnostics struct {
	Warnings []*Report
}

// Warn appends a Report to the bus.
func (d *Diagnostics) Warn(r *Report) {
	d.Warnings = append(d.Warnings, r)
}

// DropDeclaration records §6's DropDeclaration(lid, file) warning.
func (d *Diagnostics) DropDeclaration(lid, file string) {
	d.Warn(NewWarning(WARN002, "declaration dropped: target file is excluded from the build",
		map[string]any{"lid": lid, "file": file}))
}

// Empty reports whether no warnings were recorded.
func (d *Diagnostics) Empty() bool {
	return d == nil || len(d.Warnings) == 0
}
