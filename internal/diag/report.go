package diag

import (
	"encoding/json"
	"fmt"

	"github.com/sunholo/onyxcheck/internal/ast"
)

// Severity distinguishes hard errors from warnings (spec.md §7).
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Report is the canonical structured diagnostic, following the
// teacher's errors.Report shape (schema/code/phase/message/span/data).
type Report struct {
	Schema   string         `json:"schema"`
	Code     Code           `json:"code"`
	Phase    string         `json:"phase"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Pos      ast.Pos        `json:"pos"`
	Data     map[string]any `json:"data,omitempty"`
}

// ReportError wraps a Report so it can travel through an `error` return
// while surviving errors.As() unwrapping, exactly like the teacher's
// ReportError.
type ReportError struct{ Rep *Report }

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown diagnostic"
	}
	return fmt.Sprintf("%s: %s: %s", e.Rep.Pos, e.Rep.Code, e.Rep.Message)
}

// ToJSON renders the report as an indented JSON document, keys in the
// struct's field order. cmd/onyxcheck's --json mode does not call it; it
// encodes the whole report slice with the same field shape.
func (r *Report) ToJSON() (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newReport(code Code, sev Severity, pos ast.Pos, format string, args ...any) *Report {
	return &Report{
		Schema:   "onyxcheck.diag/v1",
		Code:     code,
		Phase:    code.Phase(),
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	}
}
