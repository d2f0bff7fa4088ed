package diag

import (
	"github.com/sirupsen/logrus"

	"github.com/sunholo/onyxcheck/internal/ast"
)

// Sink is the checker's diagnostic collector — spec.md §6's
// onyx_report_error/onyx_report_warning contract. A *Sink is carried on
// check.Context so every check_X function reports through the same
// object the scheduler and CLI eventually read from.
type Sink struct {
	reports []*Report
	logger  *logrus.Logger
}

// NewSink creates an empty sink. logger may be nil to disable trace logging.
func NewSink(logger *logrus.Logger) *Sink {
	return &Sink{logger: logger}
}

// Error reports a hard error (spec.md §7 "Hard type errors").
func (s *Sink) Error(code Code, pos ast.Pos, format string, args ...any) {
	r := newReport(code, SeverityError, pos, format, args...)
	s.reports = append(s.reports, r)
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"code": code, "pos": pos.String()}).Error(r.Message)
	}
}

// Warning reports a warning that does not affect checker status
// (spec.md §7 "Warnings").
func (s *Sink) Warning(code Code, pos ast.Pos, format string, args ...any) {
	r := newReport(code, SeverityWarning, pos, format, args...)
	s.reports = append(s.reports, r)
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"code": code, "pos": pos.String()}).Warn(r.Message)
	}
}

// Reports returns every diagnostic collected so far, in report order.
func (s *Sink) Reports() []*Report { return s.reports }

// HasErrors reports whether any SeverityError diagnostic was collected.
func (s *Sink) HasErrors() bool {
	for _, r := range s.reports {
		if r.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Probe is a scoped diagnostic buffer for speculative checking —
// overload trial instantiation, polymorph trial solving, constraint
// expression evaluation. Design Notes §9 calls out the source's
// report-then-onyx_clear_errors() pattern as needing a first-class
// redesign; Probe is that redesign: a trial's diagnostics live in an
// isolated *Sink and are only ever merged into the parent on Commit.
// The parent sink is never mutated while a probe is open.
type Probe struct {
	parent *Sink
	buf    *Sink
}

// BeginProbe opens a new speculative scope. Nothing written to
// p.Sink() is visible on s until/unless p.Commit() is called.
func (s *Sink) BeginProbe() *Probe {
	return &Probe{parent: s, buf: &Sink{logger: s.logger}}
}

// Sink returns the probe's isolated diagnostic buffer; pass this (not
// the parent) into any check_X call made during the trial.
func (p *Probe) Sink() *Sink { return p.buf }

// Failed reports whether the trial produced any hard error.
func (p *Probe) Failed() bool { return p.buf.HasErrors() }

// Commit promotes the probe's buffered diagnostics into the parent
// sink — used when the speculative attempt is the one that's kept.
func (p *Probe) Commit() {
	p.parent.reports = append(p.parent.reports, p.buf.reports...)
}

// Discard drops the probe's buffered diagnostics. This is the moment
// spec.md §7 describes as "reported into a buffer, then
// onyx_clear_errors() erases them" — here it's simply never merging.
func (p *Probe) Discard() {}
