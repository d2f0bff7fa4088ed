package diag

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/sunholo/onyxcheck/internal/ast"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestSinkErrorAndHasErrors(t *testing.T) {
	s := NewSink(testLogger())
	if s.HasErrors() {
		t.Fatalf("new sink should have no errors")
	}
	pos := ast.Pos{File: "a.onyx", Line: 1, Column: 1}
	s.Warning(CHK001, pos, "waiting on %s", "x")
	if s.HasErrors() {
		t.Fatalf("a warning alone must not count as an error")
	}
	s.Error(CHK010, pos, "type mismatch: %s vs %s", "i32", "bool")
	if !s.HasErrors() {
		t.Fatalf("expected HasErrors to be true after Error()")
	}
	if len(s.Reports()) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(s.Reports()))
	}
	if s.Reports()[1].Code != CHK010 {
		t.Fatalf("expected second report code CHK010, got %s", s.Reports()[1].Code)
	}
}

func TestProbeIsolatesUntilCommit(t *testing.T) {
	s := NewSink(testLogger())
	pos := ast.Pos{File: "a.onyx", Line: 2, Column: 1}

	probe := s.BeginProbe()
	probe.Sink().Error(CHK023, pos, "struct literal member mismatch")
	if !probe.Failed() {
		t.Fatalf("expected probe to report Failed after an Error")
	}
	if s.HasErrors() {
		t.Fatalf("parent sink must not see probe errors before Commit")
	}
	probe.Discard()
	if len(s.Reports()) != 0 {
		t.Fatalf("expected parent reports untouched after Discard, got %d", len(s.Reports()))
	}

	probe2 := s.BeginProbe()
	probe2.Sink().Error(CHK023, pos, "struct literal member mismatch")
	probe2.Commit()
	if !s.HasErrors() {
		t.Fatalf("expected parent sink to see the probe's error after Commit")
	}
}
