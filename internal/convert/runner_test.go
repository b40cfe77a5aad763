package convert

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRunSuccess(t *testing.T) {
	r := NewRunner("sh", []string{"-c", "echo done"}, t.TempDir(), time.Minute, zap.NewNop())

	res := r.Run(context.Background())
	if !res.Ok() {
		t.Errorf("expected clean exit, got %+v", res)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	r := NewRunner("sh", []string{"-c", "exit 3"}, t.TempDir(), time.Minute, zap.NewNop())

	res := r.Run(context.Background())
	if res.Ok() {
		t.Fatal("expected failure result")
	}
	if res.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", res.ExitCode)
	}
}

func TestRunSpawnFailure(t *testing.T) {
	r := NewRunner("definitely-not-a-command", nil, t.TempDir(), time.Minute, zap.NewNop())

	res := r.Run(context.Background())
	if res.Ok() {
		t.Fatal("expected failure result")
	}
	if res.Err == nil {
		t.Error("expected spawn error to be reported")
	}
}
