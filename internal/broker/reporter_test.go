package broker

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/skypro1111/station-broker/internal/registry"
	"github.com/skypro1111/station-broker/internal/session"
)

func TestReporterRunsAndStops(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	reg := registry.New()
	sessions := session.NewTable(logger, 30*time.Second, 5*time.Second)
	defer sessions.Stop()

	reg.UpsertStatus("1", addr(6000), "ready")
	sessions.Login("1", addr(4000))

	reporter := NewReporter(logger, reg, sessions, nil, 10*time.Millisecond)

	// Let it produce a couple of snapshots, then make sure Stop returns.
	time.Sleep(35 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		reporter.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Reporter.Stop did not return")
	}
}

func TestReporterDoesNotMutateState(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	reg := registry.New()
	sessions := session.NewTable(logger, 30*time.Second, 5*time.Second)
	defer sessions.Stop()

	reg.UpsertStatus("1", addr(6000), "ready")
	sessions.Login("1", addr(4000))

	reporter := NewReporter(logger, reg, sessions, nil, 5*time.Millisecond)
	time.Sleep(25 * time.Millisecond)
	reporter.Stop()

	if reg.Count() != 1 {
		t.Errorf("Expected 1 station after reporting, got %d", reg.Count())
	}
	if sessions.Count() != 1 {
		t.Errorf("Expected 1 session after reporting, got %d", sessions.Count())
	}
}
