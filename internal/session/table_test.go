package session

import (
	"log/slog"
	"net"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: port}
}

func TestLoginCreatesSession(t *testing.T) {
	table := NewTable(testLogger(), 30*time.Second, 5*time.Second)
	defer table.Stop()

	addr := testAddr(4000)
	session := table.Login("1", addr)

	if session == nil {
		t.Fatal("Login returned nil")
	}
	if session.ID == "" {
		t.Error("Expected session to have an ID")
	}
	if !table.IsActive("1", addr) {
		t.Error("Expected pair to be active after login")
	}
	if table.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", table.Count())
	}
}

func TestLoginIsIdempotent(t *testing.T) {
	table := NewTable(testLogger(), 30*time.Second, 5*time.Second)
	defer table.Stop()

	addr := testAddr(4000)
	first := table.Login("1", addr)
	second := table.Login("1", addr)

	if first != second {
		t.Error("Expected repeated login to return the same session")
	}
	if table.Count() != 1 {
		t.Errorf("Expected 1 session after repeated login, got %d", table.Count())
	}
	if second.LastActive.Before(second.CreatedAt) {
		t.Error("Expected repeated login to refresh the timestamp")
	}
}

func TestSessionsAreKeyedByPair(t *testing.T) {
	table := NewTable(testLogger(), 30*time.Second, 5*time.Second)
	defer table.Stop()

	clientA := testAddr(4000)
	clientB := testAddr(4001)

	// One client against two stations, plus a second client on the first.
	table.Login("1", clientA)
	table.Login("2", clientA)
	table.Login("1", clientB)

	if table.Count() != 3 {
		t.Errorf("Expected 3 independent sessions, got %d", table.Count())
	}

	clients := table.ActiveClients("1")
	if len(clients) != 2 {
		t.Errorf("Expected 2 clients for station 1, got %d", len(clients))
	}

	if table.IsActive("2", clientB) {
		t.Error("Expected clientB to have no session on station 2")
	}
}

func TestTouchRefreshesOnlyActive(t *testing.T) {
	table := NewTable(testLogger(), 30*time.Second, 5*time.Second)
	defer table.Stop()

	addr := testAddr(4000)

	if table.Touch("1", addr) {
		t.Error("Expected Touch to fail with no session")
	}

	table.Login("1", addr)

	if !table.Touch("1", addr) {
		t.Error("Expected Touch to succeed for active session")
	}
	if table.Count() != 1 {
		t.Errorf("Expected Touch not to create sessions, got %d", table.Count())
	}
}

func TestReaperEvictsExpiredSessions(t *testing.T) {
	// Short timeout and sweep so the test completes quickly.
	table := NewTable(testLogger(), 100*time.Millisecond, 50*time.Millisecond)
	defer table.Stop()

	stale := testAddr(4000)
	fresh := testAddr(4001)

	table.Login("1", stale)
	table.Login("1", fresh)

	// Keep one session alive past the other's timeout.
	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		table.Touch("1", fresh)
		time.Sleep(20 * time.Millisecond)
	}

	if table.IsActive("1", stale) {
		t.Error("Expected stale session to be evicted")
	}
	if !table.IsActive("1", fresh) {
		t.Error("Expected refreshed session to survive")
	}
	if table.EvictedTotal() == 0 {
		t.Error("Expected eviction counter to advance")
	}
}

func TestActiveClientsEmptyStation(t *testing.T) {
	table := NewTable(testLogger(), 30*time.Second, 5*time.Second)
	defer table.Stop()

	if clients := table.ActiveClients("unknown"); clients != nil {
		t.Errorf("Expected nil client list, got %v", clients)
	}
}

func TestSnapshot(t *testing.T) {
	table := NewTable(testLogger(), 30*time.Second, 5*time.Second)
	defer table.Stop()

	table.Login("1", testAddr(4000))
	table.Login("2", testAddr(4001))

	snapshot := table.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Expected 2 snapshot entries, got %d", len(snapshot))
	}

	for _, info := range snapshot {
		if info.ID == "" || info.StationID == "" || info.ClientAddr == "" {
			t.Errorf("Incomplete snapshot entry: %+v", info)
		}
	}
}
