package session

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is an authenticated (station id, client address) pairing with a
// liveness timestamp. The ID exists only for logs and the monitoring API;
// the pair itself is the key.
type Session struct {
	ID         string
	StationID  string
	ClientAddr *net.UDPAddr
	CreatedAt  time.Time
	LastActive time.Time
}

// SessionInfo is a copy of a session record for monitoring and APIs.
type SessionInfo struct {
	ID         string    `json:"id"`
	StationID  string    `json:"station_id"`
	ClientAddr string    `json:"client_addr"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Table holds all active client sessions, keyed by station id and then by
// client address. A single client address may hold independent sessions
// against multiple stations; a single station may have many clients.
type Table struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Session // station id -> client addr -> session
	evicted  uint64

	logger        *slog.Logger
	timeout       time.Duration
	sweepInterval time.Duration

	// Reaper management
	ctx     context.Context
	cancel  context.CancelFunc
	cleanup chan struct{}
}

// NewTable creates a session table and starts its reaper loop.
func NewTable(logger *slog.Logger, timeout, sweepInterval time.Duration) *Table {
	ctx, cancel := context.WithCancel(context.Background())

	t := &Table{
		sessions:      make(map[string]map[string]*Session),
		logger:        logger,
		timeout:       timeout,
		sweepInterval: sweepInterval,
		ctx:           ctx,
		cancel:        cancel,
		cleanup:       make(chan struct{}),
	}

	go t.startReaper()

	return t
}

// Login creates a session for the pair, or refreshes the existing one.
// The caller is responsible for having verified the station's credential
// first. Repeated logins for the same pair are idempotent.
func (t *Table) Login(stationID string, addr *net.UDPAddr) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	clients, exists := t.sessions[stationID]
	if !exists {
		clients = make(map[string]*Session)
		t.sessions[stationID] = clients
	}

	key := addr.String()
	now := time.Now()

	if existing, ok := clients[key]; ok {
		existing.LastActive = now
		return existing
	}

	session := &Session{
		ID:         uuid.New().String(),
		StationID:  stationID,
		ClientAddr: addr,
		CreatedAt:  now,
		LastActive: now,
	}
	clients[key] = session

	t.logger.Info("Client session created",
		slog.String("session_id", session.ID),
		slog.String("station_id", stationID),
		slog.String("client_addr", key),
	)

	return session
}

// Touch refreshes the liveness timestamp for the pair. Returns false when
// no active session exists; the caller decides what that means (silent
// drop for KEEPALIVE, failure reply for CMD).
func (t *Table) Touch(stationID string, addr *net.UDPAddr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.sessions[stationID][addr.String()]
	if !ok {
		return false
	}
	session.LastActive = time.Now()
	return true
}

// IsActive reports whether the pair currently holds a session.
func (t *Table) IsActive(stationID string, addr *net.UDPAddr) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.sessions[stationID][addr.String()]
	return ok
}

// ActiveClients returns a copy of the client addresses holding sessions
// for the station. The copy is safe to iterate for sends without holding
// the table lock.
func (t *Table) ActiveClients(stationID string) []*net.UDPAddr {
	t.mu.RLock()
	defer t.mu.RUnlock()

	clients := t.sessions[stationID]
	if len(clients) == 0 {
		return nil
	}

	addrs := make([]*net.UDPAddr, 0, len(clients))
	for _, session := range clients {
		addrs = append(addrs, session.ClientAddr)
	}
	return addrs
}

// Count returns the total number of active sessions across all stations.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	total := 0
	for _, clients := range t.sessions {
		total += len(clients)
	}
	return total
}

// EvictedTotal returns the number of sessions removed by the reaper since
// broker start.
func (t *Table) EvictedTotal() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.evicted
}

// Snapshot returns a copy of all session records.
func (t *Table) Snapshot() []SessionInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	infos := make([]SessionInfo, 0)
	for _, clients := range t.sessions {
		for key, session := range clients {
			infos = append(infos, SessionInfo{
				ID:         session.ID,
				StationID:  session.StationID,
				ClientAddr: key,
				CreatedAt:  session.CreatedAt,
				LastActive: session.LastActive,
			})
		}
	}
	return infos
}

// Stop stops the reaper and waits for it to finish.
func (t *Table) Stop() {
	t.cancel()
	<-t.cleanup

	t.logger.Info("Session table stopped",
		slog.Int("remaining_sessions", t.Count()),
		slog.Uint64("evicted_total", t.EvictedTotal()),
	)
}

// startReaper runs in a separate goroutine and evicts expired sessions on
// a fixed sweep interval. Eviction is therefore bounded by
// timeout + sweep interval, not exact at the timeout boundary.
func (t *Table) startReaper() {
	defer close(t.cleanup)

	ticker := time.NewTicker(t.sweepInterval)
	defer ticker.Stop()

	t.logger.Info("Session reaper started",
		slog.Duration("timeout", t.timeout),
		slog.Duration("sweep_interval", t.sweepInterval),
	)

	for {
		select {
		case <-t.ctx.Done():
			t.logger.Info("Session reaper stopping")
			return

		case <-ticker.C:
			t.evictExpired()
		}
	}
}

// evictExpired removes all sessions whose inactivity exceeds the timeout.
// Each sweep holds the lock once; individual removals are O(1).
func (t *Table) evictExpired() {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for stationID, clients := range t.sessions {
		for key, session := range clients {
			if now.Sub(session.LastActive) > t.timeout {
				delete(clients, key)
				t.evicted++

				t.logger.Info("Client session evicted for inactivity",
					slog.String("session_id", session.ID),
					slog.String("station_id", stationID),
					slog.String("client_addr", key),
					slog.Duration("idle", now.Sub(session.LastActive)),
				)
			}
		}
		if len(clients) == 0 {
			delete(t.sessions, stationID)
		}
	}
}
