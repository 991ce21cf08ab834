package broker

import (
	"context"
	"log/slog"
	"time"

	"github.com/skypro1111/station-broker/internal/metrics"
	"github.com/skypro1111/station-broker/internal/registry"
	"github.com/skypro1111/station-broker/internal/session"
)

// Reporter periodically logs a snapshot of the registry and session state.
// It is purely observational: the broker works the same without it.
type Reporter struct {
	logger   *slog.Logger
	registry *registry.Registry
	sessions *session.Table
	metrics  *metrics.Metrics // may be nil in tests
	interval time.Duration

	// Last eviction count published to the metrics counter
	lastEvicted uint64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReporter creates a reporter and starts its loop.
func NewReporter(logger *slog.Logger, reg *registry.Registry, sessions *session.Table,
	m *metrics.Metrics, interval time.Duration) *Reporter {

	ctx, cancel := context.WithCancel(context.Background())

	r := &Reporter{
		logger:   logger,
		registry: reg,
		sessions: sessions,
		metrics:  m,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go r.run()

	return r
}

// Stop stops the reporter loop and waits for it to finish.
func (r *Reporter) Stop() {
	r.cancel()
	<-r.done
}

func (r *Reporter) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Status reporter started", slog.Duration("interval", r.interval))

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Info("Status reporter stopping")
			return

		case <-ticker.C:
			r.report()
		}
	}
}

// report logs one snapshot of all stations and all non-empty session sets
// and refreshes the active-sessions gauge.
func (r *Reporter) report() {
	stations := r.registry.Snapshot()
	sessions := r.sessions.Snapshot()

	for _, station := range stations {
		r.logger.Info("Station state",
			slog.String("station_id", station.ID),
			slog.Bool("online", station.Online),
			slog.String("address", station.Address),
			slog.String("last_status", station.LastStatus),
		)
	}

	byStation := make(map[string]int)
	for _, sess := range sessions {
		byStation[sess.StationID]++
	}
	for stationID, count := range byStation {
		r.logger.Info("Active client sessions",
			slog.String("station_id", stationID),
			slog.Int("clients", count),
		)
	}

	r.logger.Info("Broker snapshot",
		slog.Int("stations", len(stations)),
		slog.Int("sessions", len(sessions)),
		slog.Uint64("sessions_evicted", r.sessions.EvictedTotal()),
	)

	if r.metrics != nil {
		r.metrics.SetActiveSessions(len(sessions))

		evicted := r.sessions.EvictedTotal()
		if evicted > r.lastEvicted {
			r.metrics.RecordSessionsEvicted(evicted - r.lastEvicted)
			r.lastEvicted = evicted
		}
	}
}
