package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/skypro1111/station-broker/internal/config"
	"github.com/skypro1111/station-broker/internal/metrics"
	"github.com/skypro1111/station-broker/internal/protocol"
)

// Handler consumes decoded messages. The UDP server calls it from a single
// goroutine, so handlers never see two messages concurrently.
type Handler interface {
	HandleMessage(msg *protocol.Message, addr *net.UDPAddr)
}

// UDPServer owns the broker's socket: it receives datagrams, decodes them
// and hands them to the handler one at a time, and performs all outbound
// sends on behalf of the router.
type UDPServer struct {
	conn    *net.UDPConn
	config  *config.ServerConfig
	logger  *slog.Logger
	handler Handler
	metrics *metrics.Metrics // may be nil in tests

	// Concurrency management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Packet processing
	packetChan chan *incomingPacket

	// Counters
	packetsReceived  uint64
	packetsProcessed uint64
	parseErrors      uint64
	mu               sync.RWMutex
}

// incomingPacket represents a received UDP datagram with metadata
type incomingPacket struct {
	data       []byte
	remoteAddr *net.UDPAddr
	timestamp  time.Time
}

// NewUDPServer creates a new UDP server instance. The handler is attached
// afterward with SetHandler because the router needs the server as its
// sender.
func NewUDPServer(cfg *config.ServerConfig, logger *slog.Logger, m *metrics.Metrics) *UDPServer {
	ctx, cancel := context.WithCancel(context.Background())

	return &UDPServer{
		config:     cfg,
		logger:     logger,
		metrics:    m,
		ctx:        ctx,
		cancel:     cancel,
		packetChan: make(chan *incomingPacket, cfg.QueueSize),
	}
}

// SetHandler attaches the message handler. Must be called before Start.
func (s *UDPServer) SetHandler(h Handler) {
	s.handler = h
}

// Start binds the socket and begins receiving datagrams.
func (s *UDPServer) Start() error {
	if s.handler == nil {
		return fmt.Errorf("no handler attached")
	}

	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", s.config.BindAddress, s.config.UDPPort))
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP: %w", err)
	}

	s.conn = conn

	if err := s.conn.SetReadBuffer(s.config.BufferSize); err != nil {
		s.logger.Warn("Failed to set UDP read buffer size",
			slog.Int("buffer_size", s.config.BufferSize),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("UDP server started",
		slog.String("address", addr.String()),
		slog.Int("buffer_size", s.config.BufferSize),
	)

	// Single dispatcher: datagrams are handled strictly one at a time so
	// the effects of each message are deterministic.
	s.wg.Add(1)
	go s.dispatchLoop()

	s.wg.Add(1)
	go s.receiveLoop()

	return nil
}

// Stop gracefully stops the UDP server.
func (s *UDPServer) Stop() error {
	s.logger.Info("Stopping UDP server...")

	s.cancel()

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("Error closing UDP connection", slog.String("error", err.Error()))
		}
	}

	close(s.packetChan)

	s.wg.Wait()

	s.mu.RLock()
	packetsReceived := s.packetsReceived
	packetsProcessed := s.packetsProcessed
	parseErrors := s.parseErrors
	s.mu.RUnlock()

	s.logger.Info("UDP server stopped",
		slog.Uint64("packets_received", packetsReceived),
		slog.Uint64("packets_processed", packetsProcessed),
		slog.Uint64("parse_errors", parseErrors),
	)

	return nil
}

// LocalAddr returns the bound socket address. Useful when the configured
// port is 0 and the OS picked one.
func (s *UDPServer) LocalAddr() *net.UDPAddr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Send delivers an encoded datagram to a remote address. Fire-and-forget:
// the caller logs failures, nothing is retried.
func (s *UDPServer) Send(data []byte, addr *net.UDPAddr) error {
	if s.conn == nil {
		return fmt.Errorf("server not started")
	}

	_, err := s.conn.WriteToUDP(data, addr)
	return err
}

// receiveLoop is the main datagram receiving loop.
func (s *UDPServer) receiveLoop() {
	defer s.wg.Done()

	buffer := make([]byte, s.config.BufferSize)

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Receive loop stopping due to context cancellation")
			return
		default:
			// Continue to receive packets
		}

		// Set read deadline to check for context cancellation periodically
		if err := s.conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
			s.logger.Error("Failed to set read deadline", slog.String("error", err.Error()))
			continue
		}

		n, remoteAddr, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue // Check context and try again
			}

			select {
			case <-s.ctx.Done():
				return
			default:
				s.logger.Error("Failed to read UDP datagram", slog.String("error", err.Error()))
				continue
			}
		}

		s.mu.Lock()
		s.packetsReceived++
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordPacketReceived()
		}

		// Copy the datagram; the buffer is reused by the next read.
		packetData := make([]byte, n)
		copy(packetData, buffer[:n])

		packet := &incomingPacket{
			data:       packetData,
			remoteAddr: remoteAddr,
			timestamp:  time.Now(),
		}

		select {
		case s.packetChan <- packet:
			if s.metrics != nil {
				s.metrics.SetQueueSize(len(s.packetChan))
			}
		default:
			// Queue full: drop, matching UDP's own delivery model.
			s.logger.Warn("Packet processing queue full, dropping datagram",
				slog.String("remote_addr", remoteAddr.String()),
				slog.Int("packet_size", n),
			)
		}
	}
}

// dispatchLoop drains the packet channel and handles datagrams one at a time.
func (s *UDPServer) dispatchLoop() {
	defer s.wg.Done()

	s.logger.Debug("Packet dispatcher started")

	for packet := range s.packetChan {
		s.handlePacket(packet)
	}

	s.logger.Debug("Packet dispatcher stopped")
}

// handlePacket decodes a single datagram and routes it. Malformed input is
// dropped silently: UDP has no sender to reliably notify, and line noise
// must never crash the broker.
func (s *UDPServer) handlePacket(packet *incomingPacket) {
	msg, err := protocol.Parse(packet.data)
	if err != nil {
		s.mu.Lock()
		s.parseErrors++
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordParseError()
		}

		s.logger.Debug("Dropping malformed datagram",
			slog.String("remote_addr", packet.remoteAddr.String()),
			slog.Int("packet_size", len(packet.data)),
			slog.String("error", err.Error()),
		)
		return
	}

	s.handler.HandleMessage(msg, packet.remoteAddr)

	s.mu.Lock()
	s.packetsProcessed++
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordPacketProcessed()
		s.metrics.SetQueueSize(len(s.packetChan))
	}
}

// GetStatistics returns current server statistics
func (s *UDPServer) GetStatistics() ServerStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ServerStatistics{
		PacketsReceived:  s.packetsReceived,
		PacketsProcessed: s.packetsProcessed,
		ParseErrors:      s.parseErrors,
		QueueSize:        uint64(len(s.packetChan)),
		QueueCapacity:    uint64(cap(s.packetChan)),
	}
}

// ServerStatistics represents server performance counters
type ServerStatistics struct {
	PacketsReceived  uint64 `json:"packets_received"`
	PacketsProcessed uint64 `json:"packets_processed"`
	ParseErrors      uint64 `json:"parse_errors"`
	QueueSize        uint64 `json:"queue_size"`
	QueueCapacity    uint64 `json:"queue_capacity"`
}
