package broker

import (
	"log/slog"
	"net"

	"github.com/skypro1111/station-broker/internal/credential"
	"github.com/skypro1111/station-broker/internal/metrics"
	"github.com/skypro1111/station-broker/internal/protocol"
	"github.com/skypro1111/station-broker/internal/registry"
	"github.com/skypro1111/station-broker/internal/session"
)

// Sender delivers an encoded datagram to a remote address. Sends are
// fire-and-forget; a returned error means the local send failed, not that
// the datagram was lost in transit.
type Sender interface {
	Send(data []byte, addr *net.UDPAddr) error
}

// Router dispatches decoded messages against the shared broker state and
// emits zero or more outbound datagrams per message. It is driven by a
// single packet-processing goroutine, so per-message effects never
// interleave with each other, only with the reaper and reporter.
type Router struct {
	logger   *slog.Logger
	creds    *credential.Store
	registry *registry.Registry
	sessions *session.Table
	metrics  *metrics.Metrics // may be nil in tests
	sender   Sender
}

// NewRouter creates a router over the shared broker state.
func NewRouter(logger *slog.Logger, creds *credential.Store, reg *registry.Registry,
	sessions *session.Table, m *metrics.Metrics, sender Sender) *Router {

	return &Router{
		logger:   logger,
		creds:    creds,
		registry: reg,
		sessions: sessions,
		metrics:  m,
		sender:   sender,
	}
}

// HandleMessage routes one decoded message. Unknown kinds are ignored so
// that newer message types never crash an older broker.
func (r *Router) HandleMessage(msg *protocol.Message, addr *net.UDPAddr) {
	switch msg.Kind {
	case protocol.KindStatus:
		r.handleStatus(msg, addr)
	case protocol.KindLogin:
		r.handleLogin(msg, addr)
	case protocol.KindKeepalive:
		r.handleKeepalive(msg, addr)
	case protocol.KindCmd:
		r.handleCmd(msg, addr)
	default:
		if r.metrics != nil {
			r.metrics.RecordUnknownKind()
		}
		r.logger.Debug("Ignoring message with unknown kind",
			slog.String("station_id", msg.StationID),
			slog.String("kind", msg.Kind),
		)
	}
}

// handleStatus records the station's report and fans it out, unmodified,
// to every active client session for that station. The station itself
// gets no reply.
func (r *Router) handleStatus(msg *protocol.Message, addr *net.UDPAddr) {
	r.registry.UpsertStatus(msg.StationID, addr, msg.Payload)

	clients := r.sessions.ActiveClients(msg.StationID)
	forward := protocol.NewMessage(msg.StationID, protocol.KindStatus, msg.Payload).Encode()
	for _, client := range clients {
		r.send(forward, client)
	}

	if r.metrics != nil {
		r.metrics.RecordStatusUpdate(len(clients))
	}

	r.logger.Debug("Station status updated",
		slog.String("station_id", msg.StationID),
		slog.String("station_addr", addr.String()),
		slog.Int("fanout", len(clients)),
	)
}

// handleLogin authenticates the client against the credential store and
// sends exactly one reply, success or failure.
func (r *Router) handleLogin(msg *protocol.Message, addr *net.UDPAddr) {
	expected, configured := r.creds.Lookup(msg.StationID)
	if !configured {
		r.reply(msg.StationID, protocol.KindLoginFail, protocol.ReplyLoginUnknownStation, addr)
		if r.metrics != nil {
			r.metrics.RecordLogin(false)
		}
		r.logger.Warn("Login rejected for unconfigured station",
			slog.String("station_id", msg.StationID),
			slog.String("client_addr", addr.String()),
		)
		return
	}

	if msg.Payload != expected {
		r.reply(msg.StationID, protocol.KindLoginFail, protocol.ReplyLoginWrongSecret, addr)
		if r.metrics != nil {
			r.metrics.RecordLogin(false)
		}
		r.logger.Warn("Login rejected for wrong secret",
			slog.String("station_id", msg.StationID),
			slog.String("client_addr", addr.String()),
		)
		return
	}

	sess := r.sessions.Login(msg.StationID, addr)
	r.reply(msg.StationID, protocol.KindLoginOK, protocol.ReplyLoginOK, addr)

	if r.metrics != nil {
		r.metrics.RecordLogin(true)
		r.metrics.SetActiveSessions(r.sessions.Count())
	}

	r.logger.Info("Client authenticated",
		slog.String("session_id", sess.ID),
		slog.String("station_id", msg.StationID),
		slog.String("client_addr", addr.String()),
	)
}

// handleKeepalive refreshes the sender's session. A keepalive from an
// address with no session is silently ignored: there is nothing to
// refresh and no session to reply on behalf of.
func (r *Router) handleKeepalive(msg *protocol.Message, addr *net.UDPAddr) {
	if !r.sessions.Touch(msg.StationID, addr) {
		r.logger.Debug("Keepalive from unauthenticated address ignored",
			slog.String("station_id", msg.StationID),
			slog.String("client_addr", addr.String()),
		)
		return
	}

	r.reply(msg.StationID, protocol.KindKeepaliveOK, "", addr)
	if r.metrics != nil {
		r.metrics.RecordKeepalive()
	}
}

// handleCmd forwards an authenticated client's command verbatim to the
// station's last reported address. Command activity also counts as
// session liveness.
func (r *Router) handleCmd(msg *protocol.Message, addr *net.UDPAddr) {
	if !r.sessions.Touch(msg.StationID, addr) {
		r.reply(msg.StationID, protocol.KindCmdFail, protocol.ReplyCmdNotAuthenticated, addr)
		if r.metrics != nil {
			r.metrics.RecordCommandRejected()
		}
		r.logger.Warn("Command from unauthenticated address rejected",
			slog.String("station_id", msg.StationID),
			slog.String("client_addr", addr.String()),
		)
		return
	}

	stationAddr, online := r.registry.LookupAddress(msg.StationID)
	if !online {
		r.reply(msg.StationID, protocol.KindCmdFail, protocol.ReplyCmdStationOffline, addr)
		if r.metrics != nil {
			r.metrics.RecordCommandRejected()
		}
		r.logger.Warn("Command for offline station rejected",
			slog.String("station_id", msg.StationID),
			slog.String("client_addr", addr.String()),
		)
		return
	}

	forward := protocol.NewMessage(msg.StationID, protocol.KindCmd, msg.Payload).Encode()
	r.send(forward, stationAddr)

	if r.metrics != nil {
		r.metrics.RecordCommandForwarded()
	}

	r.logger.Debug("Command forwarded",
		slog.String("station_id", msg.StationID),
		slog.String("client_addr", addr.String()),
		slog.String("station_addr", stationAddr.String()),
	)
}

// reply encodes and sends a single reply datagram.
func (r *Router) reply(stationID, kind, payload string, addr *net.UDPAddr) {
	r.send(protocol.NewMessage(stationID, kind, payload).Encode(), addr)
}

// send performs a fire-and-forget send. Failures are local conditions
// (e.g. destination unreachable); they are logged and counted but never
// affect broker state or other sessions.
func (r *Router) send(data []byte, addr *net.UDPAddr) {
	if err := r.sender.Send(data, addr); err != nil {
		if r.metrics != nil {
			r.metrics.RecordSendError()
		}
		r.logger.Warn("Failed to send datagram",
			slog.String("remote_addr", addr.String()),
			slog.String("error", err.Error()),
		)
	}
}
