package protocol

import (
	"fmt"
	"strings"
)

// Message kinds understood by the broker
const (
	// Inbound kinds
	KindStatus    = "STATUS"
	KindLogin     = "LOGIN"
	KindKeepalive = "KEEPALIVE"
	KindCmd       = "CMD"

	// Reply kinds
	KindLoginOK     = "LOGIN_OK"
	KindLoginFail   = "LOGIN_FAIL"
	KindKeepaliveOK = "KEEPALIVE_OK"
	KindCmdFail     = "CMD_FAIL"

	// Wire format constants
	FieldSeparator = ";"
	MinFields      = 3
)

// Reply payload texts sent to clients
const (
	ReplyLoginOK             = "Conectado com sucesso."
	ReplyLoginUnknownStation = "Estação não configurada para acesso."
	ReplyLoginWrongSecret    = "Senha incorreta."
	ReplyCmdNotAuthenticated = "Cliente não autenticado."
	ReplyCmdStationOffline   = "Estação offline ou não registrada."
)

// Message represents a decoded wire message.
// Layout on the wire: <station_id>;<TYPE>;<payload...>
type Message struct {
	StationID string // Station identifier (first field)
	Kind      string // Message type, normalized to upper case
	Payload   string // Remaining fields rejoined with ";"
}

// Parse decodes a raw UDP datagram into a Message.
// The payload may itself contain ";" separators; everything after the
// second field is rejoined verbatim. Input with fewer than three fields
// is rejected and the caller is expected to drop it silently.
func Parse(data []byte) (*Message, error) {
	text := strings.TrimSpace(string(data))
	parts := strings.Split(text, FieldSeparator)
	if len(parts) < MinFields {
		return nil, fmt.Errorf("message too short: expected at least %d fields, got %d", MinFields, len(parts))
	}

	msg := &Message{
		StationID: parts[0],
		Kind:      strings.ToUpper(parts[1]),
		Payload:   strings.Join(parts[2:], FieldSeparator),
	}

	if msg.StationID == "" {
		return nil, fmt.Errorf("empty station id")
	}

	return msg, nil
}

// Encode serializes the message back into its wire shape.
func (m *Message) Encode() []byte {
	return []byte(m.StationID + FieldSeparator + m.Kind + FieldSeparator + m.Payload)
}

// NewMessage builds a message ready for encoding.
func NewMessage(stationID, kind, payload string) *Message {
	return &Message{StationID: stationID, Kind: kind, Payload: payload}
}

// IsKnownKind reports whether the kind is one the router dispatches on.
// Unknown kinds still parse successfully so that future message types do
// not crash older brokers; the router ignores them.
func IsKnownKind(kind string) bool {
	switch kind {
	case KindStatus, KindLogin, KindKeepalive, KindCmd:
		return true
	default:
		return false
	}
}

// String returns a human-readable representation of the message.
func (m *Message) String() string {
	return fmt.Sprintf("Message{StationID:%q, Kind:%s, PayloadLen:%d}", m.StationID, m.Kind, len(m.Payload))
}
