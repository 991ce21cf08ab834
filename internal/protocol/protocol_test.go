package protocol

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		expected    *Message
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid status message",
			data: []byte("1;STATUS;ready"),
			expected: &Message{
				StationID: "1",
				Kind:      KindStatus,
				Payload:   "ready",
			},
			expectError: false,
		},
		{
			name: "valid login message",
			data: []byte("2;LOGIN;senha2"),
			expected: &Message{
				StationID: "2",
				Kind:      KindLogin,
				Payload:   "senha2",
			},
			expectError: false,
		},
		{
			name: "keepalive with empty payload",
			data: []byte("1;KEEPALIVE;"),
			expected: &Message{
				StationID: "1",
				Kind:      KindKeepalive,
				Payload:   "",
			},
			expectError: false,
		},
		{
			name: "payload containing separators is rejoined",
			data: []byte("1;CMD;MOVE;speed=3;dir=left"),
			expected: &Message{
				StationID: "1",
				Kind:      KindCmd,
				Payload:   "MOVE;speed=3;dir=left",
			},
			expectError: false,
		},
		{
			name: "kind matching is case-insensitive",
			data: []byte("1;status;ok"),
			expected: &Message{
				StationID: "1",
				Kind:      KindStatus,
				Payload:   "ok",
			},
			expectError: false,
		},
		{
			name: "surrounding whitespace is trimmed",
			data: []byte("  1;STATUS;ready\n"),
			expected: &Message{
				StationID: "1",
				Kind:      KindStatus,
				Payload:   "ready",
			},
			expectError: false,
		},
		{
			name: "unknown kind still parses",
			data: []byte("1;TELEMETRY;volts=12.4"),
			expected: &Message{
				StationID: "1",
				Kind:      "TELEMETRY",
				Payload:   "volts=12.4",
			},
			expectError: false,
		},
		{
			name:        "two fields only",
			data:        []byte("1;STATUS"),
			expectError: true,
			errorMsg:    "message too short",
		},
		{
			name:        "single field",
			data:        []byte("garbage"),
			expectError: true,
			errorMsg:    "message too short",
		},
		{
			name:        "empty datagram",
			data:        []byte(""),
			expectError: true,
			errorMsg:    "message too short",
		},
		{
			name:        "empty station id",
			data:        []byte(";STATUS;ready"),
			expectError: true,
			errorMsg:    "empty station id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.data)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if *result != *tt.expected {
				t.Errorf("Expected message %+v, got %+v", tt.expected, result)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		msg      *Message
		expected string
	}{
		{
			name:     "login success reply",
			msg:      NewMessage("1", KindLoginOK, ReplyLoginOK),
			expected: "1;LOGIN_OK;Conectado com sucesso.",
		},
		{
			name:     "keepalive ack keeps trailing separator",
			msg:      NewMessage("1", KindKeepaliveOK, ""),
			expected: "1;KEEPALIVE_OK;",
		},
		{
			name:     "forwarded command preserves payload",
			msg:      NewMessage("1", KindCmd, "MOVE_FORWARD"),
			expected: "1;CMD;MOVE_FORWARD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(tt.msg.Encode())
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	original := NewMessage("station-7", KindStatus, "battery=87%;temp=41C")

	parsed, err := Parse(original.Encode())
	if err != nil {
		t.Fatalf("Failed to parse encoded message: %v", err)
	}

	if *parsed != *original {
		t.Errorf("Round trip mismatch: sent %+v, got %+v", original, parsed)
	}
}

func TestIsKnownKind(t *testing.T) {
	known := []string{KindStatus, KindLogin, KindKeepalive, KindCmd}
	for _, kind := range known {
		if !IsKnownKind(kind) {
			t.Errorf("Expected %s to be a known kind", kind)
		}
	}

	unknown := []string{"TELEMETRY", "LOGIN_OK", "PING", ""}
	for _, kind := range unknown {
		if IsKnownKind(kind) {
			t.Errorf("Expected %s to be unknown", kind)
		}
	}
}

// contains checks if a string contains a substring
func contains(s, substr string) bool {
	return len(s) >= len(substr) && searchSubstring(s, substr)
}

func searchSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
