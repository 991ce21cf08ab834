package credential

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Store is the read-only mapping of station identifier to shared secret.
// It is loaded once at startup and never mutated afterward, so no locking
// is required.
type Store struct {
	secrets map[string]string
}

// credentialFile is the on-disk YAML layout:
//
//	stations:
//	  "1": "senha1"
//	  "2": "senha2"
type credentialFile struct {
	Stations map[string]string `yaml:"stations"`
}

// Load reads the credential file and builds the store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file %s: %w", path, err)
	}

	var file credentialFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credential file %s: %w", path, err)
	}

	if len(file.Stations) == 0 {
		return nil, fmt.Errorf("credential file %s configures no stations", path)
	}

	for id, secret := range file.Stations {
		if id == "" {
			return nil, fmt.Errorf("credential file %s contains an empty station id", path)
		}
		if secret == "" {
			return nil, fmt.Errorf("credential file %s has an empty secret for station %q", path, id)
		}
	}

	return &Store{secrets: file.Stations}, nil
}

// NewStore builds a store from an in-memory map. Used by tests and by
// callers that source credentials from somewhere other than a file.
func NewStore(secrets map[string]string) *Store {
	copied := make(map[string]string, len(secrets))
	for id, secret := range secrets {
		copied[id] = secret
	}
	return &Store{secrets: copied}
}

// Lookup returns the shared secret for a station id.
func (s *Store) Lookup(stationID string) (string, bool) {
	secret, ok := s.secrets[stationID]
	return secret, ok
}

// Verify reports whether the given secret matches the configured one.
// A station with no configured credential never verifies.
func (s *Store) Verify(stationID, secret string) bool {
	expected, ok := s.secrets[stationID]
	return ok && expected == secret
}

// Count returns the number of configured stations.
func (s *Store) Count() int {
	return len(s.secrets)
}
