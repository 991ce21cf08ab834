package registry

import (
	"net"
	"sync"
	"time"
)

// Station is the last known state of a field device. The address is the
// sender address of its most recent STATUS message; a nil address means
// the station has never reported in since broker start.
type Station struct {
	ID         string
	Address    *net.UDPAddr
	LastStatus string
	LastSeen   time.Time
}

// StationInfo is a copy of a station record for monitoring and APIs.
type StationInfo struct {
	ID         string    `json:"id"`
	Address    string    `json:"address,omitempty"`
	Online     bool      `json:"online"`
	LastStatus string    `json:"last_status"`
	LastSeen   time.Time `json:"last_seen"`
}

// Registry tracks all stations that have reported a STATUS.
type Registry struct {
	mu       sync.RWMutex
	stations map[string]*Station
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{stations: make(map[string]*Station)}
}

// UpsertStatus records a STATUS report. The station record is created on
// first sight; otherwise address and status are overwritten unconditionally.
// Last writer wins: UDP reordering can let a stale STATUS overwrite a
// fresher one. The original system has no sequence numbers, and neither
// does this one.
func (r *Registry) UpsertStatus(stationID string, addr *net.UDPAddr, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	station, exists := r.stations[stationID]
	if !exists {
		station = &Station{ID: stationID}
		r.stations[stationID] = station
	}

	station.Address = addr
	station.LastStatus = status
	station.LastSeen = time.Now()
}

// LookupAddress returns the last reported address for a station, if any.
func (r *Registry) LookupAddress(stationID string) (*net.UDPAddr, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	station, exists := r.stations[stationID]
	if !exists || station.Address == nil {
		return nil, false
	}
	return station.Address, true
}

// Count returns the number of known stations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stations)
}

// Snapshot returns a copy of all station records, safe to use without
// holding the registry lock.
func (r *Registry) Snapshot() []StationInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]StationInfo, 0, len(r.stations))
	for _, station := range r.stations {
		info := StationInfo{
			ID:         station.ID,
			Online:     station.Address != nil,
			LastStatus: station.LastStatus,
			LastSeen:   station.LastSeen,
		}
		if station.Address != nil {
			info.Address = station.Address.String()
		}
		infos = append(infos, info)
	}
	return infos
}
