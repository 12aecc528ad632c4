package dashboard

import (
	"sync"
	"time"
)

// HistoryLimit bounds the rolling sample history across all vehicles.
const HistoryLimit = 50

// ConnState describes the streaming session lifecycle.
type ConnState string

const (
	StateIdle         ConnState = "idle"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateDisconnected ConnState = "disconnected"
)

// Sample is one decoded telemetry reading from the stream.
type Sample struct {
	VehicleID         string    `json:"vehicle_id"`
	Speed             float64   `json:"speed"`
	EngineRPM         float64   `json:"engine_rpm"`
	FuelLevel         float64   `json:"fuel_level"`
	EngineTemperature float64   `json:"engine_temperature"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	Timestamp         time.Time `json:"timestamp"`
}

// Alert is a decoded threshold alert from the stream.
type Alert struct {
	VehicleID string  `json:"vehicle_id"`
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Severity  string  `json:"severity"`
	Message   string  `json:"message"`
}

// State is the live projection fed by one streaming session. It keeps the
// latest sample per vehicle, a fleet-wide rolling history for charting, and
// the alert set of the most recent batch. One instance per session; created
// when the dashboard mounts and discarded on teardown.
type State struct {
	mu      sync.RWMutex
	current map[string]Sample
	history []Sample
	alerts  []Alert
	conn    ConnState
}

// NewState returns an empty State in the idle connection state.
func NewState() *State {
	return &State{
		current: make(map[string]Sample),
		history: make([]Sample, 0, HistoryLimit),
		conn:    StateIdle,
	}
}

// ApplyBatch folds one telemetry_update batch into the state. The three
// effects (current overwrite, history append, alert replacement) happen under
// a single lock so readers never observe a half-applied batch. Samples are
// taken in batch order; the last sample for a vehicle in the batch wins.
// Timestamps are accepted as received without reordering or validation.
func (s *State) ApplyBatch(samples []Sample, alerts []Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sample := range samples {
		s.current[sample.VehicleID] = sample
	}
	s.history = append(s.history, samples...)
	if excess := len(s.history) - HistoryLimit; excess > 0 {
		s.history = append(s.history[:0], s.history[excess:]...)
	}
	s.alerts = append(s.alerts[:0:0], alerts...)
}

// Current returns the latest sample for a vehicle, if any was ever seen.
func (s *State) Current(vehicleID string) (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sample, ok := s.current[vehicleID]
	return sample, ok
}

// Alerts returns a copy of the active alert set.
func (s *State) Alerts() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Alert(nil), s.alerts...)
}

// History returns a copy of the rolling sample history in arrival order.
func (s *State) History() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Sample(nil), s.history...)
}

// ConnectionState reports the streaming session state.
func (s *State) ConnectionState() ConnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

func (s *State) setConnectionState(state ConnState) {
	s.mu.Lock()
	s.conn = state
	s.mu.Unlock()
}
