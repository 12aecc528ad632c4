package telemetry

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/domain"
)

// Base coordinates for freshly registered vehicles (San Francisco).
const (
	baseLatitude  = 37.7749
	baseLongitude = -122.4194
)

type vehicleState struct {
	speed      float64
	engineRPM  float64
	fuelLevel  float64
	engineTemp float64
	latitude   float64
	longitude  float64
	direction  float64
	lastUpdate time.Time
}

// Simulator produces a plausible telemetry stream per vehicle: a random walk
// with correlated metrics and smooth transitions rather than white noise.
type Simulator struct {
	mu     sync.Mutex
	states map[string]*vehicleState
	random *rand.Rand
	now    func() time.Time
}

// NewSimulator returns a simulator seeded from the current time.
func NewSimulator(now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{
		states: make(map[string]*vehicleState),
		random: rand.New(rand.NewSource(now().UnixNano())),
		now:    now,
	}
}

// Next advances the vehicle's simulated state and returns the resulting
// sample. Unknown vehicles are initialised on first call.
func (s *Simulator) Next(vehicleID string) domain.TelemetrySample {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.now().UTC()
	state, ok := s.states[vehicleID]
	if !ok {
		state = s.initState(current)
		s.states[vehicleID] = state
	}
	dt := current.Sub(state.lastUpdate).Seconds()

	state.speed = clamp(state.speed+s.uniform(-5, 5)*dt, 0, 140)

	targetRPM := state.speed*35 + s.uniform(-200, 200)
	state.engineRPM = clamp(targetRPM, 800, 6500)

	burnRate := (state.speed*0.001 + state.engineRPM*0.0001) * dt
	state.fuelLevel = math.Max(0, state.fuelLevel-burnRate)

	tempTarget := 90 + (state.engineRPM-2000)*0.005
	state.engineTemp = clamp(state.engineTemp+(tempTarget-state.engineTemp)*0.1*dt, 70, 120)

	// Dead-reckoned GPS drift: km travelled converted to rough degrees.
	distance := state.speed * dt / 3600 / 111
	angle := state.direction * math.Pi / 180
	state.latitude += distance * math.Cos(angle)
	state.longitude += distance * math.Sin(angle)
	if s.random.Float64() < 0.1 {
		state.direction = math.Mod(state.direction+s.uniform(-30, 30)+360, 360)
	}

	state.lastUpdate = current

	return domain.TelemetrySample{
		ID:                uuid.NewString(),
		VehicleID:         vehicleID,
		Speed:             round(state.speed, 1),
		EngineRPM:         round(state.engineRPM, 0),
		FuelLevel:         round(state.fuelLevel, 1),
		EngineTemperature: round(state.engineTemp, 1),
		Latitude:          round(state.latitude, 6),
		Longitude:         round(state.longitude, 6),
		Timestamp:         current,
	}
}

// Prune drops simulation state for vehicles no longer in the active set.
func (s *Simulator) Prune(active map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.states {
		if _, ok := active[id]; !ok {
			delete(s.states, id)
		}
	}
}

func (s *Simulator) initState(now time.Time) *vehicleState {
	return &vehicleState{
		speed:      s.uniform(60, 80),
		engineRPM:  s.uniform(1500, 2500),
		fuelLevel:  s.uniform(50, 100),
		engineTemp: s.uniform(85, 95),
		latitude:   baseLatitude + s.uniform(-0.1, 0.1),
		longitude:  baseLongitude + s.uniform(-0.1, 0.1),
		direction:  s.uniform(0, 360),
		lastUpdate: now,
	}
}

func (s *Simulator) uniform(min, max float64) float64 {
	return min + s.random.Float64()*(max-min)
}

func clamp(value, min, max float64) float64 {
	return math.Max(min, math.Min(max, value))
}

func round(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
