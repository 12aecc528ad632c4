package telemetry

import (
	"math"
	"testing"
	"time"
)

func steppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(step)
		return current
	}
}

func TestSimulatorKeepsMetricsInPlausibleBands(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sim := NewSimulator(steppingClock(start, time.Second))

	for i := 0; i < 200; i++ {
		sample := sim.Next("veh-1")
		if sample.Speed < 0 || sample.Speed > 140 {
			t.Fatalf("speed out of band: %v", sample.Speed)
		}
		if sample.EngineRPM < 800 || sample.EngineRPM > 6500 {
			t.Fatalf("rpm out of band: %v", sample.EngineRPM)
		}
		if sample.FuelLevel < 0 || sample.FuelLevel > 100 {
			t.Fatalf("fuel out of band: %v", sample.FuelLevel)
		}
		if sample.EngineTemperature < 70 || sample.EngineTemperature > 120 {
			t.Fatalf("temperature out of band: %v", sample.EngineTemperature)
		}
	}
}

func TestSimulatorRoundsReadings(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sim := NewSimulator(steppingClock(start, time.Second))

	sample := sim.Next("veh-1")
	if sample.Speed != round(sample.Speed, 1) {
		t.Fatalf("speed not rounded to one decimal: %v", sample.Speed)
	}
	if sample.EngineRPM != math.Trunc(sample.EngineRPM) {
		t.Fatalf("rpm not a whole number: %v", sample.EngineRPM)
	}
	if sample.Latitude != round(sample.Latitude, 6) {
		t.Fatalf("latitude not rounded to six decimals: %v", sample.Latitude)
	}
}

func TestSimulatorBurnsFuelOverTime(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sim := NewSimulator(steppingClock(start, time.Second))

	first := sim.Next("veh-1")
	var last float64
	for i := 0; i < 100; i++ {
		last = sim.Next("veh-1").FuelLevel
	}
	if last > first.FuelLevel {
		t.Fatalf("fuel increased from %v to %v", first.FuelLevel, last)
	}
}

func TestSimulatorAssignsUniqueSampleIDs(t *testing.T) {
	sim := NewSimulator(nil)
	a := sim.Next("veh-1")
	b := sim.Next("veh-1")
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique sample ids, got %q and %q", a.ID, b.ID)
	}
	if a.VehicleID != "veh-1" {
		t.Fatalf("unexpected vehicle id: %q", a.VehicleID)
	}
}

func TestSimulatorPruneDropsRemovedVehicles(t *testing.T) {
	sim := NewSimulator(nil)
	sim.Next("veh-1")
	sim.Next("veh-2")

	sim.Prune(map[string]struct{}{"veh-2": {}})

	sim.mu.Lock()
	defer sim.mu.Unlock()
	if _, ok := sim.states["veh-1"]; ok {
		t.Fatal("expected veh-1 state to be pruned")
	}
	if _, ok := sim.states["veh-2"]; !ok {
		t.Fatal("expected veh-2 state to survive")
	}
}
