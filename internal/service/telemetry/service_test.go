package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/domain"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/ws"
)

type stubVehicleRepo struct {
	vehicles []domain.Vehicle
	err      error
}

func (s *stubVehicleRepo) CreateVehicle(ctx context.Context, vehicle *domain.Vehicle) error {
	return nil
}

func (s *stubVehicleRepo) GetVehicleByID(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	return nil, errors.New("not implemented")
}

func (s *stubVehicleRepo) ListActiveVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return s.vehicles, s.err
}

func (s *stubVehicleRepo) UpdateVehicle(ctx context.Context, vehicle *domain.Vehicle) error {
	return nil
}

func (s *stubVehicleRepo) DeactivateVehicle(ctx context.Context, vehicleID string) error {
	return nil
}

type stubTelemetryRepo struct {
	mu        sync.Mutex
	inserted  []domain.TelemetrySample
	insertErr error
	recent    []domain.TelemetrySample
	lastLimit int
}

func (s *stubTelemetryRepo) InsertSample(ctx context.Context, sample *domain.TelemetrySample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, *sample)
	return s.insertErr
}

func (s *stubTelemetryRepo) ListRecentSamples(ctx context.Context, vehicleID string, limit int) ([]domain.TelemetrySample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit = limit
	return s.recent, nil
}

func (s *stubTelemetryRepo) ListSamplesSince(ctx context.Context, vehicleID string, since time.Time) ([]domain.TelemetrySample, error) {
	return nil, nil
}

type captureSubscriber struct {
	payloads chan []byte
}

func (c *captureSubscriber) Send(payload []byte) error {
	c.payloads <- payload
	return nil
}

func (c *captureSubscriber) Close() {}

type telemetryUpdate struct {
	Type      string           `json:"type"`
	Timestamp string           `json:"timestamp"`
	Data      []map[string]any `json:"data"`
	Alerts    []map[string]any `json:"alerts"`
}

func TestStreamerTickBroadcastsOneBatchForAllVehicles(t *testing.T) {
	vehicles := &stubVehicleRepo{vehicles: []domain.Vehicle{
		{ID: "veh-1", Name: "Alpha"},
		{ID: "veh-2", Name: "Beta"},
	}}
	samples := &stubTelemetryRepo{}
	hub := ws.NewHub()
	sub := &captureSubscriber{payloads: make(chan []byte, 1)}
	hub.Register(sub)

	streamer := NewStreamer(vehicles, samples, hub, nil, time.Second)
	streamer.tick(context.Background())

	var payload []byte
	select {
	case payload = <-sub.payloads:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
	}

	var update telemetryUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		t.Fatalf("unmarshal broadcast: %v", err)
	}
	if update.Type != domain.MessageTypeTelemetryUpdate {
		t.Fatalf("expected telemetry_update, got %q", update.Type)
	}
	if len(update.Data) != 2 {
		t.Fatalf("expected two samples in batch, got %d", len(update.Data))
	}
	seen := map[string]bool{}
	for _, entry := range update.Data {
		id, _ := entry["vehicle_id"].(string)
		seen[id] = true
	}
	if !seen["veh-1"] || !seen["veh-2"] {
		t.Fatalf("batch missing vehicles: %v", seen)
	}

	samples.mu.Lock()
	persisted := len(samples.inserted)
	samples.mu.Unlock()
	if persisted != 2 {
		t.Fatalf("expected two persisted samples, got %d", persisted)
	}
}

func TestStreamerTickSkipsBroadcastWhenListFails(t *testing.T) {
	vehicles := &stubVehicleRepo{err: errors.New("database down")}
	samples := &stubTelemetryRepo{}
	hub := ws.NewHub()
	sub := &captureSubscriber{payloads: make(chan []byte, 1)}
	hub.Register(sub)

	streamer := NewStreamer(vehicles, samples, hub, nil, time.Second)
	streamer.tick(context.Background())

	select {
	case payload := <-sub.payloads:
		t.Fatalf("unexpected broadcast: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStreamerTickStillBroadcastsWhenPersistenceFails(t *testing.T) {
	vehicles := &stubVehicleRepo{vehicles: []domain.Vehicle{{ID: "veh-1"}}}
	samples := &stubTelemetryRepo{insertErr: errors.New("disk full")}
	hub := ws.NewHub()
	sub := &captureSubscriber{payloads: make(chan []byte, 1)}
	hub.Register(sub)

	streamer := NewStreamer(vehicles, samples, hub, nil, time.Second)
	streamer.tick(context.Background())

	select {
	case <-sub.payloads:
	case <-time.After(2 * time.Second):
		t.Fatal("expected broadcast despite persistence failure")
	}
}

func TestHistoryDefaultsLimit(t *testing.T) {
	samples := &stubTelemetryRepo{recent: []domain.TelemetrySample{{ID: "s1"}}}
	streamer := NewStreamer(&stubVehicleRepo{}, samples, ws.NewHub(), nil, time.Second)

	got, err := streamer.History(context.Background(), "veh-1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one sample, got %d", len(got))
	}
	if samples.lastLimit != 100 {
		t.Fatalf("expected default limit 100, got %d", samples.lastLimit)
	}
}

func TestMarshalTelemetryUpdateShape(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sample := domain.TelemetrySample{
		ID:        "s1",
		VehicleID: "veh-1",
		Speed:     130,
		Timestamp: ts,
	}
	alerts := CheckSample(sample)

	payload, err := MarshalTelemetryUpdate(ts, []domain.TelemetrySample{sample}, alerts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var update telemetryUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if update.Type != "telemetry_update" {
		t.Fatalf("unexpected type: %q", update.Type)
	}
	if update.Timestamp != ts.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected timestamp: %q", update.Timestamp)
	}
	if len(update.Data) != 1 || update.Data[0]["id"] != "s1" {
		t.Fatalf("unexpected data: %v", update.Data)
	}
	if len(update.Alerts) == 0 {
		t.Fatalf("expected speed alert in payload")
	}
}
