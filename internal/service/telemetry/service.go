package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/domain"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/repository"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/ws"
)

const defaultStreamInterval = time.Second

// Streamer periodically simulates telemetry for every active vehicle, persists
// the samples for history queries, and broadcasts one telemetry_update batch
// to all connected dashboards.
type Streamer struct {
	vehicles repository.VehicleRepository
	samples  repository.TelemetryRepository
	hub      *ws.Hub
	sim      *Simulator
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewStreamer constructs a Streamer with sane defaults.
func NewStreamer(vehicles repository.VehicleRepository, samples repository.TelemetryRepository, hub *ws.Hub, logger *slog.Logger, interval time.Duration) *Streamer {
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	if hub == nil {
		hub = ws.NewHub()
	}
	if logger != nil {
		logger = logger.With("component", "telemetry_streamer")
	}
	now := time.Now
	return &Streamer{
		vehicles: vehicles,
		samples:  samples,
		hub:      hub,
		sim:      NewSimulator(now),
		interval: interval,
		logger:   logger,
		now:      now,
	}
}

// History returns the newest persisted samples for a vehicle, newest first.
func (s *Streamer) History(ctx context.Context, vehicleID string, limit int) ([]domain.TelemetrySample, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.samples.ListRecentSamples(ctx, vehicleID, limit)
}

// Hub exposes the broadcast hub for the websocket endpoint.
func (s *Streamer) Hub() *ws.Hub {
	return s.hub
}

// Run drives the broadcast loop. It blocks until the context is cancelled.
func (s *Streamer) Run(ctx context.Context) {
	if s.logger != nil {
		s.logger.Info("telemetry streamer started", "interval", s.interval)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.Info("telemetry streamer stopped")
			}
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Streamer) tick(ctx context.Context) {
	vehicles, err := s.vehicles.ListActiveVehicles(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to list active vehicles", "error", err)
		}
		return
	}

	active := make(map[string]struct{}, len(vehicles))
	batch := make([]domain.TelemetrySample, 0, len(vehicles))
	var alerts []domain.Alert
	for _, vehicle := range vehicles {
		active[vehicle.ID] = struct{}{}
		sample := s.sim.Next(vehicle.ID)
		if err := s.samples.InsertSample(ctx, &sample); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to persist telemetry sample", "vehicle_id", vehicle.ID, "error", err)
			}
		}
		batch = append(batch, sample)
		alerts = append(alerts, CheckSample(sample)...)
	}
	s.sim.Prune(active)

	payload, err := MarshalTelemetryUpdate(s.now().UTC(), batch, alerts)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to marshal telemetry batch", "error", err)
		}
		return
	}
	s.hub.Broadcast(payload)
}

// MarshalTelemetryUpdate encodes one streaming batch for websocket clients.
func MarshalTelemetryUpdate(timestamp time.Time, samples []domain.TelemetrySample, alerts []domain.Alert) ([]byte, error) {
	data := make([]map[string]any, 0, len(samples))
	for _, sample := range samples {
		data = append(data, SamplePayload(sample))
	}
	alertPayloads := make([]map[string]any, 0, len(alerts))
	for _, alert := range alerts {
		alertPayloads = append(alertPayloads, map[string]any{
			"vehicle_id": alert.VehicleID,
			"metric":     alert.Metric,
			"value":      alert.Value,
			"threshold":  alert.Threshold,
			"severity":   alert.Severity,
			"message":    alert.Message,
		})
	}
	return json.Marshal(map[string]any{
		"type":      domain.MessageTypeTelemetryUpdate,
		"timestamp": timestamp.Format(time.RFC3339Nano),
		"data":      data,
		"alerts":    alertPayloads,
	})
}

// SamplePayload encodes a sample the way the REST and streaming surfaces
// expose it.
func SamplePayload(sample domain.TelemetrySample) map[string]any {
	return map[string]any{
		"id":                 sample.ID,
		"vehicle_id":         sample.VehicleID,
		"speed":              sample.Speed,
		"engine_rpm":         sample.EngineRPM,
		"fuel_level":         sample.FuelLevel,
		"engine_temperature": sample.EngineTemperature,
		"latitude":           sample.Latitude,
		"longitude":          sample.Longitude,
		"timestamp":          sample.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}
