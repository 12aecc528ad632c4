package domain

import "time"

// Alert severity tiers.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// MessageTypeTelemetryUpdate is the only stream message type the dashboard
// consumes; anything else is a forward-compatible no-op.
const MessageTypeTelemetryUpdate = "telemetry_update"

// TelemetrySample is a single reading for one vehicle. Immutable once produced.
type TelemetrySample struct {
	ID                string
	VehicleID         string
	Speed             float64 // km/h
	EngineRPM         float64
	FuelLevel         float64 // percent
	EngineTemperature float64 // celsius
	Latitude          float64
	Longitude         float64
	Timestamp         time.Time
}

// Alert flags a telemetry metric outside its configured threshold band. Alerts
// describe the current batch only, they are not an accumulating log.
type Alert struct {
	VehicleID string
	Metric    string
	Value     float64
	Threshold float64
	Severity  string
	Message   string
}
