package repository

import (
	"context"
	"time"

	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/domain"
)

// VehicleRepository persists fleet vehicle records.
type VehicleRepository interface {
	CreateVehicle(ctx context.Context, vehicle *domain.Vehicle) error
	GetVehicleByID(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
	ListActiveVehicles(ctx context.Context) ([]domain.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle *domain.Vehicle) error
	DeactivateVehicle(ctx context.Context, vehicleID string) error
}

// TelemetryRepository stores telemetry samples for historical queries.
type TelemetryRepository interface {
	InsertSample(ctx context.Context, sample *domain.TelemetrySample) error
	ListRecentSamples(ctx context.Context, vehicleID string, limit int) ([]domain.TelemetrySample, error)
	ListSamplesSince(ctx context.Context, vehicleID string, since time.Time) ([]domain.TelemetrySample, error)
}
