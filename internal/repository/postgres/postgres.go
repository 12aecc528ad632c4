package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/domain"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.VehicleRepository   = (*Repository)(nil)
	_ repository.TelemetryRepository = (*Repository)(nil)
)

// CreateVehicle inserts a vehicle record.
func (r *Repository) CreateVehicle(ctx context.Context, vehicle *domain.Vehicle) error {
	const query = `INSERT INTO vehicles (id, name, model, year, license_plate, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query, vehicle.ID, vehicle.Name, vehicle.Model, vehicle.Year, vehicle.LicensePlate, vehicle.IsActive, vehicle.CreatedAt)
	return err
}

// GetVehicleByID fetches a vehicle by identifier.
func (r *Repository) GetVehicleByID(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	const query = `SELECT id, name, model, year, license_plate, is_active, created_at
		FROM vehicles WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, vehicleID)
	var v domain.Vehicle
	if err := row.Scan(&v.ID, &v.Name, &v.Model, &v.Year, &v.LicensePlate, &v.IsActive, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// ListActiveVehicles returns every vehicle that has not been removed.
func (r *Repository) ListActiveVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	const query = `SELECT id, name, model, year, license_plate, is_active, created_at
		FROM vehicles WHERE is_active ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := make([]domain.Vehicle, 0)
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.Name, &v.Model, &v.Year, &v.LicensePlate, &v.IsActive, &v.CreatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// UpdateVehicle overwrites mutable vehicle attributes.
func (r *Repository) UpdateVehicle(ctx context.Context, vehicle *domain.Vehicle) error {
	const query = `UPDATE vehicles SET name = $2, model = $3, year = $4, license_plate = $5
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, vehicle.ID, vehicle.Name, vehicle.Model, vehicle.Year, vehicle.LicensePlate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeactivateVehicle soft-deletes a vehicle; historical telemetry is retained.
func (r *Repository) DeactivateVehicle(ctx context.Context, vehicleID string) error {
	const query = `UPDATE vehicles SET is_active = FALSE WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, vehicleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// InsertSample stores one telemetry sample.
func (r *Repository) InsertSample(ctx context.Context, sample *domain.TelemetrySample) error {
	const query = `INSERT INTO telemetry_samples
		(id, vehicle_id, speed, engine_rpm, fuel_level, engine_temperature, latitude, longitude, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query, sample.ID, sample.VehicleID, sample.Speed, sample.EngineRPM,
		sample.FuelLevel, sample.EngineTemperature, sample.Latitude, sample.Longitude, sample.Timestamp)
	return err
}

// ListRecentSamples returns the newest samples for a vehicle, newest first.
func (r *Repository) ListRecentSamples(ctx context.Context, vehicleID string, limit int) ([]domain.TelemetrySample, error) {
	const query = `SELECT id, vehicle_id, speed, engine_rpm, fuel_level, engine_temperature, latitude, longitude, timestamp
		FROM telemetry_samples WHERE vehicle_id = $1 ORDER BY timestamp DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, vehicleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSamples(rows)
}

// ListSamplesSince returns samples at or after the cutoff, oldest first.
func (r *Repository) ListSamplesSince(ctx context.Context, vehicleID string, since time.Time) ([]domain.TelemetrySample, error) {
	const query = `SELECT id, vehicle_id, speed, engine_rpm, fuel_level, engine_temperature, latitude, longitude, timestamp
		FROM telemetry_samples WHERE vehicle_id = $1 AND timestamp >= $2 ORDER BY timestamp`
	rows, err := r.pool.Query(ctx, query, vehicleID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSamples(rows)
}

func scanSamples(rows pgx.Rows) ([]domain.TelemetrySample, error) {
	samples := make([]domain.TelemetrySample, 0)
	for rows.Next() {
		var s domain.TelemetrySample
		if err := rows.Scan(&s.ID, &s.VehicleID, &s.Speed, &s.EngineRPM, &s.FuelLevel,
			&s.EngineTemperature, &s.Latitude, &s.Longitude, &s.Timestamp); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
