package fleet

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/domain"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/repository"
)

// VehicleInput captures the attributes an operator supplies when registering
// or updating a vehicle.
type VehicleInput struct {
	Name         string
	Model        string
	Year         int
	LicensePlate string
}

// Service manages the vehicle registry.
type Service struct {
	vehicles repository.VehicleRepository
	logger   *slog.Logger
	now      func() time.Time
}

// New returns a fleet service.
func New(vehicles repository.VehicleRepository, logger *slog.Logger) Service {
	if logger != nil {
		logger = logger.With("component", "fleet")
	}
	return Service{vehicles: vehicles, logger: logger, now: time.Now}
}

var (
	errNameRequired   = errors.New("vehicle name is required")
	errModelRequired  = errors.New("vehicle model is required")
	errPlateRequired  = errors.New("license plate is required")
	errInvalidYear    = errors.New("vehicle year is out of range")
	errMissingVehicle = errors.New("vehicle id required")
)

// Register creates a new vehicle record.
func (s Service) Register(ctx context.Context, input VehicleInput) (*domain.Vehicle, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}
	vehicle := &domain.Vehicle{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Model:        input.Model,
		Year:         input.Year,
		LicensePlate: input.LicensePlate,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.vehicles.CreateVehicle(ctx, vehicle); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("vehicle registered", "vehicle_id", vehicle.ID, "license_plate", vehicle.LicensePlate)
	}
	return vehicle, nil
}

// List returns every active vehicle.
func (s Service) List(ctx context.Context) ([]domain.Vehicle, error) {
	return s.vehicles.ListActiveVehicles(ctx)
}

// Get returns one vehicle by identifier.
func (s Service) Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	vehicleID = strings.TrimSpace(vehicleID)
	if vehicleID == "" {
		return nil, errMissingVehicle
	}
	return s.vehicles.GetVehicleByID(ctx, vehicleID)
}

// Update overwrites the mutable attributes of a vehicle.
func (s Service) Update(ctx context.Context, vehicleID string, input VehicleInput) (*domain.Vehicle, error) {
	vehicleID = strings.TrimSpace(vehicleID)
	if vehicleID == "" {
		return nil, errMissingVehicle
	}
	if err := validate(&input); err != nil {
		return nil, err
	}
	vehicle, err := s.vehicles.GetVehicleByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	vehicle.Name = input.Name
	vehicle.Model = input.Model
	vehicle.Year = input.Year
	vehicle.LicensePlate = input.LicensePlate
	if err := s.vehicles.UpdateVehicle(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// Remove soft-deletes a vehicle. Historical telemetry is kept.
func (s Service) Remove(ctx context.Context, vehicleID string) error {
	vehicleID = strings.TrimSpace(vehicleID)
	if vehicleID == "" {
		return errMissingVehicle
	}
	if err := s.vehicles.DeactivateVehicle(ctx, vehicleID); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("vehicle removed", "vehicle_id", vehicleID)
	}
	return nil
}

func validate(input *VehicleInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Model = strings.TrimSpace(input.Model)
	input.LicensePlate = strings.TrimSpace(input.LicensePlate)
	if input.Name == "" {
		return errNameRequired
	}
	if input.Model == "" {
		return errModelRequired
	}
	if input.LicensePlate == "" {
		return errPlateRequired
	}
	if input.Year < 1950 || input.Year > time.Now().Year()+1 {
		return errInvalidYear
	}
	return nil
}
