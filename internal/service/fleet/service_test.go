package fleet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/domain"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/repository"
)

type stubRepo struct {
	created     *domain.Vehicle
	updated     *domain.Vehicle
	deactivated string
	byID        map[string]*domain.Vehicle
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: make(map[string]*domain.Vehicle)}
}

func (s *stubRepo) CreateVehicle(ctx context.Context, vehicle *domain.Vehicle) error {
	s.created = vehicle
	s.byID[vehicle.ID] = vehicle
	return nil
}

func (s *stubRepo) GetVehicleByID(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	vehicle, ok := s.byID[vehicleID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *vehicle
	return &copied, nil
}

func (s *stubRepo) ListActiveVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	var out []domain.Vehicle
	for _, vehicle := range s.byID {
		if vehicle.IsActive {
			out = append(out, *vehicle)
		}
	}
	return out, nil
}

func (s *stubRepo) UpdateVehicle(ctx context.Context, vehicle *domain.Vehicle) error {
	if _, ok := s.byID[vehicle.ID]; !ok {
		return repository.ErrNotFound
	}
	s.updated = vehicle
	s.byID[vehicle.ID] = vehicle
	return nil
}

func (s *stubRepo) DeactivateVehicle(ctx context.Context, vehicleID string) error {
	vehicle, ok := s.byID[vehicleID]
	if !ok {
		return repository.ErrNotFound
	}
	vehicle.IsActive = false
	s.deactivated = vehicleID
	return nil
}

func validInput() VehicleInput {
	return VehicleInput{
		Name:         "Delivery Van 1",
		Model:        "Transit",
		Year:         2023,
		LicensePlate: "ABC-123",
	}
}

func TestRegisterAssignsIDAndActivates(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	vehicle, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if vehicle.ID == "" {
		t.Fatal("expected generated vehicle id")
	}
	if !vehicle.IsActive {
		t.Fatal("expected new vehicle to be active")
	}
	if !vehicle.CreatedAt.Equal(fixed) {
		t.Fatalf("expected created_at %v, got %v", fixed, vehicle.CreatedAt)
	}
	if repo.created == nil {
		t.Fatal("expected vehicle to be persisted")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := New(newStubRepo(), nil)
	ctx := context.Background()

	input := validInput()
	input.Name = "   "
	if _, err := svc.Register(ctx, input); !errors.Is(err, errNameRequired) {
		t.Fatalf("expected name error, got %v", err)
	}

	input = validInput()
	input.Model = ""
	if _, err := svc.Register(ctx, input); !errors.Is(err, errModelRequired) {
		t.Fatalf("expected model error, got %v", err)
	}

	input = validInput()
	input.LicensePlate = ""
	if _, err := svc.Register(ctx, input); !errors.Is(err, errPlateRequired) {
		t.Fatalf("expected plate error, got %v", err)
	}

	input = validInput()
	input.Year = 1900
	if _, err := svc.Register(ctx, input); !errors.Is(err, errInvalidYear) {
		t.Fatalf("expected year error, got %v", err)
	}
}

func TestUpdateOverwritesMutableFields(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, nil)
	ctx := context.Background()

	vehicle, err := svc.Register(ctx, validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	input := validInput()
	input.Name = "Delivery Van 2"
	updated, err := svc.Update(ctx, vehicle.ID, input)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Delivery Van 2" {
		t.Fatalf("expected updated name, got %q", updated.Name)
	}
	if updated.ID != vehicle.ID {
		t.Fatalf("update must not change the id: %q vs %q", updated.ID, vehicle.ID)
	}
}

func TestUpdateUnknownVehicleReturnsNotFound(t *testing.T) {
	svc := New(newStubRepo(), nil)
	_, err := svc.Update(context.Background(), "missing", validInput())
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveSoftDeletes(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, nil)
	ctx := context.Background()

	vehicle, err := svc.Register(ctx, validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Remove(ctx, vehicle.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if repo.deactivated != vehicle.ID {
		t.Fatalf("expected deactivation of %s, got %q", vehicle.ID, repo.deactivated)
	}

	// The record survives, only the listing drops it.
	if _, err := svc.Get(ctx, vehicle.ID); err != nil {
		t.Fatalf("expected record to survive soft delete: %v", err)
	}
	active, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active vehicles, got %d", len(active))
	}
}

func TestRemoveRequiresID(t *testing.T) {
	svc := New(newStubRepo(), nil)
	if err := svc.Remove(context.Background(), "   "); !errors.Is(err, errMissingVehicle) {
		t.Fatalf("expected missing id error, got %v", err)
	}
}
