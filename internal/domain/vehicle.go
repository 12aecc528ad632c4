package domain

import "time"

// Vehicle is a registered member of the fleet. Records are immutable from the
// telemetry core's point of view; only the registry mutates them.
type Vehicle struct {
	ID           string
	Name         string
	Model        string
	Year         int
	LicensePlate string
	IsActive     bool
	CreatedAt    time.Time
}
