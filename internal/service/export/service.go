package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/repository"
)

const defaultWindowDays = 7

var csvHeader = []string{
	"timestamp",
	"vehicle_id",
	"speed_kmh",
	"engine_rpm",
	"fuel_level_percent",
	"engine_temperature_celsius",
	"latitude",
	"longitude",
}

// Service streams historical telemetry as CSV.
type Service struct {
	samples repository.TelemetryRepository
	logger  *slog.Logger
	now     func() time.Time
}

// New returns an export service.
func New(samples repository.TelemetryRepository, logger *slog.Logger) Service {
	if logger != nil {
		logger = logger.With("component", "export")
	}
	return Service{samples: samples, logger: logger, now: time.Now}
}

// WriteCSV writes the vehicle's telemetry for the trailing window to w.
// Returns repository.ErrNotFound when there is nothing to export.
func (s Service) WriteCSV(ctx context.Context, w io.Writer, vehicleID string, days int) error {
	if days <= 0 {
		days = defaultWindowDays
	}
	midnight := s.now().UTC().Truncate(24 * time.Hour)
	since := midnight.AddDate(0, 0, -days)

	samples, err := s.samples.ListSamplesSince(ctx, strings.TrimSpace(vehicleID), since)
	if err != nil {
		return fmt.Errorf("load telemetry for export: %w", err)
	}
	if len(samples) == 0 {
		return repository.ErrNotFound
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, sample := range samples {
		record := []string{
			sample.Timestamp.UTC().Format(time.RFC3339Nano),
			sample.VehicleID,
			formatFloat(sample.Speed),
			formatFloat(sample.EngineRPM),
			formatFloat(sample.FuelLevel),
			formatFloat(sample.EngineTemperature),
			formatFloat(sample.Latitude),
			formatFloat(sample.Longitude),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("telemetry exported", "vehicle_id", vehicleID, "rows", len(samples), "days", days)
	}
	return nil
}

// Filename suggests the attachment name for an export download.
func Filename(vehicleID string, days int) string {
	if days <= 0 {
		days = defaultWindowDays
	}
	return fmt.Sprintf("telemetry_%s_%ddays.csv", vehicleID, days)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
