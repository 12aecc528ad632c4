package telemetry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/domain"
)

type metricThreshold struct {
	metric string
	value  func(domain.TelemetrySample) float64
	min    float64
	max    float64
}

// Threshold bands per metric. Outside the band raises an alert; the severity
// escalates to high at 20% beyond the bound.
var thresholds = []metricThreshold{
	{metric: "speed", value: func(s domain.TelemetrySample) float64 { return s.Speed }, min: 0, max: 120},
	{metric: "engine_rpm", value: func(s domain.TelemetrySample) float64 { return s.EngineRPM }, min: 800, max: 6000},
	{metric: "fuel_level", value: func(s domain.TelemetrySample) float64 { return s.FuelLevel }, min: 10, max: 100},
	{metric: "engine_temperature", value: func(s domain.TelemetrySample) float64 { return s.EngineTemperature }, min: 80, max: 100},
}

// CheckSample derives the alert set for one sample. The result describes the
// sample only; callers replace, not merge, previous alert sets.
func CheckSample(sample domain.TelemetrySample) []domain.Alert {
	var alerts []domain.Alert
	for _, t := range thresholds {
		value := t.value(sample)
		switch {
		case value > t.max:
			severity := domain.SeverityMedium
			if value > t.max*1.2 {
				severity = domain.SeverityHigh
			}
			alerts = append(alerts, domain.Alert{
				VehicleID: sample.VehicleID,
				Metric:    t.metric,
				Value:     value,
				Threshold: t.max,
				Severity:  severity,
				Message:   fmt.Sprintf("%s is critically high: %s", metricTitle(t.metric), formatValue(value)),
			})
		case value < t.min:
			severity := domain.SeverityMedium
			if value < t.min*0.8 {
				severity = domain.SeverityHigh
			}
			alerts = append(alerts, domain.Alert{
				VehicleID: sample.VehicleID,
				Metric:    t.metric,
				Value:     value,
				Threshold: t.min,
				Severity:  severity,
				Message:   fmt.Sprintf("%s is critically low: %s", metricTitle(t.metric), formatValue(value)),
			})
		}
	}
	return alerts
}

func metricTitle(metric string) string {
	words := strings.Split(metric, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func formatValue(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
