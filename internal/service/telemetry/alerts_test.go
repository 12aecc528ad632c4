package telemetry

import (
	"testing"

	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/domain"
)

func normalSample() domain.TelemetrySample {
	return domain.TelemetrySample{
		VehicleID:         "veh-1",
		Speed:             80,
		EngineRPM:         2500,
		FuelLevel:         55,
		EngineTemperature: 90,
	}
}

func TestCheckSampleNormalReadingsRaiseNothing(t *testing.T) {
	alerts := CheckSample(normalSample())
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %v", alerts)
	}
}

func TestCheckSampleSpeedAboveLimitIsMedium(t *testing.T) {
	sample := normalSample()
	sample.Speed = 130

	alerts := CheckSample(sample)
	if len(alerts) != 1 {
		t.Fatalf("expected one alert, got %d", len(alerts))
	}
	alert := alerts[0]
	if alert.Metric != "speed" {
		t.Fatalf("expected speed alert, got %s", alert.Metric)
	}
	if alert.Severity != domain.SeverityMedium {
		t.Fatalf("expected medium severity, got %s", alert.Severity)
	}
	if alert.Threshold != 120 {
		t.Fatalf("expected threshold 120, got %v", alert.Threshold)
	}
	if alert.Message != "Speed is critically high: 130" {
		t.Fatalf("unexpected message: %q", alert.Message)
	}
}

func TestCheckSampleEscalatesToHighBeyondTwentyPercent(t *testing.T) {
	sample := normalSample()
	sample.Speed = 145 // 120 * 1.2 = 144

	alerts := CheckSample(sample)
	if len(alerts) != 1 {
		t.Fatalf("expected one alert, got %d", len(alerts))
	}
	if alerts[0].Severity != domain.SeverityHigh {
		t.Fatalf("expected high severity, got %s", alerts[0].Severity)
	}
}

func TestCheckSampleExactlyTwentyPercentStaysMedium(t *testing.T) {
	sample := normalSample()
	sample.Speed = 144

	alerts := CheckSample(sample)
	if len(alerts) != 1 {
		t.Fatalf("expected one alert, got %d", len(alerts))
	}
	if alerts[0].Severity != domain.SeverityMedium {
		t.Fatalf("expected medium severity at the 20%% boundary, got %s", alerts[0].Severity)
	}
}

func TestCheckSampleLowFuelSeverities(t *testing.T) {
	sample := normalSample()
	sample.FuelLevel = 9

	alerts := CheckSample(sample)
	if len(alerts) != 1 {
		t.Fatalf("expected one alert, got %d", len(alerts))
	}
	if alerts[0].Severity != domain.SeverityMedium {
		t.Fatalf("expected medium severity, got %s", alerts[0].Severity)
	}
	if alerts[0].Message != "Fuel Level is critically low: 9" {
		t.Fatalf("unexpected message: %q", alerts[0].Message)
	}

	sample.FuelLevel = 7 // below 10 * 0.8
	alerts = CheckSample(sample)
	if len(alerts) != 1 || alerts[0].Severity != domain.SeverityHigh {
		t.Fatalf("expected high severity for fuel at 7, got %v", alerts)
	}
}

func TestCheckSampleMultipleMetricsProduceMultipleAlerts(t *testing.T) {
	sample := normalSample()
	sample.Speed = 130
	sample.EngineRPM = 6200
	sample.EngineTemperature = 105

	alerts := CheckSample(sample)
	if len(alerts) != 3 {
		t.Fatalf("expected three alerts, got %d", len(alerts))
	}
	metrics := map[string]bool{}
	for _, alert := range alerts {
		metrics[alert.Metric] = true
		if alert.VehicleID != "veh-1" {
			t.Fatalf("alert missing vehicle id: %+v", alert)
		}
	}
	for _, want := range []string{"speed", "engine_rpm", "engine_temperature"} {
		if !metrics[want] {
			t.Fatalf("missing alert for %s", want)
		}
	}
}
