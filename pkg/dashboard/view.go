package dashboard

// maxVisibleAlerts caps how many alerts a rendering surface shows at once.
// Display policy only; the state keeps the full set.
const maxVisibleAlerts = 3

// ChartPoint is one sample mapped onto chart axes. RPM is divided by 100 so it
// shares an axis with speed; raw RPM is rendered numerically elsewhere.
type ChartPoint struct {
	TimeLabel         string
	Speed             float64
	RPM               float64
	FuelLevel         float64
	EngineTemperature float64
}

// Projector derives per-vehicle slices of the live state. All methods are
// pure reads recomputed on every call; nothing is cached and nothing mutates
// the underlying state.
type Projector struct {
	state *State
}

// NewProjector returns a Projector over the given state.
func NewProjector(state *State) Projector {
	return Projector{state: state}
}

// CurrentMetrics returns the latest sample for the selected vehicle. The
// second return is false when the vehicle has never been seen on the stream,
// including when the selection refers to a deleted vehicle.
func (p Projector) CurrentMetrics(vehicleID string) (Sample, bool) {
	return p.state.Current(vehicleID)
}

// AlertsFor returns active alerts for the selected vehicle, or the whole
// fleet's alerts when no vehicle is selected.
func (p Projector) AlertsFor(vehicleID string) []Alert {
	alerts := p.state.Alerts()
	if vehicleID == "" {
		return alerts
	}
	filtered := alerts[:0]
	for _, alert := range alerts {
		if alert.VehicleID == vehicleID {
			filtered = append(filtered, alert)
		}
	}
	return filtered
}

// VisibleAlerts truncates an alert list to the rendering cap.
func VisibleAlerts(alerts []Alert) []Alert {
	if len(alerts) > maxVisibleAlerts {
		return alerts[:maxVisibleAlerts]
	}
	return alerts
}

// ChartSeries maps the rolling history for the selected vehicle (or the whole
// fleet when no vehicle is selected) onto chart points in arrival order.
func (p Projector) ChartSeries(vehicleID string) []ChartPoint {
	history := p.state.History()
	points := make([]ChartPoint, 0, len(history))
	for _, sample := range history {
		if vehicleID != "" && sample.VehicleID != vehicleID {
			continue
		}
		points = append(points, ChartPoint{
			TimeLabel:         sample.Timestamp.Format("15:04:05"),
			Speed:             sample.Speed,
			RPM:               sample.EngineRPM / 100,
			FuelLevel:         sample.FuelLevel,
			EngineTemperature: sample.EngineTemperature,
		})
	}
	return points
}
