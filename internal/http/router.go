package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/domain"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/repository"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/service/export"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/service/fleet"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/service/telemetry"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/ws"
)

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitRead      = 120
	rateLimitWrite     = 60
	rateLimitExport    = 10
	rateLimitWebsocket = 30
	healthCheckTimeout = 2 * time.Second
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	fleet        fleet.Service
	export       export.Service
	streamer     *telemetry.Streamer
	upgrader     websocket.Upgrader
	limiter      RateLimiter
	historyLimit int
	exportDays   int
	dbHealth     func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
	streamClients      prometheus.Gauge
}

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, fleetSvc fleet.Service, exportSvc export.Service, streamer *telemetry.Streamer, limiter RateLimiter, historyLimit, exportDays int, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		fleet:    fleetSvc,
		export:   exportSvc,
		streamer: streamer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:      limiter,
		historyLimit: historyLimit,
		exportDays:   exportDays,
		dbHealth:     dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	if r.historyLimit <= 0 {
		r.historyLimit = 100
	}
	if r.exportDays <= 0 {
		r.exportDays = 7
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/metrics", promhttp.Handler().ServeHTTP)
	r.mux.HandleFunc("/healthz", r.instrument("/healthz", r.handleHealthz))
	r.mux.HandleFunc("/vehicles", r.instrument("/vehicles", r.withRateLimit("/vehicles", rateLimitWrite, rateWindowDefault, r.handleVehicles)))
	r.mux.HandleFunc("/vehicles/", r.instrument("/vehicles/:id", r.withRateLimit("/vehicles/:id", rateLimitRead, rateWindowDefault, r.handleVehicleSubroutes)))
	// The websocket route hijacks the connection, so it skips the metrics
	// response recorder.
	r.mux.HandleFunc("/ws/telemetry", r.withRateLimit("/ws/telemetry", rateLimitWebsocket, rateWindowRealtime, r.handleTelemetryWS))
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
	defer cancel()

	status := "ok"
	database := map[string]any{"status": "up"}
	if r.dbHealth != nil {
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			database = map[string]any{"status": "down", "error": err.Error()}
		}
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":     status,
		"components": map[string]any{"database": database},
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (r *Router) handleVehicles(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		vehicles, err := r.fleet.List(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		payload := make([]map[string]any, 0, len(vehicles))
		for _, vehicle := range vehicles {
			payload = append(payload, vehiclePayload(vehicle))
		}
		writeJSON(w, http.StatusOK, payload)
	case http.MethodPost:
		input, ok := decodeVehicleInput(w, req)
		if !ok {
			return
		}
		vehicle, err := r.fleet.Register(req.Context(), input)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, vehiclePayload(*vehicle))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleVehicleSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/vehicles/")
	parts := strings.Split(trimmed, "/")
	vehicleID := parts[0]
	if vehicleID == "" {
		r.notFound(w)
		return
	}
	switch {
	case len(parts) == 1:
		r.handleVehicle(w, req, vehicleID)
	case len(parts) == 2 && parts[1] == "telemetry":
		r.handleTelemetryHistory(w, req, vehicleID)
	case len(parts) == 3 && parts[1] == "telemetry" && parts[2] == "export":
		r.handleTelemetryExport(w, req, vehicleID)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleVehicle(w http.ResponseWriter, req *http.Request, vehicleID string) {
	switch req.Method {
	case http.MethodGet:
		vehicle, err := r.fleet.Get(req.Context(), vehicleID)
		if err != nil {
			r.writeLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, vehiclePayload(*vehicle))
	case http.MethodPut:
		input, ok := decodeVehicleInput(w, req)
		if !ok {
			return
		}
		vehicle, err := r.fleet.Update(req.Context(), vehicleID, input)
		if err != nil {
			r.writeLookupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, vehiclePayload(*vehicle))
	case http.MethodDelete:
		if err := r.fleet.Remove(req.Context(), vehicleID); err != nil {
			r.writeLookupError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleTelemetryHistory(w http.ResponseWriter, req *http.Request, vehicleID string) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	if limit <= 0 || limit > r.historyLimit {
		limit = r.historyLimit
	}
	samples, err := r.streamer.History(req.Context(), vehicleID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payload := make([]map[string]any, 0, len(samples))
	for _, sample := range samples {
		payload = append(payload, telemetry.SamplePayload(sample))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (r *Router) handleTelemetryExport(w http.ResponseWriter, req *http.Request, vehicleID string) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	if days <= 0 {
		days = r.exportDays
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+export.Filename(vehicleID, days))
	if err := r.export.WriteCSV(req.Context(), w, vehicleID, days); err != nil {
		w.Header().Del("Content-Disposition")
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no telemetry data found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (r *Router) handleTelemetryWS(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.streamer.Hub().Register(client)
	r.streamClientConnected()
	go func() {
		defer func() {
			r.streamer.Hub().Unregister(client)
			client.Close()
			r.streamClientDisconnected()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "vehicle not found")
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeVehicleInput(w http.ResponseWriter, req *http.Request) (fleet.VehicleInput, bool) {
	var payload struct {
		Name         string `json:"name"`
		Model        string `json:"model"`
		Year         int    `json:"year"`
		LicensePlate string `json:"license_plate"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return fleet.VehicleInput{}, false
	}
	return fleet.VehicleInput{
		Name:         payload.Name,
		Model:        payload.Model,
		Year:         payload.Year,
		LicensePlate: payload.LicensePlate,
	}, true
}

func vehiclePayload(vehicle domain.Vehicle) map[string]any {
	return map[string]any{
		"id":            vehicle.ID,
		"name":          vehicle.Name,
		"model":         vehicle.Model,
		"year":          vehicle.Year,
		"license_plate": vehicle.LicensePlate,
		"is_active":     vehicle.IsActive,
		"created_at":    vehicle.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
