package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client provides typed access to the telemetry API for dashboards and tools.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:8000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// WebsocketURL returns the streaming endpoint derived from the base URL.
func (c *Client) WebsocketURL() string {
	endpoint := c.baseURL + "/ws/telemetry"
	endpoint = strings.Replace(endpoint, "https://", "wss://", 1)
	return strings.Replace(endpoint, "http://", "ws://", 1)
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body any, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + path
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg := extractError(resp.Body)
		return APIError{Status: resp.StatusCode, Message: msg}
	}

	if v == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Error)
}

// Vehicle reflects API vehicle payloads.
type Vehicle struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	LicensePlate string    `json:"license_plate"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateVehicleInput captures the payload for vehicle registration.
type CreateVehicleInput struct {
	Name         string `json:"name"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"license_plate"`
}

// ListVehicles returns all active vehicles.
func (c *Client) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	var vehicles []Vehicle
	if err := c.do(ctx, http.MethodGet, "/vehicles", nil, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// GetVehicle fetches a single vehicle.
func (c *Client) GetVehicle(ctx context.Context, vehicleID string) (Vehicle, error) {
	path := fmt.Sprintf("/vehicles/%s", url.PathEscape(vehicleID))
	var vehicle Vehicle
	if err := c.do(ctx, http.MethodGet, path, nil, &vehicle); err != nil {
		return Vehicle{}, err
	}
	return vehicle, nil
}

// CreateVehicle registers a new vehicle.
func (c *Client) CreateVehicle(ctx context.Context, input CreateVehicleInput) (Vehicle, error) {
	var vehicle Vehicle
	if err := c.do(ctx, http.MethodPost, "/vehicles", input, &vehicle); err != nil {
		return Vehicle{}, err
	}
	return vehicle, nil
}

// UpdateVehicle overwrites a vehicle's attributes.
func (c *Client) UpdateVehicle(ctx context.Context, vehicleID string, input CreateVehicleInput) (Vehicle, error) {
	path := fmt.Sprintf("/vehicles/%s", url.PathEscape(vehicleID))
	var vehicle Vehicle
	if err := c.do(ctx, http.MethodPut, path, input, &vehicle); err != nil {
		return Vehicle{}, err
	}
	return vehicle, nil
}

// DeleteVehicle removes a vehicle from the registry.
func (c *Client) DeleteVehicle(ctx context.Context, vehicleID string) error {
	path := fmt.Sprintf("/vehicles/%s", url.PathEscape(vehicleID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// TelemetrySample reflects API telemetry payloads.
type TelemetrySample struct {
	ID                string    `json:"id"`
	VehicleID         string    `json:"vehicle_id"`
	Speed             float64   `json:"speed"`
	EngineRPM         float64   `json:"engine_rpm"`
	FuelLevel         float64   `json:"fuel_level"`
	EngineTemperature float64   `json:"engine_temperature"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	Timestamp         time.Time `json:"timestamp"`
}

// Telemetry returns recent samples for a vehicle, newest first.
func (c *Client) Telemetry(ctx context.Context, vehicleID string, limit int) ([]TelemetrySample, error) {
	path := fmt.Sprintf("/vehicles/%s/telemetry", url.PathEscape(vehicleID))
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var samples []TelemetrySample
	if err := c.do(ctx, http.MethodGet, path, nil, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// Export holds a CSV download stream. The caller must close Body.
type Export struct {
	Body     io.ReadCloser
	Filename string
}

// ExportTelemetry requests the CSV export for a vehicle. A days value of zero
// uses the server default window.
func (c *Client) ExportTelemetry(ctx context.Context, vehicleID string, days int) (Export, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	path := fmt.Sprintf("/vehicles/%s/telemetry/export", url.PathEscape(vehicleID))
	if days > 0 {
		path = fmt.Sprintf("%s?days=%d", path, days)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return Export{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Export{}, fmt.Errorf("perform request: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		return Export{}, APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	return Export{Body: resp.Body, Filename: dispositionFilename(resp.Header.Get("Content-Disposition"))}, nil
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		return params["filename"]
	}
	return ""
}
