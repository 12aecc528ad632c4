package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNotFoundSurfacesAsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"vehicle not found"}`)
	}))
	defer server.Close()

	cli, err := New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = cli.GetVehicle(context.Background(), "missing")
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", apiErr.Status)
	}
	if apiErr.Message != "vehicle not found" {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
}

func TestListVehiclesDecodesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vehicles" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"veh-1","name":"Alpha","model":"Transit","year":2023,"license_plate":"ABC-123","is_active":true}]`)
	}))
	defer server.Close()

	cli, err := New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	vehicles, err := cli.ListVehicles(context.Background())
	if err != nil {
		t.Fatalf("list vehicles: %v", err)
	}
	if len(vehicles) != 1 || vehicles[0].ID != "veh-1" || !vehicles[0].IsActive {
		t.Fatalf("unexpected vehicles: %+v", vehicles)
	}
}

func TestExportTelemetryStreamsBodyAndFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=telemetry_veh-1_7days.csv")
		io.WriteString(w, "timestamp,vehicle_id\n")
	}))
	defer server.Close()

	cli, err := New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	download, err := cli.ExportTelemetry(context.Background(), "veh-1", 7)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer download.Body.Close()
	if download.Filename != "telemetry_veh-1_7days.csv" {
		t.Fatalf("unexpected filename: %q", download.Filename)
	}
	body, _ := io.ReadAll(download.Body)
	if !strings.HasPrefix(string(body), "timestamp,") {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestWebsocketURL(t *testing.T) {
	cli, err := New("http://example.com:8000")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if got := cli.WebsocketURL(); got != "ws://example.com:8000/ws/telemetry" {
		t.Fatalf("unexpected websocket url: %q", got)
	}

	cli, err = New("https://fleet.example.com")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if got := cli.WebsocketURL(); got != "wss://fleet.example.com/ws/telemetry" {
		t.Fatalf("unexpected websocket url: %q", got)
	}
}

func TestNewDefaultsAndSchemePrefix(t *testing.T) {
	cli, err := New("  ")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if cli.baseURL != "http://localhost:8000" {
		t.Fatalf("unexpected default base: %q", cli.baseURL)
	}

	cli, err = New("fleet.example.com/")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if cli.baseURL != "http://fleet.example.com" {
		t.Fatalf("unexpected base: %q", cli.baseURL)
	}
}
