package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	apiclient "github.com/Anas16278/Connected-Car-Telemetry-Dashboard/pkg/api/client"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/pkg/dashboard"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/pkg/logger"
)

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "vehicles":
		err = commandVehicles(args)
	case "watch":
		err = commandWatch(args)
	case "export":
		err = commandExport(args)
	case "version", "--version", "-v":
		fmt.Printf("fleetctl %s\n", buildVersion)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`fleetctl - connected car telemetry dashboard

Usage:
  fleetctl vehicles list [--api URL]
  fleetctl vehicles add --name NAME --model MODEL --year YEAR --plate PLATE
  fleetctl vehicles rm --id VEHICLE_ID
  fleetctl watch [--vehicle VEHICLE_ID]
  fleetctl export --id VEHICLE_ID [--days N] [--out FILE]
  fleetctl version`)
}

func newClient(apiBase string) (*apiclient.Client, error) {
	if strings.TrimSpace(apiBase) == "" {
		apiBase = os.Getenv("TELEMETRY_API_URL")
	}
	return apiclient.New(apiBase)
}

func commandVehicles(args []string) error {
	if len(args) < 1 {
		return errors.New("vehicles requires a subcommand: list, add, rm")
	}
	sub := args[0]
	rest := args[1:]
	switch sub {
	case "list":
		return vehiclesList(rest)
	case "add":
		return vehiclesAdd(rest)
	case "rm":
		return vehiclesRemove(rest)
	default:
		return fmt.Errorf("unknown vehicles subcommand: %s", sub)
	}
}

func vehiclesList(args []string) error {
	fs := flag.NewFlagSet("vehicles list", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL")
	fs.Parse(args)

	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	vehicles, err := cli.ListVehicles(context.Background())
	if err != nil {
		return err
	}
	if len(vehicles) == 0 {
		fmt.Println("no vehicles registered")
		return nil
	}
	for _, v := range vehicles {
		fmt.Printf("%s  %s (%s %d)  plate=%s\n", v.ID, v.Name, v.Model, v.Year, v.LicensePlate)
	}
	return nil
}

func vehiclesAdd(args []string) error {
	fs := flag.NewFlagSet("vehicles add", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL")
	name := fs.String("name", "", "Vehicle display name")
	model := fs.String("model", "", "Vehicle model")
	year := fs.Int("year", 0, "Vehicle year")
	plate := fs.String("plate", "", "License plate")
	fs.Parse(args)

	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	vehicle, err := cli.CreateVehicle(context.Background(), apiclient.CreateVehicleInput{
		Name:         *name,
		Model:        *model,
		Year:         *year,
		LicensePlate: *plate,
	})
	if err != nil {
		return err
	}
	fmt.Printf("registered %s (%s)\n", vehicle.Name, vehicle.ID)
	return nil
}

func vehiclesRemove(args []string) error {
	fs := flag.NewFlagSet("vehicles rm", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL")
	id := fs.String("id", "", "Vehicle identifier")
	fs.Parse(args)

	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}
	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	if err := cli.DeleteVehicle(context.Background(), *id); err != nil {
		return err
	}
	fmt.Println("vehicle removed")
	return nil
}

func commandWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL")
	vehicleID := fs.String("vehicle", "", "Vehicle to watch (defaults to the first registered)")
	fs.Parse(args)

	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vehicles, err := cli.ListVehicles(ctx)
	if err != nil {
		return fmt.Errorf("fetch vehicles: %w", err)
	}
	// Select the first vehicle when the operator did not pick one. The
	// selection is never reassigned afterwards, even if the vehicle is
	// deleted while watching.
	selected := strings.TrimSpace(*vehicleID)
	if selected == "" && len(vehicles) > 0 {
		selected = vehicles[0].ID
	}
	names := make(map[string]string, len(vehicles))
	for _, v := range vehicles {
		names[v.ID] = v.Name
	}

	log := logger.New("fleetctl", slog.LevelWarn)
	state := dashboard.NewState()
	session := dashboard.NewSession(cli.WebsocketURL(), state, log)
	defer session.Close()
	session.Connect()

	projector := dashboard.NewProjector(state)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nwatch stopped")
			return nil
		case <-ticker.C:
			render(projector, state, selected, names[selected])
		}
	}
}

func render(projector dashboard.Projector, state *dashboard.State, selected, name string) {
	fmt.Printf("--- %s [%s] ---\n", time.Now().Format("15:04:05"), state.ConnectionState())
	if selected == "" {
		fmt.Println("no vehicle selected")
	} else {
		label := name
		if label == "" {
			label = selected
		}
		if sample, ok := projector.CurrentMetrics(selected); ok {
			fmt.Printf("%s: %.1f km/h  %.0f rpm  fuel %.1f%%  %.1f°C\n",
				label, sample.Speed, sample.EngineRPM, sample.FuelLevel, sample.EngineTemperature)
		} else {
			fmt.Printf("%s: no data\n", label)
		}
	}
	for _, alert := range dashboard.VisibleAlerts(projector.AlertsFor(selected)) {
		fmt.Printf("  [%s] %s\n", alert.Severity, alert.Message)
	}
	fmt.Printf("  chart points: %d\n", len(projector.ChartSeries(selected)))
}

func commandExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL")
	id := fs.String("id", "", "Vehicle identifier")
	days := fs.Int("days", 0, "Trailing window in days (server default when omitted)")
	out := fs.String("out", "", "Output file (defaults to <vehicle>_<date>.csv)")
	fs.Parse(args)

	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}
	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx := context.Background()

	filename := strings.TrimSpace(*out)
	if filename == "" {
		display := *id
		if vehicle, err := cli.GetVehicle(ctx, *id); err == nil {
			display = vehicle.Name
		}
		filename = fmt.Sprintf("%s_%s.csv", sanitize(display), time.Now().Format("2006-01-02"))
	}

	download, err := cli.ExportTelemetry(ctx, *id, *days)
	if err != nil {
		return err
	}
	defer download.Body.Close()

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, download.Body)
	if err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", filename, written)
	return nil
}

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "-")
	if name == "" {
		name = "vehicle"
	}
	return name
}
