// Sounder - multi-tenant control plane for sound and camera devices.
//
// This is the main entry point for the Sounder server. It wires together
// the SQLite stores, the JWT token service, the control dispatcher, and the
// optional MQTT and InfluxDB integrations, then serves the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/zuoweichuan/sounder-saas/migrations"

	"github.com/zuoweichuan/sounder-saas/internal/api"
	"github.com/zuoweichuan/sounder-saas/internal/auth"
	"github.com/zuoweichuan/sounder-saas/internal/device"
	"github.com/zuoweichuan/sounder-saas/internal/infrastructure/config"
	"github.com/zuoweichuan/sounder-saas/internal/infrastructure/database"
	"github.com/zuoweichuan/sounder-saas/internal/infrastructure/influxdb"
	"github.com/zuoweichuan/sounder-saas/internal/infrastructure/logging"
	"github.com/zuoweichuan/sounder-saas/internal/infrastructure/mqtt"
	"github.com/zuoweichuan/sounder-saas/internal/tenant"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Sounder",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database and run migrations
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Repositories and services
	tenantRepo := tenant.NewSQLiteRepository(db.DB)
	userRepo := auth.NewUserRepository(db.DB)
	deviceRepo := device.NewSQLiteRepository(db.DB)
	tokens := auth.NewTokenService(cfg.Security.JWT.Secret, cfg.TokenTTL())
	dispatcher := device.NewDispatcher(deviceRepo, log.Logger)

	// First-run demo seed (development convenience, off by default)
	if cfg.Security.Seed.Enabled {
		if err := auth.SeedDemo(ctx, tenantRepo, userRepo, auth.SeedOptions{
			TenantName:    cfg.Security.Seed.TenantName,
			AdminName:     cfg.Security.Seed.AdminName,
			AdminEmail:    cfg.Security.Seed.AdminEmail,
			AdminPassword: cfg.Security.Seed.AdminPassword,
		}, log.Logger); err != nil {
			return fmt.Errorf("seeding demo tenant: %w", err)
		}
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled, broadcast fan-out is off")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)

		dispatcher.WithActivityRecorder(influxClient)
	} else {
		log.Info("InfluxDB disabled, no activity history")
	}

	// Wire the broker into the dispatcher and mirror device status reports.
	var gateway *mqtt.DeviceGateway
	if mqttClient != nil {
		gateway = mqtt.NewDeviceGateway(mqttClient)
		dispatcher.WithBroadcaster(gateway)
	}

	// Start the API server
	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Events:     cfg.Events,
		Logger:     log,
		Tokens:     tokens,
		Users:      userRepo,
		Tenants:    tenantRepo,
		Devices:    deviceRepo,
		Dispatcher: dispatcher,
		Database:   db,
		MQTT:       mqttClient,
		Influx:     influxClient,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Device events reach connected browsers through the hub.
	dispatcher.WithEventPublisher(server.Hub())

	// Mirror device status reports from the broker into the repository and
	// out to event stream clients.
	if gateway != nil {
		if err := subscribeStatusReports(gateway, deviceRepo, influxClient, server.Hub(), log); err != nil {
			log.Warn("device status subscription failed", "error", err)
		}
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// subscribeStatusReports wires broker status reports into the device store.
// Reports for unknown devices are dropped; a tenant can only affect rows it
// owns because the update is scoped by the topic's tenant segment.
func subscribeStatusReports(gateway *mqtt.DeviceGateway, devices device.Repository, influx *influxdb.Client, hub *api.Hub, log *logging.Logger) error {
	return gateway.SubscribeStatus(func(ctx context.Context, tenantID, deviceID, status string) error {
		if !device.IsValidStatus(device.Status(status)) {
			return fmt.Errorf("unknown device status %q", status)
		}

		dev, err := devices.GetByID(ctx, tenantID, deviceID)
		if err != nil {
			return fmt.Errorf("resolving status report target: %w", err)
		}

		dev.Status = device.Status(status)
		if err := devices.Update(ctx, dev); err != nil {
			return fmt.Errorf("applying status report: %w", err)
		}

		log.Debug("device status updated from broker",
			"tenant_id", tenantID, "device_id", deviceID, "status", status)

		if influx != nil {
			influx.RecordStatusChange(tenantID, deviceID, status)
		}
		if hub != nil {
			hub.PublishDeviceEvent(tenantID, device.Event{
				Type:     "device.status",
				DeviceID: deviceID,
				Action:   status,
				At:       dev.UpdatedAt,
			})
		}
		return nil
	})
}

// getConfigPath returns the configuration file path.
// Uses SOUNDER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SOUNDER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the backing connections are healthy. Optional
// components are skipped when nil.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
