// Gray Logic TRÅDFRI Bridge
//
// This is the entry point for the bridge between an IKEA TRÅDFRI gateway and
// the Gray Logic MQTT bus. It pairs with the gateway on first start, observes
// every accessory, publishes supported ones as devices and forwards property
// writes from the bus and the HTTP API back to the gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-tradfri/internal/api"
	"github.com/nerrad567/gray-logic-tradfri/internal/bridges/tradfri"
	"github.com/nerrad567/gray-logic-tradfri/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-tradfri/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-tradfri/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-tradfri/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-tradfri/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-tradfri/migrations"
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

// Gateway reconnect backoff bounds.
var (
	reconnectInitialDelay = time.Second
	reconnectMaxDelay     = time.Minute
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic TRÅDFRI bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Database holds gateway pairings and rejected accessories
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path, "migrations_applied", applied)
	store := tradfri.NewStore(db.DB)

	mqttClient, err := mqtt.Connect(cfg.MQTT, cfg.Bridge.ID)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT connected")
	})
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// InfluxDB is optional. The recorder stays a nil interface when disabled.
	var influxClient *influxdb.Client
	var telemetry tradfri.PropertyRecorder
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
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
		telemetry = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	metrics := tradfri.NewMetrics()

	target, err := locateGateway(ctx, cfg)
	if err != nil {
		log.Error("gateway unavailable", "reason", tradfri.DescribeError(err), "error", err)
		return fmt.Errorf("locating gateway: %w", err)
	}
	log.Info("gateway located", "name", target.name, "address", target.address)

	client, err := tradfri.NewClient(tradfri.ClientOptions{
		Address: target.address,
		Logger:  log.Component("tradfri-client"),
		Metrics: metrics,
	})
	if err != nil {
		return fmt.Errorf("creating gateway client: %w", err)
	}
	defer func() {
		log.Info("closing gateway session")
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing gateway session", "error", closeErr)
		}
	}()

	creds, err := connectGateway(ctx, cfg, store, client, target, log)
	if err != nil {
		log.Error("gateway unavailable", "reason", tradfri.DescribeError(err), "error", err)
		return fmt.Errorf("connecting to gateway: %w", err)
	}
	log.Info("gateway session established", "identity", creds.Identity)

	bridge, err := tradfri.NewBridge(tradfri.BridgeOptions{
		BridgeID:       cfg.Bridge.ID,
		GatewayName:    target.name,
		Version:        version,
		QoS:            byte(cfg.MQTT.QoS), //nolint:gosec // validated to 0..2 by config
		HealthInterval: cfg.GetHealthInterval(),
		Debug:          cfg.Bridge.Debug,
		MQTTClient:     mqttClient,
		Gateway:        client,
		Telemetry:      telemetry,
		Store:          store,
		Metrics:        metrics,
		Logger:         log.Component("tradfri"),
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		bridge.Stop()
	}()

	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.Component("api"),
			Bridge:  bridge,
			Metrics: metrics,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			// Health answers 503 while the server drains.
			bridge.Stop()
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete")

	observe(ctx, bridge, func(ctx context.Context) error {
		connCtx, cancel := context.WithTimeout(ctx, cfg.GetConnectTimeout())
		defer cancel()
		return client.Connect(connCtx, creds)
	}, log)

	log.Info("shutdown signal received, cleaning up")
	// Deferred calls run in reverse order: bridge and API, gateway session,
	// InfluxDB, MQTT, database.
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_TRADFRI_CONFIG if set, otherwise the default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_TRADFRI_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// gatewayTarget names the gateway to pair with and where to reach it.
type gatewayTarget struct {
	name    string
	address string
}

// locateGateway returns the configured gateway, or browses mDNS for one
// when no host is configured.
func locateGateway(ctx context.Context, cfg *config.Config) (gatewayTarget, error) {
	if cfg.Gateway.Host != "" {
		return gatewayTarget{name: cfg.Gateway.Name, address: cfg.GatewayAddress()}, nil
	}

	gw, err := tradfri.Discover(ctx, cfg.GetDiscoveryTimeout())
	if err != nil {
		return gatewayTarget{}, err
	}
	return gatewayTarget{name: gw.Name, address: gw.Address()}, nil
}

// gatewayPairing is the part of the store used during startup.
type gatewayPairing interface {
	GetGateway(ctx context.Context, name string) (*tradfri.StoredGateway, error)
	SaveGateway(ctx context.Context, name, host string, creds tradfri.Credentials) error
}

// gatewayConnector is the part of the client used during startup.
type gatewayConnector interface {
	Connect(ctx context.Context, creds tradfri.Credentials) error
}

// authenticateFunc registers a new identity with a gateway.
type authenticateFunc func(ctx context.Context, addr, securityCode string) (tradfri.Credentials, error)

// connectGateway opens the gateway session with stored credentials, pairing
// first when none are stored. A stored identity the gateway no longer
// accepts is replaced when a security code is configured.
func connectGateway(ctx context.Context, cfg *config.Config, store gatewayPairing, client gatewayConnector,
	target gatewayTarget, log *logging.Logger) (tradfri.Credentials, error) {
	return connectWith(ctx, cfg, store, client, target, tradfri.Authenticate, log)
}

func connectWith(ctx context.Context, cfg *config.Config, store gatewayPairing, client gatewayConnector,
	target gatewayTarget, authenticate authenticateFunc, log *logging.Logger) (tradfri.Credentials, error) {
	timeout := cfg.GetConnectTimeout()

	pair := func() (tradfri.Credentials, error) {
		log.Info("pairing with gateway", "name", target.name, "address", target.address)
		authCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		creds, err := authenticate(authCtx, target.address, cfg.Gateway.SecurityCode)
		if err != nil {
			return tradfri.Credentials{}, err
		}
		if err := store.SaveGateway(ctx, target.name, target.address, creds); err != nil {
			return tradfri.Credentials{}, fmt.Errorf("saving gateway credentials: %w", err)
		}
		log.Info("gateway paired", "name", target.name, "identity", creds.Identity)
		return creds, nil
	}

	connect := func(creds tradfri.Credentials) error {
		connCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return client.Connect(connCtx, creds)
	}

	var creds tradfri.Credentials
	stored, err := store.GetGateway(ctx, target.name)
	switch {
	case errors.Is(err, tradfri.ErrCredentialsNotFound):
		if creds, err = pair(); err != nil {
			return tradfri.Credentials{}, err
		}
		return creds, connect(creds)
	case err != nil:
		return tradfri.Credentials{}, err
	}

	creds = stored.Credentials
	if stored.Host != target.address {
		// The gateway moved. Keep the pairing, record the new address.
		if err := store.SaveGateway(ctx, target.name, target.address, creds); err != nil {
			log.Warn("failed to update gateway address", "error", err)
		}
	}

	err = connect(creds)
	if errors.Is(err, tradfri.ErrAuthenticationFailed) && cfg.Gateway.SecurityCode != "" {
		log.Warn("stored identity rejected, pairing again", "name", target.name)
		if creds, err = pair(); err != nil {
			return tradfri.Credentials{}, err
		}
		err = connect(creds)
	}
	return creds, err
}

// observer is the part of the bridge the observe loop drives.
type observer interface {
	Run(ctx context.Context) error
}

// observe runs the bridge until ctx is cancelled. When the gateway session
// drops it reconnects with exponential backoff and resumes observation;
// devices already registered are refreshed, not recreated.
func observe(ctx context.Context, bridge observer, reconnect func(context.Context) error, log *logging.Logger) {
	delay := reconnectInitialDelay
	for {
		err := bridge.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			// Stopped by the bridge itself.
			return
		}
		log.Warn("gateway session lost", "reason", tradfri.DescribeError(err), "error", err)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}

			if rErr := reconnect(ctx); rErr != nil {
				delay = min(delay*2, reconnectMaxDelay)
				log.Warn("gateway reconnect failed",
					"reason", tradfri.DescribeError(rErr),
					"error", rErr,
					"retry_in", delay.String())
				continue
			}
			log.Info("gateway session re-established")
			delay = reconnectInitialDelay
			break
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
