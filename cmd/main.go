package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"receipt_relay/internal/handlers"
	"receipt_relay/internal/logger"
	"receipt_relay/internal/lookup"
	"receipt_relay/internal/peripheral"
	"receipt_relay/internal/repository"
	"receipt_relay/internal/server"
	"receipt_relay/internal/service"
	"receipt_relay/internal/transport"
)

const defaultStatusTick = 1 * time.Second

func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context bounding background goroutines and the push channel; the
	// channel must outlive any single activation request
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// wire dependencies
	repos := repository.NewRepository(db)
	notifier := service.NewLogNotifier(log.Named("alerts"))
	driver := newPrinterDriver(log)
	push, err := newTransport(ctx, log)
	if err != nil {
		log.Fatalw("failed to build transport", "err", err)
	}
	orders := lookup.NewClient(viper.GetString("backend.api_url"), viper.GetString("backend.api_key"))

	services := service.NewService(service.Deps{
		Repos:      repos,
		Driver:     driver,
		Transport:  push,
		Orders:     orders,
		Notifier:   notifier,
		SigningKey: viper.GetString("auth.signing_key"),
		Log:        log,
	})
	apiHandler := handlers.NewHandler(services, log)

	// record status transitions for the dashboard
	go services.StatusRecorder.Run(ctx, defaultStatusTick)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, services, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "receipt_relay.db")
		dbPath = "receipt_relay.db"
	}
	return repository.InitDB(dbPath)
}

// newPrinterDriver builds the ESC/POS network driver from configuration.
func newPrinterDriver(log *logger.Logger) *peripheral.NetworkPrinter {
	return peripheral.NewNetworkPrinter(peripheral.Config{
		Name:         viper.GetString("printer.name"),
		Host:         viper.GetString("printer.host"),
		Port:         viper.GetInt("printer.port"),
		WriteTimeout: time.Duration(viper.GetInt("printer.write_timeout_s")) * time.Second,
	}, log.Named("printer"))
}

// newTransport selects the push channel implementation from configuration.
// lifetime bounds the channel's session and reconnects.
func newTransport(lifetime context.Context, log *logger.Logger) (transport.Transport, error) {
	apiKey := viper.GetString("backend.api_key")
	tokens := func(ctx context.Context) (string, error) { return apiKey, nil }

	switch kind := viper.GetString("transport.kind"); kind {
	case "", "websocket":
		return transport.NewWSTransport(transport.WSConfig{
			URL:      viper.GetString("transport.ws_url"),
			Token:    tokens,
			Lifetime: lifetime,
		}, log.Named("ws")), nil
	case "nats":
		return transport.NewSTANTransport(transport.STANConfig{
			ClusterID: viper.GetString("transport.nats.cluster_id"),
			ClientID:  viper.GetString("transport.nats.client_id"),
			URL:       viper.GetString("transport.nats.url"),
			Subject:   viper.GetString("transport.nats.subject"),
			Durable:   viper.GetString("transport.nats.durable"),
			Lifetime:  lifetime,
		}, log.Named("stan")), nil
	default:
		log.Fatalw("unknown transport kind", "kind", kind)
		return nil, nil
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, services *service.Service, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")

	// stop receiving new orders; in-flight prints run to completion
	services.Deactivate()

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
