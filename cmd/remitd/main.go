package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"remitledger/auth"
	"remitledger/config"
	"remitledger/observability/logging"
	"remitledger/observability/metrics"
	"remitledger/remit"
	"remitledger/state"
	"remitledger/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "remitd: load config: %v\n", err)
		os.Exit(1)
	}

	var logger *slog.Logger
	if cfg.LogFile != "" {
		logger = logging.SetupToFile(cfg.ServiceName, cfg.Environment, cfg.LogFile)
	} else {
		logger = logging.Setup(cfg.ServiceName, cfg.Environment)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		logger.Error("open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	var authorizer auth.Authorizer = auth.AllowAll{}
	if cfg.Auth.Enabled {
		authorizer = auth.NewJWT(cfg.Auth.HMACSecret, cfg.Auth.Issuer)
	}

	service := remit.NewService(state.NewStore(db), authorizer)
	service.SetLogger(logger)
	service.SetMetrics(metrics.Remit())

	server := newServer(service, logger, cfg.RateLimit)
	logger.Info("listening", slog.String("address", cfg.ListenAddress))
	if err := http.ListenAndServe(cfg.ListenAddress, server.routes()); err != nil {
		logger.Error("serve", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
