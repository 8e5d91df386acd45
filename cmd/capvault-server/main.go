package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/capvault/internal/adapters/filebatch"
	"github.com/bobmcallan/capvault/internal/clients/yahoo"
	"github.com/bobmcallan/capvault/internal/common"
	"github.com/bobmcallan/capvault/internal/interfaces"
	"github.com/bobmcallan/capvault/internal/models"
	"github.com/bobmcallan/capvault/internal/server"
	"github.com/bobmcallan/capvault/internal/services/ingest"
	"github.com/bobmcallan/capvault/internal/services/ledger"
	"github.com/bobmcallan/capvault/internal/services/marketdata"
	"github.com/bobmcallan/capvault/internal/services/portfolio"
	"github.com/bobmcallan/capvault/internal/storage/surrealdb"
)

func main() {
	config, err := common.LoadConfig(os.Getenv("CAPVAULT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLogger(config.Logging.Level)
	common.PrintBanner(config, logger)

	storage, err := surrealdb.NewManager(logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storage.Close()

	provider := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Quotes.BaseURL),
		yahoo.WithRateLimit(config.Clients.Quotes.RateLimit),
		yahoo.WithTimeout(config.Clients.Quotes.GetTimeout()),
		yahoo.WithLogger(logger),
	)

	adapters := []interfaces.PlatformAdapter{
		filebatch.New(config.Ingest.BatchDir, config.PlatformCurrency, logger),
	}

	ingestSvc := ingest.NewService(storage, adapters, logger)
	marketSvc := marketdata.NewService(storage, provider, config, logger)

	ledgers := make(map[models.AssetClass]interfaces.LedgerService)
	for _, class := range models.AssetClasses() {
		ledgers[class] = ledger.NewService(ledger.SpecFor(class), storage, marketSvc, config, logger)
	}
	portfolioSvc := portfolio.NewService(ledgers, logger)

	srv := server.NewServer(config, logger, ingestSvc, marketSvc, portfolioSvc)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", config.Server.Port)).
		Msg("Server ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	common.PrintShutdownBanner(logger)
}
