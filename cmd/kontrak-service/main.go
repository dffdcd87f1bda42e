package main

import (
	"fmt"
	"os"

	"github.com/wprasetia/kontrak-ledger/internal/auth"
	"github.com/wprasetia/kontrak-ledger/internal/config"
	"github.com/wprasetia/kontrak-ledger/internal/db"
	"github.com/wprasetia/kontrak-ledger/internal/excel"
	httphandler "github.com/wprasetia/kontrak-ledger/internal/http"
	"github.com/wprasetia/kontrak-ledger/internal/http/middleware"
	"github.com/wprasetia/kontrak-ledger/internal/logger"
	"github.com/wprasetia/kontrak-ledger/internal/pdf"
	"github.com/wprasetia/kontrak-ledger/internal/repository"
	"github.com/wprasetia/kontrak-ledger/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	var store service.ContractStore
	if cfg.DB.DSN == "" {
		log.Warn().Msg("DB_DSN not set, using in-memory store")
		store = repository.NewMemoryStore()
	} else {
		database, err := db.New(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect database")
		}
		store = repository.NewContractRepository(database)
	}

	ledgerService := service.NewLedgerService(store)

	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}
	reportService := service.NewReportService(ledgerService, excel.NewGenerator(), pdfGenerator, cfg)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(ledgerService, reportService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.CORS.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting kontrak service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
