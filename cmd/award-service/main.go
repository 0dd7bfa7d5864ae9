package main

import (
	"fmt"
	"os"

	"github.com/nurpe/tender-awards/internal/auth"
	"github.com/nurpe/tender-awards/internal/config"
	"github.com/nurpe/tender-awards/internal/db"
	"github.com/nurpe/tender-awards/internal/excel"
	httphandler "github.com/nurpe/tender-awards/internal/http"
	"github.com/nurpe/tender-awards/internal/http/middleware"
	"github.com/nurpe/tender-awards/internal/logger"
	"github.com/nurpe/tender-awards/internal/notify"
	"github.com/nurpe/tender-awards/internal/pdf"
	"github.com/nurpe/tender-awards/internal/repository"
	"github.com/nurpe/tender-awards/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	tenderRepo := repository.NewTenderRepository(database)
	awardRepo := repository.NewAwardRepository(database)
	notifier := notify.NewLogNotifier(log)
	pdfGenerator := pdf.NewGenerator()
	excelGenerator := excel.NewGenerator()

	awardService := service.NewAwardService(tenderRepo, awardRepo, notifier, pdfGenerator, excelGenerator, cfg, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(awardService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting award service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
