package main

import (
	"context"
	"fmt"
	"os"

	"github.com/RodrigoSHL/waste-manager-nx/internal/auth"
	"github.com/RodrigoSHL/waste-manager-nx/internal/config"
	"github.com/RodrigoSHL/waste-manager-nx/internal/db"
	"github.com/RodrigoSHL/waste-manager-nx/internal/excel"
	httphandler "github.com/RodrigoSHL/waste-manager-nx/internal/http"
	"github.com/RodrigoSHL/waste-manager-nx/internal/http/middleware"
	"github.com/RodrigoSHL/waste-manager-nx/internal/logger"
	"github.com/RodrigoSHL/waste-manager-nx/internal/pdf"
	"github.com/RodrigoSHL/waste-manager-nx/internal/repository"
	"github.com/RodrigoSHL/waste-manager-nx/internal/service"
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

	catalogRepo := repository.NewCatalogRepository(database)
	relationRepo := repository.NewRelationRepository(database)
	priceRepo := repository.NewPriceRepository(database)

	catalogService := service.NewCatalogService(catalogRepo, relationRepo)
	relationService := service.NewRelationService(relationRepo, catalogRepo)
	priceService := service.NewPriceService(priceRepo, relationRepo, catalogRepo, excel.NewGenerator(), pdf.NewGenerator())
	importService := service.NewImportService(catalogRepo)

	var seed func(ctx context.Context) error
	if !cfg.IsProduction() {
		seed = func(ctx context.Context) error {
			return db.Seed(ctx, database, log)
		}
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(catalogService, relationService, priceService, importService, seed, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(cfg, handler, authMiddleware)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting waste market api")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
