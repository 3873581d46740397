package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ecomcore/orderflow/internal/catalog"
	"github.com/ecomcore/orderflow/internal/config"
	"github.com/ecomcore/orderflow/internal/httpx"
)

const serviceName = "catalog-service"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zlog.With().Str("service", serviceName).Logger()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect")
	}
	defer pool.Close()

	repo := catalog.NewPGCatalog(pool)
	if err := repo.InitSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("catalog schema")
	}

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(logger))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/products", listProductsHandler(repo))
	r.GET("/products/:id", getProductHandler(repo))

	logger.Info().Str("addr", cfg.CatalogSvcAddr).Msg("listening")
	if err := r.Run(cfg.CatalogSvcAddr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
