package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ecomcore/orderflow/internal/auth"
	"github.com/ecomcore/orderflow/internal/cart"
	"github.com/ecomcore/orderflow/internal/config"
	"github.com/ecomcore/orderflow/internal/httpx"
	"github.com/ecomcore/orderflow/internal/inventory"
	"github.com/ecomcore/orderflow/internal/observability"
	ord "github.com/ecomcore/orderflow/internal/order"
)

const serviceName = "order-service"

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

	repo := ord.NewPGRepo(pool)
	if err := repo.InitSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("order schema")
	}
	ledger := inventory.NewPGLedger(pool)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	carts := cart.NewStore(rdb)

	users := ord.NewHTTPUserDirectory(cfg.UserSvcBaseURL)
	verifier := auth.NewHTTPVerifier(cfg.AuthSvcBaseURL)
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	coord := ord.NewCoordinator(ledger, repo, users, carts, logger, metrics)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(logger))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", observability.Handler())

	authed := r.Group("/", httpx.Auth(verifier))
	authed.POST("/orders", createOrderHandler(coord))
	authed.GET("/orders", listOrdersHandler(repo))
	authed.GET("/orders/:id", getOrderHandler(repo))
	authed.GET("/orders/:id/items", getOrderItemsHandler(repo))

	logger.Info().Str("addr", cfg.OrderSvcAddr).Msg("listening")
	if err := r.Run(cfg.OrderSvcAddr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
