package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/wayfarer/config"
	"github.com/mohammad-safakhou/wayfarer/internal/catalog"
	"github.com/mohammad-safakhou/wayfarer/internal/chat"
	"github.com/mohammad-safakhou/wayfarer/internal/llm"
	"github.com/mohammad-safakhou/wayfarer/internal/store"
	"github.com/mohammad-safakhou/wayfarer/internal/store/redisstore"
	"github.com/mohammad-safakhou/wayfarer/internal/telemetry"
)

// Run wires the service and starts the HTTP listener.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging. Pipeline
	// error kinds map to distinct status codes so callers can tell a bad
	// request from a collaborator outage.
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		switch {
		case errors.Is(err, chat.ErrValidation):
			code = http.StatusBadRequest
		case errors.Is(err, chat.ErrExternalService):
			code = http.StatusServiceUnavailable
		case errors.Is(err, chat.ErrConfiguration), errors.Is(err, chat.ErrStorage):
			code = http.StatusInternalServerError
		}
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if cfg.Server.JWTSecret == "" {
		return fmt.Errorf("jwt secret not configured (server.jwt_secret)")
	}
	secret := []byte(cfg.Server.JWTSecret)

	ctx := context.Background()

	// Conversation store backend.
	var convStore chat.ConversationStore
	var rdb *redis.Client
	switch cfg.Storage.Backend {
	case "redis":
		rs, err := redisstore.Conn(ctx, cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
		if err != nil {
			return fmt.Errorf("redis conversation store: %w", err)
		}
		convStore = rs
	default:
		st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
		if err != nil {
			return fmt.Errorf("postgres conversation store: %w", err)
		}
		convStore = st
	}

	// Place catalog feeds prompt context; without Postgres the pipeline runs
	// on empty context.
	var cat catalog.Source
	if cfg.Storage.Postgres.URL != "" || cfg.Storage.Postgres.Host != "" {
		src, err := catalog.NewPostgresSource(ctx, cfg.Storage.Postgres.DSN(), cfg.Catalog.MaxPlaces)
		if err != nil {
			log.Printf("Warning: place catalog unavailable, running without context: %v", err)
		} else {
			cat = src
		}
	}

	// Oracle collaborator. Misconfiguration is fatal before any prompt work.
	gen, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}
	chatModel, err := llm.ChatModel(cfg.LLM)
	if err != nil {
		return err
	}

	metrics := telemetry.New(nil)
	oracle := chat.NewOracle(gen, chatModel, cfg.Chat.OracleTimeout, nil, metrics)
	classifier := chat.NewClassifier(cfg.Chat.PlanKeywords)
	compiler := chat.NewCompiler(chat.PromptLimits{
		PlanContext:      cfg.Chat.PlanContextLimit,
		RecommendContext: cfg.Chat.RecommendContextLimit,
		PlanHistory:      cfg.Chat.PlanHistoryLimit,
		RecommendHistory: cfg.Chat.RecommendHistoryLimit,
	})
	orch := chat.NewOrchestrator(cat, classifier, compiler, oracle, convStore, nil, metrics)

	ch := &ChatHandler{Orch: orch}
	ch.Register(e.Group("/api/chat"), secret)

	// Retention sweep runs out of band; a Redis lock keeps multiple replicas
	// from sweeping at once when Redis is around.
	if cfg.Chat.Retention.Enabled {
		if cfg.Storage.Backend == "redis" {
			rdb = redis.NewClient(&redis.Options{
				Addr:     fmt.Sprintf("%s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
				Password: cfg.Storage.Redis.Password,
				DB:       cfg.Storage.Redis.DB,
			})
		}
		sweeper := &Sweeper{
			Store: convStore,
			Rdb:   rdb,
			Days:  cfg.Chat.Retention.Days,
			Cron:  cfg.Chat.Retention.Cron,
			Stop:  make(chan struct{}),
		}
		sweeper.Start()
		defer close(sweeper.Stop)
	}

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":10002"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
