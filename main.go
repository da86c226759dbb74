package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ms-ordering/internal/analytics"
	analytics_api "ms-ordering/internal/analytics/api"
	"ms-ordering/internal/auth"
	"ms-ordering/internal/calls"
	"ms-ordering/internal/calls/calls_api"
	callsdb "ms-ordering/internal/calls/db"
	"ms-ordering/internal/catalog"
	"ms-ordering/internal/catalog/catalog_api"
	catalogdb "ms-ordering/internal/catalog/db"
	"ms-ordering/internal/config"
	"ms-ordering/internal/database"
	"ms-ordering/internal/database/migrations"
	"ms-ordering/internal/feed"
	"ms-ordering/internal/kafka"
	"ms-ordering/internal/live"
	"ms-ordering/internal/live/live_api"
	liveredis "ms-ordering/internal/live/redis"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
	orderdb "ms-ordering/internal/order/db"
	"ms-ordering/internal/order/order_api"
	"ms-ordering/internal/ratings"
	ratingsdb "ms-ordering/internal/ratings/db"
	"ms-ordering/internal/ratings/ratings_api"
	"ms-ordering/internal/tables"
	tablesdb "ms-ordering/internal/tables/db"
	"ms-ordering/internal/tables/table_api"
	"ms-ordering/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

const profileCacheTTL = 5 * time.Minute

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting ordering service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.Options{Dir: cfg.Database.MigrationsDir}, log)
		if err := runner.Up(); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
		runner.Close()
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = liveredis.Connect(ctx, cfg.Redis.Addr, log)
		if err != nil {
			log.Warn("REDIS", fmt.Sprintf("Redis unavailable, falling back to in-process state: %v", err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	kafkaCfg := cfg.Kafka
	if !kafkaCfg.Enabled {
		kafkaCfg.MockMode = true
	}
	producer := kafka.NewProducer(kafkaCfg, log)
	defer producer.Close()

	bus := feed.NewBus()

	if kafkaCfg.Enabled && !kafkaCfg.MockMode {
		if err := kafka.EnsureTopicsExist(ctx, kafkaCfg.Brokers, kafka.TopicNames(kafkaCfg.Topics), log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		consumer := kafka.NewChangeConsumer(kafkaCfg, bus, log)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Error("KAFKA", fmt.Sprintf("change consumer exited: %v", err))
			}
		}()
	}

	guard, err := newGuard(ctx, cfg.Auth, bunDB, redisClient, log)
	if err != nil {
		log.Fatal("AUTH", err.Error())
	}

	var ledger live.ArrivalLedger = live.NewMemoryLedger(0)
	if redisClient != nil {
		ledger = liveredis.NewLedger(redisClient, cfg.Kitchen.ArrivalTTL, log)
	}

	defaultRID := cfg.Ordering.DefaultRestaurantID
	orderStore := &orderdb.DB{Bun: bunDB}
	catalogStore := &catalogdb.DB{Bun: bunDB}
	tableStore := &tablesdb.DB{Bun: bunDB}
	resolver := tables.NewResolver(tableStore)

	catalogResolver := catalog.NewResolver(catalogStore, bus, defaultRID)
	orderService := order.NewOrderService(orderStore, resolver, catalogStore, bus, producer, log, order.Config{
		DefaultRestaurantID: defaultRID,
		BaseEta:             cfg.Kitchen.DefaultEtaMinutes,
	})
	callService := calls.NewService(&callsdb.DB{Bun: bunDB}, resolver, bus, producer, log, defaultRID)
	ratingService := ratings.NewService(&ratingsdb.DB{Bun: bunDB}, bus, producer, log)
	tableService := tables.NewService(tableStore, bus, cfg.Ordering.QRBaseURL, cfg.Ordering.AccessTokenLength)
	reportService := analytics.NewService(analytics.NewDB(bunDB), log,
		analytics.NewWebhookNotifier(cfg.Report.WebhookURL, log),
		&analytics.KafkaNotifier{Publisher: producer},
	)

	catalogHandler := catalog_api.NewHandler(catalogResolver, cfg.Catalog.LoadTimeout, log)
	orderHandler := order_api.NewHandler(orderService, log)
	callHandler := calls_api.NewHandler(callService, log)
	ratingHandler := ratings_api.NewHandler(ratingService, log)
	tableHandler := table_api.NewHandler(tableService, log)
	reportHandler := analytics_api.NewHandler(reportService, guard, cfg.Report.CronSecret, defaultRID, cfg.Report.TopN, log)
	liveHandler := live_api.NewHandler(bus, orderService, orderStore, callService, ledger, live_api.Config{
		RefreshInterval:   cfg.Kitchen.RefreshInterval,
		DelayAlertMinutes: cfg.Kitchen.DelayAlertMinutes,
		BaseEta:           cfg.Kitchen.DefaultEtaMinutes,
	}, log)

	kitchenRoles := []string{models.RoleKitchen, models.RoleAdmin, models.RoleOwner}
	floorRoles := []string{models.RoleKitchen, models.RoleWaiter, models.RoleAdmin, models.RoleOwner}
	managerRoles := []string{models.RoleAdmin, models.RoleOwner}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", catalogHandler.GetCatalog)
		r.With(guard.Require(kitchenRoles...)).Patch("/items/{itemId}/availability", catalogHandler.SetAvailability)

		r.Post("/orders", orderHandler.PlaceOrder)
		r.Get("/orders/{orderId}", orderHandler.GetOrder)
		r.With(guard.Require(kitchenRoles...)).Patch("/orders/{orderId}", orderHandler.UpdateOrder)
		r.Get("/client/orders", orderHandler.ClientOrders)

		r.Post("/ratings", ratingHandler.CreateRating)

		r.Post("/server-calls", callHandler.CreateCall)
		r.With(guard.Require(floorRoles...)).Get("/server-calls", callHandler.ListOpen)
		r.With(guard.Require(floorRoles...)).Patch("/server-calls/{callId}", callHandler.UpdateStatus)

		r.Route("/live", func(r chi.Router) {
			r.With(guard.Require(kitchenRoles...)).Get("/kitchen", liveHandler.Kitchen)
			r.With(guard.Require(floorRoles...)).Get("/calls", liveHandler.Calls)
			r.Get("/table", liveHandler.Table)
		})

		r.Route("/reports", func(r chi.Router) {
			r.With(guard.Require(managerRoles...)).Get("/summary", reportHandler.Summary)
			r.With(guard.Require(models.RoleOwner)).Get("/overview", reportHandler.Overview)
			r.Get("/daily", reportHandler.DailyReport)
			r.Post("/daily", reportHandler.DailyReport)
		})

		r.Route("/admin/tables", func(r chi.Router) {
			r.Use(guard.Require(managerRoles...))
			r.Get("/", tableHandler.ListTables)
			r.Post("/", tableHandler.CreateTable)
			r.Post("/{tableId}/token", tableHandler.RotateToken)
			r.Patch("/{tableId}", tableHandler.SetStatus)
			r.Get("/{tableId}/qr.png", tableHandler.QRCode)
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Ordering service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Ordering service shutdown complete")
	}
}

// newGuard verifies staff tokens against the OIDC issuer when one is
// configured, otherwise with the shared HMAC secret.
func newGuard(ctx context.Context, cfg config.AuthConfig, bunDB *bun.DB, redisClient *redis.Client, log *logger.Logger) (*auth.Guard, error) {
	var verifier auth.Verifier
	switch {
	case cfg.OIDCIssuer != "":
		v, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.ClientID)
		if err != nil {
			return nil, fmt.Errorf("oidc discovery failed: %w", err)
		}
		verifier = v
		log.Info("AUTH", fmt.Sprintf("Verifying staff tokens against %s", cfg.OIDCIssuer))
	case cfg.JWTSecret != "":
		verifier = auth.NewHMACVerifier(cfg.JWTSecret)
		log.Info("AUTH", "Verifying staff tokens with shared secret")
	default:
		log.Warn("AUTH", "No token verifier configured, staff routes will reject every request")
	}

	var profiles auth.ProfileStore = &auth.ProfileDB{Bun: bunDB}
	if redisClient != nil {
		profiles = auth.NewCachedProfiles(profiles, redisClient, profileCacheTTL)
	}
	return auth.NewGuard(verifier, profiles, log), nil
}
