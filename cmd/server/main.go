package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/zendo/dispatch/internal/catalog"
	"github.com/zendo/dispatch/internal/config"
	"github.com/zendo/dispatch/internal/geocode"
	"github.com/zendo/dispatch/internal/handler"
	"github.com/zendo/dispatch/internal/identity"
	"github.com/zendo/dispatch/internal/ledger"
	"github.com/zendo/dispatch/internal/matcher"
	"github.com/zendo/dispatch/internal/middleware"
	"github.com/zendo/dispatch/internal/model"
	"github.com/zendo/dispatch/internal/queue"
	"github.com/zendo/dispatch/internal/router"
	queue_publisher "github.com/zendo/dispatch/internal/service"
	"github.com/zendo/dispatch/internal/session"
	"github.com/zendo/dispatch/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Key-value store: Redis when reachable, in-memory otherwise so a
	// dev box without Redis still boots (state is then non-durable).
	rdb := config.NewRedisClient()
	var kv store.KV
	if rdb != nil {
		kv = store.NewRedis(rdb)
	} else {
		log.Printf("redis unreachable, falling back to in-memory store")
		kv = store.NewMemory()
	}

	ctx := context.Background()

	provider := identity.NewMock(cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost, cfg.ProviderDelay, kv)
	sessions := session.New(provider, kv)
	sessions.Restore(ctx)

	lg := ledger.New(kv)
	if err := lg.Load(ctx); err != nil {
		log.Printf("ledger load failed, starting empty: %v", err)
	}

	cat := catalog.Default()
	m := matcher.New(lg, cat, cfg.MatchInterval, cfg.MatchThreshold)
	m.OnMatch = func(inv model.Intervention, artisan model.Artisan) {
		go func() {
			_ = queue_publisher.PublishInterventionMatched(context.Background(), queue.InterventionMatchedEvent{
				InterventionID: inv.ID,
				ClientID:       inv.ClientID,
				ArtisanID:      artisan.ID,
				ArtisanName:    artisan.Name,
				ServiceType:    string(inv.ServiceType),
				PriceEstimate:  inv.PriceEstimate,
				Address:        inv.Location.Address,
				MatchedAt:      time.Now().UTC().Format(time.RFC3339),
			})
		}()
	}
	m.Start()

	// Background consumer writing matched events to logs/dispatch.log.
	go func() {
		if err := queue.StartDispatchConsumer(); err != nil {
			log.Printf("dispatch consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, handler.NewIntroHandler(kv), handler.NewAddressHandler(geocode.New()),
		middleware.NewResponseCache(config.LoadCacheConfig(), rdb))
	router.RegisterAuth(e, handler.NewAuthHandler(sessions))
	router.RegisterInterventions(e, handler.NewInterventionHandler(lg, cat), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	// The matcher must be stopped before exit; leaking its ticker
	// would leave a background task mutating the ledger with nobody
	// consuming it.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("shutting down")
	m.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
