package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"butcherdesk/backend/internal/cache"
	"butcherdesk/backend/internal/codec"
	"butcherdesk/backend/internal/config"
	"butcherdesk/backend/internal/domain"
	"butcherdesk/backend/internal/fetch"
	"butcherdesk/backend/internal/httpapi"
	"butcherdesk/backend/internal/notify"
	"butcherdesk/backend/internal/orders"
	"butcherdesk/backend/internal/pricing"
	"butcherdesk/backend/internal/revenue"
	"butcherdesk/backend/internal/rowstore"
	memstore "butcherdesk/backend/internal/rowstore/memory"
	pgstore "butcherdesk/backend/internal/rowstore/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if len(cfg.AuthSecret) < 32 {
		log.Fatal().Msg("AUTH_SECRET must be set and at least 32 characters")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 3)

	var store rowstore.Store
	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback")
		}
		store = pg
		closers = append(closers, pg.Close)
		log.Info().Msg("row store: postgres")
	} else {
		store = memstore.NewSeeded()
		log.Info().Msg("row store: in-memory")
	}

	var rowCache cache.Cache[[]codec.Row] = cache.NewTTL[[]codec.Row]()
	var catalogCache cache.Cache[[]domain.PriceEntry] = cache.NewTTL[[]domain.PriceEntry]()
	var rateCache cache.Cache[[]domain.RateConfig] = cache.NewTTL[[]domain.RateConfig]()
	if cfg.RedisAddr != "" {
		redisRows := cache.NewRedis[[]codec.Row](cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "rows:")
		if err := redisRows.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory caches")
		} else {
			rowCache = redisRows
			catalogCache = cache.NewRedis[[]domain.PriceEntry](cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "catalog:")
			rateCache = cache.NewRedis[[]domain.RateConfig](cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "rates:")
			closers = append(closers, redisRows.Close)
			log.Info().Msg("cache: redis")
		}
	} else {
		log.Info().Msg("cache: in-memory")
	}

	breaker := fetch.NewBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown(), time.Second, 30*time.Second)
	fetchOpts := fetch.DefaultOptions()
	fetchOpts.RowTTL = cfg.RowCacheTTL()
	fetchOpts.CatalogTTL = cfg.CatalogCacheTTL()
	fetchOpts.RateTTL = cfg.CatalogCacheTTL()
	fetchOpts.MinInterval = cfg.FetchMinInterval()
	fetcher := fetch.New(store, rowCache, catalogCache, rateCache, breaker, fetchOpts, log)

	var publisher notify.Publisher = notify.NoopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := notify.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Warn().Err(err).Msg("amqp unavailable, using noop publisher")
		} else {
			publisher = amqpPub
			closers = append(closers, amqpPub.Close)
			log.Info().Msg("dispatch: amqp")
		}
	} else {
		log.Info().Msg("dispatch: noop")
	}

	queue := notify.NewQueue(cfg.NotifyMaxAttempts, time.Duration(cfg.NotifyBaseDelayMilli)*time.Millisecond, func(r notify.Result) {
		if r.Err != nil {
			log.Error().Err(r.Err).Str("task", r.Name).Int("attempts", r.Attempts).Msg("notification permanently failed")
		}
	}, log)
	dispatch := notify.NewDispatch(queue, publisher)

	policy := domain.DefaultCapturePolicy()
	policy.NosCeiling = cfg.NosCeiling
	policy.KgCeiling = cfg.KgCeiling

	prices := pricing.NewResolver(fetcher, nil, log)
	rates := pricing.NewRateResolver(fetcher)
	engine := revenue.NewEngine(prices, rates, log)

	orderCache := orders.NewCache()
	service := orders.NewService(store, fetcher, orderCache, engine, policy, dispatch, log)

	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, seedButchers(log))
	api := httpapi.New(service, auth, dispatch, log)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Address()).Msg("order desk backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown error")
	}

	queue.Close()
	orderCache.Close()
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("close error")
		}
	}

	log.Info().Msg("server stopped")
}

// seedButchers builds the butcher accounts for dev/demo mode. Secrets come
// from SEED_MEAT_SECRET and SEED_FISH_SECRET; hardcoded dev defaults are
// used with a warning when unset.
func seedButchers(log zerolog.Logger) []httpapi.ButcherAccount {
	meatSecret := envOr("SEED_MEAT_SECRET", "meat-dev-secret")
	fishSecret := envOr("SEED_FISH_SECRET", "fish-dev-secret")
	if os.Getenv("SEED_MEAT_SECRET") == "" || os.Getenv("SEED_FISH_SECRET") == "" {
		log.Warn().Msg("using default dev butcher secrets; set SEED_MEAT_SECRET and SEED_FISH_SECRET to override")
	}

	accounts := make([]httpapi.ButcherAccount, 0, 2)
	for _, seed := range []struct {
		butcher domain.Butcher
		secret  string
	}{
		{domain.Butcher{ID: "butcher-meat-01", Name: "Hillside Meats", Vendor: domain.VendorWeightBased}, meatSecret},
		{domain.Butcher{ID: "butcher-fish-01", Name: "Harbour Fresh Fish", Vendor: domain.VendorCountBased}, fishSecret},
	} {
		hash, err := httpapi.HashSecret(seed.secret)
		if err != nil {
			log.Fatal().Err(err).Str("butcher_id", seed.butcher.ID).Msg("failed to hash seed secret")
		}
		accounts = append(accounts, httpapi.ButcherAccount{Butcher: seed.butcher, SecretHash: hash})
	}
	return accounts
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
