// Package server provides the core application server and dependency wiring.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"go.uber.org/zap"

	"github.com/sotaychohdv/hdv-functions/internal/api"
	memorycache "github.com/sotaychohdv/hdv-functions/internal/cache/memory"
	rediscache "github.com/sotaychohdv/hdv-functions/internal/cache/redis"
	"github.com/sotaychohdv/hdv-functions/internal/clock"
	"github.com/sotaychohdv/hdv-functions/internal/config"
	"github.com/sotaychohdv/hdv-functions/internal/directory"
	"github.com/sotaychohdv/hdv-functions/internal/dispatcher"
	"github.com/sotaychohdv/hdv-functions/internal/guides"
	"github.com/sotaychohdv/hdv-functions/internal/huefeed"
	"github.com/sotaychohdv/hdv-functions/internal/logging"
	"github.com/sotaychohdv/hdv-functions/internal/metrics"
	"github.com/sotaychohdv/hdv-functions/internal/notify"
	"github.com/sotaychohdv/hdv-functions/internal/province"
	memorypublisher "github.com/sotaychohdv/hdv-functions/internal/publisher/memory"
	gcppublisher "github.com/sotaychohdv/hdv-functions/internal/publisher/pubsub"
	"github.com/sotaychohdv/hdv-functions/internal/queue"
	queueMemory "github.com/sotaychohdv/hdv-functions/internal/queue/memory"
	"github.com/sotaychohdv/hdv-functions/internal/ratelimit"
	"github.com/sotaychohdv/hdv-functions/internal/sharecard"
	"github.com/sotaychohdv/hdv-functions/internal/storage"
	memorystorage "github.com/sotaychohdv/hdv-functions/internal/storage/memory"
	pgstore "github.com/sotaychohdv/hdv-functions/internal/storage/postgres"
	"github.com/sotaychohdv/hdv-functions/internal/worker"
)

type directoryStore interface {
	directory.ProviderStore
	directory.GuideStore
}

// App contains the application's dependencies.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	clock     directory.Clock
	feed      huefeed.Fetcher
	provinces *province.Resolver
	store     directoryStore
	notifier  *notify.Service
	queue     *queueMemory.Queue
	dispatch  *dispatcher.Dispatcher
	apiServer *api.Server

	pubsubClient *pubsub.Client
	pubsubSource *queue.PubSubSource
	gcpPublisher *gcppublisher.Publisher
	redis        *rediscache.Cache
	pgStore      *pgstore.Store

	closeOnce sync.Once
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	metrics.Init()

	app := &App{
		cfg:       cfg,
		logger:    logger,
		clock:     clock.System{},
		provinces: province.NewResolver(cfg.Provinces.Names),
	}
	logger.Info("building application dependencies",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Bool("database", cfg.DB.DSN != ""),
	)

	if err := app.setupFeed(); err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	if err := app.setupDatabase(ctx); err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	publisher, err := app.setupPublisher(ctx)
	if err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	app.setupNotifier(publisher)
	if err := app.setupSubscription(ctx); err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	ready := map[string]api.ReadinessCheck{}
	if app.pgStore != nil {
		ready["postgres"] = app.pgStore.Ping
	}
	if app.redis != nil {
		ready["redis"] = app.redis.Ping
	}
	app.apiServer = api.NewServer(api.Deps{
		Feed: app.feed,
		Share: sharecard.NewBuilder(app.store, sharecard.Config{
			PublicBaseURL:   cfg.Share.PublicBaseURL,
			DefaultImageURL: cfg.Share.DefaultImageURL,
		}),
		Events:    app.dispatch,
		Provinces: app.provinces,
		Ready:     ready,
	}, api.Config{
		RequestTimeout:    time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
		ShareCacheControl: cfg.Share.CacheControl,
	}, logger.Named("api"))

	return app, nil
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Feed returns the (possibly cached) Hue guide feed fetcher.
func (a *App) Feed() huefeed.Fetcher {
	return a.feed
}

// Notifier returns the card expiry reminder service.
func (a *App) Notifier() *notify.Service {
	return a.notifier
}

// ScanExpiring evaluates every stored guide profile once and sends due
// reminders.
func (a *App) ScanExpiring(ctx context.Context) (notify.ScanReport, error) {
	return a.notifier.Scan(ctx)
}

// ScrapeGuides runs the registry scraper once and exports the result.
func (a *App) ScrapeGuides(ctx context.Context) (guides.Result, error) {
	scraper, cleanup, err := a.NewGuideScraper(ctx)
	if err != nil {
		return guides.Result{}, err
	}
	defer cleanup()
	return scraper.Run(ctx)
}

// Run starts the dispatcher, the optional Pub/Sub source and the HTTP server,
// and blocks until the context is canceled or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		a.logger.Info("dispatcher started", zap.Int("workers", a.cfg.Notify.Workers))
		a.dispatch.Run(ctx)
	}()

	if a.pubsubSource != nil {
		go func() {
			a.logger.Info("pubsub source started", zap.String("subscription", a.cfg.PubSub.Subscription))
			if err := a.pubsubSource.Run(ctx); err != nil {
				a.logger.Error("pubsub source stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	return a.Close()
}

// Close releases every external connection. It is safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		if a.queue != nil {
			a.queue.Close()
		}
		a.closeInfrastructure()
		a.logger.Info("shutdown complete")
		_ = a.logger.Sync()
	})
	return nil
}

func (a *App) closeInfrastructure() {
	if a.gcpPublisher != nil {
		a.gcpPublisher.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
}

func (a *App) setupFeed() error {
	cfg := a.cfg
	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.HueFeed.RateLimitRPS,
		DefaultBurst: cfg.HueFeed.RateLimitBurst,
	})
	client, err := huefeed.New(huefeed.Config{
		BaseURL:            cfg.HueFeed.BaseURL,
		LandingPath:        cfg.HueFeed.LandingPath,
		FragmentPath:       cfg.HueFeed.FragmentPath,
		UserAgent:          cfg.HueFeed.UserAgent,
		RequestTimeout:     cfg.RequestTimeout(),
		Budget:             cfg.FeedBudget(),
		MaxSessionAttempts: cfg.HueFeed.MaxSessionAttempts,
		MaxArticles:        cfg.HueFeed.MaxArticles,
		RespectRobots:      cfg.HueFeed.RespectRobots,
	}, limiter, a.logger.Named("huefeed"))
	if err != nil {
		return fmt.Errorf("hue feed client init failed: %w", err)
	}

	var cache huefeed.Cache
	switch cfg.Cache.Backend {
	case "redis":
		a.redis, err = rediscache.New(cfg.Cache.RedisURL)
		if err != nil {
			return fmt.Errorf("redis cache init failed: %w", err)
		}
		cache = a.redis
		a.logger.Info("using redis feed cache", zap.Duration("ttl", cfg.CacheTTL()))
	case "memory":
		cache = memorycache.NewCache(a.clock)
		a.logger.Info("using in-memory feed cache", zap.Duration("ttl", cfg.CacheTTL()))
	default:
		a.logger.Info("feed cache disabled")
	}
	a.feed = huefeed.NewCachedFetcher(client, cache, cfg.Cache.Key, cfg.CacheTTL(), a.logger.Named("feed_cache"))
	return nil
}

func (a *App) setupDatabase(ctx context.Context) error {
	if a.cfg.DB.DSN == "" {
		a.logger.Warn("No DSN specified for database, using in-memory directory store")
		a.store = memorystorage.NewDirectoryStore()
		return nil
	}
	store, err := pgstore.New(ctx, pgstore.Config{
		DSN:             a.cfg.DB.DSN,
		ProvidersTable:  a.cfg.DB.ProvidersTable,
		GuidesTable:     a.cfg.DB.GuidesTable,
		MaxConns:        a.cfg.DB.MaxConns,
		MinConns:        a.cfg.DB.MinConns,
		MaxConnLifetime: time.Duration(a.cfg.DB.MaxConnLifetimeMinutes) * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("directory store init failed: %w", err)
	}
	a.pgStore = store
	a.store = store
	a.logger.Info("postgres directory store initialized",
		zap.String("providers_table", a.cfg.DB.ProvidersTable),
		zap.String("guides_table", a.cfg.DB.GuidesTable),
	)
	return nil
}

func (a *App) ensurePubSubClient(ctx context.Context) error {
	if a.pubsubClient != nil {
		return nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return fmt.Errorf("pubsub client init failed: %w", err)
	}
	a.pubsubClient = client
	return nil
}

func (a *App) setupPublisher(ctx context.Context) (directory.Publisher, error) {
	if a.cfg.PubSub.ProjectID == "" || a.cfg.Notify.Topic == "" {
		a.logger.Warn("No Pub/Sub project configured, using in-memory publisher")
		return memorypublisher.New(), nil
	}
	if err := a.ensurePubSubClient(ctx); err != nil {
		return nil, err
	}
	a.gcpPublisher = gcppublisher.New(a.pubsubClient)
	a.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("topic", a.cfg.Notify.Topic),
	)
	return a.gcpPublisher, nil
}

func (a *App) setupNotifier(publisher directory.Publisher) {
	cfg := a.cfg
	smtpCfg := notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}
	var mailer notify.Mailer
	if m := notify.NewSMTPMailer(smtpCfg); m != nil {
		mailer = m
		a.logger.Info("smtp mailer configured", zap.String("host", cfg.SMTP.Host), zap.Int("port", cfg.SMTP.Port))
	} else {
		a.logger.Warn("SMTP credentials missing, expiry reminders will be skipped")
	}

	a.notifier = notify.NewService(a.store, mailer, publisher, a.clock, notify.Config{
		Policy: notify.Policy{
			WindowDays:     cfg.Notify.WindowDays,
			ResendInterval: cfg.ResendInterval(),
		},
		Topic: cfg.Notify.Topic,
	}, a.logger.Named("notify"))

	a.queue = queueMemory.NewQueue(cfg.Notify.QueueDepth)
	handler := worker.HandlerFunc(func(ctx context.Context, event directory.GuideProfileEvent) error {
		_, err := a.notifier.Handle(ctx, event)
		return err
	})
	workers := make([]*worker.Worker, 0, cfg.Notify.Workers)
	for i := 0; i < cfg.Notify.Workers; i++ {
		workers = append(workers, worker.New(i, a.queue, handler, worker.Config{},
			a.logger.Named("worker").With(zap.Int("index", i))))
	}
	a.dispatch = dispatcher.New(a.queue, workers)
}

func (a *App) setupSubscription(ctx context.Context) error {
	if a.cfg.PubSub.ProjectID == "" || a.cfg.PubSub.Subscription == "" {
		a.logger.Info("no Pub/Sub subscription configured, accepting events over HTTP only")
		return nil
	}
	if err := a.ensurePubSubClient(ctx); err != nil {
		return err
	}
	a.pubsubSource = queue.NewPubSubSource(a.pubsubClient, a.cfg.PubSub.Subscription, a.dispatch, a.logger.Named("pubsub_source"))
	return nil
}

// NewGuideScraper builds a registry scraper writing to the configured blob
// store. The returned func releases the browser and storage clients.
func (a *App) NewGuideScraper(ctx context.Context) (*guides.Scraper, func(), error) {
	cfg := a.cfg
	blobs, closeBlobs, err := storage.OpenBlobStore(ctx, storage.Config{
		Backend:   cfg.Storage.Backend,
		BaseDir:   cfg.Storage.BaseDir,
		GCSBucket: cfg.Storage.GCSBucket,
	})
	if err != nil {
		return nil, func() {}, fmt.Errorf("blob store init failed: %w", err)
	}

	var source guides.PageSource
	cleanup := func() {
		if err := closeBlobs(); err != nil {
			a.logger.Warn("blob store close failed", zap.Error(err))
		}
	}
	if cfg.Guides.Headless {
		renderer := guides.NewRenderer(guides.RendererConfig{
			UserAgent:         cfg.Guides.UserAgent,
			NavigationTimeout: time.Duration(cfg.Guides.NavTimeoutSec) * time.Second,
		})
		source = renderer
		closeStore := cleanup
		cleanup = func() {
			renderer.Close()
			closeStore()
		}
		a.logger.Info("using headless registry renderer")
	} else {
		source = guides.NewHTTPSource(guides.HTTPConfig{
			UserAgent:        cfg.Guides.UserAgent,
			Timeout:          time.Duration(cfg.Guides.TimeoutSeconds) * time.Second,
			CloudflareBypass: cfg.Guides.CloudflareBypass,
		}, nil)
	}

	scraper, err := guides.NewScraper(guides.Config{
		BaseURL:      cfg.Guides.BaseURL,
		ListPath:     cfg.Guides.ListPath,
		ProvinceCode: cfg.Guides.ProvinceCode,
		CardType:     cfg.Guides.CardType,
		ExportPrefix: cfg.Storage.Prefix,
	}, source, a.provinces, blobs, a.clock, a.logger.Named("guides"))
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return scraper, cleanup, nil
}
