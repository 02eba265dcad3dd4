package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hxms_backend/internal/adapters"
	"hxms_backend/internal/catalog"
	"hxms_backend/internal/channels"
	"hxms_backend/internal/customers"
	"hxms_backend/internal/events"
	apphttp "hxms_backend/internal/http"
	"hxms_backend/internal/http/router"
	"hxms_backend/internal/leads"
	"hxms_backend/internal/leads/ports"
	leadservice "hxms_backend/internal/leads/service"
	"hxms_backend/internal/opportunities"
	"hxms_backend/internal/org"
	"hxms_backend/internal/scheduler"
	"hxms_backend/internal/scope"
	"hxms_backend/internal/staff"
	"hxms_backend/migrations"
	"hxms_backend/platform/config"
	"hxms_backend/platform/db"
	"hxms_backend/platform/logger"
	"hxms_backend/platform/metrics"
	"hxms_backend/platform/phone"
	"hxms_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "leadSaveMode", cfg.GetLeadSaveMode())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	aliases, err := scope.LoadAliases(cfg.GetRoleAliasesFile())
	if err != nil {
		log.Error("failed to load role aliases", "error", err)
		panic("failed to load role aliases: " + err.Error())
	}

	m := metrics.New()
	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	maxPageSize := cfg.GetListMaxPageSize()

	var enqueuer ports.LeadSaveEnqueuer
	if cfg.IsLeadSaveQueued() {
		client, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize scheduler client", "error", err)
			panic("failed to initialize scheduler client: " + err.Error())
		}
		defer func() { _ = client.Close() }()
		enqueuer = client
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	employees := staff.NewRepository(pool)
	orgResolver := org.NewResolver(org.NewRepository(pool), log)
	scopes := scope.NewResolver(employees, orgResolver, aliases)

	customersModule := customers.NewModule(pool, scopes, maxPageSize, m, log)
	catalogModule := catalog.NewModule(pool, maxPageSize, log)
	channelService := channels.NewService(channels.NewRepository(pool), m, log)

	opportunitiesModule := opportunities.NewModule(pool, employees, scopes, eventBus, val, m, maxPageSize, log)

	// Anti-Corruption Layer: leads only sees its own ports
	leadsModule := leads.NewModule(pool, leadservice.Dependencies{
		Principals:    scopes,
		Org:           adapters.NewOrgAttributionAdapter(orgResolver),
		Consultants:   adapters.NewConsultantDirectoryAdapter(employees),
		Customers:     adapters.NewCustomerLinkerAdapter(customersModule.Service()),
		Channels:      adapters.NewChannelLinkerAdapter(channelService),
		Products:      adapters.NewCatalogProductResolver(catalogModule.Service()),
		Opportunities: adapters.NewOpportunityDeriverAdapter(opportunitiesModule.Service()),
		Phones:        phone.NewNormalizer(cfg.GetPhoneDefaultRegion()),
		Bus:           eventBus,
		Metrics:       m,
	}, enqueuer, val, maxPageSize, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Metrics:  m,
		Modules: []apphttp.Module{
			leadsModule,
			opportunitiesModule,
			customersModule,
			catalogModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
