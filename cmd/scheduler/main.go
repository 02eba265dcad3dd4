package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hxms_backend/internal/adapters"
	catalogrepo "hxms_backend/internal/catalog/repository"
	catalogservice "hxms_backend/internal/catalog/service"
	"hxms_backend/internal/channels"
	"hxms_backend/internal/customers"
	"hxms_backend/internal/events"
	leadrepo "hxms_backend/internal/leads/repository"
	leadservice "hxms_backend/internal/leads/service"
	opportunityrepo "hxms_backend/internal/opportunities/repository"
	opportunityservice "hxms_backend/internal/opportunities/service"
	"hxms_backend/internal/org"
	"hxms_backend/internal/scheduler"
	"hxms_backend/internal/scope"
	"hxms_backend/internal/staff"
	"hxms_backend/platform/config"
	"hxms_backend/platform/db"
	"hxms_backend/platform/logger"
	"hxms_backend/platform/metrics"
	"hxms_backend/platform/phone"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	aliases, err := scope.LoadAliases(cfg.GetRoleAliasesFile())
	if err != nil {
		log.Error("failed to load role aliases", "error", err)
		panic("failed to load role aliases: " + err.Error())
	}

	m := metrics.New()
	eventBus := events.NewInMemoryBus(log)

	// Worker-side lead save wiring (no HTTP handlers required).
	employees := staff.NewRepository(pool)
	orgResolver := org.NewResolver(org.NewRepository(pool), log)
	scopes := scope.NewResolver(employees, orgResolver, aliases)

	engine := opportunityservice.New(opportunityrepo.New(pool), employees, scopes, eventBus, m, log)
	leadService := leadservice.New(leadrepo.New(pool), leadservice.Dependencies{
		Principals:    scopes,
		Org:           adapters.NewOrgAttributionAdapter(orgResolver),
		Consultants:   adapters.NewConsultantDirectoryAdapter(employees),
		Customers:     adapters.NewCustomerLinkerAdapter(customers.NewService(customers.NewRepository(pool), m, log)),
		Channels:      adapters.NewChannelLinkerAdapter(channels.NewService(channels.NewRepository(pool), m, log)),
		Products:      adapters.NewCatalogProductResolver(catalogservice.New(catalogrepo.New(pool), log)),
		Opportunities: adapters.NewOpportunityDeriverAdapter(engine),
		Phones:        phone.NewNormalizer(cfg.GetPhoneDefaultRegion()),
		Bus:           eventBus,
		Metrics:       m,
	}, log)

	worker, err := scheduler.NewWorker(cfg, leadService, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
