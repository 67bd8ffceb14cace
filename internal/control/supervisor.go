// Package control wires the recovery engine, resource pool, outcome archive
// and probe runner into one supervised lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/mend/internal/core/config"
	"github.com/vietddude/mend/internal/core/worker"
	"github.com/vietddude/mend/internal/health"
	"github.com/vietddude/mend/internal/infra/storage"
	"github.com/vietddude/mend/internal/infra/storage/memory"
	"github.com/vietddude/mend/internal/infra/storage/postgres"
	"github.com/vietddude/mend/internal/metrics"
	"github.com/vietddude/mend/internal/recovery"
	"github.com/vietddude/mend/internal/resource"
	"github.com/vietddude/mend/internal/runner"

	"github.com/pressly/goose/v3"
)

// Supervisor is the main application struct that manages the engine lifecycle.
type Supervisor struct {
	cfg          *config.AppConfig
	engine       *recovery.Engine
	runner       *runner.Runner
	pool         resource.Pool
	archive      storage.OutcomeRepository
	bridge       *metrics.Bridge
	pruner       *worker.Pruner
	healthServer *health.Server
	db           *postgres.DB
	redisPool    *resource.RedisPool
	archiveSubs  map[recovery.Event]int
	log          *slog.Logger
}

// New creates a Supervisor with all dependencies initialized.
func New(cfg *config.AppConfig) (*Supervisor, error) {
	engine := recovery.New(cfg.Engine.ToEngine())

	// 1. Resource pool: Redis-backed roster when a URL is configured,
	// in-memory round robin otherwise.
	var pool resource.Pool
	var redisPool *resource.RedisPool
	if cfg.Resources.Redis.URL != "" {
		var err error
		redisPool, err = resource.NewRedisPool(cfg.Resources.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis pool: %w", err)
		}
		if len(cfg.Resources.IDs) > 0 {
			if err := redisPool.Seed(context.Background(), cfg.Resources.IDs); err != nil {
				return nil, fmt.Errorf("failed to seed resource roster: %w", err)
			}
		}
		pool = redisPool
		slog.Info("Using Redis resource pool", "resources", len(cfg.Resources.IDs))
	} else {
		pool = resource.NewStaticPool(cfg.Resources.IDs)
		slog.Info("Using static resource pool", "resources", len(cfg.Resources.IDs))
	}

	// 2. Outcome archive
	var archive storage.OutcomeRepository
	var db *postgres.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		// Run migrations
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		archive = postgres.NewOutcomeRepo(db)
		slog.Info("Using PostgreSQL outcome archive")
	} else {
		archive = memory.NewOutcomeRepo()
		slog.Info("Using memory outcome archive")
	}

	s := &Supervisor{
		cfg:         cfg,
		engine:      engine,
		pool:        pool,
		archive:     archive,
		db:          db,
		redisPool:   redisPool,
		archiveSubs: make(map[recovery.Event]int),
		log:         slog.Default(),
	}

	// 3. Archive every completed recovery attempt.
	sink := func(_ recovery.Event, data recovery.EventData) {
		if data.Outcome == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.archive.Add(ctx, data.Outcome); err != nil {
			s.log.Warn("Failed to archive outcome", "error", err)
		}
	}
	s.archiveSubs[recovery.EventRecoverySuccess] = engine.On(recovery.EventRecoverySuccess, sink)
	s.archiveSubs[recovery.EventRecoveryFailed] = engine.On(recovery.EventRecoveryFailed, sink)

	// 4. Prometheus bridge
	s.bridge = metrics.Bind(engine)

	// 5. Probe runner
	s.runner = runner.New(engine, pool)
	client := &http.Client{Timeout: 10 * time.Second}
	for _, tc := range cfg.Tasks {
		s.runner.Add(runner.NewProbeTask(tc.Name, tc.URL, tc.Interval(), client))
		slog.Info("Probe task registered", "name", tc.Name, "interval", tc.Interval())
	}

	if retention := cfg.Archive.Retention(); retention > 0 {
		s.pruner = worker.NewPruner(retention, archive)
	}

	// 6. Health monitor and server
	monitor := health.NewMonitor(engine, s.runner, health.DefaultThresholds())
	s.healthServer = health.NewServer(monitor, engine, cfg.Server.Port)

	return s, nil
}

// Engine exposes the recovery engine for callers embedding the supervisor.
func (s *Supervisor) Engine() *recovery.Engine { return s.engine }

// Archive exposes the outcome repository.
func (s *Supervisor) Archive() storage.OutcomeRepository { return s.archive }

// Start launches the health server and the probe runner.
func (s *Supervisor) Start(ctx context.Context) error {
	go func() {
		if err := s.healthServer.Start(); err != nil {
			s.log.Error("Health server failed", "error", err)
		}
	}()

	s.runner.Start(ctx)

	if s.pruner != nil {
		go s.pruner.Start(ctx)
	}

	// Periodic metrics refresh keeps the rolling window current even when
	// no recoveries are running.
	go s.runMetricsUpdater(ctx)

	s.log.Info("Supervisor started",
		"port", s.cfg.Server.Port,
		"tasks", s.runner.TaskCount(),
		"strategy", s.engine.StrategyName())
	return nil
}

// Stop shuts everything down in reverse order of Start.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.log.Info("Stopping supervisor...")

	s.runner.Stop()

	for evt, id := range s.archiveSubs {
		s.engine.Off(evt, id)
	}
	s.bridge.Close()

	if s.redisPool != nil {
		if err := s.redisPool.Close(); err != nil {
			s.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("Failed to close database", "error", err)
		}
	}

	return s.healthServer.Stop(ctx)
}

func (s *Supervisor) runMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.engine.Metrics()
		}
	}
}
