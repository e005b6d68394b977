package appbuild

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"puzzleboard/internal/autoplay"
	"puzzleboard/internal/board"
	"puzzleboard/internal/config"
	"puzzleboard/internal/msgcat"
	"puzzleboard/internal/puzzle"
	"puzzleboard/internal/storage"
	"puzzleboard/internal/viewer"
)

type Deps struct {
	Service *viewer.Service
	Driver  *autoplay.Driver
	Catalog *msgcat.Catalog
	Repo    storage.Repository

	closers []func() error
}

func (d *Deps) Close() {
	for _, c := range d.closers {
		_ = c()
	}
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	deps := &Deps{}

	// Session store (Redis optional, in-memory fallback for single-node use)
	var store viewer.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		store = viewer.NewRedisStore(rdb, cfg.SessionTTL)
		deps.closers = append(deps.closers, rdb.Close)
	} else {
		logger.Info("no REDIS_URL configured, using in-memory session store")
		store = viewer.NewMemoryStore(cfg.SessionTTL)
	}

	// Attempts repository (Postgres optional)
	var repo storage.Repository
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(4)
		db.SetConnMaxLifetime(30 * time.Minute)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		repo = storage.NewRepository(db)
		deps.closers = append(deps.closers, db.Close)
	} else {
		logger.Info("no DATABASE_URL configured, attempts kept in memory")
		repo = storage.NewMemoryRepository()
	}
	deps.Repo = repo

	puzzles := loadPuzzles(cfg, logger)

	catalog, err := msgcat.New(cfg.MessageDir)
	if err != nil {
		return nil, fmt.Errorf("load message catalog: %w", err)
	}
	deps.Catalog = catalog

	service, err := viewer.NewService(store, repo, board.NewPNGRenderer(), puzzles, logger)
	if err != nil {
		return nil, err
	}
	deps.Service = service

	if cfg.AutoplayEnabled {
		deps.Driver = autoplay.NewDriver(cfg.MoveInterval, logger)
	}

	return deps, nil
}

// loadPuzzles reads the configured collection. Failures degrade to an empty
// list; the viewer then serves the bare starting position instead of dying.
func loadPuzzles(cfg *config.AppConfig, logger *zap.Logger) []puzzle.Puzzle {
	var source puzzle.Source
	switch {
	case cfg.PuzzlePath != "":
		source = puzzle.NewFileSource(cfg.PuzzlePath, logger)
	case cfg.PuzzleURL != "":
		source = puzzle.NewHTTPSource(cfg.PuzzleURL, logger)
	default:
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	puzzles, err := source.Load(ctx)
	if err != nil {
		logger.Warn("puzzle collection unavailable, falling back to starting position", zap.Error(err))
		return nil
	}
	logger.Info("puzzle collection loaded", zap.Int("count", len(puzzles)))
	return puzzles
}
