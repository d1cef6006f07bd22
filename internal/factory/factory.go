package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/rpsls-go/internal/dependencies/clock"
	"github.com/mcoot/rpsls-go/internal/dependencies/random"
	"github.com/mcoot/rpsls-go/internal/services/game"
	"github.com/mcoot/rpsls-go/internal/services/opponent"
	"github.com/mcoot/rpsls-go/internal/services/player"
	"github.com/mcoot/rpsls-go/internal/services/session"
	"github.com/mcoot/rpsls-go/internal/storage"
	"github.com/mcoot/rpsls-go/internal/storage/memory"
	redisstorage "github.com/mcoot/rpsls-go/internal/storage/redis"
	sqlitestorage "github.com/mcoot/rpsls-go/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	PlayerService   *player.Service
	SessionService  *session.Service
	GameController  *game.Controller
	OpponentService *opponent.Service
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// StorageTimeout bounds each storage call; zero disables the bound
	StorageTimeout time.Duration
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlitestorage.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}

	logger.Info("storage ready", slog.String("type", storageType))

	return newWithDependencies(store, clock.New(), random.New(), cfg.StorageTimeout, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, timeout time.Duration, logger *slog.Logger) *App {
	playerService := player.New(store, clk, rnd, timeout, logger)
	sessionService := session.New(store, clk, timeout, logger)
	gameController := game.NewController(store, clk, timeout, logger)

	strategies := map[string]opponent.Strategy{
		opponent.StrategyRandom:  opponent.NewRandomStrategy(rnd),
		opponent.StrategyCounter: opponent.NewCounterStrategy(rnd),
	}
	opponentService := opponent.NewService(gameController, playerService, strategies, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		PlayerService:   playerService,
		SessionService:  sessionService,
		GameController:  gameController,
		OpponentService: opponentService,
	}
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}
