// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/flowtrade/portal/internal/config"
	"github.com/flowtrade/portal/internal/database"
	"github.com/flowtrade/portal/internal/http"
	"github.com/flowtrade/portal/internal/metrics"
	portalHTTP "github.com/flowtrade/portal/internal/portal/http"
	portalService "github.com/flowtrade/portal/internal/portal/service"
	portalUseCase "github.com/flowtrade/portal/internal/portal/usecase"
	"github.com/flowtrade/portal/internal/portal/worker"
	"github.com/flowtrade/portal/internal/ratelimit"
)

// connectTimeout bounds the initial database ping.
const connectTimeout = 10 * time.Second

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	redisClient     *redis.Client
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers
	txManager database.TxManager

	// Rate limiting
	rateLimiter   ratelimit.Limiter
	memoryLimiter *ratelimit.MemoryLimiter

	// Portal
	tokenService        portalService.TokenService
	tokenRepository     portalUseCase.TokenRepository
	quoteRepository     portalUseCase.QuoteRepository
	invoiceRepository   portalUseCase.InvoiceRepository
	accessLogRepository portalUseCase.AccessLogRepository
	accessLogUseCase    portalUseCase.AccessLogUseCase
	accessLogWriter     *worker.AccessLogWriter
	portalUseCase       portalUseCase.PortalUseCase
	tokenUseCase        portalUseCase.TokenUseCase
	portalHandler       *portalHTTP.PortalHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                      sync.Mutex
	loggerInit              sync.Once
	dbInit                  sync.Once
	redisClientInit         sync.Once
	metricsProviderInit     sync.Once
	businessMetricsInit     sync.Once
	txManagerInit           sync.Once
	rateLimiterInit         sync.Once
	tokenServiceInit        sync.Once
	tokenRepositoryInit     sync.Once
	quoteRepositoryInit     sync.Once
	invoiceRepositoryInit   sync.Once
	accessLogRepositoryInit sync.Once
	accessLogUseCaseInit    sync.Once
	accessLogWriterInit     sync.Once
	portalUseCaseInit       sync.Once
	tokenUseCaseInit        sync.Once
	portalHandlerInit       sync.Once
	httpServerInit          sync.Once
	metricsServerInit       sync.Once
	initErrors              map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// RedisClient returns the Redis client used by the redis rate limit backend.
func (c *Container) RedisClient() (*redis.Client, error) {
	var err error
	c.redisClientInit.Do(func() {
		c.redisClient, err = c.initRedisClient()
		if err != nil {
			c.initErrors["redisClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["redisClient"]; exists {
		return nil, storedErr
	}
	return c.redisClient, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. It is a no-op when metrics are
// disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// RateLimiter returns the limiter selected by RATE_LIMIT_BACKEND.
func (c *Container) RateLimiter() (ratelimit.Limiter, error) {
	var err error
	c.rateLimiterInit.Do(func() {
		c.rateLimiter, err = c.initRateLimiter()
		if err != nil {
			c.initErrors["rateLimiter"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rateLimiter"]; exists {
		return nil, storedErr
	}
	return c.rateLimiter, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// BackgroundTask is a long-running loop that returns when ctx is cancelled.
type BackgroundTask struct {
	Name string
	Run  func(ctx context.Context) error
}

// BackgroundTasks returns the loops the server must run next to the HTTP servers: the
// access log writer and, for the memory backend, the rate limit sweeper.
func (c *Container) BackgroundTasks() ([]BackgroundTask, error) {
	writer, err := c.AccessLogWriter()
	if err != nil {
		return nil, err
	}
	tasks := []BackgroundTask{{Name: "access_log_writer", Run: writer.Run}}

	if c.config.RateLimitEnabled {
		if _, err := c.RateLimiter(); err != nil {
			return nil, err
		}
		if c.memoryLimiter != nil {
			limiter := c.memoryLimiter
			interval := c.config.RateLimitSweepInterval
			tasks = append(tasks, BackgroundTask{
				Name: "rate_limit_sweeper",
				Run:  func(ctx context.Context) error { return limiter.Run(ctx, interval) },
			})
		}
	}

	return tasks, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down, after the servers and
// background tasks have stopped.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := database.Connect(ctx, database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initRedisClient parses REDIS_URL and creates a client. The connection is established
// lazily by the client.
func (c *Container) initRedisClient() (*redis.Client, error) {
	opts, err := redis.ParseURL(c.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initBusinessMetrics creates business metrics on the shared provider.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initRateLimiter creates the rate limiter for the configured backend.
func (c *Container) initRateLimiter() (ratelimit.Limiter, error) {
	switch c.config.RateLimitBackend {
	case config.RateLimitBackendMemory:
		c.memoryLimiter = ratelimit.NewMemoryLimiter(c.Logger())

		if provider, err := c.MetricsProvider(); err == nil && provider != nil {
			if err := metrics.RegisterRateLimitWindowsObserver(
				provider.MeterProvider(),
				c.config.MetricsNamespace,
				c.memoryLimiter.Len,
			); err != nil {
				return nil, err
			}
		}
		return c.memoryLimiter, nil

	case config.RateLimitBackendRedis:
		client, err := c.RedisClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis client for rate limiter: %w", err)
		}
		limiter, err := ratelimit.NewRedisLimiter(client, c.config.RateLimitKeySecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limiter: %w", err)
		}
		return limiter, nil

	default:
		return nil, fmt.Errorf("unsupported rate limit backend: %s", c.config.RateLimitBackend)
	}
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	portalHandler, err := c.PortalHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get portal handler for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)

	var rateLimit gin.HandlerFunc
	if c.config.RateLimitEnabled {
		limiter, err := c.RateLimiter()
		if err != nil {
			return nil, fmt.Errorf("failed to get rate limiter for http server: %w", err)
		}
		rateLimit = portalHTTP.RateLimitMiddleware(limiter, portalHTTP.RateLimitConfig{
			Window: c.config.RateLimitWindow,
			Limit:  c.config.RateLimitMaxRequests,
		}, logger)

		if c.config.RateLimitBackend == config.RateLimitBackendRedis {
			client, err := c.RedisClient()
			if err != nil {
				return nil, fmt.Errorf("failed to get redis client for http server: %w", err)
			}
			server.AddReadinessCheck("redis", func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			})
		}
	}

	server.SetupRouter(c.config, portalHandler, rateLimit, provider, c.config.MetricsNamespace)

	return server, nil
}

// initMetricsServer creates the metrics server on its own port.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
