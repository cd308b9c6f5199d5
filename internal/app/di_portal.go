package app

import (
	"fmt"

	"github.com/flowtrade/portal/internal/metrics"
	portalHTTP "github.com/flowtrade/portal/internal/portal/http"
	portalRepository "github.com/flowtrade/portal/internal/portal/repository"
	portalService "github.com/flowtrade/portal/internal/portal/service"
	portalUseCase "github.com/flowtrade/portal/internal/portal/usecase"
	"github.com/flowtrade/portal/internal/portal/worker"
)

// TokenService returns the token service for portal token generation and hashing.
func (c *Container) TokenService() portalService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = portalService.NewTokenService()
	})
	return c.tokenService
}

// TokenRepository returns the portal token repository based on database driver.
func (c *Container) TokenRepository() (portalUseCase.TokenRepository, error) {
	var err error
	c.tokenRepositoryInit.Do(func() {
		c.tokenRepository, err = c.initTokenRepository()
		if err != nil {
			c.initErrors["tokenRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenRepository"]; exists {
		return nil, storedErr
	}
	return c.tokenRepository, nil
}

// QuoteRepository returns the quote repository based on database driver.
func (c *Container) QuoteRepository() (portalUseCase.QuoteRepository, error) {
	var err error
	c.quoteRepositoryInit.Do(func() {
		c.quoteRepository, err = c.initQuoteRepository()
		if err != nil {
			c.initErrors["quoteRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["quoteRepository"]; exists {
		return nil, storedErr
	}
	return c.quoteRepository, nil
}

// InvoiceRepository returns the invoice repository based on database driver.
func (c *Container) InvoiceRepository() (portalUseCase.InvoiceRepository, error) {
	var err error
	c.invoiceRepositoryInit.Do(func() {
		c.invoiceRepository, err = c.initInvoiceRepository()
		if err != nil {
			c.initErrors["invoiceRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["invoiceRepository"]; exists {
		return nil, storedErr
	}
	return c.invoiceRepository, nil
}

// AccessLogRepository returns the access log repository based on database driver.
func (c *Container) AccessLogRepository() (portalUseCase.AccessLogRepository, error) {
	var err error
	c.accessLogRepositoryInit.Do(func() {
		c.accessLogRepository, err = c.initAccessLogRepository()
		if err != nil {
			c.initErrors["accessLogRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessLogRepository"]; exists {
		return nil, storedErr
	}
	return c.accessLogRepository, nil
}

// AccessLogUseCase returns the access log use case.
func (c *Container) AccessLogUseCase() (portalUseCase.AccessLogUseCase, error) {
	var err error
	c.accessLogUseCaseInit.Do(func() {
		c.accessLogUseCase, err = c.initAccessLogUseCase()
		if err != nil {
			c.initErrors["accessLogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessLogUseCase"]; exists {
		return nil, storedErr
	}
	return c.accessLogUseCase, nil
}

// AccessLogWriter returns the background access log writer. Its Run loop must be started
// for entries to be persisted.
func (c *Container) AccessLogWriter() (*worker.AccessLogWriter, error) {
	var err error
	c.accessLogWriterInit.Do(func() {
		c.accessLogWriter, err = c.initAccessLogWriter()
		if err != nil {
			c.initErrors["accessLogWriter"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessLogWriter"]; exists {
		return nil, storedErr
	}
	return c.accessLogWriter, nil
}

// PortalUseCase returns the portal use case.
func (c *Container) PortalUseCase() (portalUseCase.PortalUseCase, error) {
	var err error
	c.portalUseCaseInit.Do(func() {
		c.portalUseCase, err = c.initPortalUseCase()
		if err != nil {
			c.initErrors["portalUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["portalUseCase"]; exists {
		return nil, storedErr
	}
	return c.portalUseCase, nil
}

// TokenUseCase returns the portal token management use case.
func (c *Container) TokenUseCase() (portalUseCase.TokenUseCase, error) {
	var err error
	c.tokenUseCaseInit.Do(func() {
		c.tokenUseCase, err = c.initTokenUseCase()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// PortalHandler returns the HTTP handler for portal routes.
func (c *Container) PortalHandler() (*portalHTTP.PortalHandler, error) {
	var err error
	c.portalHandlerInit.Do(func() {
		c.portalHandler, err = c.initPortalHandler()
		if err != nil {
			c.initErrors["portalHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["portalHandler"]; exists {
		return nil, storedErr
	}
	return c.portalHandler, nil
}

// initTokenRepository creates the portal token repository for the configured driver.
func (c *Container) initTokenRepository() (portalUseCase.TokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return portalRepository.NewMySQLTokenRepository(db), nil
	case "postgres":
		return portalRepository.NewPostgreSQLTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initQuoteRepository creates the quote repository for the configured driver.
func (c *Container) initQuoteRepository() (portalUseCase.QuoteRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for quote repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return portalRepository.NewMySQLQuoteRepository(db), nil
	case "postgres":
		return portalRepository.NewPostgreSQLQuoteRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initInvoiceRepository creates the invoice repository for the configured driver.
func (c *Container) initInvoiceRepository() (portalUseCase.InvoiceRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for invoice repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return portalRepository.NewMySQLInvoiceRepository(db), nil
	case "postgres":
		return portalRepository.NewPostgreSQLInvoiceRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAccessLogRepository creates the access log repository for the configured driver.
func (c *Container) initAccessLogRepository() (portalUseCase.AccessLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for access log repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return portalRepository.NewMySQLAccessLogRepository(db), nil
	case "postgres":
		return portalRepository.NewPostgreSQLAccessLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAccessLogUseCase creates the access log use case.
func (c *Container) initAccessLogUseCase() (portalUseCase.AccessLogUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for access log use case: %w", err)
	}

	accessLogRepository, err := c.AccessLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get access log repository for access log use case: %w", err)
	}

	tokenRepository, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for access log use case: %w", err)
	}

	return portalUseCase.NewAccessLogUseCase(
		txManager,
		accessLogRepository,
		tokenRepository,
		c.config.PortalTrackTokenUsage,
	), nil
}

// initAccessLogWriter creates the access log writer and exports its counters.
func (c *Container) initAccessLogWriter() (*worker.AccessLogWriter, error) {
	accessLogUseCase, err := c.AccessLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get access log use case for access log writer: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for access log writer: %w", err)
	}

	writer := worker.NewAccessLogWriter(
		worker.AccessLogWriterConfig{
			BufferSize:    c.config.AccessLogBufferSize,
			BatchSize:     c.config.AccessLogBatchSize,
			FlushInterval: c.config.AccessLogFlushInterval,
		},
		accessLogUseCase,
		c.Logger(),
		businessMetrics,
	)

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for access log writer: %w", err)
	}
	if provider != nil {
		if err := metrics.RegisterAccessLogObserver(
			provider.MeterProvider(),
			c.config.MetricsNamespace,
			writer.Stats,
		); err != nil {
			return nil, err
		}
	}

	return writer, nil
}

// initPortalUseCase creates the portal use case, wrapped with metrics if enabled.
func (c *Container) initPortalUseCase() (portalUseCase.PortalUseCase, error) {
	tokenRepository, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for portal use case: %w", err)
	}

	quoteRepository, err := c.QuoteRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get quote repository for portal use case: %w", err)
	}

	invoiceRepository, err := c.InvoiceRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice repository for portal use case: %w", err)
	}

	accessLogWriter, err := c.AccessLogWriter()
	if err != nil {
		return nil, fmt.Errorf("failed to get access log writer for portal use case: %w", err)
	}

	baseUseCase := portalUseCase.NewPortalUseCase(
		tokenRepository,
		quoteRepository,
		invoiceRepository,
		c.TokenService(),
		accessLogWriter,
		c.config.PortalDocumentBaseURL,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for portal use case: %w", err)
		}
		return portalUseCase.NewPortalUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initTokenUseCase creates the token management use case, wrapped with metrics if enabled.
func (c *Container) initTokenUseCase() (portalUseCase.TokenUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for token use case: %w", err)
	}

	tokenRepository, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for token use case: %w", err)
	}

	baseUseCase := portalUseCase.NewTokenUseCase(
		txManager,
		tokenRepository,
		c.TokenService(),
		c.config.PortalTokenTTL,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for token use case: %w", err)
		}
		return portalUseCase.NewTokenUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initPortalHandler creates the portal HTTP handler.
func (c *Container) initPortalHandler() (*portalHTTP.PortalHandler, error) {
	useCase, err := c.PortalUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get portal use case for portal handler: %w", err)
	}
	return portalHTTP.NewPortalHandler(useCase, c.Logger()), nil
}
