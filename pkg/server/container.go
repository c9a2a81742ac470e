package server

import (
	"context"
	"fmt"
	"time"

	"expense-api/internal/auth"
	"expense-api/internal/config"
	"expense-api/internal/database"
	"expense-api/internal/datastore"
	"expense-api/internal/datastore/postgres"
	"expense-api/internal/datastore/postgrest"
	"expense-api/internal/datastore/sqlite"
	"expense-api/internal/handlers"
	"expense-api/internal/services"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *logrus.Logger
	Connector      datastore.Connector
	ExpenseService services.ExpenseService
	ExpenseHandler *handlers.ExpenseHandler
}

// NewContainer creates a new dependency injection container for the configured backend
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = logrus.New()
	}

	connector, err := newConnector(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s connector: %w", cfg.Store.Backend, err)
	}

	expenseService := services.NewExpenseService(connector, logger)
	expenseHandler := handlers.NewExpenseHandler(expenseService, handlers.HandlerConfig{
		StrictRouting: cfg.Routing.Strict,
		Logger:        logger,
	})

	logger.WithFields(logrus.Fields{
		"backend":        cfg.Store.Backend,
		"strict_routing": cfg.Routing.Strict,
		"deployment":     config.GetDeploymentMode(),
	}).Info("Container initialized")

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Connector:      connector,
		ExpenseService: expenseService,
		ExpenseHandler: expenseHandler,
	}, nil
}

func newConnector(cfg *config.Config, logger *logrus.Logger) (datastore.Connector, error) {
	verifier := auth.NewVerifier(cfg.Store.JWTSecret)

	switch cfg.Store.Backend {
	case config.BackendPostgREST:
		return postgrest.NewConnector(postgrest.Config{
			URL:     cfg.Store.URL,
			AnonKey: cfg.Store.AnonKey,
			Timeout: cfg.Store.Timeout,
			Logger:  logger,
		})

	case config.BackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return postgres.NewConnector(ctx, postgres.Config{
			DatabaseURL: cfg.Store.DatabaseURL,
			Verifier:    verifier,
			Logger:      logger,
		})

	case config.BackendSQLite:
		manager := database.NewConnectionManager(&database.ConnectionConfig{
			DatabasePath:    cfg.Store.SQLitePath,
			AutoMigrate:     true,
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
			Logger:          logger,
		})
		return sqlite.NewConnector(manager, verifier, logger)

	default:
		return nil, services.ConfigurationError("new_connector", fmt.Sprintf("unknown store backend %q", cfg.Store.Backend))
	}
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.Connector == nil {
		return nil
	}
	if err := c.Connector.Close(); err != nil {
		return fmt.Errorf("failed to close connector: %w", err)
	}
	return nil
}
