package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"expense-api/internal/config"
	"expense-api/internal/database"

	"github.com/sirupsen/logrus"
)

func main() {
	var (
		dbPath         = flag.String("db", config.GetEnv("SQLITE_PATH", "./data/expenses.db"), "Database file path")
		migrationsPath = flag.String("migrations", "", "Migrations directory path (default: migrations built into the binary)")
		action         = flag.String("action", "up", "Migration action: up, down, status, validate")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	absDBPath, err := filepath.Abs(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to get absolute database path")
	}

	if err := os.MkdirAll(filepath.Dir(absDBPath), 0755); err != nil {
		logger.WithError(err).Fatal("Failed to create database directory")
	}

	absMigrationsPath := ""
	if *migrationsPath != "" {
		absMigrationsPath, err = filepath.Abs(*migrationsPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to get absolute migrations path")
		}
	}

	logger.WithFields(logrus.Fields{
		"db_path":         absDBPath,
		"migrations_path": absMigrationsPath,
		"action":          *action,
	}).Info("Starting migration tool")

	connectionManager := database.NewConnectionManager(&database.ConnectionConfig{
		DatabasePath:   absDBPath,
		MigrationsPath: absMigrationsPath,
		Logger:         logger,
	})

	if err := run(connectionManager, *action); err != nil {
		logger.WithError(err).WithField("action", *action).Fatal("Migration tool failed")
	}

	logger.Info("Migration tool completed successfully")
}

// run executes one action against the expenses database
func run(cm *database.ConnectionManager, action string) error {
	migrations := cm.GetMigrationManager()

	switch action {
	case "up":
		return migrations.RunMigrations()
	case "down":
		// one step only
		return migrations.RollbackMigration()
	case "status":
		return showMigrationStatus(cm)
	case "validate":
		return validateSchema(cm)
	default:
		return fmt.Errorf("unknown action %q, use one of up, down, status, validate", action)
	}
}

func showMigrationStatus(cm *database.ConnectionManager) error {
	status, err := cm.GetMigrationManager().GetMigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	fmt.Printf("Migration Status:\n")
	fmt.Printf("  Version: %d\n", status.Version)
	fmt.Printf("  Applied: %t\n", status.Applied)
	fmt.Printf("  Dirty: %t\n", status.Dirty)
	fmt.Printf("  Timestamp: %s\n", status.Timestamp.Format("2006-01-02 15:04:05"))

	return nil
}

func validateSchema(cm *database.ConnectionManager) error {
	if err := cm.Connect(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer cm.Close()

	if err := cm.HealthCheck(); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	fmt.Println("Schema validation passed successfully")
	return nil
}
