package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testConfig(t *testing.T) *ConnectionConfig {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return &ConnectionConfig{
		DatabasePath:    filepath.Join(t.TempDir(), "nested", "expenses.db"),
		AutoMigrate:     true,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		Logger:          logger,
	}
}

func TestConnectionManager_ConnectMigrates(t *testing.T) {
	cm := NewConnectionManager(testConfig(t))
	if err := cm.Connect(); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer cm.Close()

	if err := cm.HealthCheck(); err != nil {
		t.Fatalf("HealthCheck() failed: %v", err)
	}

	status, err := cm.GetMigrationManager().GetMigrationStatus()
	if err != nil {
		t.Fatalf("GetMigrationStatus() failed: %v", err)
	}
	if status.Version != 1 || status.Dirty || !status.Applied {
		t.Errorf("Unexpected migration status: %+v", status)
	}

	if err := cm.Connect(); err == nil {
		t.Error("Expected error when connecting twice")
	}
}

func TestConnectionManager_WithoutAutoMigrate(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoMigrate = false

	cm := NewConnectionManager(cfg)
	if err := cm.Connect(); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer cm.Close()

	if err := cm.HealthCheck(); err == nil {
		t.Error("Expected schema validation to fail before migrations ran")
	}

	status, err := cm.GetMigrationManager().GetMigrationStatus()
	if err != nil {
		t.Fatalf("GetMigrationStatus() failed: %v", err)
	}
	if status.Applied {
		t.Errorf("Expected no applied migrations, got %+v", status)
	}
}

func TestMigrationManager_UpDown(t *testing.T) {
	cm := NewConnectionManager(testConfig(t))
	if err := cm.Connect(); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer cm.Close()

	mm := cm.GetMigrationManager()

	// Running again is a no-op
	if err := mm.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations() failed: %v", err)
	}

	if err := mm.RollbackMigration(); err != nil {
		t.Fatalf("RollbackMigration() failed: %v", err)
	}
	if err := mm.ValidateSchema(cm.GetDB()); err == nil {
		t.Error("Expected expenses table to be gone after rollback")
	}

	if err := mm.RollbackMigration(); err == nil {
		t.Error("Expected error when nothing is left to roll back")
	}
}

func TestConnectionManager_PingBeforeConnect(t *testing.T) {
	cm := NewConnectionManager(testConfig(t))
	if err := cm.Ping(); err == nil {
		t.Error("Expected ping to fail without a connection")
	}
	if err := cm.Close(); err != nil {
		t.Errorf("Close() without connection should be a no-op, got %v", err)
	}
}
