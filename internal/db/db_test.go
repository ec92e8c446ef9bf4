package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siikhub-waitlist-go/internal/config"
	"siikhub-waitlist-go/internal/models"
)

func TestInitSQLiteRunsMigrations(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "waitlist.db"),
	}

	conn, err := Init(cfg)
	require.NoError(t, err)

	assert.True(t, conn.Migrator().HasTable(&models.WaitlistEntry{}))
	assert.True(t, conn.Migrator().HasIndex(&models.WaitlistEntry{}, "Email"))

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestInitRejectsUnknownDriver(t *testing.T) {
	_, err := Init(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
