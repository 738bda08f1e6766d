package services

import (
	"context"
	"testing"

	"github.com/localnerve/recalldb/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	cfg := testConfig(t)
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	defer database.Close(db)

	result := HealthCheck(context.Background(), cfg, db)
	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, "ok", result.Database)
	assert.Equal(t, "ok", result.Schema)
	assert.Equal(t, "sqlite", result.Details["database_driver"])
	assert.Empty(t, result.ErrorMessage)
}

func TestHealthCheckMissingIndex(t *testing.T) {
	cfg := testConfig(t)
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	defer database.Close(db)

	require.NoError(t, db.Exec("DROP TABLE "+database.FTSTable).Error)

	result := HealthCheck(context.Background(), cfg, db)
	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "missing", result.Schema)
	assert.Contains(t, result.ErrorMessage, database.FTSTable)
}

func TestHealthCheckClosedDatabase(t *testing.T) {
	cfg := testConfig(t)
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Close(db))

	result := HealthCheck(context.Background(), cfg, db)
	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "unreachable", result.Database)
	assert.NotEmpty(t, result.Details["database_ping_error"])
}
