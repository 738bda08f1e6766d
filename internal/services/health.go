package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/localnerve/recalldb/internal/config"
	"github.com/localnerve/recalldb/internal/database"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Schema       string            `json:"schema"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck pings the store and checks that every table and the full-text index exist
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	fail := func(field *string, state, key string, err error) {
		result.Status = "unhealthy"
		*field = state
		result.Details[key] = err.Error()
		if result.ErrorMessage == "" {
			result.ErrorMessage = err.Error()
		} else {
			result.ErrorMessage += "; " + err.Error()
		}
		slog.Error("health check failed", "check", key, "error", err)
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		fail(&result.Database, "error", "database_error", fmt.Errorf("database connection error: %w", err))
		return result
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		fail(&result.Database, "unreachable", "database_ping_error", fmt.Errorf("database ping failed: %w", err))
		return result
	}
	result.Database = "ok"
	result.Details["database_driver"] = cfg.DBDriver
	result.Details["database_path"] = cfg.DBPath

	// Check schema
	migrator := db.WithContext(ctx).Migrator()
	for _, table := range database.Tables {
		if !migrator.HasTable(table) {
			fail(&result.Schema, "missing", "schema_error", fmt.Errorf("missing table for %T", table))
			return result
		}
	}
	if !migrator.HasTable(database.FTSTable) {
		fail(&result.Schema, "missing", "schema_error", fmt.Errorf("missing full-text table %s", database.FTSTable))
		return result
	}
	result.Schema = "ok"

	slog.Debug("health check passed")
	return result
}
