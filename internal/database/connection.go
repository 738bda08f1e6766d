// connection.go
//
// A local, file-backed content store for spaced-repetition flashcards
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of recalldb.
// recalldb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// recalldb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with recalldb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package database

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	glebarez "github.com/glebarez/sqlite"
	"github.com/localnerve/recalldb/data"
	"github.com/localnerve/recalldb/internal/config"
	"github.com/localnerve/recalldb/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// FTSTable is the full-text index over note attribute keys and values
const FTSTable = "note_attr_fts"

// Tables lists the entity tables in the order the sweeper visits them
var Tables = []interface{}{
	&models.Model{},
	&models.Template{},
	&models.NoteAttr{},
	&models.Card{},
}

// Connect opens the store with the configured DB_DRIVER and ensures its schema
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DBDriver {
	case "sqlite":
		// Pure Go driver, FTS5 and JSON1 are compiled in
		dialector = glebarez.Open(dsn(cfg.DBPath, "_pragma", "busy_timeout(5000)", "_pragma", "journal_mode(WAL)"))

	case "sqlite3":
		// cgo driver, build with -tags sqlite_fts5
		dialector = sqlite.Open(dsn(cfg.DBPath, "_busy_timeout", "5000", "_journal_mode", "WAL"))

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}

	logLevel := logger.Warn
	if cfg.SQLLog {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Referential integrity is enforced by the sweeper, never by the engine
		DisableForeignKeyConstraintWhenMigrating: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		NowFunc: Now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB for connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	// Single writer store
	sqlDB.SetMaxOpenConns(cfg.DBConnectionLimit)
	sqlDB.SetMaxIdleConns(cfg.DBConnectionLimit)

	if err := EnsureSchema(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	slog.Info("database connected", "driver", cfg.DBDriver, "path", cfg.DBPath)

	return db, nil
}

// dsn appends query parameters to a sqlite path, keeping any it already has
func dsn(path string, kv ...string) string {
	if path == ":memory:" {
		return path
	}
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Add(kv[i], kv[i+1])
	}
	sep := "?"
	for _, r := range path {
		if r == '?' {
			sep = "&"
			break
		}
	}
	return path + sep + q.Encode()
}

// EnsureSchema creates all tables, indices and the note attribute full-text index.
// It is safe to run on every startup and never drops data.
func EnsureSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(Tables...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if err := db.Exec(data.NoteAttrFTS).Error; err != nil {
		return fmt.Errorf("failed to create full-text index: %w", err)
	}
	return nil
}

// Now is the clock gorm stamps rows with
func Now() time.Time {
	return time.Now().UTC()
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
