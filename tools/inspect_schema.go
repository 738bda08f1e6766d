// inspect_schema prints the SQLite schema the store creates: tables, the
// full-text index and its triggers.
//
//	go run ./tools
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/localnerve/recalldb/internal/config"
	"github.com/localnerve/recalldb/internal/database"
)

func main() {
	db, err := database.Connect(&config.Config{
		DBDriver:          "sqlite",
		DBPath:            ":memory:",
		DBConnectionLimit: 1,
	})
	if err != nil {
		slog.Error("failed to open schema database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	type entry struct {
		Type string
		Name string
		SQL  string
	}
	var entries []entry
	if err := db.Raw("SELECT type, name, sql FROM sqlite_master WHERE sql IS NOT NULL ORDER BY type DESC, name").
		Scan(&entries).Error; err != nil {
		slog.Error("failed to read schema", "error", err)
		os.Exit(1)
	}

	for _, e := range entries {
		fmt.Printf("\n=== %s: %s ===\n%s\n", e.Type, e.Name, e.SQL)
	}
}
