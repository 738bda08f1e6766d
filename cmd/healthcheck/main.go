// main.go
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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/localnerve/recalldb/internal/config"
	"github.com/localnerve/recalldb/internal/database"
	"github.com/localnerve/recalldb/internal/services"
	"github.com/localnerve/recalldb/internal/utils"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("healthcheck", pflag.ExitOnError)
	config.RegisterFlags(fs)
	server := fs.Bool("server", false, "also check that the HTTP server accepts connections on --port")
	_ = fs.Parse(os.Args[1:])

	// Load configuration
	cfg, err := config.Load(fs)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Logger())

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Perform health check
	result := services.HealthCheck(ctx, cfg, db)

	if *server {
		if err := utils.PingServer(cfg.Port); err != nil {
			result.Status = "unhealthy"
			result.Details["server_error"] = err.Error()
			result.ErrorMessage = err.Error()
		}
	}

	// Output result as JSON
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		slog.Error("failed to marshal health check result", "error", err)
		os.Exit(1)
	}

	fmt.Println(string(output))

	// Exit with appropriate code
	if result.Status != "healthy" {
		os.Exit(1)
	}
}
