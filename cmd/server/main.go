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
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/go-co-op/gocron"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/recalldb/internal/config"
	"github.com/localnerve/recalldb/internal/handlers"
	"github.com/localnerve/recalldb/internal/middleware"
	"github.com/localnerve/recalldb/internal/services"
	"github.com/spf13/pflag"

	_ "github.com/localnerve/recalldb/docs/api" // Swagger docs
)

// @title RecallDB API
// @version 1.0.0
// @description Flashcard content store: load documents, sweep the store and query cards and notes
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/recalldb
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

func main() {
	fs := pflag.NewFlagSet("recalldb-server", pflag.ExitOnError)
	config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	// Load configuration
	cfg, err := config.Load(fs)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Logger())

	store, err := services.Open(cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Scheduled sweeps share the store mutex with loads
	scheduler := startTidy(store, cfg.TidyInterval)
	if scheduler != nil {
		defer scheduler.Stop()
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		// Documents can be large
		BodyLimit: 64 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("recalldb")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())

	storeHandler := &handlers.StoreHandler{Store: store, Config: cfg}
	storeHandler.Register(api)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		slog.Info("gracefully shutting down")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	slog.Info("starting server", "port", port)
	if err := app.Listen(":" + port); err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// startTidy runs a sweep every interval. It returns nil when interval is zero.
func startTidy(store *services.Store, interval time.Duration) *gocron.Scheduler {
	if interval <= 0 {
		return nil
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	_, err := s.Every(interval).WaitForSchedule().Do(func() {
		report, err := store.Tidy(context.Background())
		if err != nil {
			slog.Error("scheduled tidy failed", "error", err)
			return
		}
		slog.Info("scheduled tidy finished", "violations", len(report.Violations))
	})
	if err != nil {
		slog.Error("failed to schedule tidy", "error", err)
		os.Exit(1)
	}

	s.StartAsync()
	slog.Info("tidy scheduled", "interval", interval)
	return s
}
