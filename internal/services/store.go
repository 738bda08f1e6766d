// Package services holds the content store operations: ingest, sweep and query.
package services

import (
	"sync"
	"time"

	"github.com/localnerve/recalldb/internal/config"
	"github.com/localnerve/recalldb/internal/database"
	"github.com/localnerve/recalldb/internal/render"
	"gorm.io/gorm"
)

// Entity names used in reports
const (
	EntityModel    = "model"
	EntityTemplate = "template"
	EntityNote     = "note"
	EntityCard     = "card"
)

// Store is the single writer over one database handle.
// Load, Tidy and DeleteModel are serialized against each other.
type Store struct {
	DB     *gorm.DB
	Engine *render.Engine
	// Concurrency bounds how many notes render at once during Load.
	Concurrency int
	// Now is the clock every write timestamp comes from.
	Now func() time.Time

	mu sync.Mutex
}

// NewStore returns a store over db. A nil engine renders with mustache.
func NewStore(db *gorm.DB, engine *render.Engine, concurrency int) *Store {
	if engine == nil {
		engine = render.NewEngine(nil, 0)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Store{
		DB:          db,
		Engine:      engine,
		Concurrency: concurrency,
		Now:         time.Now,
	}
}

// Open connects to the configured database and returns a store rendering with mustache
func Open(cfg *config.Config) (*Store, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(db, render.NewEngine(nil, cfg.RenderTimeout), cfg.RenderConcurrency), nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return database.Close(s.DB)
}

// now reads the clock once, in UTC with microsecond precision
func (s *Store) now() time.Time {
	return s.Now().UTC().Truncate(time.Microsecond)
}
