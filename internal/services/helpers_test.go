package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/localnerve/recalldb/internal/config"
	"github.com/localnerve/recalldb/internal/database"
	"github.com/localnerve/recalldb/internal/document"
	"github.com/localnerve/recalldb/internal/models"
	"github.com/localnerve/recalldb/internal/render"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testClock is a manually advanced clock
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time {
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBDriver:          "sqlite",
		DBPath:            filepath.Join(t.TempDir(), "recalldb.db"),
		DBConnectionLimit: 1,
		LogLevel:          "info",
		LogFormat:         "text",
		Port:              "3000",
		RenderConcurrency: 4,
		ReposDir:          t.TempDir(),
	}
}

// setupTestStore opens a fresh store on a temporary database file
func setupTestStore(t *testing.T, r render.Renderer) (*Store, *testClock) {
	t.Helper()

	db, err := database.Connect(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	clock := &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(db, render.NewEngine(r, time.Second), 4)
	store.Now = clock.Now
	return store, clock
}

func mustDecode(t *testing.T, src string) *document.Document {
	t.Helper()
	doc, err := document.Decode([]byte(src), false)
	require.NoError(t, err)
	return doc
}

func mustLoad(t *testing.T, s *Store, src string) *LoadResult {
	t.Helper()
	res, err := s.Load(context.Background(), mustDecode(t, src))
	require.NoError(t, err)
	return res
}

// liveAttrs returns the live attribute rows of a note keyed by attribute key
func liveAttrs(t *testing.T, db *gorm.DB, noteID string) map[string]models.NoteAttr {
	t.Helper()
	var rows []models.NoteAttr
	require.NoError(t, db.Where("note_id = ?", noteID).Find(&rows).Error)
	out := make(map[string]models.NoteAttr, len(rows))
	for _, r := range rows {
		out[r.Key] = r
	}
	return out
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, unscoped bool) int64 {
	t.Helper()
	var n int64
	q := db
	if unscoped {
		q = q.Unscoped()
	}
	require.NoError(t, q.Model(model).Count(&n).Error)
	return n
}

func decoded(t *testing.T, a models.NoteAttr) interface{} {
	t.Helper()
	v, err := a.Value.Decode()
	require.NoError(t, err)
	return v
}
