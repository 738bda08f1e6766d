package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/recalldb/internal/document"
	"github.com/localnerve/recalldb/internal/models"
	"github.com/localnerve/recalldb/internal/render"
	"github.com/localnerve/recalldb/internal/types"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/hints"
)

// LoadResult reports what one Load call wrote
type LoadResult struct {
	Models     int `json:"models"`
	Templates  int `json:"templates"`
	Notes      int `json:"notes"`
	Attributes int `json:"attributes"`
	Cards      int `json:"cards"`
	// Retired counts card rows superseded by a card of the same id in a new context.
	Retired int `json:"retired"`
	// Compiled and Uncompiled count cards created and tombstoned by card compilation.
	Compiled   int `json:"compiled,omitempty"`
	Uncompiled int `json:"uncompiled,omitempty"`
	// Failed holds the notes whose generated attributes could not be rendered,
	// whose stored attributes were left untouched, and the notes whose card
	// condition could not be rendered.
	Failed []*types.RenderError `json:"failed,omitempty"`
}

// FailedNotes lists the ids of notes skipped for a render failure
func (r *LoadResult) FailedNotes() []string {
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.NoteID)
	}
	return ids
}

// Load reconciles a document into the store.
//
// Every write of the call shares one timestamp. Models, templates and cards are
// each written in one transaction per batch; each note's attributes are written
// in a transaction of their own, so a note that fails to render is skipped
// without affecting its siblings.
func (s *Store) Load(ctx context.Context, doc *document.Document, opts ...LoadOption) (*LoadResult, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	if doc == nil {
		doc = &document.Document{}
	}
	if err := document.Validate(doc); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now()
	db := s.DB.WithContext(ctx)
	result := &LoadResult{}

	slog.Info("load started",
		"models", len(doc.Model), "templates", len(doc.Template),
		"notes", len(doc.Note), "cards", len(doc.Card))

	if err := loadModels(db, doc.Model, stamp); err != nil {
		return nil, err
	}
	result.Models = len(doc.Model)

	if err := loadTemplates(db, doc.Template, stamp); err != nil {
		return nil, err
	}
	result.Templates = len(doc.Template)

	cache := newGeneratedCache(db, doc.Model)
	if err := s.loadNotes(ctx, db, doc.Note, cache, stamp, result); err != nil {
		return nil, err
	}

	if err := loadCards(db, doc.Card, stamp, result); err != nil {
		return nil, err
	}

	if o.compile {
		if err := s.compileCards(ctx, db, doc, stamp, result); err != nil {
			return nil, err
		}
	}

	slog.Info("load finished",
		"models", result.Models, "templates", result.Templates,
		"notes", result.Notes, "attributes", result.Attributes,
		"cards", result.Cards, "retired", result.Retired,
		"compiled", result.Compiled, "uncompiled", result.Uncompiled, "failed", len(result.Failed))

	return result, nil
}

func loadModels(db *gorm.DB, docs []document.Model, stamp time.Time) error {
	if len(docs) == 0 {
		return nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, m := range docs {
			row := models.Model{
				ID:        m.ID,
				CreatedAt: stamp,
				UpdatedAt: stamp,
				Name:      m.Name,
				Front:     m.Front,
				Back:      m.Back,
				Shared:    m.Shared,
				Generated: datatypes.JSONMap(m.Generated),
			}
			if err := tx.Clauses(hints.CommentBefore("insert", "load:model"), clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"updated_at", "deleted_at", "name", "front", "back", "shared", "generated"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("model %s: %w", m.ID, err)
			}
		}
		return nil
	})

	return types.StoreErr("load models", err)
}

func loadTemplates(db *gorm.DB, docs []document.Template, stamp time.Time) error {
	if len(docs) == 0 {
		return nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, t := range docs {
			row := models.Template{
				ID:        t.ID,
				CreatedAt: stamp,
				UpdatedAt: stamp,
				ModelID:   t.Model,
				Name:      optional(t.Name),
				Front:     t.Front,
				Back:      t.Back,
				Shared:    t.Shared,
				If:        t.If,
			}
			if err := tx.Clauses(hints.CommentBefore("insert", "load:template"), clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"updated_at", "deleted_at", "model_id", "name", "front", "back", "shared", "if_expr"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("template %s: %w", t.ID, err)
			}
		}
		return nil
	})

	return types.StoreErr("load templates", err)
}

// generatedCache maps model id to its generated template map for one Load call.
// Models of the document seed it; misses read through to the store.
type generatedCache struct {
	db   *gorm.DB
	maps map[string]map[string]interface{}
}

func newGeneratedCache(db *gorm.DB, docs []document.Model) *generatedCache {
	c := &generatedCache{db: db, maps: make(map[string]map[string]interface{}, len(docs))}
	for _, m := range docs {
		c.maps[m.ID] = m.Generated
	}
	return c
}

// get returns nil, without error, for a model that is absent or generates nothing
func (c *generatedCache) get(modelID string) (map[string]interface{}, error) {
	if m, ok := c.maps[modelID]; ok {
		return m, nil
	}

	var row models.Model
	if err := c.db.Select("id", "generated").Where("id = ?", modelID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	c.maps[modelID] = row.Generated
	return row.Generated, nil
}

// noteWork carries one note through rendering to its attribute rows
type noteWork struct {
	note      document.Note
	templates map[string]interface{}
	rows      []models.NoteAttr
	err       error
}

func (s *Store) loadNotes(ctx context.Context, db *gorm.DB, notes []document.Note, cache *generatedCache, stamp time.Time, result *LoadResult) error {
	if len(notes) == 0 {
		return nil
	}

	work := make([]noteWork, len(notes))
	for i, n := range notes {
		tmpl, err := cache.get(n.Model)
		if err != nil {
			return types.StoreErr("load notes", err)
		}
		work[i] = noteWork{note: n, templates: tmpl}
	}

	var g errgroup.Group
	g.SetLimit(s.Concurrency)
	for i := range work {
		w := &work[i]
		g.Go(func() error {
			w.rows, w.err = s.expandNote(ctx, w.note, w.templates, stamp)
			return nil
		})
	}
	_ = g.Wait()

	// Renders fail when the caller gives up, which is not a per-note failure
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, w := range work {
		if w.err != nil {
			var re *types.RenderError
			if !errors.As(w.err, &re) {
				re = &types.RenderError{NoteID: w.note.ID, Err: w.err}
			}
			slog.Warn("note skipped", "note", re.NoteID, "key", re.Key, "error", re.Err)
			result.Failed = append(result.Failed, re)
			continue
		}

		if err := writeNote(db, w.note, w.rows, stamp); err != nil {
			return types.StoreErr("load note "+w.note.ID, err)
		}
		result.Notes++
		result.Attributes += len(w.rows)
	}

	return nil
}

// expandNote renders a note's generated attributes and builds its attribute rows
func (s *Store) expandNote(ctx context.Context, note document.Note, templates map[string]interface{}, stamp time.Time) ([]models.NoteAttr, error) {
	attrs := note.Data
	if len(templates) > 0 {
		exp, err := s.Engine.Expand(ctx, templates, note.Data)
		if err != nil {
			re := &types.RenderError{NoteID: note.ID, Err: err}
			var ke *render.KeyError
			if errors.As(err, &ke) {
				re.Key, re.Err = ke.Key, ke.Err
			}
			return nil, re
		}
		attrs = exp.Merged
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]models.NoteAttr, 0, len(keys))
	for _, key := range keys {
		value := attrs[key]
		if isEmptyValue(value) {
			continue
		}
		encoded, err := models.NewJSON(value)
		if err != nil {
			return nil, &types.RenderError{NoteID: note.ID, Key: key, Err: err}
		}
		_, literal := note.Data[key]
		rows = append(rows, models.NoteAttr{
			NoteID:    note.ID,
			ModelID:   note.Model,
			Key:       key,
			Value:     encoded,
			Generated: !literal,
			CreatedAt: stamp,
			UpdatedAt: stamp,
		})
	}
	return rows, nil
}

// isEmptyValue reports values that never become attribute rows
func isEmptyValue(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// writeNote supersedes the live row of every key it writes, then removes
// exactly the rows it superseded.
func writeNote(db *gorm.DB, note document.Note, rows []models.NoteAttr, stamp time.Time) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Model(&models.NoteAttr{}).
				Clauses(hints.CommentBefore("update", "load:note:supersede")).
				Where(`note_id = ? AND model_id = ? AND "key" = ?`, note.ID, note.Model, rows[i].Key).
				UpdateColumn("deleted_at", stamp).Error; err != nil {
				return err
			}
			if err := tx.Create(&rows[i]).Error; err != nil {
				return err
			}
		}

		return tx.Unscoped().
			Clauses(hints.CommentBefore("delete", "load:note:retire")).
			Where("note_id = ? AND deleted_at = ?", note.ID, stamp).
			Delete(&models.NoteAttr{}).Error
	})
}

func loadCards(db *gorm.DB, docs []document.Card, stamp time.Time, result *LoadResult) error {
	if len(docs) == 0 {
		return nil
	}

	var written, retired int
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, c := range docs {
			n, err := upsertCard(tx, c, stamp)
			if err != nil {
				return fmt.Errorf("card %s: %w", c.ID, err)
			}
			written++
			retired += n
		}
		return nil
	})
	if err != nil {
		return types.StoreErr("load cards", err)
	}

	result.Cards += written
	result.Retired += retired
	return nil
}

// upsertCard writes one document card and returns how many rows it retired.
//
// A live row with the same id and the same context (template and note, plus the
// front text of an unpaired card) is updated in place and keeps its review state.
// Any other live row with the id is retired: tombstoned with its schedule intact
// and pointed to by the new row's SupersedesUID.
func upsertCard(tx *gorm.DB, c document.Card, stamp time.Time) (int, error) {
	incoming := cardFromDocument(c, stamp)

	var live []models.Card
	if err := tx.Where("id = ?", c.ID).Order("created_at, rowid").Find(&live).Error; err != nil {
		return 0, err
	}

	retired := 0
	var kept *models.Card
	for i := range live {
		if kept == nil && sameContext(&live[i], incoming) {
			kept = &live[i]
			continue
		}
		if err := tx.Model(&models.Card{}).
			Clauses(hints.CommentBefore("update", "load:card:retire")).
			Where("uid = ?", live[i].UID).
			UpdateColumns(map[string]interface{}{
				"deleted_at": stamp,
				"retired":    true,
				"updated_at": stamp,
			}).Error; err != nil {
			return 0, err
		}
		uid := live[i].UID
		incoming.SupersedesUID = &uid
		retired++
	}

	if kept != nil {
		updates := map[string]interface{}{
			"template_id": incoming.TemplateID,
			"note_id":     incoming.NoteID,
			"front":       incoming.Front,
			"back":        incoming.Back,
			"shared":      incoming.Shared,
			"mnemonic":    incoming.Mnemonic,
			"tag":         incoming.Tag,
			"updated_at":  stamp,
		}
		for k, v := range scheduleUpdates(c) {
			updates[k] = v
		}
		return retired, tx.Model(&models.Card{}).Where("uid = ?", kept.UID).UpdateColumns(updates).Error
	}

	return retired, tx.Create(incoming).Error
}

func sameContext(a, b *models.Card) bool {
	if deref(a.TemplateID) != deref(b.TemplateID) || deref(a.NoteID) != deref(b.NoteID) {
		return false
	}
	return a.Paired() || a.Front == b.Front
}

func cardFromDocument(c document.Card, stamp time.Time) *models.Card {
	card := &models.Card{
		UID:        uuid.NewString(),
		ID:         c.ID,
		CreatedAt:  stamp,
		UpdatedAt:  stamp,
		TemplateID: optional(c.Template),
		NoteID:     optional(c.Note),
		Front:      c.Front,
		Back:       c.Back,
		Shared:     c.Shared,
		Mnemonic:   c.Mnemonic,
		Tag:        models.NewTagSet(c.Tag.Slice()...),
	}

	sched := &card.Schedule
	if c.SRSLevel != nil {
		sched.SRSLevel = *c.SRSLevel
	}
	sched.NextReview = utcPtr(c.NextReview)
	sched.LastRight = utcPtr(c.LastRight)
	sched.LastWrong = utcPtr(c.LastWrong)
	if c.MaxRight != nil {
		sched.MaxRight = *c.MaxRight
	}
	if c.MaxWrong != nil {
		sched.MaxWrong = *c.MaxWrong
	}
	if c.RightStreak != nil {
		sched.RightStreak = *c.RightStreak
	}
	if c.WrongStreak != nil {
		sched.WrongStreak = *c.WrongStreak
	}
	return card
}

// scheduleUpdates holds the scheduling columns a document card sets explicitly
func scheduleUpdates(c document.Card) map[string]interface{} {
	u := make(map[string]interface{})
	if c.SRSLevel != nil {
		u["srs_level"] = *c.SRSLevel
	}
	if c.NextReview != nil {
		u["next_review"] = c.NextReview.UTC()
	}
	if c.LastRight != nil {
		u["last_right"] = c.LastRight.UTC()
	}
	if c.LastWrong != nil {
		u["last_wrong"] = c.LastWrong.UTC()
	}
	if c.MaxRight != nil {
		u["max_right"] = *c.MaxRight
	}
	if c.MaxWrong != nil {
		u["max_wrong"] = *c.MaxWrong
	}
	if c.RightStreak != nil {
		u["right_streak"] = *c.RightStreak
	}
	if c.WrongStreak != nil {
		u["wrong_streak"] = *c.WrongStreak
	}
	return u
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
