package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/recalldb/internal/document"
	"github.com/localnerve/recalldb/internal/models"
	"github.com/localnerve/recalldb/internal/types"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// LoadOption adjusts one Load call
type LoadOption func(*loadOptions)

type loadOptions struct {
	compile bool
}

// CompileCards makes Load pair the templates a document touches with the notes
// of their model. A pair whose template condition holds gets a card when it has
// none; a pair whose condition fails has its live cards tombstoned.
//
// A template is touched when the document defines it, defines its model, or
// writes a note of its model.
func CompileCards() LoadOption {
	return func(o *loadOptions) {
		o.compile = true
	}
}

// cardPair is one template and note combination
type cardPair struct {
	templateID string
	noteID     string
}

// compileCards runs after the document's own cards are written, so a pair the
// document already carries a card for is left alone.
func (s *Store) compileCards(ctx context.Context, db *gorm.DB, doc *document.Document, stamp time.Time, result *LoadResult) error {
	templates, err := touchedTemplates(db, doc)
	if err != nil {
		return types.StoreErr("compile cards", err)
	}
	if len(templates) == 0 {
		return nil
	}

	notes := make(map[string]map[string]map[string]interface{})
	var keep, drop []cardPair
	for _, t := range templates {
		byNote, ok := notes[t.ModelID]
		if !ok {
			if byNote, err = modelNotes(db, t.ModelID); err != nil {
				return types.StoreErr("compile cards", err)
			}
			notes[t.ModelID] = byNote
		}

		noteIDs := make([]string, 0, len(byNote))
		for id := range byNote {
			noteIDs = append(noteIDs, id)
		}
		sort.Strings(noteIDs)

		for _, noteID := range noteIDs {
			ok, err := s.Engine.Eval(ctx, t.If, byNote[noteID])
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				re := &types.RenderError{NoteID: noteID, Key: "if", Err: fmt.Errorf("template %s: %w", t.ID, err)}
				slog.Warn("card not compiled", "note", noteID, "template", t.ID, "error", err)
				result.Failed = append(result.Failed, re)
				continue
			}
			pair := cardPair{templateID: t.ID, noteID: noteID}
			if ok {
				keep = append(keep, pair)
			} else {
				drop = append(drop, pair)
			}
		}
	}

	var created, dropped int64
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, p := range keep {
			var n int64
			if err := tx.Model(&models.Card{}).
				Where("template_id = ? AND note_id = ?", p.templateID, p.noteID).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			templateID, noteID := p.templateID, p.noteID
			if err := tx.Clauses(hints.CommentBefore("insert", "load:card:compile")).Create(&models.Card{
				UID:        uuid.NewString(),
				ID:         uuid.NewString(),
				CreatedAt:  stamp,
				UpdatedAt:  stamp,
				TemplateID: &templateID,
				NoteID:     &noteID,
			}).Error; err != nil {
				return fmt.Errorf("card %s/%s: %w", p.templateID, p.noteID, err)
			}
			created++
		}

		for _, p := range drop {
			res := tx.Model(&models.Card{}).
				Clauses(hints.CommentBefore("update", "load:card:uncompile")).
				Where("template_id = ? AND note_id = ?", p.templateID, p.noteID).
				UpdateColumns(map[string]interface{}{"deleted_at": stamp, "updated_at": stamp})
			if res.Error != nil {
				return res.Error
			}
			dropped += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return types.StoreErr("compile cards", err)
	}

	result.Compiled += int(created)
	result.Uncompiled += int(dropped)
	return nil
}

// touchedTemplates returns the live templates of live models that the document
// defines, or whose model it defines or writes notes for
func touchedTemplates(db *gorm.DB, doc *document.Document) ([]models.Template, error) {
	templateIDs := make([]string, 0, len(doc.Template))
	for _, t := range doc.Template {
		templateIDs = append(templateIDs, t.ID)
	}
	modelIDs := make([]string, 0, len(doc.Model)+len(doc.Note))
	for _, m := range doc.Model {
		modelIDs = append(modelIDs, m.ID)
	}
	for _, n := range doc.Note {
		if n.Model != "" {
			modelIDs = append(modelIDs, n.Model)
		}
	}
	if len(templateIDs) == 0 && len(modelIDs) == 0 {
		return nil, nil
	}

	q := db.Where("model_id IN (?)", db.Model(&models.Model{}).Select("id"))
	switch {
	case len(templateIDs) > 0 && len(modelIDs) > 0:
		q = q.Where(db.Where("id IN ?", templateIDs).Or("model_id IN ?", modelIDs))
	case len(templateIDs) > 0:
		q = q.Where("id IN ?", templateIDs)
	default:
		q = q.Where("model_id IN ?", modelIDs)
	}

	var templates []models.Template
	err := q.Order("id").Find(&templates).Error
	return templates, err
}

// modelNotes returns the live attribute data of every note of a model
func modelNotes(db *gorm.DB, modelID string) (map[string]map[string]interface{}, error) {
	var rows []models.NoteAttr
	if err := db.Where("model_id = ?", modelID).Order("note_id, seq").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]map[string]interface{})
	for _, r := range rows {
		if r.NoteID == "" {
			continue
		}
		data, ok := out[r.NoteID]
		if !ok {
			data = make(map[string]interface{})
			out[r.NoteID] = data
		}
		// malformed values are left for the sweeper
		if v, err := r.Value.Decode(); err == nil {
			data[r.Key] = v
		}
	}
	return out, nil
}
