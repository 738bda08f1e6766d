package services

import (
	"context"
	"sort"
	"time"

	"github.com/localnerve/recalldb/internal/models"
	"github.com/localnerve/recalldb/internal/types"
	"gorm.io/gorm"
)

// CardQuery selects live cards by search filter and id allowlist
type CardQuery struct {
	Filter string
	// IDs keeps cards whose own id, note, template or template's model is listed.
	IDs    []string
	Limit  int
	Offset int
}

// CardView is a live card with its resolved faces and its note's attributes
type CardView struct {
	ID         string `json:"id"`
	UID        string `json:"uid"`
	TemplateID string `json:"templateId,omitempty"`
	NoteID     string `json:"noteId,omitempty"`
	ModelID    string `json:"modelId,omitempty"`

	// Front, Back and Shared resolve card, then template, then model text.
	Front    string   `json:"front"`
	Back     string   `json:"back"`
	Shared   string   `json:"shared,omitempty"`
	Mnemonic string   `json:"mnemonic,omitempty"`
	Tag      []string `json:"tag,omitempty"`

	models.Schedule

	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// NoteQuery selects live notes by search filter and id allowlist
type NoteQuery struct {
	Filter string
	// IDs keeps notes whose id or model id is listed.
	IDs    []string
	Limit  int
	Offset int
}

// NoteView is a live note assembled from its attribute rows
type NoteView struct {
	ID        string                 `json:"id"`
	ModelID   string                 `json:"modelId"`
	Data      map[string]interface{} `json:"data"`
	Generated []string               `json:"generated,omitempty"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// QueryCards lists live cards matching the query, in creation order
func (s *Store) QueryCards(ctx context.Context, q CardQuery) ([]CardView, error) {
	terms, err := ParseSearch(q.Filter)
	if err != nil {
		return nil, err
	}
	where, args, err := compileSearch(terms, cardSearch, s.now())
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	tx := db.Model(&models.Card{}).
		Joins("LEFT JOIN template ON template.id = card.template_id AND template.deleted_at IS NULL").
		Joins("LEFT JOIN model ON model.id = template.model_id AND model.deleted_at IS NULL").
		Preload("Template.Model")
	if where != "" {
		tx = tx.Where("("+where+")", args...)
	}
	if len(q.IDs) > 0 {
		tx = tx.Where("card.id IN ? OR card.note_id IN ? OR card.template_id IN ? OR template.model_id IN ?",
			q.IDs, q.IDs, q.IDs, q.IDs)
	}
	tx = paginate(tx.Order("card.created_at, card.rowid"), q.Limit, q.Offset)

	var cards []models.Card
	if err := tx.Find(&cards).Error; err != nil {
		return nil, types.StoreErr("query cards", err)
	}

	noteIDs := make([]string, 0, len(cards))
	for _, c := range cards {
		if c.NoteID != nil {
			noteIDs = append(noteIDs, *c.NoteID)
		}
	}
	notes, err := loadNotes(db, noteIDs)
	if err != nil {
		return nil, types.StoreErr("query cards", err)
	}

	views := make([]CardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, cardView(c, notes))
	}
	return views, nil
}

func cardView(c models.Card, notes map[string]*NoteView) CardView {
	v := CardView{
		ID:         c.ID,
		UID:        c.UID,
		TemplateID: deref(c.TemplateID),
		NoteID:     deref(c.NoteID),
		Front:      c.Front,
		Back:       c.Back,
		Shared:     c.Shared,
		Mnemonic:   c.Mnemonic,
		Tag:        []string(c.Tag),
		Schedule:   c.Schedule,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}

	if n, ok := notes[v.NoteID]; ok {
		v.Data = n.Data
	}

	if t := c.Template; t != nil {
		v.ModelID = t.ModelID
		v.Front = firstNonEmpty(v.Front, t.Front)
		v.Back = firstNonEmpty(v.Back, t.Back)
		v.Shared = firstNonEmpty(v.Shared, t.Shared)
		if m := t.Model; m != nil {
			v.Front = firstNonEmpty(v.Front, m.Front)
			v.Back = firstNonEmpty(v.Back, m.Back)
			v.Shared = firstNonEmpty(v.Shared, m.Shared)
		}
	}
	return v
}

// QueryNotes lists live notes matching the query, ordered by id
func (s *Store) QueryNotes(ctx context.Context, q NoteQuery) ([]NoteView, error) {
	terms, err := ParseSearch(q.Filter)
	if err != nil {
		return nil, err
	}
	where, args, err := compileSearch(terms, noteSearch, s.now())
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	tx := db.Model(&models.NoteAttr{}).Distinct().
		Joins("LEFT JOIN model ON model.id = note_attr.model_id AND model.deleted_at IS NULL")
	if where != "" {
		tx = tx.Where("("+where+")", args...)
	}
	if len(q.IDs) > 0 {
		tx = tx.Where("note_attr.note_id IN ? OR note_attr.model_id IN ?", q.IDs, q.IDs)
	}
	tx = paginate(tx.Order("note_attr.note_id"), q.Limit, q.Offset)

	var ids []string
	if err := tx.Pluck("note_attr.note_id", &ids).Error; err != nil {
		return nil, types.StoreErr("query notes", err)
	}

	notes, err := loadNotes(db, ids)
	if err != nil {
		return nil, types.StoreErr("query notes", err)
	}

	views := make([]NoteView, 0, len(ids))
	for _, id := range ids {
		if n, ok := notes[id]; ok {
			views = append(views, *n)
		}
	}
	return views, nil
}

// loadNotes assembles live notes from their attribute rows. For a key with
// several live rows the earliest wins, and the latest row decides the model,
// matching what the sweeper keeps.
func loadNotes(db *gorm.DB, ids []string) (map[string]*NoteView, error) {
	out := make(map[string]*NoteView, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.NoteAttr
	if err := db.Where("note_id IN ?", ids).Order("seq").Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, r := range rows {
		n, ok := out[r.NoteID]
		if !ok {
			n = &NoteView{ID: r.NoteID, Data: make(map[string]interface{})}
			out[r.NoteID] = n
		}
		n.ModelID = r.ModelID
		if r.UpdatedAt.After(n.UpdatedAt) {
			n.UpdatedAt = r.UpdatedAt
		}
		if _, seen := n.Data[r.Key]; seen {
			continue
		}
		value, err := r.Value.Decode()
		if err != nil {
			// The sweeper removes malformed values; skip them until then
			continue
		}
		n.Data[r.Key] = value
		if r.Generated {
			n.Generated = append(n.Generated, r.Key)
		}
	}

	for _, n := range out {
		sort.Strings(n.Generated)
	}
	return out, nil
}

// CardHistory returns the retired generations of a card id, newest first.
// They stay readable until a sweep purges them.
func (s *Store) CardHistory(ctx context.Context, id string) ([]models.Card, error) {
	var rows []models.Card
	err := s.DB.WithContext(ctx).Unscoped().
		Where("id = ? AND retired = ?", id, true).
		Order("updated_at DESC, rowid DESC").
		Find(&rows).Error
	if err != nil {
		return nil, types.StoreErr("card history", err)
	}
	return rows, nil
}

func paginate(tx *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	return tx
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
