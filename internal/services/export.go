package services

import (
	"context"
	"sort"

	"github.com/localnerve/recalldb/internal/document"
	"github.com/localnerve/recalldb/internal/models"
	"github.com/localnerve/recalldb/internal/types"
)

// Export renders the live store back into a document. Notes carry only their
// literal attributes, generated ones are derived again on load.
func (s *Store) Export(ctx context.Context) (*document.Document, error) {
	db := s.DB.WithContext(ctx)
	doc := &document.Document{}

	var ms []models.Model
	if err := db.Order("id").Find(&ms).Error; err != nil {
		return nil, types.StoreErr("export models", err)
	}
	for _, m := range ms {
		doc.Model = append(doc.Model, document.Model{
			ID:        m.ID,
			Name:      m.Name,
			Front:     m.Front,
			Back:      m.Back,
			Shared:    m.Shared,
			Generated: map[string]interface{}(m.Generated),
		})
	}

	var ts []models.Template
	if err := db.Order("id").Find(&ts).Error; err != nil {
		return nil, types.StoreErr("export templates", err)
	}
	for _, t := range ts {
		doc.Template = append(doc.Template, document.Template{
			ID:     t.ID,
			Model:  t.ModelID,
			Name:   deref(t.Name),
			Front:  t.Front,
			Back:   t.Back,
			Shared: t.Shared,
			If:     t.If,
		})
	}

	var attrs []models.NoteAttr
	if err := db.Where(`"generated" = ?`, false).Order("note_id, seq").Find(&attrs).Error; err != nil {
		return nil, types.StoreErr("export notes", err)
	}
	byNote := make(map[string]*document.Note)
	var order []string
	for _, a := range attrs {
		n, ok := byNote[a.NoteID]
		if !ok {
			n = &document.Note{ID: a.NoteID, Data: make(map[string]interface{})}
			byNote[a.NoteID] = n
			order = append(order, a.NoteID)
		}
		n.Model = a.ModelID
		if _, seen := n.Data[a.Key]; seen {
			continue
		}
		if v, err := a.Value.Decode(); err == nil {
			n.Data[a.Key] = v
		}
	}
	sort.Strings(order)
	for _, id := range order {
		doc.Note = append(doc.Note, *byNote[id])
	}

	var cards []models.Card
	if err := db.Order("id, created_at").Find(&cards).Error; err != nil {
		return nil, types.StoreErr("export cards", err)
	}
	for _, c := range cards {
		doc.Card = append(doc.Card, cardDocument(c))
	}

	return doc, nil
}

// cardDocument writes out every scheduling field that differs from a new card
func cardDocument(c models.Card) document.Card {
	out := document.Card{
		ID:       c.ID,
		Template: deref(c.TemplateID),
		Note:     deref(c.NoteID),
		Front:    c.Front,
		Back:     c.Back,
		Shared:   c.Shared,
		Mnemonic: c.Mnemonic,
		Tag:      []string(c.Tag),
	}

	nonZero := func(n int) *int {
		if n == 0 {
			return nil
		}
		return &n
	}
	out.SRSLevel = nonZero(c.SRSLevel)
	out.NextReview = c.NextReview
	out.LastRight = c.LastRight
	out.LastWrong = c.LastWrong
	out.MaxRight = nonZero(c.MaxRight)
	out.MaxWrong = nonZero(c.MaxWrong)
	out.RightStreak = nonZero(c.RightStreak)
	out.WrongStreak = nonZero(c.WrongStreak)
	return out
}
