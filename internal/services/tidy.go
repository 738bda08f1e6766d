package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/localnerve/recalldb/internal/models"
	"github.com/localnerve/recalldb/internal/types"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// TidyReport is the outcome of one sweep
type TidyReport struct {
	Start      time.Time                  `json:"start"`
	Marked     map[string]int64           `json:"marked"`
	Purged     map[string]int64           `json:"purged"`
	Violations []types.IntegrityViolation `json:"violations,omitempty"`
}

// markRule soft-deletes the live rows of one entity matching a condition
type markRule struct {
	entity string
	name   string
	model  interface{}
	where  string
}

const liveModels = "SELECT id FROM model WHERE deleted_at IS NULL"

// markRules run in order; invalid rows go before duplicates are ranked,
// so a valid row is never dropped in favour of an invalid one.
var markRules = []markRule{
	{
		entity: EntityTemplate,
		name:   "dangling-model",
		model:  &models.Template{},
		where:  "model_id IS NULL OR model_id NOT IN (" + liveModels + ")",
	},
	{
		entity: EntityTemplate,
		name:   "missing-front",
		model:  &models.Template{},
		where: `COALESCE(front, '') = '' AND model_id IN (
			SELECT id FROM model WHERE deleted_at IS NULL AND COALESCE(front, '') = '')`,
	},
	{
		entity: EntityTemplate,
		name:   "duplicate-name",
		model:  &models.Template{},
		where: `COALESCE(name, '') <> '' AND rowid NOT IN (
			SELECT MIN(rowid) FROM template
			WHERE deleted_at IS NULL AND COALESCE(name, '') <> ''
			GROUP BY model_id, name)`,
	},
	{
		entity: EntityNote,
		name:   "missing-key",
		model:  &models.NoteAttr{},
		where:  `COALESCE(note_id, '') = '' OR COALESCE("key", '') = ''`,
	},
	{
		entity: EntityNote,
		name:   "malformed-value",
		model:  &models.NoteAttr{},
		where:  `"value" IS NULL OR NOT json_valid("value")`,
	},
	{
		entity: EntityNote,
		name:   "dangling-model",
		model:  &models.NoteAttr{},
		where:  "model_id IS NULL OR model_id NOT IN (" + liveModels + ")",
	},
	{
		// The note's most recently written row decides its model
		entity: EntityNote,
		name:   "mixed-model",
		model:  &models.NoteAttr{},
		where: `model_id <> (
			SELECT latest.model_id FROM note_attr latest
			WHERE latest.note_id = note_attr.note_id AND latest.deleted_at IS NULL
			ORDER BY latest.seq DESC LIMIT 1)`,
	},
	{
		entity: EntityNote,
		name:   "duplicate-key",
		model:  &models.NoteAttr{},
		where: `seq NOT IN (
			SELECT MIN(seq) FROM note_attr
			WHERE deleted_at IS NULL
			GROUP BY note_id, "key")`,
	},
	{
		entity: EntityCard,
		name:   "half-paired",
		model:  &models.Card{},
		where:  "(NULLIF(template_id, '') IS NULL) <> (NULLIF(note_id, '') IS NULL)",
	},
	{
		entity: EntityCard,
		name:   "duplicate-pair",
		model:  &models.Card{},
		where: `NULLIF(template_id, '') IS NOT NULL AND NULLIF(note_id, '') IS NOT NULL AND rowid NOT IN (
			SELECT MIN(rowid) FROM card
			WHERE deleted_at IS NULL AND NULLIF(template_id, '') IS NOT NULL AND NULLIF(note_id, '') IS NOT NULL
			GROUP BY template_id, note_id)`,
	},
	{
		entity: EntityCard,
		name:   "empty-standalone",
		model:  &models.Card{},
		where: `NULLIF(template_id, '') IS NULL AND NULLIF(note_id, '') IS NULL
			AND TRIM(COALESCE(front, '')) = ''`,
	},
}

// purgeOrder lists every entity table the purge phase visits
var purgeOrder = []struct {
	entity string
	model  interface{}
}{
	{EntityModel, &models.Model{}},
	{EntityTemplate, &models.Template{}},
	{EntityNote, &models.NoteAttr{}},
	{EntityCard, &models.Card{}},
}

// Tidy runs the consistency sweep in one transaction.
//
// The mark phase tombstones live rows that break an invariant, stamping them
// with the sweep start. The purge phase then removes tombstones strictly older
// than the start, so rows marked now are only removed by a later sweep.
func (s *Store) Tidy(ctx context.Context) (*TidyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &TidyReport{
		Start:  s.now(),
		Marked: map[string]int64{EntityModel: 0, EntityTemplate: 0, EntityNote: 0, EntityCard: 0},
		Purged: map[string]int64{EntityModel: 0, EntityTemplate: 0, EntityNote: 0, EntityCard: 0},
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rule := range markRules {
			res := tx.Model(rule.model).
				Clauses(hints.CommentBefore("update", "tidy:"+rule.entity+":"+rule.name)).
				Where("("+rule.where+")").
				UpdateColumn("deleted_at", report.Start)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				report.Marked[rule.entity] += res.RowsAffected
				report.Violations = append(report.Violations, types.IntegrityViolation{
					Entity: rule.entity,
					Rule:   rule.name,
					Count:  res.RowsAffected,
				})
			}
		}

		for _, p := range purgeOrder {
			res := tx.Unscoped().
				Clauses(hints.CommentBefore("delete", "tidy:"+p.entity+":purge")).
				Where("deleted_at IS NOT NULL AND deleted_at < ?", report.Start).
				Delete(p.model)
			if res.Error != nil {
				return res.Error
			}
			report.Purged[p.entity] = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, types.StoreErr("tidy", err)
	}

	slog.Info("tidy finished",
		"marked_templates", report.Marked[EntityTemplate],
		"marked_notes", report.Marked[EntityNote],
		"marked_cards", report.Marked[EntityCard],
		"purged_models", report.Purged[EntityModel],
		"purged_templates", report.Purged[EntityTemplate],
		"purged_notes", report.Purged[EntityNote],
		"purged_cards", report.Purged[EntityCard])

	return report, nil
}
