package services

import (
	"context"
	"errors"

	"github.com/localnerve/recalldb/internal/models"
	"github.com/localnerve/recalldb/internal/types"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// DeleteModel tombstones a live model and its live templates together.
// Notes and cards left dangling are handled by the next sweep.
func (s *Store) DeleteModel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Model{}).
			Clauses(hints.CommentBefore("update", "delete:model")).
			Where("id = ?", id).
			UpdateColumns(map[string]interface{}{"deleted_at": stamp, "updated_at": stamp})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrNotFound
		}

		return tx.Model(&models.Template{}).
			Clauses(hints.CommentBefore("update", "delete:model:templates")).
			Where("model_id = ?", id).
			UpdateColumns(map[string]interface{}{"deleted_at": stamp, "updated_at": stamp}).Error
	})
	if errors.Is(err, types.ErrNotFound) {
		return err
	}
	return types.StoreErr("delete model", err)
}
