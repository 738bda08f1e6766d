package services

import (
	"context"
	"errors"
	"strings"

	"github.com/localnerve/recalldb/internal/models"
	"github.com/localnerve/recalldb/internal/types"
	"gorm.io/gorm"
)

// MarkedTag is the tag flipped to flag a card for attention
const MarkedTag = "marked"

// Mnemonic returns the mnemonic text of the live card with id
func (s *Store) Mnemonic(ctx context.Context, id string) (string, error) {
	var card models.Card
	res := s.DB.WithContext(ctx).Select("mnemonic").Where("id = ?", id).Limit(1).Find(&card)
	if res.Error != nil {
		return "", types.StoreErr("read mnemonic", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", types.ErrNotFound
	}
	return card.Mnemonic, nil
}

// SetMnemonic replaces the mnemonic text of the live card with id. Empty text clears it.
func (s *Store) SetMnemonic(ctx context.Context, id, mnemonic string) error {
	res := s.DB.WithContext(ctx).Model(&models.Card{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"mnemonic":   mnemonic,
			"updated_at": s.now(),
		})
	if res.Error != nil {
		return types.StoreErr("set mnemonic", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}

// ToggleTag adds tag to the live card with id, or removes it when present.
// It returns whether the card carries the tag afterwards.
func (s *Store) ToggleTag(ctx context.Context, id, tag string) (bool, error) {
	if tag == "" || strings.ContainsAny(tag, " \t\r\n") {
		return false, &types.ValidationError{Problems: []string{"tag must be a single word"}}
	}

	var present bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var card models.Card
		res := tx.Select("uid", "tag").Where("id = ?", id).Limit(1).Find(&card)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrNotFound
		}

		tags := make([]string, 0, len(card.Tag)+1)
		for _, t := range card.Tag {
			if t != tag {
				tags = append(tags, t)
			}
		}
		present = !card.Tag.Has(tag)
		if present {
			tags = append(tags, tag)
		}

		return tx.Model(&models.Card{}).
			Where("uid = ?", card.UID).
			UpdateColumns(map[string]interface{}{
				"tag":        models.NewTagSet(tags...),
				"updated_at": s.now(),
			}).Error
	})
	if errors.Is(err, types.ErrNotFound) {
		return false, err
	}
	if err != nil {
		return false, types.StoreErr("toggle tag", err)
	}
	return present, nil
}
