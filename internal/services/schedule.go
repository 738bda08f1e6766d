package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/localnerve/recalldb/internal/models"
	"github.com/localnerve/recalldb/internal/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateSchedule reports every field of sched that breaks its constraints
func validateSchedule(sched models.Schedule) error {
	err := validate.Struct(sched)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &types.ValidationError{Problems: []string{err.Error()}}
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return &types.ValidationError{Problems: problems}
}

// SaveSchedule stores review state computed elsewhere on the live card with id.
// Every scheduling column is written, including zero values.
func (s *Store) SaveSchedule(ctx context.Context, id string, sched models.Schedule) error {
	if err := validateSchedule(sched); err != nil {
		return err
	}

	res := s.DB.WithContext(ctx).Model(&models.Card{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"srs_level":    sched.SRSLevel,
			"next_review":  utcPtr(sched.NextReview),
			"last_right":   utcPtr(sched.LastRight),
			"last_wrong":   utcPtr(sched.LastWrong),
			"max_right":    sched.MaxRight,
			"max_wrong":    sched.MaxWrong,
			"right_streak": sched.RightStreak,
			"wrong_streak": sched.WrongStreak,
			"updated_at":   s.now(),
		})
	if res.Error != nil {
		return types.StoreErr("save schedule", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.ErrNotFound
	}
	return nil
}
