package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const xpForLessonCompletion = 10

// RewardService grants XP for completed lessons and unlocks every badge whose
// points threshold the student has reached.
type RewardService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewRewardService(db *gorm.DB, notifier Notifier) *RewardService {
	return &RewardService{db: db, notifier: notifier}
}

func (s *RewardService) AwardForCompletion(ctx context.Context, studentID uuid.UUID) error {
	var unlocked []models.Badge
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.User
		if err := tx.Preload("Badges").First(&student, "id = ?", studentID).Error; err != nil {
			return err
		}

		student.XP += xpForLessonCompletion
		if err := tx.Model(&student).Update("xp", student.XP).Error; err != nil {
			return err
		}

		owned := make([]uuid.UUID, 0, len(student.Badges))
		for _, b := range student.Badges {
			owned = append(owned, b.ID)
		}

		query := tx.Where("points_required <= ?", student.XP)
		if len(owned) > 0 {
			query = query.Where("id NOT IN ?", owned)
		}
		if err := query.Order("points_required").Find(&unlocked).Error; err != nil {
			return err
		}
		if len(unlocked) == 0 {
			return nil
		}

		badges := make([]*models.Badge, len(unlocked))
		for i := range unlocked {
			badges[i] = &unlocked[i]
		}
		return tx.Model(&student).Association("Badges").Append(badges)
	})
	if err != nil {
		return fmt.Errorf("award rewards to student %s: %w", studentID, err)
	}

	slog.InfoContext(ctx, "awarded completion rewards", "student_id", studentID, "xp", xpForLessonCompletion, "badges", len(unlocked))
	if s.notifier != nil {
		for _, b := range unlocked {
			s.notifier.Notify(ctx, studentID, models.NotificationBadge, fmt.Sprintf("You earned the %s badge!", b.Name))
		}
	}
	return nil
}
