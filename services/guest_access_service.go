package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/google/uuid"
)

// GuestPolicy bounds what an unauthenticated visitor may open.
type GuestPolicy struct {
	MaxPlays       int
	Instruments    []string
	MaxDurationMin int
	MaxDifficulty  int
}

func DefaultGuestPolicy() GuestPolicy {
	return GuestPolicy{
		MaxPlays:       2,
		Instruments:    []string{"piano", "guitar"},
		MaxDurationMin: 60,
		MaxDifficulty:  2,
	}
}

type AccessGrant struct {
	Guest          *models.GuestSession `json:"guest"`
	Lesson         *models.Lesson       `json:"lesson"`
	PlaysUsed      int64                `json:"plays_used"`
	PlaysRemaining int64                `json:"plays_remaining"`
}

type GuestProfile struct {
	Guest          *models.GuestSession  `json:"guest"`
	PlaysUsed      int64                 `json:"plays_used"`
	PlaysRemaining int64                 `json:"plays_remaining"`
	Progress       []models.GameProgress `json:"progress"`
}

type SaveProgressInput struct {
	GameID       string
	Score        int
	ProgressData json.RawMessage
	Completed    bool
}

type GuestAccessService struct {
	store  GuestStore
	policy GuestPolicy
	now    func() time.Time
}

func NewGuestAccessService(store GuestStore, policy GuestPolicy) *GuestAccessService {
	instruments := make([]string, 0, len(policy.Instruments))
	for _, inst := range policy.Instruments {
		if inst = strings.ToLower(strings.TrimSpace(inst)); inst != "" {
			instruments = append(instruments, inst)
		}
	}
	policy.Instruments = instruments
	return &GuestAccessService{store: store, policy: policy, now: time.Now}
}

func (s *GuestAccessService) Policy() GuestPolicy {
	return s.policy
}

// Access evaluates the guest checks in order and records the play. The
// count and the log insert share a transaction that holds the guest row
// lock, so concurrent requests for one guest never exceed MaxPlays.
func (s *GuestAccessService) Access(ctx context.Context, guestID string, lessonID uuid.UUID) (grant *AccessGrant, err error) {
	defer func() {
		decision := "allowed"
		if err != nil {
			decision = "denied"
			var appErr *AppError
			if errors.As(err, &appErr) {
				decision = appErr.Reason
			}
		}
		guestAccessTotal.WithLabelValues(decision).Inc()
	}()

	if strings.TrimSpace(guestID) == "" {
		return nil, NotFoundError("guest", "Guest session not found")
	}

	err = s.store.InGuestTx(ctx, func(tx GuestStore) error {
		guest, err := tx.LockGuest(ctx, guestID)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return NotFoundError("guest", "Guest session not found")
			}
			return StoreError("find guest", err)
		}

		lesson, err := tx.FindLessonByID(ctx, lessonID)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return NotFoundError("lesson", "Lesson not found")
			}
			return StoreError("find lesson", err)
		}

		if err := s.checkLesson(lesson); err != nil {
			return err
		}

		used, err := tx.CountGuestAccesses(ctx, guestID)
		if err != nil {
			return StoreError("count guest accesses", err)
		}
		if used >= int64(s.policy.MaxPlays) {
			return ForbiddenError("limit-reached", "Guest play limit reached. Sign up to keep learning.")
		}

		if err := tx.InsertGuestAccessLog(ctx, guestID, lesson.ID); err != nil {
			return StoreError("record guest access", err)
		}
		if err := tx.IncrementGuestPlayCount(ctx, guestID); err != nil {
			return StoreError("update guest play count", err)
		}

		used++
		guest.PlayCount = int(used)
		grant = &AccessGrant{
			Guest:          guest,
			Lesson:         lesson,
			PlaysUsed:      used,
			PlaysRemaining: int64(s.policy.MaxPlays) - used,
		}
		return nil
	})
	if err != nil {
		return nil, asAppError("guest access", err)
	}
	return grant, nil
}

func (s *GuestAccessService) checkLesson(lesson *models.Lesson) error {
	if lesson.Instrument != "" && !slices.Contains(s.policy.Instruments, strings.ToLower(lesson.Instrument)) {
		return ForbiddenError("unavailable-instrument", "This instrument is not available to guests")
	}
	if lesson.Duration > s.policy.MaxDurationMin {
		return ForbiddenError("too-advanced", "This lesson is too long for a guest session")
	}
	if lesson.AvailableSlots != nil && *lesson.AvailableSlots <= 0 {
		return ForbiddenError("no-availability", "No slots are available for this lesson")
	}
	if lesson.PremiumOnly {
		return ForbiddenError("premium-only", "This lesson is for premium members only")
	}
	if lesson.DifficultyLevel > s.policy.MaxDifficulty {
		return ForbiddenError("level-locked", "Sign up to unlock higher difficulty lessons")
	}
	return nil
}

// Track creates the guest session on first contact and refreshes its last
// activity afterwards.
func (s *GuestAccessService) Track(ctx context.Context, guestID, ip, userAgent string) error {
	if strings.TrimSpace(guestID) == "" {
		return ValidationError("guest_id", "guest_id is required")
	}
	now := s.now()
	err := s.store.TouchGuest(ctx, &models.GuestSession{
		GuestID:      guestID,
		IPAddress:    ip,
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastActivity: now,
	})
	if err != nil {
		return StoreError("track guest", err)
	}
	return nil
}

func (s *GuestAccessService) Profile(ctx context.Context, guestID string) (*GuestProfile, error) {
	guest, err := s.store.FindGuestByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, NotFoundError("guest", "Guest session not found")
		}
		return nil, StoreError("find guest", err)
	}
	used, err := s.store.CountGuestAccesses(ctx, guestID)
	if err != nil {
		return nil, StoreError("count guest accesses", err)
	}
	progress, err := s.store.ListGameProgress(ctx, guestID)
	if err != nil {
		return nil, StoreError("list game progress", err)
	}
	remaining := int64(s.policy.MaxPlays) - used
	if remaining < 0 {
		remaining = 0
	}
	return &GuestProfile{Guest: guest, PlaysUsed: used, PlaysRemaining: remaining, Progress: progress}, nil
}

// SaveProgress upserts the guest's result for a game, keeping the best score.
func (s *GuestAccessService) SaveProgress(ctx context.Context, guestID string, in SaveProgressInput) (*models.GameProgress, error) {
	in.GameID = strings.TrimSpace(in.GameID)
	if in.GameID == "" {
		return nil, ValidationError("game_id", "game_id is required")
	}
	if in.Score < 0 {
		return nil, ValidationError("score", "score must not be negative")
	}
	if _, err := s.store.FindGuestByID(ctx, guestID); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, NotFoundError("guest", "Guest session not found")
		}
		return nil, StoreError("find guest", err)
	}

	data := "{}"
	if len(in.ProgressData) > 0 {
		if !json.Valid(in.ProgressData) {
			return nil, ValidationError("progress_data", "progress_data must be valid JSON")
		}
		data = string(in.ProgressData)
	}

	p := &models.GameProgress{
		GuestID:      guestID,
		GameID:       in.GameID,
		Score:        in.Score,
		ProgressData: data,
		Completed:    in.Completed,
		PlayedAt:     s.now(),
	}
	if err := s.store.SaveGameProgress(ctx, p); err != nil {
		return nil, StoreError("save game progress", err)
	}
	slog.DebugContext(ctx, "guest progress saved", "guest_id", guestID, "game_id", in.GameID, "score", in.Score)
	return p, nil
}

func (s *GuestAccessService) History(ctx context.Context, guestID string) ([]models.GameProgress, error) {
	progress, err := s.store.ListGameProgress(ctx, guestID)
	if err != nil {
		return nil, StoreError("list game progress", err)
	}
	return progress, nil
}
