package services

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type GuestAccessSuite struct {
	suite.Suite
	store   *memStore
	svc     *GuestAccessService
	guestID string
	ctx     context.Context
}

func TestGuestAccessSuite(t *testing.T) {
	suite.Run(t, new(GuestAccessSuite))
}

func (s *GuestAccessSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = newMemStore()
	s.svc = NewGuestAccessService(s.store, DefaultGuestPolicy())
	s.guestID = "guest_lx3k9a_0123456789abcdef"
	s.Require().NoError(s.svc.Track(s.ctx, s.guestID, "127.0.0.1", "test-agent"))
}

func (s *GuestAccessSuite) addLesson(mutate func(l *models.Lesson)) *models.Lesson {
	slots := 5
	l := &models.Lesson{
		ID:              uuid.New(),
		Title:           "Piano basics",
		Instrument:      "Piano",
		Duration:        30,
		AvailableSlots:  &slots,
		DifficultyLevel: 1,
	}
	if mutate != nil {
		mutate(l)
	}
	s.store.lessons[l.ID] = l
	return l
}

func (s *GuestAccessSuite) TestGrantsUntilLimit() {
	lesson := s.addLesson(nil)

	grant, err := s.svc.Access(s.ctx, s.guestID, lesson.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), grant.PlaysUsed)
	s.Equal(int64(1), grant.PlaysRemaining)

	grant, err = s.svc.Access(s.ctx, s.guestID, lesson.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), grant.PlaysRemaining)

	_, err = s.svc.Access(s.ctx, s.guestID, lesson.ID)
	requireKind(s.T(), err, KindForbidden, "limit-reached")
	s.Equal(2, s.store.logCount(s.guestID))
	s.Equal(2, s.store.guests[s.guestID].PlayCount)
}

func (s *GuestAccessSuite) TestThirdAccessDeniedWithoutNewLog() {
	lesson := s.addLesson(nil)
	s.Require().NoError(s.store.InsertGuestAccessLog(s.ctx, s.guestID, uuid.New()))
	s.Require().NoError(s.store.InsertGuestAccessLog(s.ctx, s.guestID, uuid.New()))

	_, err := s.svc.Access(s.ctx, s.guestID, lesson.ID)
	requireKind(s.T(), err, KindForbidden, "limit-reached")
	s.Equal(2, s.store.logCount(s.guestID))
}

func (s *GuestAccessSuite) TestCheckOrder() {
	cases := []struct {
		name   string
		mutate func(l *models.Lesson)
		reason string
	}{
		{"instrument before duration", func(l *models.Lesson) { l.Instrument = "drums"; l.Duration = 90 }, "unavailable-instrument"},
		{"duration before availability", func(l *models.Lesson) { l.Duration = 61; zero := 0; l.AvailableSlots = &zero }, "too-advanced"},
		{"availability before premium", func(l *models.Lesson) { zero := 0; l.AvailableSlots = &zero; l.PremiumOnly = true }, "no-availability"},
		{"premium before difficulty", func(l *models.Lesson) { l.PremiumOnly = true; l.DifficultyLevel = 5 }, "premium-only"},
		{"difficulty", func(l *models.Lesson) { l.DifficultyLevel = 3 }, "level-locked"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			lesson := s.addLesson(tc.mutate)
			_, err := s.svc.Access(s.ctx, s.guestID, lesson.ID)
			requireKind(s.T(), err, KindForbidden, tc.reason)
		})
	}
	s.Equal(0, s.store.logCount(s.guestID))
}

func (s *GuestAccessSuite) TestPremiumAlwaysDenied() {
	for _, mutate := range []func(l *models.Lesson){
		func(l *models.Lesson) { l.PremiumOnly = true },
		func(l *models.Lesson) { l.PremiumOnly = true; l.Instrument = "guitar"; l.Duration = 5 },
		func(l *models.Lesson) { l.PremiumOnly = true; l.Instrument = ""; l.AvailableSlots = nil },
	} {
		lesson := s.addLesson(mutate)
		_, err := s.svc.Access(s.ctx, s.guestID, lesson.ID)
		requireKind(s.T(), err, KindForbidden, "premium-only")
	}
}

func (s *GuestAccessSuite) TestUnknownGuestAndLesson() {
	lesson := s.addLesson(nil)

	_, err := s.svc.Access(s.ctx, "guest_missing", lesson.ID)
	requireKind(s.T(), err, KindNotFound, "guest")

	_, err = s.svc.Access(s.ctx, "guest_missing", uuid.New())
	requireKind(s.T(), err, KindNotFound, "guest")

	_, err = s.svc.Access(s.ctx, s.guestID, uuid.New())
	requireKind(s.T(), err, KindNotFound, "lesson")
}

func (s *GuestAccessSuite) TestInstrumentOptional() {
	lesson := s.addLesson(func(l *models.Lesson) { l.Instrument = "" })
	_, err := s.svc.Access(s.ctx, s.guestID, lesson.ID)
	s.NoError(err)
}

func (s *GuestAccessSuite) TestConcurrentAccessNeverExceedsQuota() {
	lesson := s.addLesson(nil)

	var (
		wg      sync.WaitGroup
		granted atomic.Int32
		limited atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Access(s.ctx, s.guestID, lesson.ID)
			switch {
			case err == nil:
				granted.Add(1)
			case IsReason(err, "limit-reached"):
				limited.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(2), granted.Load())
	s.Equal(int32(18), limited.Load())
	s.Equal(2, s.store.logCount(s.guestID))
}

func (s *GuestAccessSuite) TestProfileAndProgress() {
	lesson := s.addLesson(nil)
	_, err := s.svc.Access(s.ctx, s.guestID, lesson.ID)
	s.Require().NoError(err)

	_, err = s.svc.SaveProgress(s.ctx, s.guestID, SaveProgressInput{GameID: "rhythm", Score: 80, ProgressData: json.RawMessage(`{"level":2}`), Completed: true})
	s.Require().NoError(err)
	saved, err := s.svc.SaveProgress(s.ctx, s.guestID, SaveProgressInput{GameID: "rhythm", Score: 40})
	s.Require().NoError(err)
	s.Equal(80, saved.Score)
	s.True(saved.Completed)

	profile, err := s.svc.Profile(s.ctx, s.guestID)
	s.Require().NoError(err)
	s.Equal(int64(1), profile.PlaysUsed)
	s.Equal(int64(1), profile.PlaysRemaining)
	s.Len(profile.Progress, 1)

	history, err := s.svc.History(s.ctx, s.guestID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *GuestAccessSuite) TestSaveProgressValidation() {
	_, err := s.svc.SaveProgress(s.ctx, s.guestID, SaveProgressInput{GameID: " "})
	requireKind(s.T(), err, KindValidation, "game_id")

	_, err = s.svc.SaveProgress(s.ctx, s.guestID, SaveProgressInput{GameID: "scales", ProgressData: json.RawMessage(`{bad`)})
	requireKind(s.T(), err, KindValidation, "progress_data")

	_, err = s.svc.SaveProgress(s.ctx, "guest_missing", SaveProgressInput{GameID: "scales"})
	requireKind(s.T(), err, KindNotFound, "guest")
}

func TestGuestAccessService_TrackRefreshesActivity(t *testing.T) {
	store := newMemStore()
	svc := NewGuestAccessService(store, DefaultGuestPolicy())
	first := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	require.NoError(t, svc.Track(context.Background(), "guest_a", "10.0.0.1", "ua"))

	later := first.Add(time.Hour)
	svc.now = func() time.Time { return later }
	require.NoError(t, svc.Track(context.Background(), "guest_a", "10.0.0.2", "ua"))

	g := store.guests["guest_a"]
	assert.Equal(t, first, g.CreatedAt)
	assert.Equal(t, later, g.LastActivity)

	requireKind(t, svc.Track(context.Background(), "", "", ""), KindValidation, "guest_id")
}

func TestNewGuestAccessService_NormalizesInstruments(t *testing.T) {
	svc := NewGuestAccessService(newMemStore(), GuestPolicy{Instruments: []string{" Piano ", "", "VIOLIN"}})
	assert.Equal(t, []string{"piano", "violin"}, svc.Policy().Instruments)
}
