package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	saved []*models.Notification
	err   error
	panic bool
}

func (s *stubStore) InsertNotification(_ context.Context, n *models.Notification) error {
	if s.panic {
		panic("nil pool")
	}
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, n)
	return nil
}

type stubPusher struct {
	pushed []uuid.UUID
}

func (p *stubPusher) Push(userID uuid.UUID, _ any) {
	p.pushed = append(p.pushed, userID)
}

type stubPublisher struct {
	subjects []string
	err      error
}

func (p *stubPublisher) Publish(_ context.Context, subject string, _ any) error {
	p.subjects = append(p.subjects, subject)
	return p.err
}

func TestDispatcher_PersistsAndFansOut(t *testing.T) {
	store, pusher, publisher := &stubStore{}, &stubPusher{}, &stubPublisher{}
	d := NewDispatcher(store, pusher, publisher)
	user := uuid.New()

	d.Notify(context.Background(), user, models.NotificationBooking, "Booked")

	require.Len(t, store.saved, 1)
	assert.Equal(t, user, store.saved[0].UserID)
	assert.Equal(t, models.NotificationBooking, store.saved[0].Type)
	assert.False(t, store.saved[0].Read)
	assert.Equal(t, []uuid.UUID{user}, pusher.pushed)
	assert.Equal(t, []string{"notification.created"}, publisher.subjects)
}

func TestDispatcher_SwallowsStoreFailure(t *testing.T) {
	store, pusher := &stubStore{err: errors.New("db down")}, &stubPusher{}
	d := NewDispatcher(store, pusher, nil)

	require.NotPanics(t, func() {
		d.Notify(context.Background(), uuid.New(), models.NotificationSystem, "hello")
	})
	assert.Empty(t, pusher.pushed)
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	d := NewDispatcher(&stubStore{panic: true}, nil, nil)
	require.NotPanics(t, func() {
		d.Notify(context.Background(), uuid.New(), models.NotificationSystem, "hello")
	})
}

func TestDispatcher_PublishFailureIsIgnored(t *testing.T) {
	store := &stubStore{}
	d := NewDispatcher(store, nil, &stubPublisher{err: errors.New("broker down")})

	d.Notify(context.Background(), uuid.New(), models.NotificationReminder, "tomorrow")
	assert.Len(t, store.saved, 1)
}
