package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/google/uuid"
)

// memStore serializes transactions with txMu and guards data with mu.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	bookings map[uuid.UUID]*models.Booking
	guests   map[string]*models.GuestSession
	lessons  map[uuid.UUID]*models.Lesson
	logs     []models.GuestAccessLog
	progress map[string]*models.GameProgress
	otps     map[string]*models.PasswordResetOTP

	conflictErr error
	insertErr   error
	skipTx      bool
}

func newMemStore() *memStore {
	return &memStore{
		bookings: map[uuid.UUID]*models.Booking{},
		guests:   map[string]*models.GuestSession{},
		lessons:  map[uuid.UUID]*models.Lesson{},
		progress: map[string]*models.GameProgress{},
		otps:     map[string]*models.PasswordResetOTP{},
	}
}

func (m *memStore) ExistsConflictingBooking(_ context.Context, slotKey string, excludeID *uuid.UUID) (bool, error) {
	if m.conflictErr != nil {
		return false, m.conflictErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.SlotKey != slotKey || b.Status == models.BookingCancelled {
			continue
		}
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (m *memStore) InsertBooking(_ context.Context, b *models.Booking) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bookings {
		if existing.SlotKey == b.SlotKey && existing.Status != models.BookingCancelled {
			return ErrSlotTaken
		}
	}
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memStore) UpdateBooking(_ context.Context, id uuid.UUID, f BookingUpdate) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if f.SlotKey != nil {
		for _, other := range m.bookings {
			if other.ID != id && other.SlotKey == *f.SlotKey && other.Status != models.BookingCancelled {
				return nil, ErrSlotTaken
			}
		}
		b.SlotKey = *f.SlotKey
	}
	if f.Date != nil {
		b.Date = *f.Date
	}
	if f.StartTime != nil {
		b.StartTime = f.StartTime
	}
	if f.EndTime != nil {
		b.EndTime = f.EndTime
	}
	if f.Status != nil {
		b.Status = *f.Status
	}
	if f.CheckedInAt != nil {
		b.CheckedInAt = f.CheckedInAt
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) FindBookingByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) LockBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return m.FindBookingByID(ctx, id)
}

func (m *memStore) FindBookingByQR(_ context.Context, qr string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.QRCode == qr {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *memStore) FindBookingsByUser(_ context.Context, userID uuid.UUID) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.StudentID == userID || (b.InstructorID != nil && *b.InstructorID == userID) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (m *memStore) InBookingTx(ctx context.Context, fn func(tx BookingStore) error) error {
	if !m.skipTx {
		m.txMu.Lock()
		defer m.txMu.Unlock()
	}
	return fn(m)
}

func (m *memStore) FindGuestByID(_ context.Context, guestID string) (*models.GuestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.guests[guestID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memStore) LockGuest(ctx context.Context, guestID string) (*models.GuestSession, error) {
	return m.FindGuestByID(ctx, guestID)
}

func (m *memStore) TouchGuest(_ context.Context, g *models.GuestSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.guests[g.GuestID]; ok {
		existing.LastActivity = g.LastActivity
		return nil
	}
	cp := *g
	m.guests[g.GuestID] = &cp
	return nil
}

func (m *memStore) IncrementGuestPlayCount(_ context.Context, guestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.guests[guestID]; ok {
		g.PlayCount++
	}
	return nil
}

func (m *memStore) FindLessonByID(_ context.Context, lessonID uuid.UUID) (*models.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lessons[lessonID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memStore) CountGuestAccesses(_ context.Context, guestID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, l := range m.logs {
		if l.GuestID == guestID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) InsertGuestAccessLog(_ context.Context, guestID string, lessonID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, models.GuestAccessLog{
		ID:         uint(len(m.logs) + 1),
		GuestID:    guestID,
		LessonID:   lessonID,
		AccessedAt: time.Now(),
	})
	return nil
}

func (m *memStore) SaveGameProgress(_ context.Context, p *models.GameProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := p.GuestID + "/" + p.GameID
	if existing, ok := m.progress[key]; ok {
		if p.Score < existing.Score {
			p.Score = existing.Score
		}
		p.Completed = p.Completed || existing.Completed
	}
	cp := *p
	m.progress[key] = &cp
	return nil
}

func (m *memStore) ListGameProgress(_ context.Context, guestID string) ([]models.GameProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GameProgress
	for _, p := range m.progress {
		if p.GuestID == guestID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) InGuestTx(ctx context.Context, fn func(tx GuestStore) error) error {
	if !m.skipTx {
		m.txMu.Lock()
		defer m.txMu.Unlock()
	}
	return fn(m)
}

func (m *memStore) UpsertOTP(_ context.Context, otp *models.PasswordResetOTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *otp
	m.otps[otp.Email] = &cp
	return nil
}

func (m *memStore) FindOTP(_ context.Context, email string) (*models.PasswordResetOTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	otp, ok := m.otps[email]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *otp
	return &cp, nil
}

func (m *memStore) UpdateOTP(_ context.Context, otp *models.PasswordResetOTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *otp
	m.otps[otp.Email] = &cp
	return nil
}

func (m *memStore) DeleteOTP(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.otps, email)
	return nil
}

func (m *memStore) DeleteExpiredOTPs(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for email, otp := range m.otps {
		if !now.Before(otp.ExpiresAt) {
			delete(m.otps, email)
			n++
		}
	}
	return n, nil
}

func (m *memStore) logCount(guestID string) int {
	n, _ := m.CountGuestAccesses(context.Background(), guestID)
	return int(n)
}

type sentNotification struct {
	UserID  uuid.UUID
	Kind    string
	Message string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{UserID: userID, Kind: kind, Message: message})
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return p.err
}

type recordingRewarder struct {
	awarded []uuid.UUID
}

func (r *recordingRewarder) AwardForCompletion(_ context.Context, studentID uuid.UUID) error {
	r.awarded = append(r.awarded, studentID)
	return nil
}
