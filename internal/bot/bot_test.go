package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ainaru/internal/database"
	"ainaru/internal/models"
	"ainaru/internal/scheduling"
	"ainaru/internal/session"
	"ainaru/internal/timeslot"
)

// mockTelegram records outgoing traffic instead of talking to the API.
type mockTelegram struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (m *mockTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, c)
	return tgbotapi.Message{MessageID: len(m.sent)}, nil
}

func (m *mockTelegram) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (m *mockTelegram) SelfUser() tgbotapi.User { return tgbotapi.User{UserName: "test_bot"} }

func (m *mockTelegram) messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.sent {
		switch v := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, v.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, v.Text)
		}
	}
	return out
}

func (m *mockTelegram) last(t *testing.T) string {
	t.Helper()
	msgs := m.messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

// memorySessions is an in-memory session.Store for tests.
type memorySessions struct {
	mu       sync.Mutex
	sessions map[int64]*session.Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[int64]*session.Session{}}
}

func (m *memorySessions) Get(_ context.Context, chatID int64) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return nil, session.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memorySessions) Set(_ context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.sessions[s.ChatID] = &copied
	return nil
}

func (m *memorySessions) Clear(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
	return nil
}

// stubDirectory is a fixed catalog plus a tiny in-memory booking store.
type stubDirectory struct {
	mu       sync.Mutex
	bookings []*models.Booking
	nextID   int64
}

var allWeek = models.WorkingSchedule{
	"monday": "10:00-26:00", "tuesday": "10:00-26:00", "wednesday": "10:00-26:00",
	"thursday": "10:00-26:00", "friday": "10:00-26:00", "saturday": "10:00-26:00",
	"sunday": "10:00-26:00",
}

func (d *stubDirectory) ListActiveServices(context.Context) ([]models.Service, error) {
	return []models.Service{
		{ID: 5, Name: "Thai Massage", DurationMinutes: 60, Price: 600, IsActive: true},
	}, nil
}

func (d *stubDirectory) ListAvailableTherapists(context.Context) ([]models.Therapist, error) {
	return []models.Therapist{
		{ID: 1, DisplayName: "Nok", Rating: 4.8, IsAvailable: true, Schedule: allWeek},
	}, nil
}

func (d *stubDirectory) GetBookingByCode(_ context.Context, code string) (*models.Booking, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range d.bookings {
		if b.BookingCode == code {
			copied := *b
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (d *stubDirectory) ListBookingsForDate(_ context.Context, date string, therapistID *int64) ([]models.Booking, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Booking
	for _, b := range d.bookings {
		if b.Date != date || !b.IsActive() {
			continue
		}
		if therapistID != nil && (b.TherapistID == nil || *b.TherapistID != *therapistID) {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (d *stubDirectory) CreateBooking(_ context.Context, b *models.Booking) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	b.ID = d.nextID
	b.BookingCode = "AM123456ABC"
	d.bookings = append(d.bookings, b)
	return nil
}

func (d *stubDirectory) GetBooking(_ context.Context, id int64) (*models.Booking, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range d.bookings {
		if b.ID == id {
			copied := *b
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (d *stubDirectory) UpdateBookingStatus(_ context.Context, id int64, status, reason string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range d.bookings {
		if b.ID == id {
			b.Status = status
			if status == models.StatusCancelled {
				b.CancelledReason = reason
			}
			return nil
		}
	}
	return database.ErrNotFound
}

func (d *stubDirectory) ListBookingsInRange(_ context.Context, from, to string, _ *int64) ([]models.Booking, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Booking
	for _, b := range d.bookings {
		if b.IsActive() && b.Date >= from && b.Date <= to {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (d *stubDirectory) GetService(ctx context.Context, id int64) (*models.Service, error) {
	services, _ := d.ListActiveServices(ctx)
	for i := range services {
		if services[i].ID == id {
			return &services[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func (d *stubDirectory) GetTherapist(ctx context.Context, id int64) (*models.Therapist, error) {
	therapists, _ := d.ListAvailableTherapists(ctx)
	for i := range therapists {
		if therapists[i].ID == id {
			return &therapists[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func newTestBot(t *testing.T) (*Bot, *mockTelegram, *stubDirectory) {
	t.Helper()
	tg := &mockTelegram{}
	dir := &stubDirectory{}
	logger := zerolog.Nop()
	scheduler := scheduling.NewScheduler(dir, timeslot.DefaultBusinessHours(), 24*time.Hour, &logger)

	b, err := NewWithTelegramClient(tg, scheduler, dir, newMemorySessions(), []int64{900}, &logger)
	require.NoError(t, err)
	return b, tg, dir
}

func message(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID},
		Text: text,
	}
}

func callback(chatID int64, messageID int, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: chatID},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: messageID,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
	}
}

func futureDate() string {
	return models.DateOf(time.Now().AddDate(0, 0, 7))
}

func TestStartCommand(t *testing.T) {
	b, tg, _ := newTestBot(t)
	b.handleMessage(context.Background(), message(1, "/start"))

	msgs := tg.messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "Welcome")
}

func TestBookingConversation(t *testing.T) {
	b, tg, dir := newTestBot(t)
	ctx := context.Background()
	date := futureDate()

	b.handleMessage(ctx, message(1, "/book"))
	assert.Contains(t, tg.last(t), "Choose your massage")

	b.handleCallback(ctx, callback(1, 1, cbService+"5"))
	assert.Contains(t, tg.last(t), "Pick a date")

	b.handleCallback(ctx, callback(1, 1, cbDate+date))
	assert.Contains(t, tg.last(t), "Pick a start time")

	b.handleCallback(ctx, callback(1, 1, cbSlot+"14:00"))
	assert.Contains(t, tg.last(t), "Choose a therapist")

	b.handleCallback(ctx, callback(1, 1, cbTherapist+"any"))
	assert.Contains(t, tg.last(t), "Please confirm")

	b.handleCallback(ctx, callback(1, 1, cbConfirm+"yes"))
	assert.Contains(t, tg.last(t), "AM123456ABC")

	require.Len(t, dir.bookings, 1)
	booking := dir.bookings[0]
	assert.Equal(t, date, booking.Date)
	assert.Equal(t, timeslot.FromClock(14, 0), booking.StartTime)
	assert.Equal(t, int64(1), *booking.TherapistID)
	assert.NotEmpty(t, booking.ClientRef)
}

func TestConversationAbort(t *testing.T) {
	b, tg, dir := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, message(1, "/book"))
	b.handleCallback(ctx, callback(1, 1, cbService+"5"))
	b.handleCallback(ctx, callback(1, 1, cbDate+futureDate()))
	b.handleCallback(ctx, callback(1, 1, cbSlot+"14:00"))
	b.handleCallback(ctx, callback(1, 1, cbTherapist+"any"))
	b.handleCallback(ctx, callback(1, 1, cbConfirm+"no"))

	assert.Contains(t, tg.last(t), "cancelled")
	assert.Empty(t, dir.bookings)
}

func TestExpiredConversationCallback(t *testing.T) {
	b, _, dir := newTestBot(t)

	// Callback with no live session must not create anything.
	b.handleCallback(context.Background(), callback(1, 1, cbConfirm+"yes"))
	assert.Empty(t, dir.bookings)
}

func TestLookupByCode(t *testing.T) {
	b, tg, dir := newTestBot(t)
	ctx := context.Background()

	therapistID := int64(1)
	require.NoError(t, dir.CreateBooking(ctx, &models.Booking{
		TherapistID: &therapistID,
		ServiceID:   5,
		Date:        futureDate(),
		StartTime:   timeslot.FromClock(14, 0),
		EndTime:     timeslot.FromClock(15, 0),
		Status:      models.StatusPending,
		TotalPrice:  600,
	}))

	b.handleMessage(ctx, message(1, "am123456abc"))
	last := tg.last(t)
	assert.Contains(t, last, "AM123456ABC")
	assert.Contains(t, last, "pending")
}

func TestCancelCommand(t *testing.T) {
	b, tg, dir := newTestBot(t)
	ctx := context.Background()

	therapistID := int64(1)
	require.NoError(t, dir.CreateBooking(ctx, &models.Booking{
		TherapistID: &therapistID,
		ServiceID:   5,
		Date:        futureDate(),
		StartTime:   timeslot.FromClock(14, 0),
		EndTime:     timeslot.FromClock(15, 0),
		Status:      models.StatusPending,
	}))

	b.handleMessage(ctx, message(1, "/cancel AM123456ABC"))
	assert.Contains(t, tg.last(t), "cancelled")
	assert.Equal(t, models.StatusCancelled, dir.bookings[0].Status)
}

func TestLooksLikeBookingCode(t *testing.T) {
	assert.True(t, looksLikeBookingCode("AM123456XYZ"))
	assert.True(t, looksLikeBookingCode("am123456xyz"))
	assert.False(t, looksLikeBookingCode("AM123"))
	assert.False(t, looksLikeBookingCode("XX123456XYZ"))
	assert.False(t, looksLikeBookingCode("AM123456xy!"))
	assert.False(t, looksLikeBookingCode("hello there"))
}

func TestFormatDigest(t *testing.T) {
	assert.Contains(t, formatDigest("2026-09-01", nil), "No bookings")

	therapistID := int64(1)
	digest := formatDigest("2026-09-01", []models.Booking{{
		BookingCode: "AM000001AAA",
		TherapistID: &therapistID,
		StartTime:   timeslot.FromClock(25, 0),
		EndTime:     timeslot.FromClock(26, 0),
		Status:      models.StatusConfirmed,
	}})
	assert.Contains(t, digest, "AM000001AAA")
	assert.Contains(t, digest, "01:00-02:00")
}
