// Package session keeps per-chat conversation state in a keyed store with
// TTL eviction. The store is injected wherever state is needed, so a
// multi-instance deployment can share one Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Step names the point a booking conversation has reached.
type Step string

const (
	StepNone      Step = "none"
	StepService   Step = "service"
	StepDate      Step = "date"
	StepTime      Step = "time"
	StepTherapist Step = "therapist"
	StepConfirm   Step = "confirm"
)

// Draft accumulates the booking choices a user has made so far.
type Draft struct {
	ServiceID   int64  `json:"service_id,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	Duration    int    `json:"duration,omitempty"` // minutes
	Date        string `json:"date,omitempty"`     // YYYY-MM-DD
	Start       string `json:"start,omitempty"`    // extended "HH:MM"
	TherapistID int64  `json:"therapist_id,omitempty"`
	HotelID     int64  `json:"hotel_id,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Session is one user's conversation state.
type Session struct {
	ChatID    int64     `json:"chat_id"`
	Step      Step      `json:"step"`
	Draft     Draft     `json:"draft"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrNotFound means no live session exists for the chat.
var ErrNotFound = errors.New("session not found")

// Store is the conversation-state contract the bot depends on.
type Store interface {
	Get(ctx context.Context, chatID int64) (*Session, error)
	Set(ctx context.Context, s *Session) error
	Clear(ctx context.Context, chatID int64) error
}

// RedisStore keeps sessions in Redis with a TTL; idle conversations expire
// on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wires a Redis-backed store. ttl <= 0 defaults to 30 minutes.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("session:%d", chatID)
}

func (s *RedisStore) Get(ctx context.Context, chatID int64) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(chatID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) Set(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	// Every write refreshes the TTL; only abandoned conversations expire.
	if err := s.client.Set(ctx, sessionKey(session.ChatID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, sessionKey(chatID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
