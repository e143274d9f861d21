package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BrewReview/BR-Backend/internal/store"
)

// RedisSessionPersistence keeps sessions in redis with a TTL matching their
// expiry. This backend hard-deletes on end; an expired or ended session is
// simply an absent key. A secondary key indexes the user's current session.
type RedisSessionPersistence struct {
	client *redis.Client
}

const redisOpTimeout = 2 * time.Second

func NewRedisSessionPersistence(client *redis.Client) *RedisSessionPersistence {
	return &RedisSessionPersistence{client: client}
}

func sessionKey(id string) string      { return "session:" + id }
func userSessionKey(uid string) string { return "session_user:" + uid }

// redisSession is the stored form. Session's own JSON tags hide its ids
// from HTTP responses, so the backend keeps its own record shape.
type redisSession struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *RedisSessionPersistence) Insert(session Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("%w: session already expired", store.ErrInvalidArgument)
	}

	body, err := json.Marshal(redisSession{
		SessionID: session.SessionID,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal session: %v", store.ErrPersistenceFailure, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.SessionID), body, ttl)
	pipe.Set(ctx, userSessionKey(session.UserID), session.SessionID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: store session: %v", store.ErrPersistenceFailure, err)
	}
	return nil
}

func (s *RedisSessionPersistence) Get(id string) (Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	body, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, store.ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: get session: %v", store.ErrPersistenceFailure, err)
	}

	var rec redisSession
	if err := json.Unmarshal(body, &rec); err != nil {
		return Session{}, fmt.Errorf("%w: decode session: %v", store.ErrPersistenceFailure, err)
	}
	return Session{SessionID: rec.SessionID, UserID: rec.UserID, ExpiresAt: rec.ExpiresAt}, nil
}

func (s *RedisSessionPersistence) GetByUser(userID string) (Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	id, err := s.client.Get(ctx, userSessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return Session{}, store.ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: get session by user: %v", store.ErrPersistenceFailure, err)
	}
	return s.Get(id)
}

func (s *RedisSessionPersistence) End(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	// Look up the owner first so the user index goes too. An absent
	// session is already ended; nothing to do.
	session, err := s.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.Del(ctx, userSessionKey(session.UserID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: delete session: %v", store.ErrPersistenceFailure, err)
	}
	return nil
}
