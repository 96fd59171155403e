package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
	"github.com/oksasatya/clinical-monitor/internal/domain/repository"
)

// SessionStore keeps one Redis hash per session, expiring with the session window.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func sessionKey(sid string) string {
	return "account:session:" + sid
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func (s *SessionStore) Save(ctx context.Context, sess *entity.Session, ttl time.Duration) error {
	key := sessionKey(sess.ID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"sid":          sess.ID,
		"account_id":   sess.AccountID,
		"username":     sess.Username,
		"email":        sess.Email,
		"role":         sess.Role(),
		"account_type": string(sess.AccountType),
		"first_name":   sess.FirstName,
		"last_name":    sess.LastName,
		"created_at":   formatTime(sess.CreatedAt),
		"renewed_at":   formatTime(sess.RenewedAt),
	})
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *SessionStore) Get(ctx context.Context, sid string) (*entity.Session, error) {
	key := sessionKey(sid)
	data, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, repository.ErrNotFound
	}
	sess := &entity.Session{
		ID:          data["sid"],
		AccountID:   data["account_id"],
		Username:    data["username"],
		Email:       data["email"],
		AccountType: entity.AccountType(data["account_type"]),
		FirstName:   data["first_name"],
		LastName:    data["last_name"],
		CreatedAt:   parseTime(data["created_at"]),
		RenewedAt:   parseTime(data["renewed_at"]),
	}
	if ttl, tErr := s.rdb.TTL(ctx, key).Result(); tErr == nil && ttl > 0 {
		sess.ExpiresAt = time.Now().Add(ttl)
	}
	return sess, nil
}

// Renew slides the session window forward from renewedAt.
func (s *SessionStore) Renew(ctx context.Context, sid string, renewedAt time.Time, ttl time.Duration) error {
	key := sessionKey(sid)
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, "renewed_at", formatTime(renewedAt))
	pipe.Expire(ctx, key, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *SessionStore) Delete(ctx context.Context, sid string) error {
	err := s.rdb.Del(ctx, sessionKey(sid)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

var _ repository.SessionStore = (*SessionStore)(nil)
