package repository

import (
	"context"
	"time"

	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
)

// SessionStore keeps server-side sessions so a signed cookie can be revoked.
type SessionStore interface {
	Save(ctx context.Context, s *entity.Session, ttl time.Duration) error
	Get(ctx context.Context, sid string) (*entity.Session, error)
	Renew(ctx context.Context, sid string, renewedAt time.Time, ttl time.Duration) error
	Delete(ctx context.Context, sid string) error
}
