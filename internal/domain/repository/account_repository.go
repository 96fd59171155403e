package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrDuplicateUsername = errors.New("duplicate username")
)

// AccountRepository defines the credential store operations over the users table.
// Email lookups compare case-insensitively.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Touch(ctx context.Context, id string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	Counts(ctx context.Context) (entity.DashboardCounts, error)
}

// AuthEventRepository appends to the authentication audit trail.
type AuthEventRepository interface {
	Record(ctx context.Context, e *entity.AuthEvent) error
}
