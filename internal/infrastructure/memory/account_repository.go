// Package memory holds in-process implementations of the domain repositories.
// They enforce the same uniqueness rules as the Postgres schema and back the
// service and HTTP tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
	"github.com/oksasatya/clinical-monitor/internal/domain/repository"
)

type AccountRepository struct {
	mu       sync.RWMutex
	byID     map[string]*entity.Account
	emails   map[string]string // lower(email) -> id
	username map[string]string // username -> id
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:     map[string]*entity.Account{},
		emails:   map[string]string{},
		username: map[string]string{},
	}
}

func clone(a *entity.Account) *entity.Account {
	c := *a
	return &c
}

func (r *AccountRepository) Create(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(a.Email)
	if _, ok := r.emails[key]; ok {
		return repository.ErrDuplicateEmail
	}
	if _, ok := r.username[a.Username]; ok {
		return repository.ErrDuplicateUsername
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	r.byID[a.ID] = clone(a)
	r.emails[key] = a.ID
	r.username[a.Username] = a.ID
	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(a), nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	r.mu.RLock()
	id, ok := r.emails[strings.ToLower(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *AccountRepository) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.emails[strings.ToLower(email)]
	return ok, nil
}

func (r *AccountRepository) UsernameExists(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.username[username]
	return ok, nil
}

func (r *AccountRepository) Touch(_ context.Context, id string) error {
	return r.update(id, func(a *entity.Account) {})
}

func (r *AccountRepository) UpdateAvatar(_ context.Context, id, avatarURL string) error {
	return r.update(id, func(a *entity.Account) { a.AvatarURL = avatarURL })
}

// SetActive flips the active flag; administrators do this outside the account service.
func (r *AccountRepository) SetActive(id string, active bool) error {
	return r.update(id, func(a *entity.Account) { a.IsActive = active })
}

func (r *AccountRepository) update(id string, fn func(*entity.Account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(a)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *AccountRepository) Counts(_ context.Context) (entity.DashboardCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := entity.DashboardCounts{Total: int64(len(r.byID))}
	for _, a := range r.byID {
		switch a.AccountType {
		case entity.AccountTypeClinician:
			c.Clinicians++
		case entity.AccountTypePatient:
			c.Patients++
		}
	}
	return c, nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)

// AuthEventRepository keeps audit events in a slice.
type AuthEventRepository struct {
	mu     sync.Mutex
	events []entity.AuthEvent
}

func NewAuthEventRepository() *AuthEventRepository {
	return &AuthEventRepository{}
}

func (r *AuthEventRepository) Record(_ context.Context, e *entity.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := *e
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	r.events = append(r.events, ev)
	return nil
}

// Actions lists recorded actions in order.
func (r *AuthEventRepository) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

// Events returns a copy of the recorded events.
func (r *AuthEventRepository) Events() []entity.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.AuthEvent(nil), r.events...)
}

var _ repository.AuthEventRepository = (*AuthEventRepository)(nil)
