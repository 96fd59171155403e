package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
	"github.com/oksasatya/clinical-monitor/internal/domain/repository"
)

// Constraint names declared in db/migrations/000001_create_users.up.sql.
const (
	constraintEmail    = "users_email_lower_key"
	constraintUsername = "users_username_key"
)

const accountColumns = `id, username, password_hash, account_type, email, first_name, last_name, avatar_url, is_active, created_at, updated_at`

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	a := &entity.Account{}
	var accountType string
	if err := row.Scan(&a.ID, &a.Username, &a.Password, &accountType, &a.Email,
		&a.FirstName, &a.LastName, &a.AvatarURL, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	a.AccountType = entity.AccountType(accountType)
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, account_type, email, first_name, last_name, avatar_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, a.Username, a.Password, string(a.AccountType), a.Email, a.FirstName, a.LastName,
		a.AvatarURL, a.IsActive, a.CreatedAt, a.UpdatedAt)

	if err := row.Scan(&a.ID); err != nil {
		if name, ok := uniqueConstraint(err); ok {
			switch name {
			case constraintEmail:
				return repository.ErrDuplicateEmail
			case constraintUsername:
				return repository.ErrDuplicateUsername
			}
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *AccountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&exists)
	return exists, err
}

func (r *AccountRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

// Touch refreshes updated_at, which doubles as the last sign-in marker.
func (r *AccountRepository) Touch(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `UPDATE users SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	res, err := r.db.Exec(ctx, `UPDATE users SET avatar_url = $1, updated_at = $2 WHERE id = $3`, avatarURL, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) Counts(ctx context.Context) (entity.DashboardCounts, error) {
	var c entity.DashboardCounts
	err := r.db.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE account_type = 'clinician'),
		       count(*) FILTER (WHERE account_type = 'patient')
		FROM users
	`).Scan(&c.Total, &c.Clinicians, &c.Patients)
	return c, err
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
