package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
	"github.com/oksasatya/clinical-monitor/internal/domain/repository"
)

type AuthEventRepository struct {
	db DBTX
}

func NewAuthEventRepository(db DBTX) *AuthEventRepository {
	return &AuthEventRepository{db: db}
}

func optText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func (r *AuthEventRepository) Record(ctx context.Context, e *entity.AuthEvent) error {
	var accountID pgtype.UUID
	if e.AccountID != "" {
		if parsed, err := uuid.Parse(e.AccountID); err == nil {
			accountID = pgtype.UUID{Bytes: parsed, Valid: true}
		}
	}
	md := e.Metadata
	if md == nil {
		md = map[string]any{}
	}
	b, err := json.Marshal(md)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO auth_events (account_id, email, action, ip, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, accountID, optText(e.Email), e.Action, optText(e.IP), optText(e.UserAgent), b)
	return err
}

var _ repository.AuthEventRepository = (*AuthEventRepository)(nil)
