package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
	repo "github.com/oksasatya/clinical-monitor/internal/domain/repository"
)

const (
	defaultSearchSize = 20
	maxSearchSize     = 100
)

// AvatarStore persists an avatar image and returns the URL it is served from.
type AvatarStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// Avatar is an uploaded image waiting to be stored.
type Avatar struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// GetAccount loads the account behind a session.
func (s *Service) GetAccount(ctx context.Context, id string) (*entity.Account, error) {
	a, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, authError(MsgAccountNotFound)
		}
		return nil, persistenceError(MsgUnexpected, err)
	}
	return a, nil
}

// SearchAccounts queries the directory. typ may be empty to search all categories.
func (s *Service) SearchAccounts(ctx context.Context, q, typ string, size int) ([]entity.DirectoryEntry, error) {
	var accountType entity.AccountType
	if strings.TrimSpace(typ) != "" {
		t, ok := entity.ParseAccountType(typ)
		if !ok {
			return nil, validationError(MsgInvalidType)
		}
		accountType = t
	}
	if size <= 0 {
		size = defaultSearchSize
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}
	if s.Index == nil {
		return []entity.DirectoryEntry{}, nil
	}
	hits, err := s.Index.Search(ctx, strings.TrimSpace(q), accountType, size)
	if err != nil {
		return nil, persistenceError(MsgUnexpected, err)
	}
	return hits, nil
}

func avatarObjectPath(accountID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("avatars/%s/%s%s", accountID, uuid.NewString(), ext)
}

// UploadAvatar stores an image for the account and records its URL.
func (s *Service) UploadAvatar(ctx context.Context, accountID string, img Avatar) (*entity.Account, error) {
	if !strings.HasPrefix(strings.ToLower(img.ContentType), "image/") {
		return nil, validationError(MsgInvalidAvatar)
	}
	if s.Avatars == nil {
		return nil, persistenceError(MsgAvatarUnavailable, errors.New("avatar store not configured"))
	}

	url, err := s.Avatars.Upload(ctx, avatarObjectPath(accountID, img.Filename), img.ContentType, img.Body)
	if err != nil {
		s.log().WithError(err).WithField("account_id", accountID).Error("avatar upload failed")
		return nil, persistenceError(MsgAvatarFailed, err)
	}
	if err := s.Repo.UpdateAvatar(ctx, accountID, url); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, authError(MsgAccountNotFound)
		}
		return nil, persistenceError(MsgAvatarFailed, err)
	}

	a, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	s.indexAccount(ctx, a)
	return a, nil
}
