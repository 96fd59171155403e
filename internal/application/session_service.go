package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
	repo "github.com/oksasatya/clinical-monitor/internal/domain/repository"
	"github.com/oksasatya/clinical-monitor/pkg/helpers"
)

// ErrNoSession means the request carries no usable session: no cookie, a bad
// signature, an expired token, or a revoked server-side session.
var ErrNoSession = errors.New("no active session")

// SessionIssuer establishes and tears down browser sessions. The cookie jar
// is the caller's request context; nothing is read from ambient state.
type SessionIssuer interface {
	Issue(ctx context.Context, jar helpers.CookieJar, a *entity.Account) (*entity.Session, error)
	Authenticate(ctx context.Context, jar helpers.CookieJar) (*entity.Session, error)
	Revoke(ctx context.Context, jar helpers.CookieJar) (*entity.Session, error)
	Discard(ctx context.Context, jar helpers.CookieJar, sid string) error
}

// SessionService issues signed cookie sessions backed by a server-side store.
// Sessions live for TTL and slide forward once half the window has elapsed
// since the last renewal.
type SessionService struct {
	Store   repo.SessionStore
	JWT     *helpers.JWTManager
	Cookies *helpers.Manager
	TTL     time.Duration
	Logger  *logrus.Logger
	Now     func() time.Time
}

func NewSessionService(store repo.SessionStore, jwt *helpers.JWTManager, cookies *helpers.Manager, logger *logrus.Logger) *SessionService {
	return &SessionService{
		Store:   store,
		JWT:     jwt,
		Cookies: cookies,
		TTL:     jwt.TTL,
		Logger:  logger,
		Now:     time.Now,
	}
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func claimsFor(sess *entity.Session) helpers.SessionClaims {
	return helpers.SessionClaims{
		AccountID:   sess.AccountID,
		SessionID:   sess.ID,
		Username:    sess.Username,
		Email:       sess.Email,
		Role:        sess.Role(),
		AccountType: string(sess.AccountType),
		GivenName:   sess.FirstName,
		FamilyName:  sess.LastName,
	}
}

func (s *SessionService) writeCookie(jar helpers.CookieJar, sess *entity.Session, now time.Time) error {
	tok, exp, err := s.JWT.Generate(claimsFor(sess), now)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	sess.ExpiresAt = exp
	s.Cookies.Set(jar, tok, exp)
	return nil
}

func (s *SessionService) Issue(ctx context.Context, jar helpers.CookieJar, a *entity.Account) (*entity.Session, error) {
	now := s.now()
	sess := &entity.Session{
		ID:          uuid.NewString(),
		AccountID:   a.ID,
		Username:    a.Username,
		Email:       a.Email,
		AccountType: a.AccountType,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		CreatedAt:   now,
		RenewedAt:   now,
	}
	if err := s.Store.Save(ctx, sess, s.TTL); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if err := s.writeCookie(jar, sess, now); err != nil {
		_ = s.Store.Delete(ctx, sess.ID)
		return nil, err
	}
	return sess, nil
}

// Authenticate resolves the request's session and renews it when due.
func (s *SessionService) Authenticate(ctx context.Context, jar helpers.CookieJar) (*entity.Session, error) {
	tok := s.Cookies.Read(jar)
	if tok == "" {
		return nil, ErrNoSession
	}
	claims, err := s.JWT.Parse(tok)
	if err != nil {
		return nil, ErrNoSession
	}
	sess, err := s.Store.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.AccountID != claims.AccountID {
		return nil, ErrNoSession
	}

	now := s.now()
	if now.Sub(sess.RenewedAt) >= s.TTL/2 {
		if err := s.Store.Renew(ctx, sess.ID, now, s.TTL); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrNoSession
			}
			return nil, fmt.Errorf("renew session: %w", err)
		}
		sess.RenewedAt = now
		if err := s.writeCookie(jar, sess, now); err != nil {
			return nil, err
		}
		if s.Logger != nil {
			s.Logger.WithField("account_id", sess.AccountID).Debug("session renewed")
		}
	}
	return sess, nil
}

// Revoke deletes the server-side session and clears the cookie. Without a
// valid session it only clears the cookie and returns (nil, nil).
func (s *SessionService) Revoke(ctx context.Context, jar helpers.CookieJar) (*entity.Session, error) {
	defer s.Cookies.Clear(jar)

	tok := s.Cookies.Read(jar)
	if tok == "" {
		return nil, nil
	}
	claims, err := s.JWT.Parse(tok)
	if err != nil {
		return nil, nil
	}
	sess, getErr := s.Store.Get(ctx, claims.SessionID)
	if errors.Is(getErr, repo.ErrNotFound) {
		getErr = nil
	}
	// The sid comes from the signed token, so delete even when the read failed.
	if err := s.Store.Delete(ctx, claims.SessionID); err != nil {
		return sess, errors.Join(getErr, fmt.Errorf("delete session: %w", err))
	}
	if getErr != nil {
		return nil, fmt.Errorf("load session: %w", getErr)
	}
	return sess, nil
}

// Discard drops a session issued earlier in the same request. Unlike Revoke
// it does not read the request cookie, which still holds the previous value.
func (s *SessionService) Discard(ctx context.Context, jar helpers.CookieJar, sid string) error {
	s.Cookies.Clear(jar)
	return s.Store.Delete(ctx, sid)
}

var _ SessionIssuer = (*SessionService)(nil)
