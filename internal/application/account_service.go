package application

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/clinical-monitor/config"
	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
	repo "github.com/oksasatya/clinical-monitor/internal/domain/repository"
	"github.com/oksasatya/clinical-monitor/pkg/helpers"
	"github.com/oksasatya/clinical-monitor/pkg/mailer"
	mailtpl "github.com/oksasatya/clinical-monitor/pkg/mailer/templates"
	"github.com/oksasatya/clinical-monitor/pkg/validation"
)

const minPasswordLength = 6

// JobPublisher enqueues background jobs (email).
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// AccountIndexer mirrors accounts into the searchable directory.
type AccountIndexer interface {
	Index(ctx context.Context, a *entity.Account) error
	Search(ctx context.Context, q string, accountType entity.AccountType, size int) ([]entity.DirectoryEntry, error)
}

// RequestMeta describes the caller for the audit trail and notifications.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Credentials is the input of SignUp and SignIn.
type Credentials struct {
	Email       string
	Password    string
	AccountType string
}

func (c Credentials) blank() bool {
	return strings.TrimSpace(c.Email) == "" ||
		strings.TrimSpace(c.Password) == "" ||
		strings.TrimSpace(c.AccountType) == ""
}

// Service implements account provisioning and sign-in.
type Service struct {
	Repo     repo.AccountRepository
	Events   repo.AuthEventRepository
	Sessions SessionIssuer
	Logger   *logrus.Logger
	Cfg      *config.Config

	// Optional collaborators; nil disables the feature.
	Mail    JobPublisher
	Index   AccountIndexer
	Avatars AvatarStore

	Now      func() time.Time
	HashCost int
}

func NewService(repo repo.AccountRepository, events repo.AuthEventRepository, sessions SessionIssuer, logger *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		Repo:     repo,
		Events:   events,
		Sessions: sessions,
		Logger:   logger,
		Cfg:      cfg,
		Now:      time.Now,
		HashCost: bcrypt.DefaultCost,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) log() *logrus.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return helpers.NewDiscardLogger()
}

// SignUp validates the credentials, derives a unique username and display
// name from the email, and stores the new account. It does not sign in.
func (s *Service) SignUp(ctx context.Context, in Credentials, meta RequestMeta) (*entity.Account, error) {
	if in.blank() {
		return nil, validationError(MsgFieldsRequired)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !validation.IsEmail(email) {
		return nil, validationError(MsgInvalidEmail)
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return nil, validationError(MsgPasswordTooShort)
	}
	accountType, ok := entity.ParseAccountType(in.AccountType)
	if !ok {
		return nil, validationError(MsgInvalidType)
	}

	exists, err := s.Repo.EmailExists(ctx, email)
	if err != nil {
		return nil, persistenceError(MsgCreateFailed, err)
	}
	if exists {
		s.audit(ctx, "", email, entity.AuthActionSignupRejected, meta, map[string]any{"reason": "email_taken"})
		return nil, conflictError(MsgEmailTaken)
	}

	username, err := uniqueUsername(ctx, strings.ToLower(localPart(email)), s.Repo.UsernameExists)
	if err != nil {
		return nil, persistenceError(MsgCreateFailed, err)
	}
	hash, err := helpers.HashPasswordWithCost(in.Password, s.HashCost)
	if err != nil {
		return nil, persistenceError(MsgCreateFailed, err)
	}

	first, last := deriveNames(email)
	now := s.now()
	a := &entity.Account{
		Username:    username,
		Password:    hash,
		AccountType: accountType,
		Email:       email,
		FirstName:   first,
		LastName:    last,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			s.audit(ctx, "", email, entity.AuthActionSignupRejected, meta, map[string]any{"reason": "email_taken"})
			return nil, conflictError(MsgEmailTaken)
		}
		s.log().WithError(err).WithField("email", email).Error("create account failed")
		return nil, persistenceError(MsgCreateFailed, err)
	}

	helpers.LogInfo(s.Logger, "account created", logrus.Fields{"account_id": a.ID, "username": a.Username, "account_type": a.AccountType})
	s.audit(ctx, a.ID, a.Email, entity.AuthActionSignup, meta, map[string]any{"username": a.Username, "account_type": a.AccountType})
	s.indexAccount(ctx, a)
	s.enqueueMail(ctx, a, mailtpl.Welcome, meta)
	return a, nil
}

// SignIn verifies the credentials against the stored account, refreshes its
// last sign-in marker and issues a session through jar.
func (s *Service) SignIn(ctx context.Context, jar helpers.CookieJar, in Credentials, meta RequestMeta) (*entity.Account, error) {
	if in.blank() {
		return nil, validationError(MsgFieldsRequired)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	a, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.audit(ctx, "", email, entity.AuthActionSigninRejected, meta, map[string]any{"reason": "unknown_email"})
			return nil, authError(MsgBadCredentials)
		}
		return nil, persistenceError(MsgSigninFailed, err)
	}
	if !a.IsActive {
		s.audit(ctx, a.ID, email, entity.AuthActionSigninRejected, meta, map[string]any{"reason": "deactivated"})
		return nil, authError(MsgDeactivated)
	}
	if !strings.EqualFold(string(a.AccountType), strings.TrimSpace(in.AccountType)) {
		s.audit(ctx, a.ID, email, entity.AuthActionSigninRejected, meta, map[string]any{"reason": "account_type_mismatch"})
		return nil, authError(MsgTypeMismatch)
	}
	if !helpers.CompareHashAndPassword(a.Password, in.Password) {
		s.audit(ctx, a.ID, email, entity.AuthActionSigninRejected, meta, map[string]any{"reason": "bad_password"})
		return nil, authError(MsgBadCredentials)
	}

	sess, err := s.Sessions.Issue(ctx, jar, a)
	if err != nil {
		s.log().WithError(err).WithField("account_id", a.ID).Error("issue session failed")
		return nil, persistenceError(MsgSigninFailed, err)
	}
	// updated_at marks completed sign-ins only.
	if err := s.Repo.Touch(ctx, a.ID); err != nil {
		if derr := s.Sessions.Discard(ctx, jar, sess.ID); derr != nil {
			s.log().WithError(derr).WithField("account_id", a.ID).Warn("discard session after failed touch")
		}
		return nil, persistenceError(MsgSigninFailed, err)
	}
	a.UpdatedAt = s.now()

	helpers.LogInfo(s.Logger, "signed in", logrus.Fields{"account_id": a.ID, "account_type": a.AccountType})
	s.audit(ctx, a.ID, a.Email, entity.AuthActionSignin, meta, map[string]any{"sid": sess.ID})
	s.enqueueMail(ctx, a, mailtpl.SigninNotification, meta)
	return a, nil
}

// SignOut revokes the current session. It never fails; a missing session is a no-op.
func (s *Service) SignOut(ctx context.Context, jar helpers.CookieJar, meta RequestMeta) {
	sess, err := s.Sessions.Revoke(ctx, jar)
	if err != nil {
		s.log().WithError(err).Warn("revoke session failed")
	}
	if sess != nil {
		s.audit(ctx, sess.AccountID, sess.Email, entity.AuthActionSignout, meta, nil)
	}
}

// DashboardCounts returns total, clinician and patient account counts.
func (s *Service) DashboardCounts(ctx context.Context) (entity.DashboardCounts, error) {
	c, err := s.Repo.Counts(ctx)
	if err != nil {
		return entity.DashboardCounts{}, persistenceError(MsgDashboardFailed, err)
	}
	return c, nil
}

func (s *Service) audit(ctx context.Context, accountID, email, action string, meta RequestMeta, md map[string]any) {
	if s.Events == nil {
		return
	}
	err := s.Events.Record(ctx, &entity.AuthEvent{
		AccountID: accountID,
		Email:     email,
		Action:    action,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Metadata:  md,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.log().WithError(err).WithField("action", action).Warn("record auth event failed")
	}
}

func (s *Service) indexAccount(ctx context.Context, a *entity.Account) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, a); err != nil {
		s.log().WithError(err).WithField("account_id", a.ID).Warn("index account failed")
	}
}

func (s *Service) enqueueMail(ctx context.Context, a *entity.Account, template string, meta RequestMeta) {
	if s.Mail == nil || s.Cfg == nil || !s.Cfg.MailSendEnabled {
		return
	}
	opts := []mailtpl.Option{
		mailtpl.WithTime(s.now()),
		mailtpl.WithIP(meta.IP),
		mailtpl.WithUserAgent(meta.UserAgent),
		mailtpl.WithDashboardPath(a.AccountType.DashboardPath()),
	}
	var data map[string]any
	switch template {
	case mailtpl.Welcome:
		data = mailtpl.NewWelcomeData(s.Cfg, a.FullName(), a.Email, a.Username, string(a.AccountType), opts...)
	case mailtpl.SigninNotification:
		data = mailtpl.NewSigninNotificationData(s.Cfg, a.FullName(), a.Email, a.Username, string(a.AccountType), opts...)
	default:
		return
	}
	job := mailer.EmailJob{To: a.Email, Template: template, Data: data}
	if err := s.Mail.PublishJSON(ctx, job); err != nil {
		s.log().WithError(err).WithField("template", template).Warn("enqueue email failed")
	}
}
