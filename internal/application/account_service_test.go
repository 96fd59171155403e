package application

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/clinical-monitor/config"
	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
	"github.com/oksasatya/clinical-monitor/internal/domain/repository"
	"github.com/oksasatya/clinical-monitor/internal/infrastructure/memory"
	"github.com/oksasatya/clinical-monitor/pkg/helpers"
	"github.com/oksasatya/clinical-monitor/pkg/mailer"
	mailtpl "github.com/oksasatya/clinical-monitor/pkg/mailer/templates"
)

// jar is an in-memory CookieJar.
type jar struct {
	cookies map[string]string
	maxAge  map[string]int
}

func newJar() *jar { return &jar{cookies: map[string]string{}, maxAge: map[string]int{}} }

func (j *jar) Cookie(name string) (string, error) {
	v, ok := j.cookies[name]
	if !ok {
		return "", http.ErrNoCookie
	}
	return v, nil
}

func (j *jar) SetCookie(name, value string, maxAge int, _, _ string, _, _ bool) {
	j.maxAge[name] = maxAge
	if maxAge < 0 {
		delete(j.cookies, name)
		return
	}
	j.cookies[name] = value
}

func (j *jar) SetSameSite(http.SameSite) {}

type publisher struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	err  error
}

func (p *publisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body.(mailer.EmailJob))
	return nil
}

type fixture struct {
	svc      *Service
	repo     *memory.AccountRepository
	events   *memory.AuthEventRepository
	store    *memory.SessionStore
	sessions *SessionService
	mail     *publisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{AppBaseURL: "http://clinic.test", ClinicName: "Clinic", MailSendEnabled: true}
	repo := memory.NewAccountRepository()
	events := memory.NewAuthEventRepository()
	store := memory.NewSessionStore()
	logger := helpers.NewDiscardLogger()
	sessions := NewSessionService(store, helpers.NewJWTManager("test-secret", 8*time.Hour), helpers.NewCookie("session", "", false), logger)

	svc := NewService(repo, events, sessions, logger, cfg)
	svc.HashCost = bcrypt.MinCost
	mail := &publisher{}
	svc.Mail = mail
	return &fixture{svc: svc, repo: repo, events: events, store: store, sessions: sessions, mail: mail}
}

func (f *fixture) signUp(t *testing.T, email, password, typ string) *entity.Account {
	t.Helper()
	a, err := f.svc.SignUp(context.Background(), Credentials{Email: email, Password: password, AccountType: typ}, RequestMeta{})
	require.NoError(t, err)
	return a
}

func assertKind(t *testing.T, err error, kind ErrorKind, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, KindOf(err), err.Error())
	assert.Equal(t, msg, PublicMessage(err))
}

func TestSignUp_CreatesAccount(t *testing.T) {
	f := newFixture(t)
	a := f.signUp(t, "jane.doe@clinic.org", "secret1", "patient")

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "jane.doe", a.Username)
	assert.Equal(t, "Jane", a.FirstName)
	assert.Equal(t, "Doe", a.LastName)
	assert.Equal(t, entity.AccountTypePatient, a.AccountType)
	assert.True(t, a.IsActive)
	assert.NotEqual(t, "secret1", a.Password)
	assert.True(t, helpers.CompareHashAndPassword(a.Password, "secret1"))

	stored, err := f.repo.GetByEmail(context.Background(), "jane.doe@clinic.org")
	require.NoError(t, err)
	assert.Equal(t, a.ID, stored.ID)

	assert.Equal(t, []string{entity.AuthActionSignup}, f.events.Actions())
	require.Len(t, f.mail.jobs, 1)
	assert.Equal(t, mailtpl.Welcome, f.mail.jobs[0].Template)
	assert.Equal(t, "jane.doe@clinic.org", f.mail.jobs[0].To)
	assert.Equal(t, 0, f.store.Len(), "sign-up alone must not open a session")
}

func TestSignUp_UsernameSuffixes(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "bob@a.com", "secret1", "clinician")
	second := f.signUp(t, "bob@b.com", "secret1", "clinician")
	third := f.signUp(t, "bob@c.com", "secret1", "patient")

	assert.Equal(t, "bob1", second.Username)
	assert.Equal(t, "bob2", third.Username)
	assert.Equal(t, "Bob", second.FirstName)
	assert.Equal(t, "Account", second.LastName)
}

func TestSignUp_Validation(t *testing.T) {
	cases := []struct {
		name string
		in   Credentials
		msg  string
	}{
		{"blank email", Credentials{Email: "  ", Password: "secret1", AccountType: "patient"}, MsgFieldsRequired},
		{"blank password", Credentials{Email: "a@b.com", Password: "", AccountType: "patient"}, MsgFieldsRequired},
		{"blank type", Credentials{Email: "a@b.com", Password: "secret1", AccountType: ""}, MsgFieldsRequired},
		{"bad email", Credentials{Email: "not-an-email", Password: "secret1", AccountType: "patient"}, MsgInvalidEmail},
		{"short password", Credentials{Email: "a@b.com", Password: "abc12", AccountType: "patient"}, MsgPasswordTooShort},
		{"unknown type", Credentials{Email: "a@b.com", Password: "secret1", AccountType: "nurse"}, MsgInvalidType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.SignUp(context.Background(), tc.in, RequestMeta{})
			assertKind(t, err, KindValidation, tc.msg)
			c, _ := f.repo.Counts(context.Background())
			assert.Zero(t, c.Total)
		})
	}
}

func TestSignUp_PasswordLengthCountsCharacters(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SignUp(context.Background(), Credentials{Email: "a@b.com", Password: "éééééé", AccountType: "patient"}, RequestMeta{})
	assert.NoError(t, err)
}

func TestSignUp_PasswordLongerThanBcryptLimit(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("a", 73)
	f.signUp(t, "long@x.com", long, "patient")

	_, err := f.svc.SignIn(context.Background(), newJar(), Credentials{Email: "long@x.com", Password: long, AccountType: "patient"}, RequestMeta{})
	require.NoError(t, err)

	_, err = f.svc.SignIn(context.Background(), newJar(), Credentials{Email: "long@x.com", Password: long[:72], AccountType: "patient"}, RequestMeta{})
	assertKind(t, err, KindAuth, MsgBadCredentials)
}

func TestSignUp_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "jane@x.com", "secret1", "patient")

	_, err := f.svc.SignUp(context.Background(), Credentials{Email: "JANE@X.com", Password: "secret1", AccountType: "clinician"}, RequestMeta{})
	assertKind(t, err, KindConflict, MsgEmailTaken)
	assert.Equal(t, []string{entity.AuthActionSignup, entity.AuthActionSignupRejected}, f.events.Actions())
}

type raceRepo struct {
	*memory.AccountRepository
	createErr error
}

func (r *raceRepo) EmailExists(context.Context, string) (bool, error) { return false, nil }
func (r *raceRepo) Create(context.Context, *entity.Account) error      { return r.createErr }

func TestSignUp_InsertViolations(t *testing.T) {
	f := newFixture(t)

	f.svc.Repo = &raceRepo{AccountRepository: f.repo, createErr: repository.ErrDuplicateEmail}
	_, err := f.svc.SignUp(context.Background(), Credentials{Email: "a@b.com", Password: "secret1", AccountType: "patient"}, RequestMeta{})
	assertKind(t, err, KindConflict, MsgEmailTaken)

	f.svc.Repo = &raceRepo{AccountRepository: f.repo, createErr: repository.ErrDuplicateUsername}
	_, err = f.svc.SignUp(context.Background(), Credentials{Email: "a@b.com", Password: "secret1", AccountType: "patient"}, RequestMeta{})
	assertKind(t, err, KindPersistence, MsgCreateFailed)
	assert.ErrorIs(t, err, repository.ErrDuplicateUsername)
}

func TestSignUp_MailDisabledOrFailing(t *testing.T) {
	f := newFixture(t)
	f.svc.Cfg.MailSendEnabled = false
	f.signUp(t, "a@b.com", "secret1", "patient")
	assert.Empty(t, f.mail.jobs)

	f.svc.Cfg.MailSendEnabled = true
	f.mail.err = errors.New("broker down")
	f.signUp(t, "c@d.com", "secret1", "patient")
}

func TestSignIn_Success(t *testing.T) {
	f := newFixture(t)
	created := f.signUp(t, "doc@clinic.org", "secret1", "clinician")
	j := newJar()

	a, err := f.svc.SignIn(context.Background(), j, Credentials{Email: "DOC@clinic.org", Password: "secret1", AccountType: "Clinician"}, RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, a.ID)
	assert.Equal(t, "/clinician/dashboard", a.AccountType.DashboardPath())

	tok, err := j.Cookie("session")
	require.NoError(t, err)
	claims, err := f.sessions.JWT.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.AccountID)
	assert.Equal(t, "clinician", claims.Role)
	assert.Equal(t, "doc", claims.Username)
	assert.Equal(t, 1, f.store.Len())

	events := f.events.Events()
	last := events[len(events)-1]
	assert.Equal(t, entity.AuthActionSignin, last.Action)
	assert.Equal(t, "10.0.0.1", last.IP)

	require.Len(t, f.mail.jobs, 2)
	assert.Equal(t, mailtpl.SigninNotification, f.mail.jobs[1].Template)
}

func TestSignIn_Rejections(t *testing.T) {
	f := newFixture(t)
	pat := f.signUp(t, "pat@x.com", "secret1", "patient")
	f.signUp(t, "off@x.com", "secret1", "patient")
	off, _ := f.repo.GetByEmail(context.Background(), "off@x.com")
	require.NoError(t, f.repo.SetActive(off.ID, false))

	cases := []struct {
		name string
		in   Credentials
		kind ErrorKind
		msg  string
	}{
		{"blank", Credentials{Email: "pat@x.com", Password: "", AccountType: "patient"}, KindValidation, MsgFieldsRequired},
		{"unknown email", Credentials{Email: "ghost@x.com", Password: "secret1", AccountType: "patient"}, KindAuth, MsgBadCredentials},
		{"wrong password", Credentials{Email: "pat@x.com", Password: "wrong!!", AccountType: "patient"}, KindAuth, MsgBadCredentials},
		{"type mismatch", Credentials{Email: "pat@x.com", Password: "secret1", AccountType: "administrator"}, KindAuth, MsgTypeMismatch},
		{"deactivated", Credentials{Email: "off@x.com", Password: "secret1", AccountType: "patient"}, KindAuth, MsgDeactivated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			j := newJar()
			_, err := f.svc.SignIn(context.Background(), j, tc.in, RequestMeta{})
			assertKind(t, err, tc.kind, tc.msg)
			_, cerr := j.Cookie("session")
			assert.ErrorIs(t, cerr, http.ErrNoCookie)
		})
	}
	assert.Equal(t, 0, f.store.Len())

	// Deactivation is checked before the password.
	_, err := f.svc.SignIn(context.Background(), newJar(), Credentials{Email: "off@x.com", Password: "bad", AccountType: "patient"}, RequestMeta{})
	assertKind(t, err, KindAuth, MsgDeactivated)

	stored, _ := f.repo.GetByID(context.Background(), pat.ID)
	assert.Equal(t, pat.Password, stored.Password)
}

type failingIssuer struct{ SessionIssuer }

func (failingIssuer) Issue(context.Context, helpers.CookieJar, *entity.Account) (*entity.Session, error) {
	return nil, errors.New("redis down")
}

type touchFailRepo struct{ *memory.AccountRepository }

func (touchFailRepo) Touch(context.Context, string) error { return errors.New("db down") }

func TestSignIn_FailedSessionLeavesLastSignInUntouched(t *testing.T) {
	f := newFixture(t)
	created := f.signUp(t, "a@b.com", "secret1", "patient")
	before, err := f.repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)

	f.svc.Sessions = failingIssuer{SessionIssuer: f.sessions}
	_, err = f.svc.SignIn(context.Background(), newJar(), Credentials{Email: "a@b.com", Password: "secret1", AccountType: "patient"}, RequestMeta{})
	assertKind(t, err, KindPersistence, MsgSigninFailed)

	after, err := f.repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestSignIn_FailedTouchRevokesSession(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "a@b.com", "secret1", "patient")
	f.svc.Repo = touchFailRepo{AccountRepository: f.repo}

	j := newJar()
	_, err := f.svc.SignIn(context.Background(), j, Credentials{Email: "a@b.com", Password: "secret1", AccountType: "patient"}, RequestMeta{})
	assertKind(t, err, KindPersistence, MsgSigninFailed)
	assert.Equal(t, 0, f.store.Len())
	_, err = j.Cookie("session")
	assert.ErrorIs(t, err, http.ErrNoCookie)
}

func TestSignOut(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "a@b.com", "secret1", "patient")
	j := newJar()
	_, err := f.svc.SignIn(context.Background(), j, Credentials{Email: "a@b.com", Password: "secret1", AccountType: "patient"}, RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, 1, f.store.Len())

	f.svc.SignOut(context.Background(), j, RequestMeta{})
	assert.Equal(t, 0, f.store.Len())
	_, err = j.Cookie("session")
	assert.ErrorIs(t, err, http.ErrNoCookie)
	assert.Equal(t, entity.AuthActionSignout, f.events.Actions()[len(f.events.Actions())-1])

	// Without a session it is a no-op.
	f.svc.SignOut(context.Background(), newJar(), RequestMeta{})
}

func TestDashboardCounts(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "admin@x.com", "secret1", "administrator")
	f.signUp(t, "doc@x.com", "secret1", "clinician")
	f.signUp(t, "p1@x.com", "secret1", "patient")
	f.signUp(t, "p2@x.com", "secret1", "patient")

	c, err := f.svc.DashboardCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.DashboardCounts{Total: 4, Clinicians: 1, Patients: 2}, c)
}

type fakeAvatars struct {
	path, contentType, body string
	err                     error
}

func (s *fakeAvatars) Upload(_ context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, _ := io.ReadAll(r)
	s.path, s.contentType, s.body = objectPath, contentType, string(b)
	return "https://cdn.test/" + objectPath, nil
}

func TestUploadAvatar(t *testing.T) {
	f := newFixture(t)
	a := f.signUp(t, "a@b.com", "secret1", "patient")
	ctx := context.Background()

	_, err := f.svc.UploadAvatar(ctx, a.ID, Avatar{Filename: "me.png", ContentType: "image/png", Body: strings.NewReader("png")})
	assertKind(t, err, KindPersistence, MsgAvatarUnavailable)

	store := &fakeAvatars{}
	f.svc.Avatars = store
	_, err = f.svc.UploadAvatar(ctx, a.ID, Avatar{Filename: "me.txt", ContentType: "text/plain", Body: strings.NewReader("x")})
	assertKind(t, err, KindValidation, MsgInvalidAvatar)

	updated, err := f.svc.UploadAvatar(ctx, a.ID, Avatar{Filename: "Me.PNG", ContentType: "image/png", Body: strings.NewReader("png")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(store.path, "avatars/"+a.ID+"/"))
	assert.True(t, strings.HasSuffix(store.path, ".png"))
	assert.Equal(t, "png", store.body)
	assert.Equal(t, "https://cdn.test/"+store.path, updated.AvatarURL)

	store.err = errors.New("bucket gone")
	_, err = f.svc.UploadAvatar(ctx, a.ID, Avatar{Filename: "me.png", ContentType: "image/png", Body: strings.NewReader("png")})
	assertKind(t, err, KindPersistence, MsgAvatarFailed)
}

type fakeIndex struct {
	indexed []string
	q       string
	typ     entity.AccountType
	size    int
}

func (x *fakeIndex) Index(_ context.Context, a *entity.Account) error {
	x.indexed = append(x.indexed, a.ID)
	return nil
}

func (x *fakeIndex) Search(_ context.Context, q string, typ entity.AccountType, size int) ([]entity.DirectoryEntry, error) {
	x.q, x.typ, x.size = q, typ, size
	return []entity.DirectoryEntry{{ID: "1", Username: "jane"}}, nil
}

func TestSearchAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hits, err := f.svc.SearchAccounts(ctx, "jane", "", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	idx := &fakeIndex{}
	f.svc.Index = idx
	a := f.signUp(t, "jane@x.com", "secret1", "patient")
	assert.Equal(t, []string{a.ID}, idx.indexed)

	hits, err = f.svc.SearchAccounts(ctx, " jane ", "Patient", 500)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.Equal(t, "jane", idx.q)
	assert.Equal(t, entity.AccountTypePatient, idx.typ)
	assert.Equal(t, maxSearchSize, idx.size)

	_, err = f.svc.SearchAccounts(ctx, "jane", "nurse", 10)
	assertKind(t, err, KindValidation, MsgInvalidType)
}

func TestGetAccount_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetAccount(context.Background(), "missing")
	assertKind(t, err, KindAuth, MsgAccountNotFound)
}
