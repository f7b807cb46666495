package auth

import (
	"context"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eci4ever/bizadmin/internal/adapters/out/sqlite"
	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
)

type recordingMailer struct {
	mu    sync.Mutex
	sent  []out.Mail
	fails error
}

func (m *recordingMailer) Send(_ context.Context, mail out.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails != nil {
		return m.fails
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *recordingMailer) last(t *testing.T) out.Mail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail sent")
	return m.sent[len(m.sent)-1]
}

type testEnv struct {
	svc    *Service
	store  *sqlite.Store
	mailer *recordingMailer
	clock  time.Time
}

func (e *testEnv) advance(d time.Duration) { e.clock = e.clock.Add(d) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := log.New(io.Discard)

	db, err := sqlite.Open(ctx, sqlite.Options{Path: filepath.Join(t.TempDir(), "auth.db"), Log: logger})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db, sqlite.MigrateUp, logger))

	env := &testEnv{
		store:  sqlite.NewStore(db, logger),
		mailer: &recordingMailer{},
		clock:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.svc = NewService(Config{
		Secret:     []byte("test-secret"),
		BcryptCost: bcrypt.MinCost,
		BaseURL:    "http://localhost:8787/",
	}, env.store, env.mailer, nil, logger)
	env.svc.now = func() time.Time { return env.clock }
	return env
}

func (e *testEnv) signUp(t *testing.T, name, email string) *domain.Identity {
	t.Helper()
	id, err := e.svc.SignUp(context.Background(), in.SignUpInput{
		Name: name, Email: email, Password: "password123",
	}, domain.RequestMeta{IPAddress: "127.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	return id
}

func (e *testEnv) admin(t *testing.T) *domain.Identity {
	t.Helper()
	ctx := context.Background()
	_, err := e.svc.EnsureAdmin(ctx, "Root", "root@example.com", "rootpassword")
	require.NoError(t, err)
	id, err := e.svc.SignIn(ctx, "root@example.com", "rootpassword", domain.RequestMeta{})
	require.NoError(t, err)
	return id
}

func TestSignUp_IssuesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.signUp(t, "Alice", " Alice@Example.com ")
	assert.Equal(t, "alice@example.com", id.User.Email)
	assert.Equal(t, domain.RoleUser, id.User.Role)
	assert.NotEmpty(t, id.Session.Token)
	assert.Equal(t, env.clock.Add(DefaultSessionTTL), id.Session.ExpiresAt)

	got, err := env.svc.GetSession(ctx, id.Session.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id.User.ID, got.User.ID)
	assert.Equal(t, "127.0.0.1", *got.Session.IPAddress)
}

func TestSignUp_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input in.SignUpInput
		msg   string
	}{
		{"missing name", in.SignUpInput{Email: "a@b.co", Password: "password123"}, "name and email are required"},
		{"bad email", in.SignUpInput{Name: "A", Email: "nope", Password: "password123"}, "invalid email format"},
		{"markup", in.SignUpInput{Name: "<b>A</b>", Email: "a@b.co", Password: "password123"}, "name contains disallowed markup"},
		{"short password", in.SignUpInput{Name: "A", Email: "a@b.co", Password: "short"}, "Password too short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.SignUp(ctx, tt.input, domain.RequestMeta{})
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tt.msg, domain.Message(err))
		})
	}
}

func TestSignUp_PasswordLengthBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, err := env.svc.SignUp(ctx, in.SignUpInput{
		Name: "Max", Email: "max@example.com", Password: strings.Repeat("a", MaxPasswordBytes),
	}, domain.RequestMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, id.Session.Token)

	_, err = env.svc.SignUp(ctx, in.SignUpInput{
		Name: "Over", Email: "over@example.com", Password: strings.Repeat("a", MaxPasswordBytes+1),
	}, domain.RequestMeta{})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Password too long", domain.Message(err))

	err = env.svc.ChangePassword(ctx, id, strings.Repeat("a", MaxPasswordBytes), strings.Repeat("b", 100), false)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestConfig_MaxPasswordLengthClamped(t *testing.T) {
	assert.Equal(t, MaxPasswordBytes, Config{}.withDefaults().MaxPasswordLength)
	assert.Equal(t, MaxPasswordBytes, Config{MaxPasswordLength: 128}.withDefaults().MaxPasswordLength)
	assert.Equal(t, 64, Config{MaxPasswordLength: 64}.withDefaults().MaxPasswordLength)
}

func TestGetSession_BannedOwnerRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signUp(t, "Alice", "alice@example.com")

	reason := "manual"
	_, err := env.store.Users().SetBan(ctx, id.User.ID, true, &reason, nil, env.clock)
	require.NoError(t, err)

	_, _, err = env.store.Sessions().GetWithUser(ctx, id.Session.Token)
	require.NoError(t, err, "session row is still stored")

	got, err := env.svc.GetSession(ctx, id.Session.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetSession_LapsedBanCleared(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signUp(t, "Alice", "alice@example.com")

	expires := env.clock.Add(time.Minute)
	_, err := env.store.Users().SetBan(ctx, id.User.ID, true, nil, &expires, env.clock)
	require.NoError(t, err)

	got, err := env.svc.GetSession(ctx, id.Session.Token)
	require.NoError(t, err)
	assert.Nil(t, got)

	env.advance(time.Minute)
	got, err = env.svc.GetSession(ctx, id.Session.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.User.Banned)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "Alice", "alice@example.com")

	_, err := env.svc.SignUp(context.Background(), in.SignUpInput{
		Name: "Other", Email: "ALICE@example.com", Password: "password123",
	}, domain.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSignIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signUp(t, "Alice", "alice@example.com")

	_, err := env.svc.SignIn(ctx, "alice@example.com", "wrong-password", domain.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = env.svc.SignIn(ctx, "nobody@example.com", "password123", domain.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	id, err := env.svc.SignIn(ctx, "ALICE@example.com", "password123", domain.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", id.User.Email)
}

func TestGetSession_ExpiredRowStillStored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signUp(t, "Alice", "alice@example.com")

	env.clock = id.Session.ExpiresAt.Add(-time.Second)
	got, err := env.svc.GetSession(ctx, id.Session.Token)
	require.NoError(t, err)
	assert.NotNil(t, got)

	env.clock = id.Session.ExpiresAt
	got, err = env.svc.GetSession(ctx, id.Session.Token)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, _, err = env.store.Sessions().GetWithUser(ctx, id.Session.Token)
	assert.NoError(t, err, "expired row must still exist")

	env.advance(time.Hour)
	got, err = env.svc.GetSession(ctx, id.Session.Token)
	require.NoError(t, err)
	assert.Nil(t, got, "expired sessions are never resurrected")
}

func TestGetSession_UnknownToken(t *testing.T) {
	env := newTestEnv(t)

	got, err := env.svc.GetSession(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = env.svc.GetSession(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSignOut_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signUp(t, "Alice", "alice@example.com")

	require.NoError(t, env.svc.SignOut(ctx, id.Session.Token))
	require.NoError(t, env.svc.SignOut(ctx, id.Session.Token))

	got, err := env.svc.GetSession(ctx, id.Session.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.signUp(t, "Alice", "alice@example.com")
	second, err := env.svc.SignIn(ctx, "alice@example.com", "password123", domain.RequestMeta{})
	require.NoError(t, err)

	err = env.svc.ChangePassword(ctx, first, "wrong-password", "newpassword1", false)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.NoError(t, env.svc.ChangePassword(ctx, first, "password123", "newpassword1", true))

	_, err = env.svc.SignIn(ctx, "alice@example.com", "password123", domain.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = env.svc.SignIn(ctx, "alice@example.com", "newpassword1", domain.RequestMeta{})
	assert.NoError(t, err)

	kept, err := env.svc.GetSession(ctx, first.Session.Token)
	require.NoError(t, err)
	assert.NotNil(t, kept)

	revoked, err := env.svc.GetSession(ctx, second.Session.Token)
	require.NoError(t, err)
	assert.Nil(t, revoked)
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.signUp(t, "Alice", "alice@example.com")

	name := "Alice Smith"
	user, err := env.svc.UpdateUser(ctx, id, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", user.Name)

	_, err = env.svc.UpdateUser(ctx, id, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.svc.UpdateUser(ctx, nil, &name, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSessions_ListAndRevoke(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUp(t, "Alice", "alice@example.com")
	bob := env.signUp(t, "Bob", "bob@example.com")
	second, err := env.svc.SignIn(ctx, "alice@example.com", "password123", domain.RequestMeta{})
	require.NoError(t, err)

	sessions, err := env.svc.ListSessions(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	// Someone else's token is ignored.
	require.NoError(t, env.svc.RevokeSession(ctx, alice, bob.Session.Token))
	got, err := env.svc.GetSession(ctx, bob.Session.Token)
	require.NoError(t, err)
	assert.NotNil(t, got)

	require.NoError(t, env.svc.RevokeSession(ctx, alice, second.Session.Token))
	sessions, err = env.svc.ListSessions(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestCleanupExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signUp(t, "Alice", "alice@example.com")
	require.NoError(t, env.svc.RequestPasswordReset(ctx, "alice@example.com", ""))

	n, v, err := env.svc.CleanupExpired(ctx, env.clock)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, v)

	n, v, err = env.svc.CleanupExpired(ctx, env.clock.Add(DefaultSessionTTL))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(1), v)
}

func TestEnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUp(t, "Alice", "alice@example.com")

	user, err := env.svc.EnsureAdmin(ctx, "", "alice@example.com", "ignored-password")
	require.NoError(t, err)
	assert.Equal(t, alice.User.ID, user.ID)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	again, err := env.svc.EnsureAdmin(ctx, "", "alice@example.com", "ignored-password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	created, err := env.svc.EnsureAdmin(ctx, "", "ops@example.com", "opspassword")
	require.NoError(t, err)
	assert.Equal(t, "ops", created.Name)
	assert.Equal(t, domain.RoleAdmin, created.Role)
}

func TestVerifyEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUp(t, "Alice", "alice@example.com")

	require.NoError(t, env.svc.SendVerificationEmail(ctx, "alice@example.com"))
	mail := env.mailer.last(t)
	assert.Equal(t, out.MailVerifyEmail, mail.Kind)
	assert.Equal(t, "alice@example.com", mail.To)

	link, err := url.Parse(mail.Link)
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/verify-email", link.Path)
	token := link.Query().Get("token")

	_, err = env.svc.VerifyEmail(ctx, token+"x")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	user, err := env.svc.VerifyEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)

	got, err := env.svc.GetSession(ctx, alice.Session.Token)
	require.NoError(t, err)
	assert.True(t, got.User.EmailVerified)

	// Verified and unknown addresses send nothing.
	sent := len(env.mailer.sent)
	require.NoError(t, env.svc.SendVerificationEmail(ctx, "alice@example.com"))
	require.NoError(t, env.svc.SendVerificationEmail(ctx, "ghost@example.com"))
	assert.Len(t, env.mailer.sent, sent)
}

func TestVerifyEmail_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signUp(t, "Alice", "alice@example.com")

	require.NoError(t, env.svc.SendVerificationEmail(ctx, "alice@example.com"))
	link, err := url.Parse(env.mailer.last(t).Link)
	require.NoError(t, err)

	env.advance(2 * time.Hour)
	_, err = env.svc.VerifyEmail(ctx, link.Query().Get("token"))
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUp(t, "Alice", "alice@example.com")

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "alice@example.com", "/reset"))
	mail := env.mailer.last(t)
	assert.Equal(t, out.MailResetPassword, mail.Kind)

	link, err := url.Parse(mail.Link)
	require.NoError(t, err)
	assert.Equal(t, "/reset", link.Path)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	err = env.svc.ResetPassword(ctx, token, "short")
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, env.svc.ResetPassword(ctx, token, "brandnewpass"))

	// Single use.
	err = env.svc.ResetPassword(ctx, token, "anotherpass1")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	got, err := env.svc.GetSession(ctx, alice.Session.Token)
	require.NoError(t, err)
	assert.Nil(t, got, "reset ends every session")

	_, err = env.svc.SignIn(ctx, "alice@example.com", "brandnewpass", domain.RequestMeta{})
	assert.NoError(t, err)
}

func TestPasswordReset_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signUp(t, "Alice", "alice@example.com")

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "alice@example.com", ""))
	link, err := url.Parse(env.mailer.last(t).Link)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8787", link.Host)

	env.advance(time.Hour)
	err = env.svc.ResetPassword(ctx, link.Query().Get("token"), "brandnewpass")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestPasswordReset_ForeignRedirect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signUp(t, "Alice", "alice@example.com")

	err := env.svc.RequestPasswordReset(ctx, "alice@example.com", "https://evil.example.net/steal")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, env.mailer.sent)

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "ghost@example.com", ""))
	assert.Empty(t, env.mailer.sent)
}
