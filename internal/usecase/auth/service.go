// Package auth implements the session and role authority: credential
// checks, session issuance and lookup, and admin user management.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
	"github.com/eci4ever/bizadmin/pkg/sanitize"
)

const (
	// DefaultBcryptCost is the default cost for bcrypt hashing.
	DefaultBcryptCost = 12
	// DefaultSessionTTL is how long a signed-in session lives.
	DefaultSessionTTL = 7 * 24 * time.Hour
	// sessionTokenBytes is the entropy of a session token.
	sessionTokenBytes = 32
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
	// resetPrefix namespaces password reset rows in the verification table.
	resetPrefix = "reset-password:"
)

// Config holds the authentication configuration.
type Config struct {
	Secret            []byte
	SessionTTL        time.Duration
	ImpersonationTTL  time.Duration
	VerificationTTL   time.Duration
	ResetTTL          time.Duration
	MinPasswordLength int
	MaxPasswordLength int
	BcryptCost        int
	BaseURL           string
	DefaultBanReason  string
}

func (c Config) withDefaults() Config {
	if c.SessionTTL == 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.ImpersonationTTL == 0 {
		c.ImpersonationTTL = time.Hour
	}
	if c.VerificationTTL == 0 {
		c.VerificationTTL = time.Hour
	}
	if c.ResetTTL == 0 {
		c.ResetTTL = time.Hour
	}
	if c.MinPasswordLength == 0 {
		c.MinPasswordLength = 8
	}
	if c.MaxPasswordLength == 0 || c.MaxPasswordLength > MaxPasswordBytes {
		c.MaxPasswordLength = MaxPasswordBytes
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = DefaultBcryptCost
	}
	if c.DefaultBanReason == "" {
		c.DefaultBanReason = "No reason"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

var _ in.Authority = (*Service)(nil)

// Service implements the auth authority. It is built once by the
// application bootstrap and shared by every request.
type Service struct {
	config  Config
	store   out.AuthStore
	mailer  out.Mailer
	metrics out.AuthMetrics
	log     *log.Logger
	now     func() time.Time
}

// NewService creates a new auth service.
func NewService(config Config, store out.AuthStore, mailer out.Mailer, metrics out.AuthMetrics, logger *log.Logger) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		config:  config.withDefaults(),
		store:   store,
		mailer:  mailer,
		metrics: metrics,
		log:     logger,
		now:     time.Now,
	}
}

type noopMetrics struct{}

func (noopMetrics) Observe(string, string) {}

// GetSession resolves a session token. Absent, expired and banned sessions
// all come back as nil without an error.
func (s *Service) GetSession(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, nil
	}

	sess, user, err := s.store.Sessions().GetWithUser(ctx, token)
	if errors.Is(err, out.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	now := s.now()
	if !sess.Active(now) {
		s.log.Debug("session expired", "session", sess.ID, "expires_at", sess.ExpiresAt)
		return nil, nil
	}
	if user.IsBanned(now) {
		s.log.Debug("session owner is banned", "user", user.ID)
		return nil, nil
	}
	if user.Banned {
		// The ban lapsed; clear it so listings agree.
		if cleared, err := s.store.Users().SetBan(ctx, user.ID, false, nil, nil, now); err != nil {
			s.log.Warn("failed to clear lapsed ban", "user", user.ID, "err", err)
		} else {
			user = cleared
		}
	}

	return &domain.Identity{User: *user, Session: *sess}, nil
}

// SignUp registers an email+password user and signs them in.
func (s *Service) SignUp(ctx context.Context, input in.SignUpInput, meta domain.RequestMeta) (*domain.Identity, error) {
	name, err := sanitize.PlainText("name", input.Name)
	if err != nil {
		return nil, domain.Validation(err.Error())
	}
	email := normalizeEmail(input.Email)
	if name == "" || email == "" {
		return nil, domain.Validation("name and email are required")
	}
	if !domain.ValidEmail(email) {
		return nil, domain.Validation("invalid email format")
	}

	user, err := s.createUser(ctx, name, email, input.Password, domain.RoleUser, input.Image)
	if err != nil {
		s.metrics.Observe("sign_up", "error")
		return nil, err
	}

	identity, err := s.issueSession(ctx, user, meta, s.config.SessionTTL, nil)
	if err != nil {
		return nil, err
	}
	s.metrics.Observe("sign_up", "ok")
	s.log.Info("user signed up", "user", user.ID)
	return identity, nil
}

// SignIn verifies email and password and issues a new session.
func (s *Service) SignIn(ctx context.Context, email, password string, meta domain.RequestMeta) (*domain.Identity, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, out.ErrNoRows) {
		s.metrics.Observe("sign_in", "invalid")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.checkPassword(ctx, user.ID, password); err != nil {
		s.metrics.Observe("sign_in", "invalid")
		return nil, err
	}

	if user.IsBanned(s.now()) {
		s.metrics.Observe("sign_in", "banned")
		return nil, domain.ErrBanned
	}

	identity, err := s.issueSession(ctx, user, meta, s.config.SessionTTL, nil)
	if err != nil {
		return nil, err
	}
	s.metrics.Observe("sign_in", "ok")
	s.log.Debug("user signed in", "user", user.ID)
	return identity, nil
}

// SignOut deletes the session. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Sessions().DeleteByToken(ctx, token); err != nil {
		return err
	}
	s.metrics.Observe("sign_out", "ok")
	return nil
}

// UpdateUser lets a signed-in user change their own name and image.
func (s *Service) UpdateUser(ctx context.Context, caller *domain.Identity, name, image *string) (*domain.User, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	patch := domain.UserPatch{Image: image}
	if name != nil {
		n, err := sanitize.PlainText("name", *name)
		if err != nil {
			return nil, domain.Validation(err.Error())
		}
		if n == "" {
			return nil, domain.Validation("name cannot be empty")
		}
		patch.Name = &n
	}
	if patch.Empty() {
		return nil, domain.Validation("no fields to update")
	}

	user, err := s.store.Users().Update(ctx, caller.User.ID, patch, s.now())
	if errors.Is(err, out.ErrNoRows) {
		return nil, domain.NotFound("User not found")
	}
	return user, err
}

// ChangePassword replaces the caller's password after checking the
// current one. With revokeOthers every other session of the caller ends.
func (s *Service) ChangePassword(ctx context.Context, caller *domain.Identity, current, next string, revokeOthers bool) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	if err := s.checkPassword(ctx, caller.User.ID, current); err != nil {
		s.metrics.Observe("change_password", "invalid")
		return err
	}
	if err := s.setPassword(ctx, caller.User.ID, next); err != nil {
		return err
	}
	if revokeOthers {
		n, err := s.store.Sessions().DeleteByUserExcept(ctx, caller.User.ID, caller.Session.Token)
		if err != nil {
			return err
		}
		s.log.Debug("revoked other sessions", "user", caller.User.ID, "count", n)
	}
	s.metrics.Observe("change_password", "ok")
	return nil
}

// ListSessions returns the caller's sessions that are still active.
func (s *Service) ListSessions(ctx context.Context, caller *domain.Identity) ([]domain.Session, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.activeSessions(ctx, caller.User.ID)
}

// RevokeSession ends one of the caller's own sessions. Tokens that belong
// to someone else, or to nobody, are ignored.
func (s *Service) RevokeSession(ctx context.Context, caller *domain.Identity, token string) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	if token == "" {
		return domain.Validation("token is required")
	}
	sess, _, err := s.store.Sessions().GetWithUser(ctx, token)
	if errors.Is(err, out.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if sess.UserID != caller.User.ID {
		return nil
	}
	return s.store.Sessions().DeleteByToken(ctx, token)
}

// RevokeOtherSessions ends every session of the caller except the current.
func (s *Service) RevokeOtherSessions(ctx context.Context, caller *domain.Identity) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	_, err := s.store.Sessions().DeleteByUserExcept(ctx, caller.User.ID, caller.Session.Token)
	return err
}

// CleanupExpired deletes sessions and verification rows that have expired.
func (s *Service) CleanupExpired(ctx context.Context, now time.Time) (sessions, verifications int64, err error) {
	sessions, err = s.store.Sessions().DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, err
	}
	verifications, err = s.store.Verifications().DeleteExpired(ctx, now)
	if err != nil {
		return sessions, 0, err
	}
	return sessions, verifications, nil
}

// EnsureAdmin creates an admin account, or promotes the user that already
// owns email.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	existing, err := s.store.Users().GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role.IsAdmin() {
			return existing, nil
		}
		role := domain.RoleAdmin
		s.log.Info("promoting existing user to admin", "user", existing.ID)
		return s.store.Users().Update(ctx, existing.ID, domain.UserPatch{Role: &role}, s.now())
	case !errors.Is(err, out.ErrNoRows):
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !domain.ValidEmail(email) {
		return nil, domain.Validation("invalid email format")
	}
	if strings.TrimSpace(name) == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user, err := s.createUser(ctx, strings.TrimSpace(name), email, password, domain.RoleAdmin, nil)
	if err != nil {
		return nil, err
	}
	s.log.Info("admin user created", "user", user.ID)
	return user, nil
}

func (s *Service) createUser(ctx context.Context, name, email, password string, role domain.Role, image *string) (*domain.User, error) {
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Image:     image,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	account := &domain.Account{
		ID:         uuid.NewString(),
		AccountID:  user.ID,
		ProviderID: domain.CredentialProvider,
		UserID:     user.ID,
		Password:   &hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateUserWithAccount(ctx, user, account); err != nil {
		if errors.Is(err, out.ErrUniqueViolation) {
			return nil, domain.Conflict("User already exists")
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) issueSession(ctx context.Context, user *domain.User, meta domain.RequestMeta, ttl time.Duration, impersonatedBy *string) (*domain.Identity, error) {
	token, err := randomToken(sessionTokenBytes)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess := &domain.Session{
		ID:             uuid.NewString(),
		Token:          token,
		UserID:         user.ID,
		ExpiresAt:      now.Add(ttl),
		ImpersonatedBy: impersonatedBy,
		IPAddress:      optional(meta.IPAddress),
		UserAgent:      optional(meta.UserAgent),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Sessions().Insert(ctx, sess); err != nil {
		return nil, err
	}
	return &domain.Identity{User: *user, Session: *sess}, nil
}

func (s *Service) activeSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	all, err := s.store.Sessions().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := make([]domain.Session, 0, len(all))
	for _, sess := range all {
		if sess.Active(now) {
			active = append(active, sess)
		}
	}
	return active, nil
}

// checkPassword compares password against the user's credential account.
// A missing account and a mismatch look the same to the caller.
func (s *Service) checkPassword(ctx context.Context, userID, password string) error {
	account, err := s.store.Accounts().GetByUserAndProvider(ctx, userID, domain.CredentialProvider)
	if errors.Is(err, out.ErrNoRows) {
		return domain.ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if account.Password == nil {
		return domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*account.Password), []byte(password)); err != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// setPassword stores a new hash, creating the credential account when the
// user has none yet.
func (s *Service) setPassword(ctx context.Context, userID, password string) error {
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	now := s.now()
	err = s.store.Accounts().UpdatePassword(ctx, userID, domain.CredentialProvider, hash, now)
	if !errors.Is(err, out.ErrNoRows) {
		return err
	}
	return s.store.Accounts().Insert(ctx, &domain.Account{
		ID:         uuid.NewString(),
		AccountID:  userID,
		ProviderID: domain.CredentialProvider,
		UserID:     userID,
		Password:   &hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (s *Service) validatePassword(password string) error {
	if len(password) < s.config.MinPasswordLength {
		return domain.Validation("Password too short")
	}
	if len(password) > s.config.MaxPasswordLength {
		return domain.Validation("Password too long")
	}
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	if err := s.validatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
