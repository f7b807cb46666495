package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
)

// emailClaims binds a verification link to one address of one user.
type emailClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SendVerificationEmail mails a signed verification link. Unknown and
// already verified addresses are ignored so the endpoint does not reveal
// which emails exist.
func (s *Service) SendVerificationEmail(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !domain.ValidEmail(email) {
		return domain.Validation("invalid email format")
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, out.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return nil
	}

	token, err := s.signEmailToken(user)
	if err != nil {
		return err
	}

	link := s.config.BaseURL + "/api/auth/verify-email?token=" + url.QueryEscape(token)
	if err := s.mailer.Send(ctx, out.Mail{Kind: out.MailVerifyEmail, To: user.Email, Link: link}); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	s.metrics.Observe("send_verification", "ok")
	return nil
}

// VerifyEmail marks the address in token as verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	claims := &emailClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.config.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		s.log.Debug("verification token rejected", "err", err)
		s.metrics.Observe("verify_email", "invalid")
		return nil, domain.ErrInvalidToken
	}

	user, err := s.store.Users().GetByID(ctx, claims.Subject)
	if errors.Is(err, out.ErrNoRows) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	// The address changed since the link was sent.
	if user.Email != claims.Email {
		return nil, domain.ErrInvalidToken
	}

	now := s.now()
	if err := s.store.Users().SetEmailVerified(ctx, user.ID, true, now); err != nil {
		return nil, err
	}
	user.EmailVerified = true
	user.UpdatedAt = now
	s.metrics.Observe("verify_email", "ok")
	return user, nil
}

func (s *Service) signEmailToken(user *domain.User) (string, error) {
	now := s.now()
	claims := emailClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.VerificationTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign verification token: %w", err)
	}
	return signed, nil
}

// RequestPasswordReset stores a one-time reset token and mails a link to
// redirectTo carrying it. Unknown addresses are ignored.
func (s *Service) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	email = normalizeEmail(email)
	if !domain.ValidEmail(email) {
		return domain.Validation("invalid email format")
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, out.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := randomToken(sessionTokenBytes)
	if err != nil {
		return err
	}
	link, err := s.resetLink(redirectTo, token)
	if err != nil {
		return err
	}
	now := s.now()
	if err := s.store.Verifications().Insert(ctx, &domain.Verification{
		ID:         uuid.NewString(),
		Identifier: resetPrefix + token,
		Value:      user.ID,
		ExpiresAt:  now.Add(s.config.ResetTTL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, out.Mail{Kind: out.MailResetPassword, To: user.Email, Link: link}); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	s.metrics.Observe("request_reset", "ok")
	return nil
}

// ResetPassword consumes a reset token, stores the new password and ends
// every session of the user.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrInvalidToken
	}
	if err := s.validatePassword(newPassword); err != nil {
		return err
	}

	v, err := s.store.Verifications().Consume(ctx, resetPrefix+token)
	if errors.Is(err, out.ErrNoRows) {
		s.metrics.Observe("reset_password", "invalid")
		return domain.ErrInvalidToken
	}
	if err != nil {
		return err
	}
	if !s.now().Before(v.ExpiresAt) {
		s.metrics.Observe("reset_password", "expired")
		return domain.ErrInvalidToken
	}

	if err := s.setPassword(ctx, v.Value, newPassword); err != nil {
		return err
	}
	if _, err := s.store.Sessions().DeleteByUser(ctx, v.Value); err != nil {
		return err
	}
	s.metrics.Observe("reset_password", "ok")
	s.log.Info("password reset", "user", v.Value)
	return nil
}

func (s *Service) resetLink(redirectTo, token string) (string, error) {
	if redirectTo == "" {
		redirectTo = s.config.BaseURL + "/reset-password"
	}
	u, err := url.Parse(redirectTo)
	if err != nil {
		return "", domain.Validation("invalid redirectTo")
	}
	if u.IsAbs() {
		base, err := url.Parse(s.config.BaseURL)
		if err != nil || base.Host != u.Host {
			return "", domain.Validation("redirectTo must point to this site")
		}
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
