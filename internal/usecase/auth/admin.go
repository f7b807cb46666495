package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
	"github.com/eci4ever/bizadmin/pkg/sanitize"
)

// requireAdmin is the authorization boundary for every admin operation.
func requireAdmin(actor *domain.Identity) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	if !actor.User.Role.IsAdmin() {
		return domain.Forbidden("Only admins can perform this action")
	}
	return nil
}

func (s *Service) loadTarget(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.Validation("userId is required")
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, out.ErrNoRows) {
		return nil, domain.NotFound("User not found")
	}
	return user, err
}

// ListUsers pages through auth users.
func (s *Service) ListUsers(ctx context.Context, actor *domain.Identity, q domain.ListUsersQuery) (*domain.UserPage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	users, total, err := s.store.Users().List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &domain.UserPage{Users: users, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// CreateUser adds a user with a password credential.
func (s *Service) CreateUser(ctx context.Context, actor *domain.Identity, input in.CreateUserInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
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
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}

	user, err := s.createUser(ctx, name, email, input.Password, role, nil)
	if err != nil {
		return nil, err
	}
	s.log.Info("admin created user", "admin", actor.User.ID, "user", user.ID, "role", role)
	return user, nil
}

// AdminUpdateUser changes another user's profile fields or role.
func (s *Service) AdminUpdateUser(ctx context.Context, actor *domain.Identity, userID string, patch domain.UserPatch) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.loadTarget(ctx, userID); err != nil {
		return nil, err
	}
	if patch.Name != nil {
		n, err := sanitize.PlainText("name", *patch.Name)
		if err != nil {
			return nil, domain.Validation(err.Error())
		}
		if n == "" {
			return nil, domain.Validation("name cannot be empty")
		}
		patch.Name = &n
	}
	if patch.Email != nil {
		e := normalizeEmail(*patch.Email)
		if !domain.ValidEmail(e) {
			return nil, domain.Validation("invalid email format")
		}
		patch.Email = &e
	}
	if patch.Empty() {
		return nil, domain.Validation("no fields to update")
	}

	user, err := s.store.Users().Update(ctx, userID, patch, s.now())
	switch {
	case errors.Is(err, out.ErrNoRows):
		return nil, domain.NotFound("User not found")
	case errors.Is(err, out.ErrUniqueViolation):
		return nil, domain.Conflict("Email already exists")
	case err != nil:
		return nil, err
	}
	return user, nil
}

// SetRole changes a user's role.
func (s *Service) SetRole(ctx context.Context, actor *domain.Identity, userID string, role domain.Role) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := domain.ParseRole(role.String()); err != nil || role == "" {
		return nil, domain.Validation("role must be either 'user' or 'admin'")
	}
	user, err := s.AdminUpdateUser(ctx, actor, userID, domain.UserPatch{Role: &role})
	if err != nil {
		return nil, err
	}
	s.log.Info("role changed", "admin", actor.User.ID, "user", userID, "role", role)
	return user, nil
}

// BanUser bans a user and ends all of their sessions. expiresIn of zero
// bans without expiry.
func (s *Service) BanUser(ctx context.Context, actor *domain.Identity, userID, reason string, expiresIn time.Duration) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if userID == actor.User.ID {
		return nil, domain.Validation("You cannot ban yourself")
	}
	if _, err := s.loadTarget(ctx, userID); err != nil {
		return nil, err
	}
	if expiresIn < 0 {
		return nil, domain.Validation("banExpiresIn must not be negative")
	}

	reason, err := sanitize.PlainText("banReason", reason)
	if err != nil {
		return nil, domain.Validation(err.Error())
	}
	if reason == "" {
		reason = s.config.DefaultBanReason
	}

	now := s.now()
	var expires *time.Time
	if expiresIn > 0 {
		t := now.Add(expiresIn)
		expires = &t
	}

	user, err := s.store.Users().SetBan(ctx, userID, true, &reason, expires, now)
	if errors.Is(err, out.ErrNoRows) {
		return nil, domain.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Sessions().DeleteByUser(ctx, userID); err != nil {
		return nil, err
	}

	s.metrics.Observe("ban_user", "ok")
	s.log.Info("user banned", "admin", actor.User.ID, "user", userID, "reason", reason)
	return user, nil
}

// UnbanUser lifts a ban.
func (s *Service) UnbanUser(ctx context.Context, actor *domain.Identity, userID string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.loadTarget(ctx, userID); err != nil {
		return nil, err
	}
	user, err := s.store.Users().SetBan(ctx, userID, false, nil, nil, s.now())
	if errors.Is(err, out.ErrNoRows) {
		return nil, domain.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("user unbanned", "admin", actor.User.ID, "user", userID)
	return user, nil
}

// RemoveUser deletes a user; sessions and accounts go with it.
func (s *Service) RemoveUser(ctx context.Context, actor *domain.Identity, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == actor.User.ID {
		return domain.Validation("You cannot remove yourself")
	}
	if userID == "" {
		return domain.Validation("userId is required")
	}
	err := s.store.Users().Delete(ctx, userID)
	if errors.Is(err, out.ErrNoRows) {
		return domain.NotFound("User not found")
	}
	if err != nil {
		return err
	}
	s.log.Info("user removed", "admin", actor.User.ID, "user", userID)
	return nil
}

// RevokeUserSessions ends every session of a user.
func (s *Service) RevokeUserSessions(ctx context.Context, actor *domain.Identity, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.loadTarget(ctx, userID); err != nil {
		return err
	}
	n, err := s.store.Sessions().DeleteByUser(ctx, userID)
	if err != nil {
		return err
	}
	s.log.Info("user sessions revoked", "admin", actor.User.ID, "user", userID, "count", n)
	return nil
}

// ListUserSessions returns a user's active sessions.
func (s *Service) ListUserSessions(ctx context.Context, actor *domain.Identity, userID string) ([]domain.Session, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.loadTarget(ctx, userID); err != nil {
		return nil, err
	}
	return s.activeSessions(ctx, userID)
}

// SetUserPassword replaces a user's password without knowing the old one.
func (s *Service) SetUserPassword(ctx context.Context, actor *domain.Identity, userID, newPassword string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.loadTarget(ctx, userID); err != nil {
		return err
	}
	if err := s.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}
	s.log.Info("user password set", "admin", actor.User.ID, "user", userID)
	return nil
}

// ImpersonateUser opens a short session as another non-admin user.
func (s *Service) ImpersonateUser(ctx context.Context, actor *domain.Identity, userID string, meta domain.RequestMeta) (*domain.Identity, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	target, err := s.loadTarget(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.Role.IsAdmin() {
		return nil, domain.Forbidden("Cannot impersonate an admin")
	}
	if target.IsBanned(s.now()) {
		return nil, domain.ErrBanned
	}

	adminID := actor.User.ID
	identity, err := s.issueSession(ctx, target, meta, s.config.ImpersonationTTL, &adminID)
	if err != nil {
		return nil, err
	}
	s.log.Info("impersonation started", "admin", adminID, "user", userID)
	return identity, nil
}

// StopImpersonating ends the caller's impersonation session.
func (s *Service) StopImpersonating(ctx context.Context, caller *domain.Identity) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	if caller.Session.ImpersonatedBy == nil || strings.TrimSpace(*caller.Session.ImpersonatedBy) == "" {
		return domain.Validation("You are not impersonating anyone")
	}
	if err := s.store.Sessions().DeleteByToken(ctx, caller.Session.Token); err != nil {
		return err
	}
	s.log.Info("impersonation stopped", "admin", *caller.Session.ImpersonatedBy, "user", caller.User.ID)
	return nil
}
