package in

import (
	"context"
	"time"

	"github.com/eci4ever/bizadmin/internal/domain"
)

// SessionResolver is the part of the auth authority the request gate needs.
type SessionResolver interface {
	// GetSession returns nil, nil when the token does not resolve to an
	// active session of a non-banned user.
	GetSession(ctx context.Context, token string) (*domain.Identity, error)
}

// SignUpInput is the payload of an email+password registration.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Image    *string
}

// CreateUserInput is the payload of an admin-created user.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// AuthService defines the contract for session and credential operations.
type AuthService interface {
	SessionResolver

	SignUp(ctx context.Context, in SignUpInput, meta domain.RequestMeta) (*domain.Identity, error)
	SignIn(ctx context.Context, email, password string, meta domain.RequestMeta) (*domain.Identity, error)
	// SignOut is idempotent.
	SignOut(ctx context.Context, token string) error

	UpdateUser(ctx context.Context, caller *domain.Identity, name, image *string) (*domain.User, error)
	ChangePassword(ctx context.Context, caller *domain.Identity, current, next string, revokeOthers bool) error

	ListSessions(ctx context.Context, caller *domain.Identity) ([]domain.Session, error)
	RevokeSession(ctx context.Context, caller *domain.Identity, token string) error
	RevokeOtherSessions(ctx context.Context, caller *domain.Identity) error

	SendVerificationEmail(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AdminService defines the role-gated user management operations. Every
// method fails with domain.ErrForbidden unless actor holds the admin role.
type AdminService interface {
	ListUsers(ctx context.Context, actor *domain.Identity, q domain.ListUsersQuery) (*domain.UserPage, error)
	CreateUser(ctx context.Context, actor *domain.Identity, in CreateUserInput) (*domain.User, error)
	AdminUpdateUser(ctx context.Context, actor *domain.Identity, userID string, patch domain.UserPatch) (*domain.User, error)
	SetRole(ctx context.Context, actor *domain.Identity, userID string, role domain.Role) (*domain.User, error)
	BanUser(ctx context.Context, actor *domain.Identity, userID, reason string, expiresIn time.Duration) (*domain.User, error)
	UnbanUser(ctx context.Context, actor *domain.Identity, userID string) (*domain.User, error)
	RemoveUser(ctx context.Context, actor *domain.Identity, userID string) error
	RevokeUserSessions(ctx context.Context, actor *domain.Identity, userID string) error
	ListUserSessions(ctx context.Context, actor *domain.Identity, userID string) ([]domain.Session, error)
	SetUserPassword(ctx context.Context, actor *domain.Identity, userID, newPassword string) error
	ImpersonateUser(ctx context.Context, actor *domain.Identity, userID string, meta domain.RequestMeta) (*domain.Identity, error)
	StopImpersonating(ctx context.Context, caller *domain.Identity) error
}

// Authority is the full auth surface served under /api/auth.
type Authority interface {
	AuthService
	AdminService
}
