package dto

import "github.com/eci4ever/bizadmin/internal/domain"

// SignUpRequest is the body of POST /api/auth/sign-up/email.
type SignUpRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Image    *string `json:"image"`
}

// SignInRequest is the body of POST /api/auth/sign-in/email.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned when a session is issued.
type AuthResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// UpdateUserRequest is the body of POST /api/auth/update-user.
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

// ChangePasswordRequest is the body of POST /api/auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword     string `json:"currentPassword"`
	NewPassword         string `json:"newPassword"`
	RevokeOtherSessions bool   `json:"revokeOtherSessions"`
}

// TokenRequest carries a session token.
type TokenRequest struct {
	Token string `json:"token"`
}

// EmailRequest carries an address for the verification flow.
type EmailRequest struct {
	Email string `json:"email"`
}

// PasswordResetRequest is the body of POST /api/auth/request-password-reset.
type PasswordResetRequest struct {
	Email      string `json:"email"`
	RedirectTo string `json:"redirectTo"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// StatusResponse acknowledges an operation without a payload.
type StatusResponse struct {
	Status bool `json:"status"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	User domain.User `json:"user"`
}

// SessionsResponse wraps a list of sessions.
type SessionsResponse struct {
	Sessions []domain.Session `json:"sessions"`
}

// CreateUserRequest is the body of POST /api/auth/admin/create-user.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserIDRequest names the target of an admin operation.
type UserIDRequest struct {
	UserID string `json:"userId"`
}

// AdminUpdateUserRequest is the body of POST /api/auth/admin/update-user.
type AdminUpdateUserRequest struct {
	UserID string `json:"userId"`
	Data   struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Image *string `json:"image"`
		Role  *string `json:"role"`
	} `json:"data"`
}

// SetRoleRequest is the body of POST /api/auth/admin/set-role.
type SetRoleRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// BanUserRequest is the body of POST /api/auth/admin/ban-user.
// BanExpiresIn is in seconds; zero bans without expiry.
type BanUserRequest struct {
	UserID       string `json:"userId"`
	BanReason    string `json:"banReason"`
	BanExpiresIn int64  `json:"banExpiresIn"`
}

// SetUserPasswordRequest is the body of POST /api/auth/admin/set-user-password.
type SetUserPasswordRequest struct {
	UserID      string `json:"userId"`
	NewPassword string `json:"newPassword"`
}
