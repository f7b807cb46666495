package domain

import (
	"strings"
	"time"
)

// CredentialProvider is the providerId of email+password accounts.
const CredentialProvider = "credential"

// User is an authentication identity.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"emailVerified"`
	Image         *string    `json:"image"`
	Role          Role       `json:"role"`
	Banned        bool       `json:"banned"`
	BanReason     *string    `json:"banReason"`
	BanExpires    *time.Time `json:"banExpires"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsBanned reports whether the ban is still in force at now. A ban without
// an expiry never lapses.
func (u *User) IsBanned(now time.Time) bool {
	if !u.Banned {
		return false
	}
	if u.BanExpires != nil && !now.Before(*u.BanExpires) {
		return false
	}
	return true
}

// Session is a server-issued, time-bounded credential.
type Session struct {
	ID             string    `json:"id"`
	Token          string    `json:"token"`
	UserID         string    `json:"userId"`
	ExpiresAt      time.Time `json:"expiresAt"`
	ImpersonatedBy *string   `json:"impersonatedBy"`
	IPAddress      *string   `json:"ipAddress"`
	UserAgent      *string   `json:"userAgent"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Active reports whether the session is usable at now.
func (s *Session) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Account binds a user to a credential provider.
type Account struct {
	ID                    string     `json:"id"`
	AccountID             string     `json:"accountId"`
	ProviderID            string     `json:"providerId"`
	UserID                string     `json:"userId"`
	AccessToken           *string    `json:"-"`
	RefreshToken          *string    `json:"-"`
	IDToken               *string    `json:"-"`
	AccessTokenExpiresAt  *time.Time `json:"accessTokenExpiresAt,omitempty"`
	RefreshTokenExpiresAt *time.Time `json:"refreshTokenExpiresAt,omitempty"`
	Scope                 *string    `json:"scope,omitempty"`
	Password              *string    `json:"-"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// Verification is a one-time value used by email and password flows.
type Verification struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Value      string    `json:"value"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Identity is the resolved caller attached to an authenticated request.
type Identity struct {
	User    User    `json:"user"`
	Session Session `json:"session"`
}

// IsAdmin reports whether the caller holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.User.Role.IsAdmin()
}

// RequestMeta is recorded on sessions at issuance.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// UserPatch carries the fields an update may touch. Nil leaves the field
// as it is.
type UserPatch struct {
	Name  *string
	Email *string
	Image *string
	Role  *Role
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Image == nil && p.Role == nil
}

// ListUsersQuery drives the admin user listing.
type ListUsersQuery struct {
	SearchField    string
	SearchValue    string
	SearchOperator string
	FilterField    string
	FilterValue    string
	SortBy         string
	SortDirection  string
	Limit          int
	Offset         int
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// Normalize fills defaults and rejects unknown fields and operators.
func (q ListUsersQuery) Normalize() (ListUsersQuery, error) {
	switch q.SearchField {
	case "":
		if q.SearchValue != "" {
			q.SearchField = "email"
		}
	case "name", "email":
	default:
		return q, Validation("searchField must be either 'name' or 'email'")
	}

	switch q.SearchOperator {
	case "":
		q.SearchOperator = "contains"
	case "contains", "starts_with", "ends_with":
	default:
		return q, Validation("searchOperator must be one of 'contains', 'starts_with', 'ends_with'")
	}

	switch q.FilterField {
	case "", "role", "banned", "emailVerified":
	default:
		return q, Validation("filterField must be one of 'role', 'banned', 'emailVerified'")
	}

	switch q.SortBy {
	case "":
		q.SortBy = "createdAt"
	case "createdAt", "updatedAt", "name", "email":
	default:
		return q, Validation("sortBy must be one of 'createdAt', 'updatedAt', 'name', 'email'")
	}

	switch strings.ToLower(q.SortDirection) {
	case "":
		q.SortDirection = "desc"
	case "asc", "desc":
		q.SortDirection = strings.ToLower(q.SortDirection)
	default:
		return q, Validation("sortDirection must be either 'asc' or 'desc'")
	}

	if q.Limit < 0 || q.Offset < 0 {
		return q, Validation("limit and offset must not be negative")
	}
	if q.Limit == 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	return q, nil
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users  []User `json:"users"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
