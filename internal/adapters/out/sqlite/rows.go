package sqlite

import (
	"database/sql"
	"time"

	"github.com/eci4ever/bizadmin/internal/domain"
)

// Timestamps are stored as unix seconds.

func unix(t time.Time) int64 {
	return t.Unix()
}

func fromUnix(n int64) time.Time {
	return time.Unix(n, 0).UTC()
}

func nullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func fromNullUnix(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromUnix(n.Int64)
	return &t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

func optUnix(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	n := t.Unix()
	return &n
}

type customerRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Email     string         `db:"email"`
	ImageURL  sql.NullString `db:"image_url"`
	CreatedAt int64          `db:"createdAt"`
	UpdatedAt int64          `db:"updatedAt"`
}

func newCustomerRow(c *domain.Customer) customerRow {
	return customerRow{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		ImageURL:  nullString(c.ImageURL),
		CreatedAt: unix(c.CreatedAt),
		UpdatedAt: unix(c.UpdatedAt),
	}
}

func (r customerRow) domain() domain.Customer {
	return domain.Customer{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		ImageURL:  fromNullString(r.ImageURL),
		CreatedAt: fromUnix(r.CreatedAt),
		UpdatedAt: fromUnix(r.UpdatedAt),
	}
}

type invoiceRow struct {
	ID            string         `db:"id"`
	CustomerID    string         `db:"customer_id"`
	CustomerName  sql.NullString `db:"customer_name"`
	CustomerEmail sql.NullString `db:"customer_email"`
	Amount        float64        `db:"amount"`
	Date          int64          `db:"date"`
	Status        string         `db:"status"`
	CreatedAt     int64          `db:"createdAt"`
	UpdatedAt     int64          `db:"updatedAt"`
}

func newInvoiceRow(inv *domain.Invoice) invoiceRow {
	return invoiceRow{
		ID:         inv.ID,
		CustomerID: inv.CustomerID,
		Amount:     inv.Amount,
		Date:       unix(inv.Date),
		Status:     string(inv.Status),
		CreatedAt:  unix(inv.CreatedAt),
		UpdatedAt:  unix(inv.UpdatedAt),
	}
}

func (r invoiceRow) domain() domain.Invoice {
	return domain.Invoice{
		ID:            r.ID,
		CustomerID:    r.CustomerID,
		CustomerName:  fromNullString(r.CustomerName),
		CustomerEmail: fromNullString(r.CustomerEmail),
		Amount:        r.Amount,
		Date:          fromUnix(r.Date),
		Status:        domain.InvoiceStatus(r.Status),
		CreatedAt:     fromUnix(r.CreatedAt),
		UpdatedAt:     fromUnix(r.UpdatedAt),
	}
}

type userRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Email         string         `db:"email"`
	EmailVerified bool           `db:"emailVerified"`
	Image         sql.NullString `db:"image"`
	Role          string         `db:"role"`
	Banned        bool           `db:"banned"`
	BanReason     sql.NullString `db:"banReason"`
	BanExpires    sql.NullInt64  `db:"banExpires"`
	CreatedAt     int64          `db:"createdAt"`
	UpdatedAt     int64          `db:"updatedAt"`
}

func newUserRow(u *domain.User) userRow {
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}
	return userRow{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Image:         nullString(u.Image),
		Role:          string(role),
		Banned:        u.Banned,
		BanReason:     nullString(u.BanReason),
		BanExpires:    nullUnix(u.BanExpires),
		CreatedAt:     unix(u.CreatedAt),
		UpdatedAt:     unix(u.UpdatedAt),
	}
}

func (r userRow) domain() domain.User {
	// The CHECK constraint keeps the column inside the enum.
	role, err := domain.ParseRole(r.Role)
	if err != nil {
		role = domain.RoleUser
	}
	return domain.User{
		ID:            r.ID,
		Name:          r.Name,
		Email:         r.Email,
		EmailVerified: r.EmailVerified,
		Image:         fromNullString(r.Image),
		Role:          role,
		Banned:        r.Banned,
		BanReason:     fromNullString(r.BanReason),
		BanExpires:    fromNullUnix(r.BanExpires),
		CreatedAt:     fromUnix(r.CreatedAt),
		UpdatedAt:     fromUnix(r.UpdatedAt),
	}
}

type sessionRow struct {
	ID             string         `db:"id"`
	Token          string         `db:"token"`
	UserID         string         `db:"userId"`
	ExpiresAt      int64          `db:"expiresAt"`
	ImpersonatedBy sql.NullString `db:"impersonatedBy"`
	IPAddress      sql.NullString `db:"ipAddress"`
	UserAgent      sql.NullString `db:"userAgent"`
	CreatedAt      int64          `db:"createdAt"`
	UpdatedAt      int64          `db:"updatedAt"`
}

func newSessionRow(s *domain.Session) sessionRow {
	return sessionRow{
		ID:             s.ID,
		Token:          s.Token,
		UserID:         s.UserID,
		ExpiresAt:      unix(s.ExpiresAt),
		ImpersonatedBy: nullString(s.ImpersonatedBy),
		IPAddress:      nullString(s.IPAddress),
		UserAgent:      nullString(s.UserAgent),
		CreatedAt:      unix(s.CreatedAt),
		UpdatedAt:      unix(s.UpdatedAt),
	}
}

func (r sessionRow) domain() domain.Session {
	return domain.Session{
		ID:             r.ID,
		Token:          r.Token,
		UserID:         r.UserID,
		ExpiresAt:      fromUnix(r.ExpiresAt),
		ImpersonatedBy: fromNullString(r.ImpersonatedBy),
		IPAddress:      fromNullString(r.IPAddress),
		UserAgent:      fromNullString(r.UserAgent),
		CreatedAt:      fromUnix(r.CreatedAt),
		UpdatedAt:      fromUnix(r.UpdatedAt),
	}
}

// sessionUserRow is a session joined with its owner; user columns carry a
// u_ prefix.
type sessionUserRow struct {
	sessionRow
	UserName          string         `db:"u_name"`
	UserEmail         string         `db:"u_email"`
	UserEmailVerified bool           `db:"u_emailVerified"`
	UserImage         sql.NullString `db:"u_image"`
	UserRole          string         `db:"u_role"`
	UserBanned        bool           `db:"u_banned"`
	UserBanReason     sql.NullString `db:"u_banReason"`
	UserBanExpires    sql.NullInt64  `db:"u_banExpires"`
	UserCreatedAt     int64          `db:"u_createdAt"`
	UserUpdatedAt     int64          `db:"u_updatedAt"`
}

func (r sessionUserRow) user() domain.User {
	return userRow{
		ID:            r.UserID,
		Name:          r.UserName,
		Email:         r.UserEmail,
		EmailVerified: r.UserEmailVerified,
		Image:         r.UserImage,
		Role:          r.UserRole,
		Banned:        r.UserBanned,
		BanReason:     r.UserBanReason,
		BanExpires:    r.UserBanExpires,
		CreatedAt:     r.UserCreatedAt,
		UpdatedAt:     r.UserUpdatedAt,
	}.domain()
}

type accountRow struct {
	ID                    string         `db:"id"`
	AccountID             string         `db:"accountId"`
	ProviderID            string         `db:"providerId"`
	UserID                string         `db:"userId"`
	AccessToken           sql.NullString `db:"accessToken"`
	RefreshToken          sql.NullString `db:"refreshToken"`
	IDToken               sql.NullString `db:"idToken"`
	AccessTokenExpiresAt  sql.NullInt64  `db:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt sql.NullInt64  `db:"refreshTokenExpiresAt"`
	Scope                 sql.NullString `db:"scope"`
	Password              sql.NullString `db:"password"`
	CreatedAt             int64          `db:"createdAt"`
	UpdatedAt             int64          `db:"updatedAt"`
}

func newAccountRow(a *domain.Account) accountRow {
	return accountRow{
		ID:                    a.ID,
		AccountID:             a.AccountID,
		ProviderID:            a.ProviderID,
		UserID:                a.UserID,
		AccessToken:           nullString(a.AccessToken),
		RefreshToken:          nullString(a.RefreshToken),
		IDToken:               nullString(a.IDToken),
		AccessTokenExpiresAt:  nullUnix(a.AccessTokenExpiresAt),
		RefreshTokenExpiresAt: nullUnix(a.RefreshTokenExpiresAt),
		Scope:                 nullString(a.Scope),
		Password:              nullString(a.Password),
		CreatedAt:             unix(a.CreatedAt),
		UpdatedAt:             unix(a.UpdatedAt),
	}
}

func (r accountRow) domain() domain.Account {
	return domain.Account{
		ID:                    r.ID,
		AccountID:             r.AccountID,
		ProviderID:            r.ProviderID,
		UserID:                r.UserID,
		AccessToken:           fromNullString(r.AccessToken),
		RefreshToken:          fromNullString(r.RefreshToken),
		IDToken:               fromNullString(r.IDToken),
		AccessTokenExpiresAt:  fromNullUnix(r.AccessTokenExpiresAt),
		RefreshTokenExpiresAt: fromNullUnix(r.RefreshTokenExpiresAt),
		Scope:                 fromNullString(r.Scope),
		Password:              fromNullString(r.Password),
		CreatedAt:             fromUnix(r.CreatedAt),
		UpdatedAt:             fromUnix(r.UpdatedAt),
	}
}

type verificationRow struct {
	ID         string `db:"id"`
	Identifier string `db:"identifier"`
	Value      string `db:"value"`
	ExpiresAt  int64  `db:"expiresAt"`
	CreatedAt  int64  `db:"createdAt"`
	UpdatedAt  int64  `db:"updatedAt"`
}

func (r verificationRow) domain() domain.Verification {
	return domain.Verification{
		ID:         r.ID,
		Identifier: r.Identifier,
		Value:      r.Value,
		ExpiresAt:  fromUnix(r.ExpiresAt),
		CreatedAt:  fromUnix(r.CreatedAt),
		UpdatedAt:  fromUnix(r.UpdatedAt),
	}
}
