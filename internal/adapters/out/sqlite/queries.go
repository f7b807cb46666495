package sqlite

// CustomerQueries contains all SQL queries for customer operations
type CustomerQueries struct {
	List   string
	Get    string
	Insert string
	Update string
	Delete string
	Count  string
}

// NewCustomerQueries returns a new instance of CustomerQueries
func NewCustomerQueries() *CustomerQueries {
	const cols = "id, name, email, image_url, createdAt, updatedAt"
	return &CustomerQueries{
		List:   "SELECT " + cols + " FROM customers",
		Get:    "SELECT " + cols + " FROM customers WHERE id = ?",
		Insert: "INSERT INTO customers (" + cols + ") VALUES (:id, :name, :email, :image_url, :createdAt, :updatedAt)",
		Update: `UPDATE customers SET
			name = COALESCE(:name, name),
			email = COALESCE(:email, email),
			image_url = CASE WHEN :set_image_url THEN :image_url ELSE image_url END,
			updatedAt = :updatedAt
			WHERE id = :id
			RETURNING ` + cols,
		Delete: "DELETE FROM customers WHERE id = ?",
		Count:  "SELECT COUNT(*) FROM customers",
	}
}

// InvoiceQueries contains all SQL queries for invoice operations
type InvoiceQueries struct {
	List        string
	Get         string
	ListBetween string
	Insert      string
	Update      string
	Delete      string
}

// NewInvoiceQueries returns a new instance of InvoiceQueries
func NewInvoiceQueries() *InvoiceQueries {
	const joined = `SELECT i.id, i.customer_id, c.name AS customer_name, c.email AS customer_email,
		i.amount, i.date, i.status, i.createdAt, i.updatedAt
		FROM invoices i LEFT JOIN customers c ON c.id = i.customer_id`
	const cols = "id, customer_id, amount, date, status, createdAt, updatedAt"
	return &InvoiceQueries{
		List:        joined,
		Get:         joined + " WHERE i.id = ?",
		ListBetween: joined + " WHERE i.date >= ? AND i.date < ?",
		Insert:      "INSERT INTO invoices (" + cols + ") VALUES (:id, :customer_id, :amount, :date, :status, :createdAt, :updatedAt)",
		Update: `UPDATE invoices SET
			customer_id = COALESCE(:customer_id, customer_id),
			amount = COALESCE(:amount, amount),
			date = COALESCE(:date, date),
			status = COALESCE(:status, status),
			updatedAt = :updatedAt
			WHERE id = :id
			RETURNING ` + cols,
		Delete: "DELETE FROM invoices WHERE id = ?",
	}
}

// LegacyUserQueries contains all SQL queries for users_table operations
type LegacyUserQueries struct {
	List   string
	Get    string
	Insert string
	Update string
	Delete string
}

// NewLegacyUserQueries returns a new instance of LegacyUserQueries
func NewLegacyUserQueries() *LegacyUserQueries {
	return &LegacyUserQueries{
		List:   "SELECT id, name, age, email FROM users_table",
		Get:    "SELECT id, name, age, email FROM users_table WHERE id = ?",
		Insert: "INSERT INTO users_table (name, age, email) VALUES (?, ?, ?) RETURNING id, name, age, email",
		Update: `UPDATE users_table SET
			name = COALESCE(:name, name),
			age = COALESCE(:age, age),
			email = COALESCE(:email, email)
			WHERE id = :id
			RETURNING id, name, age, email`,
		Delete: "DELETE FROM users_table WHERE id = ?",
	}
}

// UserQueries contains all SQL queries for auth user operations
type UserQueries struct {
	Insert           string
	GetByID          string
	GetByEmail       string
	Update           string
	SetEmailVerified string
	SetBan           string
	Delete           string
}

const userCols = `id, name, email, emailVerified, image, role, banned, banReason, banExpires, createdAt, updatedAt`

// NewUserQueries returns a new instance of UserQueries
func NewUserQueries() *UserQueries {
	return &UserQueries{
		Insert: `INSERT INTO "user" (` + userCols + `)
			VALUES (:id, :name, :email, :emailVerified, :image, :role, :banned, :banReason, :banExpires, :createdAt, :updatedAt)`,
		GetByID:    `SELECT ` + userCols + ` FROM "user" WHERE id = ?`,
		GetByEmail: `SELECT ` + userCols + ` FROM "user" WHERE email = ?`,
		Update: `UPDATE "user" SET
			name = COALESCE(:name, name),
			email = COALESCE(:email, email),
			image = COALESCE(:image, image),
			role = COALESCE(:role, role),
			updatedAt = :updatedAt
			WHERE id = :id
			RETURNING ` + userCols,
		SetEmailVerified: `UPDATE "user" SET emailVerified = ?, updatedAt = ? WHERE id = ?`,
		SetBan: `UPDATE "user" SET banned = :banned, banReason = :banReason, banExpires = :banExpires, updatedAt = :updatedAt
			WHERE id = :id
			RETURNING ` + userCols,
		Delete: `DELETE FROM "user" WHERE id = ?`,
	}
}

// SessionQueries contains all SQL queries for session operations
type SessionQueries struct {
	Insert             string
	GetWithUser        string
	ListByUser         string
	DeleteByToken      string
	DeleteByUser       string
	DeleteByUserExcept string
	DeleteExpired      string
}

const sessionCols = `id, token, userId, expiresAt, impersonatedBy, ipAddress, userAgent, createdAt, updatedAt`

// NewSessionQueries returns a new instance of SessionQueries
func NewSessionQueries() *SessionQueries {
	return &SessionQueries{
		Insert: `INSERT INTO "session" (` + sessionCols + `)
			VALUES (:id, :token, :userId, :expiresAt, :impersonatedBy, :ipAddress, :userAgent, :createdAt, :updatedAt)`,
		GetWithUser: `SELECT s.id, s.token, s.userId, s.expiresAt, s.impersonatedBy, s.ipAddress, s.userAgent,
			s.createdAt, s.updatedAt,
			u.name AS u_name, u.email AS u_email, u.emailVerified AS u_emailVerified, u.image AS u_image,
			u.role AS u_role, u.banned AS u_banned, u.banReason AS u_banReason, u.banExpires AS u_banExpires,
			u.createdAt AS u_createdAt, u.updatedAt AS u_updatedAt
			FROM "session" s JOIN "user" u ON u.id = s.userId
			WHERE s.token = ?`,
		ListByUser:         `SELECT ` + sessionCols + ` FROM "session" WHERE userId = ? ORDER BY createdAt DESC`,
		DeleteByToken:      `DELETE FROM "session" WHERE token = ?`,
		DeleteByUser:       `DELETE FROM "session" WHERE userId = ?`,
		DeleteByUserExcept: `DELETE FROM "session" WHERE userId = ? AND token <> ?`,
		DeleteExpired:      `DELETE FROM "session" WHERE expiresAt <= ?`,
	}
}

// AccountQueries contains all SQL queries for account operations
type AccountQueries struct {
	Insert               string
	GetByUserAndProvider string
	UpdatePassword       string
	ListByUser           string
}

const accountCols = `id, accountId, providerId, userId, accessToken, refreshToken, idToken,
	accessTokenExpiresAt, refreshTokenExpiresAt, scope, password, createdAt, updatedAt`

// NewAccountQueries returns a new instance of AccountQueries
func NewAccountQueries() *AccountQueries {
	return &AccountQueries{
		Insert: `INSERT INTO account (` + accountCols + `)
			VALUES (:id, :accountId, :providerId, :userId, :accessToken, :refreshToken, :idToken,
			:accessTokenExpiresAt, :refreshTokenExpiresAt, :scope, :password, :createdAt, :updatedAt)`,
		GetByUserAndProvider: `SELECT ` + accountCols + ` FROM account WHERE userId = ? AND providerId = ?`,
		UpdatePassword:       `UPDATE account SET password = ?, updatedAt = ? WHERE userId = ? AND providerId = ?`,
		ListByUser:           `SELECT ` + accountCols + ` FROM account WHERE userId = ?`,
	}
}

// VerificationQueries contains all SQL queries for verification operations
type VerificationQueries struct {
	Insert        string
	Consume       string
	DeleteExpired string
}

// NewVerificationQueries returns a new instance of VerificationQueries
func NewVerificationQueries() *VerificationQueries {
	return &VerificationQueries{
		Insert: `INSERT INTO verification (id, identifier, value, expiresAt, createdAt, updatedAt)
			VALUES (:id, :identifier, :value, :expiresAt, :createdAt, :updatedAt)`,
		Consume: `DELETE FROM verification WHERE identifier = ?
			RETURNING id, identifier, value, expiresAt, createdAt, updatedAt`,
		DeleteExpired: `DELETE FROM verification WHERE expiresAt <= ?`,
	}
}
