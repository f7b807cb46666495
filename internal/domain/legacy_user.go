package domain

// LegacyUser is a row of the plain users_table, unrelated to auth users.
type LegacyUser struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Age   int64  `json:"age" db:"age"`
	Email string `json:"email" db:"email"`
}

// LegacyUserPatch carries a partial legacy user update.
type LegacyUserPatch struct {
	Name  *string
	Age   *int64
	Email *string
}
