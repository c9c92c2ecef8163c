package models

// User represents a registered account.
type User struct {
	ID           int    `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// PublicUser is the identity-only view exposed to other users.
type PublicUser struct {
	ID       int    `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
}
