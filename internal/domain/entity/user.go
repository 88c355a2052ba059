package entity

import "time"

// User is a credential record on the identity service side. The profile
// payload lives in ProfileRecord; this only carries what sign-in needs.
// Passwords are stored as bcrypt hashes; provider accounts have none.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Provider     Provider
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
