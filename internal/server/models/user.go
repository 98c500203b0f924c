// Package models defines server-side persistence models.
package models

// User is an authenticated identity. Admins additionally pass the
// admin-only gates (NL analytics).
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	IsAdmin      bool
}
