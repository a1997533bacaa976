// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. The `json:"..."` struct tags
// double as the snapshot format on disk and the wire format of the API, so a
// renamed tag is a breaking change for both.
package model

// User represents a registered account.
//
// Users are created on registration and never updated or deleted. The
// password hash is persisted verbatim with the rest of the snapshot but is
// never written to an API response.
type User struct {
	ID           string `json:"user_id"`
	Username     string `json:"username"` // unique, case-sensitive
	PasswordHash string `json:"password_hash"`
}
