package identity

import "time"

// User represents an account holder.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash []byte
	Phone        string
	ReferralCode string
	CreatedAt    time.Time
}
