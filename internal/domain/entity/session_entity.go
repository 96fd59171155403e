package entity

import "time"

// Session is the server-side half of a signed-in browser session.
// The cookie carries the same identity as signed claims.
type Session struct {
	ID          string
	AccountID   string
	Username    string
	Email       string
	AccountType AccountType
	FirstName   string
	LastName    string
	CreatedAt   time.Time
	RenewedAt   time.Time
	ExpiresAt   time.Time
}

// Role mirrors AccountType; it is kept as a separate claim for consumers
// that authorize on a generic role name.
func (s *Session) Role() string { return string(s.AccountType) }
