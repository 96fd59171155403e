package entity

import "time"

// Auth event actions recorded in auth_events.
const (
	AuthActionSignup         = "signup"
	AuthActionSignupRejected = "signup_rejected"
	AuthActionSignin         = "signin"
	AuthActionSigninRejected = "signin_rejected"
	AuthActionSignout        = "signout"
)

// AuthEvent is one row of the authentication audit trail.
type AuthEvent struct {
	AccountID string
	Email     string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
	CreatedAt time.Time
}
