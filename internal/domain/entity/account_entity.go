package entity

import (
	"strings"
	"time"
)

// AccountType is the category an account belongs to. It decides which
// dashboard the account lands on and which portal it may sign in through.
type AccountType string

const (
	AccountTypeAdministrator AccountType = "administrator"
	AccountTypeClinician     AccountType = "clinician"
	AccountTypePatient       AccountType = "patient"
)

// AccountTypes lists every accepted category, in the order the users table CHECK constraint declares them.
var AccountTypes = []AccountType{AccountTypeAdministrator, AccountTypeClinician, AccountTypePatient}

// ParseAccountType lower-cases s and reports whether it names a known category.
func ParseAccountType(s string) (AccountType, bool) {
	t := AccountType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AccountTypes {
		if t == known {
			return t, true
		}
	}
	return t, false
}

// DashboardPath is where a freshly signed-in account is sent.
func (t AccountType) DashboardPath() string {
	switch t {
	case AccountTypeAdministrator:
		return "/admin/dashboard"
	case AccountTypeClinician:
		return "/clinician/dashboard"
	case AccountTypePatient:
		return "/patient/dashboard"
	default:
		return "/"
	}
}

func (t AccountType) String() string { return string(t) }

// Account is the aggregate root of the users table.
// Password holds the bcrypt hash, never the plaintext.
type Account struct {
	ID          string
	Username    string
	Password    string
	AccountType AccountType
	Email       string
	FirstName   string
	LastName    string
	AvatarURL   string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName joins the display name parts.
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// DashboardCounts is the aggregate shown on the administrator dashboard.
type DashboardCounts struct {
	Total      int64 `json:"total"`
	Clinicians int64 `json:"clinicians"`
	Patients   int64 `json:"patients"`
}

// DirectoryEntry is the searchable projection of an account.
type DirectoryEntry struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	AccountType AccountType `json:"account_type"`
	IsActive    bool        `json:"is_active"`
	AvatarURL   string      `json:"avatar_url,omitempty"`
}

// Directory projects the account into its searchable form.
func (a *Account) Directory() DirectoryEntry {
	return DirectoryEntry{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		AccountType: a.AccountType,
		IsActive:    a.IsActive,
		AvatarURL:   a.AvatarURL,
	}
}
