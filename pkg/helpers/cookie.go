package helpers

import (
	"net/http"
	"time"
)

// CookieJar is the slice of a request context the cookie manager needs.
// *gin.Context satisfies it.
type CookieJar interface {
	Cookie(name string) (string, error)
	SetCookie(name, value string, maxAge int, path, domain string, secure, httpOnly bool)
	SetSameSite(samesite http.SameSite)
}

type Manager struct {
	Name   string
	Domain string
	Secure bool
}

func NewCookie(name, domain string, secure bool) *Manager {
	return &Manager{Name: name, Domain: domain, Secure: secure}
}

// Read returns the session cookie value, or "" when absent.
func (m *Manager) Read(c CookieJar) string {
	v, err := c.Cookie(m.Name)
	if err != nil {
		return ""
	}
	return v
}

func (m *Manager) Set(c CookieJar, token string, exp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.Name, token, maxAgeFrom(exp), "/", m.Domain, m.Secure, true)
}

func (m *Manager) Clear(c CookieJar) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.Name, "", -1, "/", m.Domain, m.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
