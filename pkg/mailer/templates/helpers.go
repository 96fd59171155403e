package templates

import (
	"strings"
	"time"

	"github.com/oksasatya/clinical-monitor/config"
)

// Option pattern
type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04 MST")
	}
}
func WithDashboardPath(path string) Option {
	return func(d *EmailData) { d.DashboardURL = joinURL(d.DashboardURL, path) }
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// NewBaseEmailData fills the clinic branding from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, name, email, username, accountType string, opts ...Option) EmailData {
	d := EmailData{
		Type:        typ,
		Name:        name,
		Email:       email,
		Username:    username,
		AccountType: accountType,

		ClinicName:    cfg.ClinicName,
		ClinicAddress: cfg.ClinicAddress,
		AppName:       cfg.AppName,

		LogoURL:      cfg.LogoURL,
		SupportURL:   cfg.SupportURL,
		DashboardURL: cfg.AppBaseURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, name, email, username, accountType string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, Welcome, name, email, username, accountType, opts...))
}

func NewSigninNotificationData(cfg *config.Config, name, email, username, accountType string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, SigninNotification, name, email, username, accountType, opts...))
}
