package templates

import (
	"strings"
	"time"
)

// Option pattern
type Option func(*EmailData)

func WithIP(ip string) Option { return func(d *EmailData) { d.IP = strings.TrimSpace(ip) } }
func WithResetURL(url string) Option { return func(d *EmailData) { d.ResetURL = url } }

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04")
	}
}

// WithValidFor records how long a link stays usable, rounded to whole minutes.
func WithValidFor(dur time.Duration) Option {
	return func(d *EmailData) { d.ValidMinutes = int(dur.Round(time.Minute) / time.Minute) }
}

func NewBaseEmailData(appName, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,
		AppName:        appName,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewForgotPasswordData(appName, name, email string, opts ...Option) EmailData {
	return NewBaseEmailData(appName, ForgotPassword, name, email, opts...)
}
