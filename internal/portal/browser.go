// Package portal drives the external scheduling portal: browser sessions,
// login and per-date extraction. All markup coupling lives in Selectors and
// ParseDay.
package portal

import (
	"context"
	"time"
)

// Browser is the narrow surface the scraper needs from a browser session.
// Selectors are CSS queries.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	SendKeys(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string, timeout time.Duration) error
	Scroll(ctx context.Context, pixels int) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Credentials for the portal login form.
type Credentials struct {
	Username string
	Password string
	LoginURL string
}

// Selectors locate the login form (by id) and the schedule rows (by class).
type Selectors struct {
	UsernameInput string
	PasswordInput string
	LoginButton   string

	Row    string
	Name   string
	Shift  string
	Break  string
	Worked string
}

func DefaultSelectors() Selectors {
	return Selectors{
		UsernameInput: "#username",
		PasswordInput: "#password",
		LoginButton:   "#login-button",
		Row:           ".employee-row",
		Name:          ".employee-name",
		Shift:         ".shift-block",
		Break:         ".break-time",
		Worked:        ".worked-time",
	}
}

// WithDefaults fills every empty selector from DefaultSelectors.
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.UsernameInput, d.UsernameInput)
	fill(&s.PasswordInput, d.PasswordInput)
	fill(&s.LoginButton, d.LoginButton)
	fill(&s.Row, d.Row)
	fill(&s.Name, d.Name)
	fill(&s.Shift, d.Shift)
	fill(&s.Break, d.Break)
	fill(&s.Worked, d.Worked)
	return s
}
