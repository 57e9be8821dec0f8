package portal

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	ErrMissingCredentials = errors.New("portal credentials are not configured")
	ErrLoginUnavailable   = errors.New("portal login button not available")
)

// LoginButtonTimeout bounds the wait for the login button.
const LoginButtonTimeout = 10 * time.Second

// Authenticator submits the portal login form. It does not retry.
type Authenticator struct {
	creds         Credentials
	sel           Selectors
	pacer         *Pacer
	buttonTimeout time.Duration
}

func NewAuthenticator(creds Credentials, sel Selectors, pacer *Pacer) *Authenticator {
	return &Authenticator{
		creds:         creds,
		sel:           sel.WithDefaults(),
		pacer:         pacer,
		buttonTimeout: LoginButtonTimeout,
	}
}

// Login fills in the credentials and clicks the login button. It returns once
// the click has been dispatched. Any error means the session is unusable.
func (a *Authenticator) Login(ctx context.Context, br Browser) error {
	if a.creds.Username == "" || a.creds.Password == "" || a.creds.LoginURL == "" {
		return ErrMissingCredentials
	}

	if err := br.Navigate(ctx, a.creds.LoginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := a.pacer.Pause(ctx); err != nil {
		return err
	}

	if err := br.SendKeys(ctx, a.sel.UsernameInput, a.creds.Username); err != nil {
		return fmt.Errorf("enter username: %w", err)
	}
	if err := a.pacer.Pause(ctx); err != nil {
		return err
	}
	if err := br.SendKeys(ctx, a.sel.PasswordInput, a.creds.Password); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	if err := a.pacer.Pause(ctx); err != nil {
		return err
	}

	if err := br.Click(ctx, a.sel.LoginButton, a.buttonTimeout); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w (%s): %v", ErrLoginUnavailable, a.sel.LoginButton, err)
	}

	log.WithField("user", a.creds.Username).Info("[Portal] 로그인 요청 완료")
	return a.pacer.Pause(ctx)
}
