// internal/agent/login.go
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/pagepilot-ai/pagepilot/internal/browser"
)

// Credentials describes a login target. TOTPSecret is optional; when set, a
// one-time code is generated and entered after the primary submit.
type Credentials struct {
	URL        string
	Username   string
	Password   string
	TOTPSecret string
}

// Conventional selector candidates, tried in order. Sites that deviate from
// these conventions need an explicit fallback procedure via Step.
var (
	usernameSelectors = []string{
		`input[name=username]`,
		`input[name=email]`,
		`input[type=email]`,
		`#username`,
		`#email`,
	}
	passwordSelectors = []string{
		`input[name=password]`,
		`input[type=password]`,
		`#password`,
	}
	submitSelectors = []string{
		`button[type=submit]`,
		`input[type=submit]`,
		`form button`,
	}
	totpSelectors = []string{
		`input[autocomplete=one-time-code]`,
		`input[name=totp]`,
		`input[name=otp]`,
		`input[name=code]`,
	}
)

// totpSettleWait gives the site time to present the one-time-code prompt.
const totpSettleWait = 1500 * time.Millisecond

// Login performs a deterministic credential login: navigate, fill the
// conventional username/password fields, submit, and complete a TOTP
// challenge when a secret is supplied. The password and TOTP secret are
// registered for log redaction before any page activity.
func (a *Agent) Login(ctx context.Context, page browser.Page, creds Credentials) error {
	if creds.URL == "" {
		return fmt.Errorf("login requires a URL")
	}

	// Masking must be in place before anything about this login is logged.
	a.store.Redact(creds.Password)
	a.store.Redact(creds.TOTPSecret)

	a.logger.Info("Logging in",
		zap.String("url", creds.URL),
		zap.String("username", creds.Username),
		zap.Bool("totp", creds.TOTPSecret != ""),
	)

	if err := page.Navigate(a.store.Resolve(creds.URL)); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err := fillFirst(page, usernameSelectors, a.store.Resolve(creds.Username)); err != nil {
		return fmt.Errorf("login: username field: %w", err)
	}
	if err := fillFirst(page, passwordSelectors, a.store.Resolve(creds.Password)); err != nil {
		return fmt.Errorf("login: password field: %w", err)
	}
	if err := clickFirst(page, submitSelectors); err != nil {
		return fmt.Errorf("login: submit: %w", err)
	}

	if creds.TOTPSecret == "" {
		return nil
	}

	if err := page.WaitMs(int(totpSettleWait / time.Millisecond)); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	code, err := totp.GenerateCode(a.store.Resolve(creds.TOTPSecret), time.Now())
	if err != nil {
		return fmt.Errorf("login: generating one-time code: %w", err)
	}

	if err := fillFirst(page, totpSelectors, code); err != nil {
		return fmt.Errorf("login: one-time code field: %w", err)
	}
	if err := clickFirst(page, submitSelectors); err != nil {
		return fmt.Errorf("login: confirming one-time code: %w", err)
	}
	return nil
}

// fillFirst fills the first selector candidate that accepts input.
func fillFirst(page browser.Page, selectors []string, value string) error {
	var lastErr error
	for _, sel := range selectors {
		if err := page.Fill(sel, value); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("no candidate selector matched: %w", lastErr)
}

// clickFirst clicks the first selector candidate that resolves.
func clickFirst(page browser.Page, selectors []string) error {
	var lastErr error
	for _, sel := range selectors {
		if err := page.Click(sel); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("no candidate selector matched: %w", lastErr)
}
