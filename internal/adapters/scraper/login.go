package scraper

import (
	"context"
	"fmt"
	"time"

	"twitfetch/internal/adapters/browser"
	"twitfetch/internal/domain"
	"twitfetch/pkg/log"
)

// DefaultLoginURL is the site's login flow.
const DefaultLoginURL = "https://x.com/i/flow/login"

// LoginController walks the two-step credential flow.
type LoginController struct {
	session   Session
	selectors SelectorSource
	loginURL  string
	settle    time.Duration
}

// NewLoginController creates a controller. settle is the pause after the
// login page loads and after each submission.
func NewLoginController(session Session, selectors SelectorSource, loginURL string, settle time.Duration) *LoginController {
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}
	return &LoginController{
		session:   session,
		selectors: selectors,
		loginURL:  loginURL,
		settle:    settle,
	}
}

// Login types the username, then the password, submitting each. An alert
// after either step fails with domain.ErrInvalidLogin and stops the flow.
func (c *LoginController) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: empty credentials", domain.ErrInvalidLogin)
	}

	sel := c.selectors.Snapshot()

	if err := c.session.Navigate(ctx, c.loginURL, browser.WaitLoad); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := pause(ctx, c.settle); err != nil {
		return err
	}

	steps := []struct {
		name  string
		value string
	}{
		{"username", username},
		{"password", password},
	}

	for _, step := range steps {
		root, err := snapshot(ctx, c.session)
		if err != nil {
			return fmt.Errorf("login %s step: %w", step.name, err)
		}

		input, ok := root.Find(sel.LoginInput)
		if !ok {
			return fmt.Errorf("login %s step: %w", step.name, domain.ErrLoginInputNotFound)
		}

		// The input's class changes on every load; pin the live value.
		target := sel.LoginInput
		if target.Attribute != "" {
			value, _ := input.Attr(target.Attribute)
			target = target.WithValue(value)
		}

		if err := c.session.TypeAndSubmit(ctx, step.value, target.Selector()); err != nil {
			return fmt.Errorf("login %s step: %w", step.name, err)
		}
		if err := pause(ctx, c.settle); err != nil {
			return err
		}

		after, err := snapshot(ctx, c.session)
		if err != nil {
			return fmt.Errorf("login %s step: %w", step.name, err)
		}
		if alert, found := after.Find(sel.LoginAlert); found {
			log.GlobalWarnCtx(ctx, "login rejected", "step", step.name, "alert", CleanText(alert.Text()))
			return fmt.Errorf("%s rejected: %w", step.name, domain.ErrInvalidLogin)
		}

		log.GlobalDebugCtx(ctx, "login step accepted", "step", step.name)
	}

	log.GlobalInfoCtx(ctx, "login succeeded")
	return nil
}
