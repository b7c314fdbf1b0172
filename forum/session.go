package forum

import (
	"context"
	"strings"

	"github.com/hazyhaar/threadbot/dom"
	"github.com/hazyhaar/threadbot/forumerr"
)

// SessionState is the login state as last observed on the loaded page.
type SessionState int

const (
	StateUnknown SessionState = iota
	StateLoggedOut
	StateLoggingIn
	StateLoggedIn
)

func (s SessionState) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateLoggingIn:
		return "logging_in"
	case StateLoggedIn:
		return "logged_in"
	}
	return "unknown"
}

// IsLoggedIn reports whether the currently loaded page shows the bot's
// account name. It never navigates: the answer is only as fresh as the page.
func (b *Bot) IsLoggedIn(ctx context.Context) (bool, error) {
	doc, err := b.drv.Document(ctx)
	if err != nil {
		return false, forumerr.NavigationErr("forum.IsLoggedIn", "current page", err)
	}
	return b.loggedIn(doc), nil
}

func (b *Bot) loggedIn(doc *dom.Document) bool {
	found := false
	doc.Find(b.cfg.Selectors.AccountName).Each(func(_ int, s dom.Selection) {
		if strings.EqualFold(strings.TrimSpace(s.Text()), b.cfg.Credentials.Username) {
			found = true
		}
	})
	return found
}

// Login signs the bot in unless the loaded page already shows it signed in,
// in which case nothing is navigated.
//
// Success is judged by where the forum redirects after submitting: anything
// other than the home page is a Submission failure. That check cannot tell a
// wrong password from a locked account or a changed login flow.
func (b *Bot) Login(ctx context.Context) error {
	const op = "forum.Login"
	log := b.opLogger(op)

	ok, err := b.IsLoggedIn(ctx)
	if err != nil {
		return err
	}
	if ok {
		log.Debug("forum: already logged in", "state", StateLoggedIn)
		return nil
	}
	log.Info("forum: logging in", "state", StateLoggedOut, "user", b.cfg.Credentials.Username)

	loginURL := b.loginURL()
	doc, err := b.drv.Navigate(ctx, loginURL)
	if err != nil {
		return forumerr.NavigationErr(op, loginURL, err)
	}

	sel := b.cfg.Selectors
	for _, s := range []string{sel.LoginUsername, sel.LoginPassword, sel.LoginSubmit} {
		if doc.Find(s).Len() == 0 {
			return forumerr.Parsef(op, "login page %s has no %q", loginURL, s)
		}
	}

	log.Debug("forum: submitting credentials", "state", StateLoggingIn)
	if err := b.drv.Type(ctx, sel.LoginUsername, b.cfg.Credentials.Username); err != nil {
		return forumerr.NavigationErr(op, loginURL, err)
	}
	if err := b.drv.Type(ctx, sel.LoginPassword, b.cfg.Credentials.Password); err != nil {
		return forumerr.NavigationErr(op, loginURL, err)
	}
	location, err := b.drv.SubmitAndWait(ctx, sel.LoginSubmit)
	if err != nil {
		return forumerr.NavigationErr(op, loginURL, err)
	}

	if !sameLocation(location, b.homeURL()) {
		log.Warn("forum: login rejected", "location", location)
		return forumerr.Submissionf(op,
			"login redirected to %s instead of %s (credentials rejected or unexpected login flow; the cause is inferred from the redirect only)",
			location, b.homeURL())
	}
	log.Info("forum: logged in", "state", StateLoggedIn)
	return nil
}
