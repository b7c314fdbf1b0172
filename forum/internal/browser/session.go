// Package browser drives a single Chrome tab through Rod: launch or connect,
// open a (stealth) page, and expose the navigate/type/click/read primitives
// the forum bot needs.
package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/threadbot/dom"
)

// Config configures a browser session.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	Headless bool

	// Stealth patches the page against common automation fingerprints.
	Stealth bool

	// ResourceBlocking lists resource types to block (images, fonts, media, stylesheets).
	ResourceBlocking []string

	Logger *slog.Logger
}

// Session owns one browser and the one page every operation runs on.
type Session struct {
	cfg     Config
	browser *rod.Browser
	lnch    *launcher.Launcher
	page    *rod.Page
	router  *rod.HijackRouter
}

// Open launches Chrome (or connects to RemoteURL) and opens the working page.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Session{cfg: cfg}

	if err := s.launch(); err != nil {
		s.Close()
		return nil, err
	}

	var err error
	if cfg.Stealth {
		s.page, err = stealth.Page(s.browser)
	} else {
		s.page, err = s.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	if len(cfg.ResourceBlocking) > 0 {
		if err := s.blockResources(cfg.ResourceBlocking); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Session) launch() error {
	log := s.cfg.Logger

	wsURL := s.cfg.RemoteURL
	if wsURL != "" {
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(s.cfg.Headless)
		// Anti-detection flag.
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "headless", s.cfg.Headless)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("browser: connect: %w", err)
	}
	s.browser = b
	return nil
}

// Close shuts the page, the browser and any launched Chrome process.
func (s *Session) Close() error {
	if s.router != nil {
		s.router.Stop()
		s.router = nil
	}
	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return nil
}

// Navigate loads url and returns the rendered document.
func (s *Session) Navigate(ctx context.Context, url string) (*dom.Document, error) {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("browser: wait load %s: %w", url, err)
	}
	s.cfg.Logger.Debug("browser: navigated", "url", url)
	return s.Document(ctx)
}

// Document returns the page as currently rendered.
func (s *Session) Document(ctx context.Context) (*dom.Document, error) {
	p := s.page.Context(ctx)
	raw, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("browser: get DOM: %w", err)
	}
	info, err := p.Info()
	if err != nil {
		return nil, fmt.Errorf("browser: page info: %w", err)
	}
	return dom.ParseString(raw, info.URL)
}

// Type types text into the element matching selector.
func (s *Session) Type(ctx context.Context, selector, text string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Input(text)
}

// Click clicks the element matching selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// SubmitAndWait clicks selector and blocks until the navigation it triggers
// has loaded. It returns the resulting location.
func (s *Session) SubmitAndWait(ctx context.Context, selector string) (string, error) {
	el, err := s.element(ctx, selector)
	if err != nil {
		return "", err
	}
	p := s.page.Context(ctx)
	wait := p.WaitNavigation(proto.PageLifecycleEventNameLoad)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return "", fmt.Errorf("browser: click %s: %w", selector, err)
	}
	wait()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := p.Info()
	if err != nil {
		return "", fmt.Errorf("browser: page info: %w", err)
	}
	return info.URL, nil
}

// SetValue assigns a form field's value directly, bypassing editors that
// intercept key events.
func (s *Session) SetValue(ctx context.Context, selector, value string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	if _, err := el.Eval(`(v) => { this.value = v; this.dispatchEvent(new Event('input', {bubbles: true})); }`, value); err != nil {
		return fmt.Errorf("browser: set value %s: %w", selector, err)
	}
	return nil
}

// element looks selector up once instead of waiting for it to appear.
func (s *Session) element(ctx context.Context, selector string) (*rod.Element, error) {
	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("browser: query %s: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("browser: element not found: %s", selector)
	}
	return el, nil
}
