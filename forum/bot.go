// Package forum is a bot for XenForo-style forums. It reads thread pages
// through a browser session, extracts !commands from posts, logs in and
// posts replies.
//
// A Bot drives exactly one page. Its methods run one navigation at a time
// and must not be called concurrently; Server serializes access for the
// HTTP and MCP surfaces.
package forum

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hazyhaar/threadbot/dom"
	"github.com/hazyhaar/threadbot/forum/internal/browser"
)

// Driver is the page-driver capability the bot consumes.
type Driver interface {
	// Navigate loads url and returns the rendered document.
	Navigate(ctx context.Context, url string) (*dom.Document, error)
	// Document returns the currently loaded page without navigating.
	Document(ctx context.Context) (*dom.Document, error)
	// Type types text into the element matching selector.
	Type(ctx context.Context, selector, text string) error
	// Click clicks the element matching selector.
	Click(ctx context.Context, selector string) error
	// SubmitAndWait clicks selector, waits for the navigation it triggers
	// and returns the resulting location.
	SubmitAndWait(ctx context.Context, selector string) (string, error)
	// SetValue assigns a form field's raw value.
	SetValue(ctx context.Context, selector, value string) error
}

// Bot is the thread scraper and reply poster.
type Bot struct {
	cfg    Config
	drv    Driver
	logger *slog.Logger
	closer func() error
}

// New creates a Bot over an existing driver. cfg is validated first; a
// missing credential or an invalid selector is a Validation failure.
func New(cfg Config, drv Driver, logger *slog.Logger) (*Bot, error) {
	cfg.ApplyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	if drv == nil {
		return nil, fmt.Errorf("forum: nil driver")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{cfg: cfg, drv: drv, logger: logger}, nil
}

// Open launches the configured browser and returns a ready Bot. Close
// releases the browser.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Bot, error) {
	cfg.ApplyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	sess, err := browser.Open(ctx, browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		Headless:         *cfg.Browser.Headless,
		Stealth:          *cfg.Browser.Stealth,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("forum: open browser: %w", err)
	}

	b, err := New(cfg, sess, logger)
	if err != nil {
		sess.Close()
		return nil, err
	}
	b.closer = sess.Close
	return b, nil
}

// Close releases the browser opened by Open. It is a no-op for bots built
// with New.
func (b *Bot) Close() error {
	if b.closer == nil {
		return nil
	}
	err := b.closer()
	b.closer = nil
	return err
}

// Config returns the effective configuration.
func (b *Bot) Config() Config { return b.cfg }

// opLogger tags the log lines of one operation with a fresh id.
func (b *Bot) opLogger(op string) *slog.Logger {
	return b.logger.With("op", op, "op_id", uuid.Must(uuid.NewV7()).String())
}
