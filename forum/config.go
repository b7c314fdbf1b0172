package forum

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/hazyhaar/threadbot/dom"
	"github.com/hazyhaar/threadbot/forum/internal/config"
	"github.com/hazyhaar/threadbot/forumerr"
)

// Config is the top-level threadbot configuration. Re-exported from internal.
type Config = config.Config

// SiteConfig locates the forum's pages.
type SiteConfig = config.SiteConfig

// Credentials identify the bot account.
type Credentials = config.Credentials

// BrowserConfig controls the Chrome session.
type BrowserConfig = config.BrowserConfig

// WalkConfig bounds thread pagination.
type WalkConfig = config.WalkConfig

// SelectorConfig holds every selector the bot relies on.
type SelectorConfig = config.SelectorConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration for baseURL with every default set.
func DefaultConfig(baseURL string) Config {
	cfg := Config{Site: SiteConfig{BaseURL: baseURL}}
	cfg.ApplyDefaults()
	return cfg
}

// validate checks what New needs before touching the driver.
func validate(cfg *Config) error {
	const op = "forum.New"
	u, err := url.Parse(cfg.Site.BaseURL)
	if cfg.Site.BaseURL == "" || err != nil || !u.IsAbs() {
		return forumerr.Validationf(op, "base URL %q must be absolute", cfg.Site.BaseURL)
	}
	if cfg.Credentials.Username == "" || cfg.Credentials.Password == "" {
		return forumerr.Validationf(op, "username and password are required")
	}
	for name, sel := range cfg.Selectors.All() {
		if _, err := dom.Compile(sel); err != nil {
			return forumerr.Validationf(op, "selector %s: %v", name, err)
		}
	}
	if cfg.Walk.MaxPages < 0 {
		return forumerr.Validationf(op, "walk.max_pages must be >= 0")
	}
	return nil
}

// siteURL joins path segments onto the base URL.
func siteURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/") + "/"
	for i, p := range parts {
		if i > 0 && !strings.HasSuffix(out, "/") {
			out += "/"
		}
		out += strings.TrimLeft(p, "/")
	}
	return out
}

func (b *Bot) loginURL() string { return siteURL(b.cfg.Site.BaseURL, b.cfg.Site.LoginPath) }

func (b *Bot) homeURL() string { return siteURL(b.cfg.Site.BaseURL, b.cfg.Site.HomePath) }

// PostURL is the permalink that lands on the thread page holding postID.
func (b *Bot) PostURL(postID int) string {
	return siteURL(b.cfg.Site.BaseURL, b.cfg.Site.ThreadPostPath, strconv.Itoa(postID)+"/")
}

// ReplyURL is the reply form of threadID.
func (b *Bot) ReplyURL(threadID int) string {
	return siteURL(b.cfg.Site.BaseURL, b.cfg.Site.ThreadPath, strconv.Itoa(threadID)+"/", b.cfg.Site.ReplySuffix)
}

// sameLocation compares two URLs ignoring a trailing slash.
func sameLocation(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
