// Package config handles threadbot configuration from YAML files.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/threadbot/post"
)

// Config is the top-level threadbot configuration.
type Config struct {
	Site        SiteConfig     `yaml:"site"`
	Credentials Credentials    `yaml:"credentials"`
	Browser     BrowserConfig  `yaml:"browser"`
	Walk        WalkConfig     `yaml:"walk"`
	Selectors   SelectorConfig `yaml:"selectors"`
}

// SiteConfig locates the forum's pages. Paths are joined onto BaseURL.
type SiteConfig struct {
	BaseURL        string `yaml:"base_url"`
	LoginPath      string `yaml:"login_path"`
	HomePath       string `yaml:"home_path"`
	ThreadPath     string `yaml:"thread_path"`
	ThreadPostPath string `yaml:"thread_post_path"`
	ReplySuffix    string `yaml:"reply_suffix"`
}

// Credentials identify the bot account.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// BrowserConfig controls the Chrome session.
type BrowserConfig struct {
	Remote           string   `yaml:"remote"`
	Headless         *bool    `yaml:"headless"`
	Stealth          *bool    `yaml:"stealth"`
	ResourceBlocking []string `yaml:"resource_blocking"`
}

// WalkConfig bounds thread pagination. MaxPages 0 means unbounded.
type WalkConfig struct {
	MaxPages int `yaml:"max_pages"`
}

// SelectorConfig holds every selector the bot relies on.
type SelectorConfig struct {
	Post post.Layout `yaml:"post"`

	MessageList   string `yaml:"message_list"`
	NextPage      string `yaml:"next_page"`
	ErrorPage     string `yaml:"error_page"`
	ErrorOverlay  string `yaml:"error_overlay"`
	AccountName   string `yaml:"account_name"`
	LoginUsername string `yaml:"login_username"`
	LoginPassword string `yaml:"login_password"`
	LoginSubmit   string `yaml:"login_submit"`
	ReplyTitle    string `yaml:"reply_title"`
	ReplyToggle   string `yaml:"reply_toggle"`
	ReplyMessage  string `yaml:"reply_message"`
	ReplySubmit   string `yaml:"reply_submit"`
}

// LoadFile reads a YAML configuration file and applies defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values with XenForo 1.x defaults.
func (c *Config) ApplyDefaults() {
	s := &c.Site
	if s.LoginPath == "" {
		s.LoginPath = "login/"
	}
	if s.ThreadPath == "" {
		s.ThreadPath = "threads/"
	}
	if s.ThreadPostPath == "" {
		s.ThreadPostPath = "posts/"
	}
	if s.ReplySuffix == "" {
		s.ReplySuffix = "reply"
	}

	if c.Browser.Headless == nil {
		c.Browser.Headless = boolPtr(true)
	}
	if c.Browser.Stealth == nil {
		c.Browser.Stealth = boolPtr(true)
	}
	if c.Browser.ResourceBlocking == nil {
		c.Browser.ResourceBlocking = []string{"images", "fonts", "media"}
	}

	def := post.DefaultLayout()
	p := &c.Selectors.Post
	setDefault(&p.Body, def.Body)
	setDefault(&p.AuthorLink, def.AuthorLink)
	setDefault(&p.Time, def.Time)
	setDefault(&p.Containers, def.Containers)
	setDefault(&p.Mention, def.Mention)

	sel := &c.Selectors
	setDefault(&sel.MessageList, "#messageList .message")
	setDefault(&sel.NextPage, "link[rel=next]")
	setDefault(&sel.ErrorPage, "#content.error")
	setDefault(&sel.ErrorOverlay, ".errorOverlay")
	setDefault(&sel.AccountName, ".accountUsername")
	setDefault(&sel.LoginUsername, "#ctrl_pageLogin_login")
	setDefault(&sel.LoginPassword, "#ctrl_pageLogin_password")
	setDefault(&sel.LoginSubmit, `#pageLogin input[type="submit"]`)
	setDefault(&sel.ReplyTitle, ".titleBar h1")
	setDefault(&sel.ReplyToggle, ".redactor_btn_switchmode")
	setDefault(&sel.ReplyMessage, `textarea[name="message"]`)
	setDefault(&sel.ReplySubmit, `#ThreadReply input[type="submit"]`)
}

// All returns every selector keyed by its YAML name, for validation.
func (s SelectorConfig) All() map[string]string {
	return map[string]string{
		"post.body":        s.Post.Body,
		"post.author_link": s.Post.AuthorLink,
		"post.time":        s.Post.Time,
		"post.containers":  s.Post.Containers,
		"post.mention":     s.Post.Mention,
		"message_list":     s.MessageList,
		"next_page":        s.NextPage,
		"error_page":       s.ErrorPage,
		"error_overlay":    s.ErrorOverlay,
		"account_name":     s.AccountName,
		"login_username":   s.LoginUsername,
		"login_password":   s.LoginPassword,
		"login_submit":     s.LoginSubmit,
		"reply_title":      s.ReplyTitle,
		"reply_toggle":     s.ReplyToggle,
		"reply_message":    s.ReplyMessage,
		"reply_submit":     s.ReplySubmit,
	}
}

func setDefault(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func boolPtr(b bool) *bool { return &b }
