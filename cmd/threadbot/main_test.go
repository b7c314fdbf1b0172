package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threadbot.yaml")
	yaml := "site:\n  base_url: https://forum.example.com/\ncredentials:\n  username: fromfile\n  password: filepass\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("THREADBOT_USERNAME", "hiori")
	t.Setenv("THREADBOT_PASSWORD", "")
	t.Setenv("THREADBOT_BASE_URL", "")
	t.Setenv("THREADBOT_BROWSER", "")

	cfg, err := loadConfig(options{configPath: path, headful: true})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Credentials.Username != "hiori" {
		t.Errorf("username = %q, want the environment value", cfg.Credentials.Username)
	}
	if cfg.Credentials.Password != "filepass" {
		t.Errorf("password = %q, want the file value", cfg.Credentials.Password)
	}
	if cfg.Site.BaseURL != "https://forum.example.com/" {
		t.Errorf("base = %q", cfg.Site.BaseURL)
	}
	if cfg.Browser.Headless == nil || *cfg.Browser.Headless {
		t.Error("-headful not applied")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := loadConfig(options{configPath: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Fatal("expected error")
	}
}

func TestReplyContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reply.txt")
	if err := os.WriteFile(path, []byte("[B]hi[/B]\n\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := replyContent(options{contentFile: path})
	if err != nil {
		t.Fatal(err)
	}
	if got != "[B]hi[/B]" {
		t.Errorf("content = %q", got)
	}
	if got, _ := replyContent(options{content: "inline"}); got != "inline" {
		t.Errorf("inline content = %q", got)
	}
}
