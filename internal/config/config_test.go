package config_test

import (
	"showdown/internal/config"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("TOKEN", "123:abc")

	cfg, err := config.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:5000/api" {
		t.Fatalf("unexpected API base URL: %q", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 2*time.Minute {
		t.Fatalf("unexpected API timeout: %v", cfg.APITimeout)
	}
	if cfg.SessionIdleTTL != 24*time.Hour {
		t.Fatalf("unexpected session TTL: %v", cfg.SessionIdleTTL)
	}
	if cfg.RatingGuard != "permissive" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.AllowedUsers) != 0 {
		t.Fatalf("expected no allowed users, got %v", cfg.AllowedUsers)
	}
	if cfg.ArticleCacheSize != 256 || cfg.ArticleCacheTTL != 30*time.Minute {
		t.Fatalf("unexpected article cache defaults: %d, %v", cfg.ArticleCacheSize, cfg.ArticleCacheTTL)
	}
}

func TestParseArticleCache(t *testing.T) {
	t.Setenv("TOKEN", "123:abc")
	t.Setenv("ARTICLE_CACHE_SIZE", "0")
	t.Setenv("ARTICLE_CACHE_TTL", "5m")

	cfg, err := config.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.ArticleCacheSize != 0 || cfg.ArticleCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected article cache settings: %d, %v", cfg.ArticleCacheSize, cfg.ArticleCacheTTL)
	}
}

func TestParseAllowedUsers(t *testing.T) {
	t.Setenv("TOKEN", "123:abc")
	t.Setenv("ALLOWED_USERS", "1,-42,7")

	cfg, err := config.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := []int64{1, -42, 7}
	if len(cfg.AllowedUsers) != len(want) {
		t.Fatalf("unexpected allowed users: %v", cfg.AllowedUsers)
	}
	for i := range want {
		if cfg.AllowedUsers[i] != want[i] {
			t.Fatalf("unexpected allowed users: %v", cfg.AllowedUsers)
		}
	}
}

func TestParseRequiresToken(t *testing.T) {
	t.Setenv("TOKEN", "")

	if _, err := config.Parse(); err == nil {
		t.Fatalf("expected error when TOKEN is empty")
	}
}

func TestParseRejectsInvalidAllowedUsers(t *testing.T) {
	t.Setenv("TOKEN", "123:abc")
	t.Setenv("ALLOWED_USERS", "1,abc")

	if _, err := config.Parse(); err == nil {
		t.Fatalf("expected error for non-numeric user id")
	}
}
