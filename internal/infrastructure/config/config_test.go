package config

import (
	"strings"
	"testing"

	apperrors "github.com/gamalhq/gamal/pkg/errors"
)

// clearEnv blanks every variable Load reads so ambient shell state cannot
// leak into a test. Empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LLM_API_BASE_URL", "LLM_API_KEY", "LLM_CHAT_MODEL", "LLM_STREAMING",
		"YOU_API_KEY", "GAMAL_HTTP_PORT", "GAMAL_TELEGRAM_TOKEN", "GAMAL_PROMPT_FILE",
		"LLM_DEBUG_CHAT", "LLM_DEBUG_PIPELINE", "LLM_DEBUG_SEARCH", "LLM_DEBUG_FAIL_EXIT",
	} {
		t.Setenv(key, "")
	}
}

// === Load ===

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.LLM.BaseURL != DefaultBaseURL {
		t.Errorf("base url: %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.ChatModel != DefaultChatModel {
		t.Errorf("chat model: %q", cfg.LLM.ChatModel)
	}
	if !cfg.LLM.StreamingEnabled() {
		t.Error("streaming must default to enabled")
	}
	if cfg.HTTP.Port != "" || cfg.Telegram.Token != "" || cfg.Prompt.File != "" {
		t.Errorf("front-end config must default empty: %+v", cfg)
	}
	if cfg.Debug.Chat || cfg.Debug.Pipeline || cfg.Debug.Search || cfg.Debug.FailExit {
		t.Errorf("debug switches must default off: %+v", cfg.Debug)
	}
	if !cfg.Interactive() {
		t.Error("no front-end configured means interactive")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_API_BASE_URL", "https://example.org/v1///")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("LLM_CHAT_MODEL", "custom/model")
	t.Setenv("LLM_STREAMING", "no")
	t.Setenv("YOU_API_KEY", strings.Repeat("k", 64))
	t.Setenv("GAMAL_HTTP_PORT", "8080")
	t.Setenv("LLM_DEBUG_CHAT", "1")
	t.Setenv("LLM_DEBUG_PIPELINE", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.LLM.BaseURL != "https://example.org/v1" {
		t.Errorf("trailing slashes not trimmed: %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.APIKey != "sk-test" || cfg.LLM.ChatModel != "custom/model" {
		t.Errorf("llm config: %+v", cfg.LLM)
	}
	if cfg.LLM.StreamingEnabled() {
		t.Error("LLM_STREAMING=no must disable streaming")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if cfg.Interactive() {
		t.Error("an HTTP port selects server mode")
	}
	if !cfg.Debug.Chat || cfg.Debug.Pipeline {
		t.Errorf("debug switches: %+v", cfg.Debug)
	}
}

// === Flag truthiness ===

func TestFlagOn(t *testing.T) {
	off := []string{"", "0", "false", "FALSE", "no", "No", "off", "OFF", "  off  "}
	for _, s := range off {
		if flagOn(s) {
			t.Errorf("flagOn(%q) = true", s)
		}
	}
	on := []string{"1", "true", "TRUE", "yes", "on", "anything"}
	for _, s := range on {
		if !flagOn(s) {
			t.Errorf("flagOn(%q) = false", s)
		}
	}
}

// === Validate ===

func TestValidate_SearchKeyLength(t *testing.T) {
	cfg := &Config{}
	cfg.Search.APIKey = strings.Repeat("k", 63)
	err := cfg.Validate()
	if !apperrors.IsConfigError(err) {
		t.Fatalf("expected ConfigError for a short key, got %v", err)
	}

	cfg.Search.APIKey = strings.Repeat("k", 64)
	if err := cfg.Validate(); err != nil {
		t.Errorf("64-char key rejected: %v", err)
	}
}

// === Front-end selection ===

func TestTelegramTokenValid(t *testing.T) {
	c := TelegramConfig{Token: strings.Repeat("t", 39)}
	if c.TokenValid() {
		t.Error("39-char token accepted")
	}
	c.Token = strings.Repeat("t", 40)
	if !c.TokenValid() {
		t.Error("40-char token rejected")
	}
}

func TestInteractive(t *testing.T) {
	cases := []struct {
		name  string
		port  string
		token string
		want  bool
	}{
		{"nothing configured", "", "", true},
		{"short token ignored", "", "short", true},
		{"http port", "3000", "", false},
		{"telegram token", "", strings.Repeat("t", 46), false},
		{"both", "3000", strings.Repeat("t", 46), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.HTTP.Port = tc.port
			cfg.Telegram.Token = tc.token
			if got := cfg.Interactive(); got != tc.want {
				t.Errorf("Interactive() = %v, want %v", got, tc.want)
			}
		})
	}
}

// === Streaming switch ===

func TestStreamingEnabled(t *testing.T) {
	for _, s := range []string{"no", "NO", " no "} {
		if (LLMConfig{Streaming: s}).StreamingEnabled() {
			t.Errorf("StreamingEnabled(%q) = true", s)
		}
	}
	for _, s := range []string{"", "yes", "1", "whatever"} {
		if !(LLMConfig{Streaming: s}).StreamingEnabled() {
			t.Errorf("StreamingEnabled(%q) = false", s)
		}
	}
}
