package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	apperrors "github.com/gamalhq/gamal/pkg/errors"
)

const (
	DefaultBaseURL   = "https://openrouter.ai/api/v1"
	DefaultChatModel = "meta-llama/llama-3-8b-instruct"

	// Search keys shorter than this are typos or placeholders, not keys.
	minSearchKeyLen = 64

	// Telegram bot tokens are ~46 chars; anything shorter is ignored.
	minTelegramTokenLen = 40
)

// Config is the process configuration, environment-driven.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Search   SearchConfig   `mapstructure:"search"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Prompt   PromptConfig   `mapstructure:"prompt"`
	Debug    DebugConfig    `mapstructure:"debug"`
}

// LLMConfig points at the chat-completions endpoint.
type LLMConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	ChatModel string `mapstructure:"chat_model"`
	Streaming string `mapstructure:"streaming"` // "no" disables streaming requests
}

// StreamingEnabled reports whether streaming chat requests are allowed.
func (c LLMConfig) StreamingEnabled() bool {
	return !strings.EqualFold(strings.TrimSpace(c.Streaming), "no")
}

// SearchConfig points at the web-search endpoint.
type SearchConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// HTTPConfig selects and configures the HTTP front-end.
type HTTPConfig struct {
	Port string `mapstructure:"port"` // empty means the front-end is off
}

// TelegramConfig selects and configures the Telegram front-end.
type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// TokenValid reports whether the token is plausible enough to start polling.
func (c TelegramConfig) TokenValid() bool {
	return len(c.Token) >= minTelegramTokenLen
}

// PromptConfig optionally overrides the built-in prompt templates.
type PromptConfig struct {
	File string `mapstructure:"file"` // YAML pack path, hot-reloaded when set
}

// DebugConfig maps the LLM_DEBUG_* switches.
type DebugConfig struct {
	Chat     bool `mapstructure:"-"`
	Pipeline bool `mapstructure:"-"`
	Search   bool `mapstructure:"-"`
	FailExit bool `mapstructure:"-"`
}

// Load reads configuration from the environment. Every recognized option is
// a plain environment variable; defaults fill the rest.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.LLM.BaseURL = strings.TrimRight(cfg.LLM.BaseURL, "/")

	// Debug switches follow shell truthiness ("1", "true", "yes", ...)
	// rather than strict bool parsing.
	cfg.Debug = DebugConfig{
		Chat:     flagOn(v.GetString("debug.chat")),
		Pipeline: flagOn(v.GetString("debug.pipeline")),
		Search:   flagOn(v.GetString("debug.search")),
		FailExit: flagOn(v.GetString("debug.fail_exit")),
	}

	return &cfg, nil
}

// flagOn treats any value except the usual negatives as enabled.
func flagOn(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

// Validate enforces the startup rules. A missing or implausible search key
// is fatal: every pipeline run needs it.
func (c *Config) Validate() error {
	if len(c.Search.APIKey) < minSearchKeyLen {
		return apperrors.NewConfigError(
			fmt.Sprintf("YOU_API_KEY must be set and at least %d characters", minSearchKeyLen))
	}
	return nil
}

// Interactive reports whether the process will talk to a human on stdout
// (no server front-end selected).
func (c *Config) Interactive() bool {
	return c.HTTP.Port == "" && !c.Telegram.TokenValid()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.base_url", DefaultBaseURL)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.chat_model", DefaultChatModel)
	v.SetDefault("llm.streaming", "yes")

	v.SetDefault("search.api_key", "")
	v.SetDefault("http.port", "")
	v.SetDefault("telegram.token", "")
	v.SetDefault("prompt.file", "")

	v.SetDefault("debug.chat", "")
	v.SetDefault("debug.pipeline", "")
	v.SetDefault("debug.search", "")
	v.SetDefault("debug.fail_exit", "")
}

// bindEnv wires each config key to its published environment variable. The
// names predate this codebase and carry mixed prefixes, so automatic prefix
// matching is not an option.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("llm.base_url", "LLM_API_BASE_URL")
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY")
	_ = v.BindEnv("llm.chat_model", "LLM_CHAT_MODEL")
	_ = v.BindEnv("llm.streaming", "LLM_STREAMING")

	_ = v.BindEnv("search.api_key", "YOU_API_KEY")
	_ = v.BindEnv("http.port", "GAMAL_HTTP_PORT")
	_ = v.BindEnv("telegram.token", "GAMAL_TELEGRAM_TOKEN")
	_ = v.BindEnv("prompt.file", "GAMAL_PROMPT_FILE")

	_ = v.BindEnv("debug.chat", "LLM_DEBUG_CHAT")
	_ = v.BindEnv("debug.pipeline", "LLM_DEBUG_PIPELINE")
	_ = v.BindEnv("debug.search", "LLM_DEBUG_SEARCH")
	_ = v.BindEnv("debug.fail_exit", "LLM_DEBUG_FAIL_EXIT")
}
