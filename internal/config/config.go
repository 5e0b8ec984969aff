package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	IMAP     IMAP     `yaml:"imap"`
	Telegram Telegram `yaml:"telegram"`
	LLM      LLM      `yaml:"llm"`
	Jobs     Jobs     `yaml:"jobs"`
	Digest   Digest   `yaml:"digest"`
	Schedule Schedule `yaml:"schedule"`
	Notify   Notify   `yaml:"notify"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type IMAP struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	PasswordEnv string `yaml:"password_env"`
	Folder      string `yaml:"folder"`
}

type Telegram struct {
	BotTokenEnv string      `yaml:"bot_token_env"`
	ChatID      int64       `yaml:"chat_id"`
	Channels    []Channel   `yaml:"channels"`
	HouseChats  []HouseChat `yaml:"house_chats"`
	FetchLimit  int         `yaml:"fetch_limit"`
}

// Channel is one scraped job channel, read through its RSS mirror.
type Channel struct {
	Name    string `yaml:"name"`
	FeedURL string `yaml:"feed_url"`
}

// HouseChat is one residential house chat, read through its RSS mirror.
type HouseChat struct {
	Name    string `yaml:"name"`
	FeedURL string `yaml:"feed_url"`
}

type LLM struct {
	Provider         string `yaml:"provider"` // "openai" (any OpenAI-compatible API) or "gemini"
	Model            string `yaml:"model"`
	BaseURL          string `yaml:"base_url"`
	APIKeyEnv        string `yaml:"api_key_env"`
	GeminiModel      string `yaml:"gemini_model"`
	GeminiAPIKeyEnv  string `yaml:"gemini_api_key_env"`
	SummaryMaxTokens int    `yaml:"summary_max_tokens"`
	DigestMaxTokens  int    `yaml:"digest_max_tokens"`
}

type Jobs struct {
	TargetCity     string     `yaml:"target_city"`
	CityAliases    [][]string `yaml:"city_aliases"`
	BannedKeywords []string   `yaml:"banned_keywords"`
	RemoteKeywords []string   `yaml:"remote_keywords"`
	LinkPattern    string     `yaml:"link_pattern"`
}

type Digest struct {
	MaxEmailsPerRun  int `yaml:"max_emails_per_run"`
	MaxCharsPerEmail int `yaml:"max_chars_per_email"`
}

type Schedule struct {
	Hours    []int  `yaml:"hours"`
	Timezone string `yaml:"timezone"`
}

type Notify struct {
	Email Email `yaml:"email"`
}

// Email enables digest delivery over SMTP in addition to Telegram.
type Email struct {
	Enabled     bool   `yaml:"enabled"`
	SMTPHost    string `yaml:"smtp_host"`
	SMTPPort    int    `yaml:"smtp_port"`
	User        string `yaml:"user"`
	PasswordEnv string `yaml:"password_env"`
	From        string `yaml:"from"`
	To          string `yaml:"to"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for vestnik.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "vestnik")
}

// DataDir returns the XDG data directory for vestnik.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "vestnik")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/vestnik/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'vestnik init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		IMAP: IMAP{
			Port:        993,
			PasswordEnv: "IMAP_PASSWORD",
			Folder:      "INBOX/ONLINE",
		},
		Telegram: Telegram{
			BotTokenEnv: "TELEGRAM_BOT_TOKEN",
			FetchLimit:  80,
		},
		LLM: LLM{
			Provider:         "openai",
			Model:            "llama-3.3-70b-versatile",
			BaseURL:          "https://api.groq.com/openai/v1",
			APIKeyEnv:        "LLM_API_KEY",
			GeminiModel:      "gemini-2.0-flash",
			GeminiAPIKeyEnv:  "GEMINI_API_KEY",
			SummaryMaxTokens: 220,
			DigestMaxTokens:  900,
		},
		Jobs: Jobs{
			TargetCity: "Санкт-Петербург",
		},
		Digest: Digest{
			MaxEmailsPerRun:  80,
			MaxCharsPerEmail: 20000,
		},
		Schedule: Schedule{
			Hours:    []int{10, 12, 14, 16, 18},
			Timezone: "Europe/Moscow",
		},
		Notify: Notify{
			Email: Email{SMTPPort: 587, PasswordEnv: "SMTP_PASSWORD"},
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// Secret reads a secret referenced by an env-var name. Secrets never live in
// the YAML file itself.
func Secret(envName string) string {
	if envName == "" {
		return ""
	}
	return os.Getenv(envName)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
