package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr     string
	EdgeHTTPAddr string

	LogLevel  string
	LogFormat string

	RecordStore RecordStoreConfig
	DatabaseURL string

	EmailFunctionURL     string
	EmailFunctionTimeout time.Duration

	LLM LLMConfig

	RabbitMQURL string
	Mail        MailConfig

	RateLimitPerMinute int
	RateLimitExempt    []netip.Prefix
	TrustProxyHeaders  bool
}

type RecordStoreConfig struct {
	Driver    string
	URL       string
	Token     string
	ProjectID string
	Timeout   time.Duration
}

type LLMConfig struct {
	Provider      string
	Timeout       time.Duration
	GeminiBaseURL string
	GeminiModel   string
	OpenAIBaseURL string
	OpenAIModel   string
}

type MailConfig struct {
	Host       string
	Port       int
	User       string
	Pass       string
	From       string
	SalesInbox string
}

func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.SalesInbox != ""
}

var defaults = map[string]any{
	"HTTP_ADDR":               ":8080",
	"EDGE_HTTP_ADDR":          ":8081",
	"LOG_LEVEL":               "info",
	"LOG_FORMAT":              "json",
	"RECORD_STORE_DRIVER":     "http",
	"RECORD_STORE_URL":        "",
	"RECORD_STORE_TOKEN":      "",
	"RECORD_STORE_PROJECT_ID": "",
	"RECORD_STORE_TIMEOUT":    "15s",
	"DATABASE_URL":            "",
	"EMAIL_FUNCTION_URL":      "",
	"EMAIL_FUNCTION_TIMEOUT":  "90s",
	"LLM_PROVIDER":            "gemini",
	"LLM_TIMEOUT":             "60s",
	"GEMINI_BASE_URL":         "https://generativelanguage.googleapis.com",
	"GEMINI_MODEL":            "gemini-pro",
	"OPENAI_BASE_URL":         "https://api.openai.com",
	"OPENAI_MODEL":            "gpt-3.5-turbo",
	"RABBITMQ_URL":            "",
	"MAIL_HOST":               "",
	"MAIL_PORT":               587,
	"MAIL_USER":               "",
	"MAIL_PASS":               "",
	"MAIL_FROM":               "crm@localhost",
	"SALES_INBOX":             "",
	"RATE_LIMIT_PER_MINUTE":   30,
	"RATE_LIMIT_EXEMPT":       "",
	"TRUST_PROXY_HEADERS":     false,
}

// Load reads .env when present, then the environment. LLM API keys are
// not part of the config; they are looked up per request.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		HTTPAddr:     v.GetString("HTTP_ADDR"),
		EdgeHTTPAddr: v.GetString("EDGE_HTTP_ADDR"),
		LogLevel:     strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:    strings.ToLower(v.GetString("LOG_FORMAT")),
		RecordStore: RecordStoreConfig{
			Driver:    strings.ToLower(v.GetString("RECORD_STORE_DRIVER")),
			URL:       v.GetString("RECORD_STORE_URL"),
			Token:     v.GetString("RECORD_STORE_TOKEN"),
			ProjectID: v.GetString("RECORD_STORE_PROJECT_ID"),
			Timeout:   v.GetDuration("RECORD_STORE_TIMEOUT"),
		},
		DatabaseURL:          v.GetString("DATABASE_URL"),
		EmailFunctionURL:     v.GetString("EMAIL_FUNCTION_URL"),
		EmailFunctionTimeout: v.GetDuration("EMAIL_FUNCTION_TIMEOUT"),
		LLM: LLMConfig{
			Provider:      strings.ToLower(v.GetString("LLM_PROVIDER")),
			Timeout:       v.GetDuration("LLM_TIMEOUT"),
			GeminiBaseURL: v.GetString("GEMINI_BASE_URL"),
			GeminiModel:   v.GetString("GEMINI_MODEL"),
			OpenAIBaseURL: v.GetString("OPENAI_BASE_URL"),
			OpenAIModel:   v.GetString("OPENAI_MODEL"),
		},
		RabbitMQURL: v.GetString("RABBITMQ_URL"),
		Mail: MailConfig{
			Host:       v.GetString("MAIL_HOST"),
			Port:       v.GetInt("MAIL_PORT"),
			User:       v.GetString("MAIL_USER"),
			Pass:       v.GetString("MAIL_PASS"),
			From:       v.GetString("MAIL_FROM"),
			SalesInbox: v.GetString("SALES_INBOX"),
		},
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		TrustProxyHeaders:  v.GetBool("TRUST_PROXY_HEADERS"),
	}

	exempt, err := parsePrefixes(v.GetString("RATE_LIMIT_EXEMPT"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.RateLimitExempt = exempt

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.RecordStore.Driver {
	case "http", "postgres":
	default:
		return fmt.Errorf("RECORD_STORE_DRIVER must be http or postgres, got %q", c.RecordStore.Driver)
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("LLM_PROVIDER must be gemini or openai, got %q", c.LLM.Provider)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be >= 0")
	}
	return nil
}

// ValidateAPI checks what the CRM API needs on top of the shared settings.
func (c *Config) ValidateAPI() error {
	switch c.RecordStore.Driver {
	case "http":
		if c.RecordStore.URL == "" {
			return fmt.Errorf("RECORD_STORE_URL is required for the http record store")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres record store")
		}
	}
	return nil
}

// parsePrefixes reads a comma separated list of CIDRs or bare addresses.
func parsePrefixes(raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("RATE_LIMIT_EXEMPT: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("RATE_LIMIT_EXEMPT: %w", err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
