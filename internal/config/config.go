package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	defaultTimeout     = 25 * time.Second
	defaultGeminiModel = "gemini-2.0-flash"
	defaultOpenAIModel = "gpt-4o-mini"
)

// Config is built once at startup and passed to the components that need it.
// An empty APIKey is allowed here; the handler reports it per request.
type Config struct {
	Provider      string
	APIKey        string
	Model         string
	OpenAIBaseURL string
	Timeout       time.Duration
	ParamPrefix   string
	LocalAddr     string
	LogLevel      string
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	provider := strings.ToLower(get("ADVICE_PROVIDER"))
	if provider == "" {
		provider = ProviderGemini
	}

	cfg := Config{
		Provider:      provider,
		Model:         get("ADVICE_MODEL"),
		OpenAIBaseURL: get("OPENAI_BASE_URL"),
		Timeout:       envDuration(get("ADVICE_TIMEOUT"), defaultTimeout),
		ParamPrefix:   strings.TrimRight(get("PARAM_PREFIX"), "/"),
		LocalAddr:     get("LOCAL_ADDR"),
		LogLevel:      strings.ToLower(get("LOG_LEVEL")),
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	switch provider {
	case ProviderGemini:
		cfg.APIKey = get("GEMINI_API_KEY")
		if cfg.Model == "" {
			cfg.Model = defaultGeminiModel
		}
	case ProviderOpenAI:
		cfg.APIKey = get("OPENAI_API_KEY")
		if cfg.Model == "" {
			cfg.Model = defaultOpenAIModel
		}
	default:
		return Config{}, fmt.Errorf("config: unknown ADVICE_PROVIDER %q", provider)
	}
	return cfg, nil
}

// Configured reports whether an API credential is available.
func (c Config) Configured() bool {
	return c.APIKey != ""
}

// CredentialParameter is the SSM parameter holding the provider credential.
func (c Config) CredentialParameter() string {
	if c.ParamPrefix == "" {
		return ""
	}
	return c.ParamPrefix + "/" + c.Provider + "-api-key"
}

func envDuration(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
