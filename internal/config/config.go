package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DotEnvFile is read from the working directory when no config file is given.
const DotEnvFile = ".env"

// Config contains all runtime settings for the assistant.
type Config struct {
	AssistantName   string
	DefaultLanguage string

	LLMMode           string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string
	LLMHTTPURL        string
	LLMTemperature    float32
	LLMMaxTokens      int
	LLMTimeout        time.Duration

	SearchMode       string
	SearchBaseURL    string
	SearchMaxResults int
	SearchTimeout    time.Duration
	SearchCacheTTL   time.Duration
	SearchCacheSize  int
	RedisURL         string

	TranslateMode    string
	TranslateBaseURL string
	TranslateTimeout time.Duration

	STTCommand      string
	STTTimeout      time.Duration
	TTSMode         string
	TTSCommand      string
	TTSPollInterval time.Duration

	InteractionLogPath   string
	InteractionLogRedact bool
	DatabaseURL          string

	LogLevel  string
	LogFormat string

	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string
	AllowAnyOrigin           bool
}

var defaults = map[string]any{
	"ASSISTANT_NAME":                 "Zoya",
	"DEFAULT_LANGUAGE":               "en",
	"LLM_MODE":                       "auto",
	"OPENROUTER_MODEL":               "x-ai/grok-4-fast:free",
	"OPENROUTER_BASE_URL":            "https://openrouter.ai/api/v1",
	"LLM_TEMPERATURE":                "0.7",
	"LLM_MAX_TOKENS":                 "500",
	"LLM_TIMEOUT":                    "30s",
	"SEARCH_MODE":                    "auto",
	"SEARCH_BASE_URL":                "https://html.duckduckgo.com/html/",
	"SEARCH_MAX_RESULTS":             "3",
	"SEARCH_TIMEOUT":                 "10s",
	"SEARCH_CACHE_TTL":               "10m",
	"SEARCH_CACHE_SIZE":              "256",
	"TRANSLATE_MODE":                 "auto",
	"TRANSLATE_BASE_URL":             "https://api.mymemory.translated.net/get",
	"TRANSLATE_TIMEOUT":              "10s",
	"STT_TIMEOUT":                    "15s",
	"TTS_MODE":                       "auto",
	"TTS_POLL_INTERVAL":              "100ms",
	"INTERACTION_LOG_PATH":           "zoya_logs.json",
	"INTERACTION_LOG_REDACT":         "false",
	"LOG_LEVEL":                      "info",
	"LOG_FORMAT":                     "console",
	"APP_BIND_ADDR":                  ":8080",
	"APP_SHUTDOWN_TIMEOUT":           "15s",
	"APP_SESSION_INACTIVITY_TIMEOUT": "10m",
	"APP_METRICS_NAMESPACE":          "zoya",
	"APP_ALLOW_ANY_ORIGIN":           "false",
}

// keys without a default that still need an env binding.
var optionalKeys = []string{
	"OPENROUTER_API_KEY",
	"LLM_HTTP_URL",
	"REDIS_URL",
	"STT_COMMAND",
	"TTS_COMMAND",
	"DATABASE_URL",
}

// Load reads defaults, then the config file at path (or .env in the working
// directory when path is empty), then environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range optionalKeys {
		v.SetDefault(key, "")
	}
	v.AutomaticEnv()

	if err := readConfigFile(v, path); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AssistantName:      str(v, "ASSISTANT_NAME"),
		DefaultLanguage:    strings.ToLower(str(v, "DEFAULT_LANGUAGE")),
		LLMMode:            strings.ToLower(str(v, "LLM_MODE")),
		OpenRouterAPIKey:   str(v, "OPENROUTER_API_KEY"),
		OpenRouterModel:    str(v, "OPENROUTER_MODEL"),
		OpenRouterBaseURL:  str(v, "OPENROUTER_BASE_URL"),
		LLMHTTPURL:         str(v, "LLM_HTTP_URL"),
		SearchMode:         strings.ToLower(str(v, "SEARCH_MODE")),
		SearchBaseURL:      str(v, "SEARCH_BASE_URL"),
		RedisURL:           str(v, "REDIS_URL"),
		TranslateMode:      strings.ToLower(str(v, "TRANSLATE_MODE")),
		TranslateBaseURL:   str(v, "TRANSLATE_BASE_URL"),
		STTCommand:         str(v, "STT_COMMAND"),
		TTSMode:            strings.ToLower(str(v, "TTS_MODE")),
		TTSCommand:         str(v, "TTS_COMMAND"),
		InteractionLogPath: str(v, "INTERACTION_LOG_PATH"),
		DatabaseURL:        str(v, "DATABASE_URL"),
		LogLevel:           strings.ToLower(str(v, "LOG_LEVEL")),
		LogFormat:          strings.ToLower(str(v, "LOG_FORMAT")),
		BindAddr:           str(v, "APP_BIND_ADDR"),
		MetricsNamespace:   str(v, "APP_METRICS_NAMESPACE"),
	}

	var err error
	if cfg.LLMTemperature, err = float32From(v, "LLM_TEMPERATURE"); err != nil {
		return Config{}, err
	}
	if cfg.LLMMaxTokens, err = intFrom(v, "LLM_MAX_TOKENS"); err != nil {
		return Config{}, err
	}
	if cfg.LLMTimeout, err = durationFrom(v, "LLM_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.SearchMaxResults, err = intFrom(v, "SEARCH_MAX_RESULTS"); err != nil {
		return Config{}, err
	}
	if cfg.SearchTimeout, err = durationFrom(v, "SEARCH_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.SearchCacheTTL, err = durationFrom(v, "SEARCH_CACHE_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.SearchCacheSize, err = intFrom(v, "SEARCH_CACHE_SIZE"); err != nil {
		return Config{}, err
	}
	if cfg.TranslateTimeout, err = durationFrom(v, "TRANSLATE_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.STTTimeout, err = durationFrom(v, "STT_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.TTSPollInterval, err = durationFrom(v, "TTS_POLL_INTERVAL"); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationFrom(v, "APP_SHUTDOWN_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.SessionInactivityTimeout, err = durationFrom(v, "APP_SESSION_INACTIVITY_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.AllowAnyOrigin, err = boolFrom(v, "APP_ALLOW_ANY_ORIGIN"); err != nil {
		return Config{}, err
	}
	if cfg.InteractionLogRedact, err = boolFrom(v, "INTERACTION_LOG_REDACT"); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		if _, err := os.Stat(DotEnvFile); err != nil {
			return nil
		}
		path = DotEnvFile
		v.SetConfigType("env")
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func (c Config) validate() error {
	var errs []error
	if c.AssistantName == "" {
		errs = append(errs, errors.New("ASSISTANT_NAME must not be empty"))
	}
	if !oneOf(c.LLMMode, "auto", "openrouter", "http", "mock", "off") {
		errs = append(errs, fmt.Errorf("LLM_MODE %q is not one of auto|openrouter|http|mock|off", c.LLMMode))
	}
	if !oneOf(c.SearchMode, "auto", "duckduckgo", "mock", "off") {
		errs = append(errs, fmt.Errorf("SEARCH_MODE %q is not one of auto|duckduckgo|mock|off", c.SearchMode))
	}
	if !oneOf(c.TranslateMode, "auto", "off") {
		errs = append(errs, fmt.Errorf("TRANSLATE_MODE %q is not one of auto|off", c.TranslateMode))
	}
	if !oneOf(c.TTSMode, "auto", "command", "console", "off") {
		errs = append(errs, fmt.Errorf("TTS_MODE %q is not one of auto|command|console|off", c.TTSMode))
	}
	if c.TTSMode == "command" && c.TTSCommand == "" {
		errs = append(errs, errors.New("TTS_COMMAND is required when TTS_MODE=command"))
	}
	if !oneOf(c.LogFormat, "console", "json") {
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not one of console|json", c.LogFormat))
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		errs = append(errs, errors.New("LLM_TEMPERATURE must be within [0, 2]"))
	}
	if c.LLMMaxTokens <= 0 {
		errs = append(errs, errors.New("LLM_MAX_TOKENS must be positive"))
	}
	if c.SearchMaxResults <= 0 {
		errs = append(errs, errors.New("SEARCH_MAX_RESULTS must be positive"))
	}
	if c.SearchCacheSize < 0 {
		errs = append(errs, errors.New("SEARCH_CACHE_SIZE must be >= 0"))
	}
	if c.TTSPollInterval <= 0 || c.TTSPollInterval > 150*time.Millisecond {
		errs = append(errs, errors.New("TTS_POLL_INTERVAL must be within (0, 150ms]"))
	}
	if c.SessionInactivityTimeout < 5*time.Second {
		errs = append(errs, errors.New("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s"))
	}
	for key, d := range map[string]time.Duration{
		"LLM_TIMEOUT":       c.LLMTimeout,
		"SEARCH_TIMEOUT":    c.SearchTimeout,
		"TRANSLATE_TIMEOUT": c.TranslateTimeout,
		"STT_TIMEOUT":       c.STTTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", key))
		}
	}
	return errors.Join(errs...)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func str(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func durationFrom(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(str(v, key))
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFrom(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(str(v, key))
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func float32From(v *viper.Viper, key string) (float32, error) {
	f, err := strconv.ParseFloat(str(v, key), 32)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return float32(f), nil
}

func boolFrom(v *viper.Viper, key string) (bool, error) {
	switch strings.ToLower(str(v, key)) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
