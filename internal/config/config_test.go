package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setEnvEmpty(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AssistantName != "Zoya" {
		t.Fatalf("AssistantName = %q, want Zoya", cfg.AssistantName)
	}
	if cfg.DefaultLanguage != "en" {
		t.Fatalf("DefaultLanguage = %q, want en", cfg.DefaultLanguage)
	}
	if cfg.LLMMode != "auto" || cfg.SearchMode != "auto" || cfg.TTSMode != "auto" {
		t.Fatalf("modes = %q/%q/%q, want auto", cfg.LLMMode, cfg.SearchMode, cfg.TTSMode)
	}
	if cfg.OpenRouterModel != "x-ai/grok-4-fast:free" {
		t.Fatalf("OpenRouterModel = %q", cfg.OpenRouterModel)
	}
	if cfg.OpenRouterAPIKey != "" {
		t.Fatalf("OpenRouterAPIKey = %q, want empty default", cfg.OpenRouterAPIKey)
	}
	if cfg.LLMTemperature != 0.7 {
		t.Fatalf("LLMTemperature = %v, want 0.7", cfg.LLMTemperature)
	}
	if cfg.LLMMaxTokens != 500 {
		t.Fatalf("LLMMaxTokens = %d, want 500", cfg.LLMMaxTokens)
	}
	if cfg.SearchMaxResults != 3 {
		t.Fatalf("SearchMaxResults = %d, want 3", cfg.SearchMaxResults)
	}
	if cfg.TTSPollInterval != 100*time.Millisecond {
		t.Fatalf("TTSPollInterval = %v, want 100ms", cfg.TTSPollInterval)
	}
	if cfg.InteractionLogPath != "zoya_logs.json" {
		t.Fatalf("InteractionLogPath = %q", cfg.InteractionLogPath)
	}
	if cfg.AllowAnyOrigin || cfg.InteractionLogRedact {
		t.Fatalf("AllowAnyOrigin/InteractionLogRedact = %v/%v, want false/false", cfg.AllowAnyOrigin, cfg.InteractionLogRedact)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	setEnvEmpty(t)
	t.Setenv("ASSISTANT_NAME", "Nova")
	t.Setenv("LLM_MODE", "MOCK")
	t.Setenv("LLM_MAX_TOKENS", "120")
	t.Setenv("SEARCH_TIMEOUT", "2s")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "yes")
	t.Setenv("INTERACTION_LOG_REDACT", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AssistantName != "Nova" {
		t.Fatalf("AssistantName = %q, want Nova", cfg.AssistantName)
	}
	if cfg.LLMMode != "mock" {
		t.Fatalf("LLMMode = %q, want mock", cfg.LLMMode)
	}
	if cfg.LLMMaxTokens != 120 {
		t.Fatalf("LLMMaxTokens = %d, want 120", cfg.LLMMaxTokens)
	}
	if cfg.SearchTimeout != 2*time.Second {
		t.Fatalf("SearchTimeout = %v, want 2s", cfg.SearchTimeout)
	}
	if !cfg.AllowAnyOrigin {
		t.Fatal("AllowAnyOrigin = false, want true")
	}
	if !cfg.InteractionLogRedact {
		t.Fatal("InteractionLogRedact = false, want true")
	}
}

func TestLoadConfigFileBelowEnvironment(t *testing.T) {
	setEnvEmpty(t)
	path := filepath.Join(t.TempDir(), "zoya.env")
	body := "ASSISTANT_NAME=Iris\nSEARCH_MAX_RESULTS=5\nDEFAULT_LANGUAGE=hi\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("DEFAULT_LANGUAGE", "te")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AssistantName != "Iris" {
		t.Fatalf("AssistantName = %q, want Iris", cfg.AssistantName)
	}
	if cfg.SearchMaxResults != 5 {
		t.Fatalf("SearchMaxResults = %d, want 5", cfg.SearchMaxResults)
	}
	if cfg.DefaultLanguage != "te" {
		t.Fatalf("DefaultLanguage = %q, want env override te", cfg.DefaultLanguage)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	setEnvEmpty(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() error = nil, want missing file error")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"LLM_MODE", "gpt", "LLM_MODE"},
		{"SEARCH_MODE", "bing", "SEARCH_MODE"},
		{"TTS_MODE", "loud", "TTS_MODE"},
		{"LOG_FORMAT", "xml", "LOG_FORMAT"},
		{"LLM_TIMEOUT", "soon", "LLM_TIMEOUT parse error"},
		{"LLM_MAX_TOKENS", "many", "LLM_MAX_TOKENS parse error"},
		{"LLM_MAX_TOKENS", "0", "LLM_MAX_TOKENS must be positive"},
		{"LLM_TEMPERATURE", "3", "LLM_TEMPERATURE"},
		{"SEARCH_MAX_RESULTS", "-1", "SEARCH_MAX_RESULTS"},
		{"TTS_POLL_INTERVAL", "1s", "TTS_POLL_INTERVAL"},
		{"APP_ALLOW_ANY_ORIGIN", "maybe", "APP_ALLOW_ANY_ORIGIN parse error"},
		{"APP_SESSION_INACTIVITY_TIMEOUT", "1s", "APP_SESSION_INACTIVITY_TIMEOUT"},
	}
	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			setEnvEmpty(t)
			t.Setenv(tc.key, tc.value)
			_, err := Load("")
			if err == nil {
				t.Fatalf("Load() error = nil, want error mentioning %s", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load() error = %v, want it to mention %s", err, tc.want)
			}
		})
	}
}

func TestLoadCommandModeNeedsCommand(t *testing.T) {
	setEnvEmpty(t)
	t.Setenv("TTS_MODE", "command")
	if _, err := Load(""); err == nil {
		t.Fatal("Load() error = nil, want TTS_COMMAND error")
	}
	t.Setenv("TTS_COMMAND", "espeak-ng {text}")
	if _, err := Load(""); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func setEnvEmpty(t *testing.T) {
	t.Helper()
	for key := range defaults {
		t.Setenv(key, "")
	}
	for _, key := range optionalKeys {
		t.Setenv(key, "")
	}
}
