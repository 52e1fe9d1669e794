package main

import (
	"os"
	"path/filepath"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "HOST", "OCR_LANGUAGES", "AI_PROVIDER"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearConfigEnv(t)

	config, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Error("expected a read error for a missing file")
	}
	if config.Port != 8000 || config.Host != "0.0.0.0" {
		t.Errorf("defaults not applied: port %d host %q", config.Port, config.Host)
	}
	if config.OCR.Languages != "rus+eng" {
		t.Errorf("languages = %q, want rus+eng", config.OCR.Languages)
	}
	if config.AI.DefaultProvider != "openai" {
		t.Errorf("provider = %q, want openai", config.AI.DefaultProvider)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "port: 9100\nocr:\n  languages: deu\nai:\n  default_provider: gemini\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PORT", "9200")
	t.Setenv("OCR_LANGUAGES", "fra")

	config, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if config.Port != 9200 {
		t.Errorf("port = %d, want the 9200 override", config.Port)
	}
	if config.OCR.Languages != "fra" {
		t.Errorf("languages = %q, want fra", config.OCR.Languages)
	}
	if config.AI.DefaultProvider != "gemini" {
		t.Errorf("provider = %q, want gemini", config.AI.DefaultProvider)
	}
}
