package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(nil)
	if err != nil {
		t.Fatalf("parse defaults: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Paths.WorkItems != "./data/workitems" {
		t.Fatalf("workitems path = %q", cfg.Paths.WorkItems)
	}
	if cfg.Retention.Days != 7 || cfg.Retention.HashDays != 30 {
		t.Fatalf("retention = %+v", cfg.Retention)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.Delay != 2*time.Second || cfg.Retry.Backoff != 2.0 {
		t.Fatalf("retry = %+v", cfg.Retry)
	}
	if cfg.YouTube.CategoryID != "25" || cfg.YouTube.PrivacyStatus != "private" {
		t.Fatalf("youtube = %+v", cfg.YouTube)
	}
	if len(cfg.NewsSources) == 0 {
		t.Fatal("expected default news sources")
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	data := []byte(`
news_sources:
  - name: Only Feed
    url: https://example.com/rss
retention:
  days: 3
llm:
  provider: openai
  model: gpt-4o-mini
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cfg.NewsSources) != 1 || cfg.NewsSources[0].Name != "Only Feed" {
		t.Fatalf("news sources not replaced: %+v", cfg.NewsSources)
	}
	if cfg.Retention.Days != 3 {
		t.Fatalf("retention.days = %d, want 3", cfg.Retention.Days)
	}
	if cfg.Retention.HashDays != 30 {
		t.Fatalf("untouched default lost: hash_days = %d", cfg.Retention.HashDays)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.MaxTokens != 2000 {
		t.Fatalf("llm = %+v", cfg.LLM)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"provider", func(c *Config) { c.LLM.Provider = "bard" }, "llm.provider"},
		{"backend", func(c *Config) { c.Records.Backend = "mongo" }, "records.backend"},
		{"retention", func(c *Config) { c.Retention.Days = 0 }, "retention.days"},
		{"feed url", func(c *Config) { c.NewsSources = []NewsSource{{Name: "x"}} }, "news_sources[0]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := parse(nil)
			if err != nil {
				t.Fatal(err)
			}
			tc.mutate(cfg)
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tc.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg, err := parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	env := map[string]string{
		"OPENAI_API_KEY":          "sk-test",
		"ELEVENLABS_VOICE_ID":     "voice-2",
		"KAFKA_BOOTSTRAP_SERVERS": "k1:9092, k2:9092,",
		"S3_PREFIX":               "/shorts/",
		"PORT":                    "9090",
	}
	cfg.applyEnv(func(k string) string { return env[k] })

	if cfg.Secrets.ImageAPIKey != "sk-test" {
		t.Fatalf("image key should fall back to OpenAI key, got %q", cfg.Secrets.ImageAPIKey)
	}
	if cfg.TTS.VoiceID != "voice-2" {
		t.Fatalf("voice id = %q", cfg.TTS.VoiceID)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.S3.Prefix != "shorts" {
		t.Fatalf("prefix = %q", cfg.S3.Prefix)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
}

func TestLoadMissingEnvFileIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("retention:\n  days: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Retention.Days != 9 {
		t.Fatalf("retention.days = %d", cfg.Retention.Days)
	}
}

func TestLoadMissingConfigFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Fatal("expected error for missing settings file")
	}
}
