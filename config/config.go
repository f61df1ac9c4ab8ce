package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// Config is the full pipeline configuration: the settings file merged over
// the embedded defaults, plus secrets and infrastructure read from the env.
type Config struct {
	Paths       Paths        `yaml:"paths"`
	NewsSources []NewsSource `yaml:"news_sources"`
	Content     Content      `yaml:"content"`
	LLM         LLM          `yaml:"llm"`
	TTS         TTS          `yaml:"tts"`
	Broll       Broll        `yaml:"broll"`
	Video       Video        `yaml:"video"`
	Thumbnail   Thumbnail    `yaml:"thumbnail"`
	YouTube     YouTube      `yaml:"youtube"`
	Records     Records      `yaml:"records"`
	Retention   Retention    `yaml:"retention"`
	Retry       Retry        `yaml:"retry"`
	Logging     Logging      `yaml:"logging"`
	Server      Server       `yaml:"server"`

	Secrets Secrets `yaml:"-"`
	Redis   Redis   `yaml:"-"`
	S3      S3      `yaml:"-"`
	Kafka   Kafka   `yaml:"-"`
}

type Paths struct {
	WorkItems   string `yaml:"workitems"`
	Outputs     string `yaml:"outputs"`
	Logs        string `yaml:"logs"`
	Credentials string `yaml:"credentials"`
}

type NewsSource struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

type Content struct {
	MaxKeywords         int      `yaml:"max_keywords"`
	MaxItemsPerFeed     int      `yaml:"max_items_per_feed"`
	ScriptLengthSeconds int      `yaml:"script_length_seconds"`
	HookDurationSeconds int      `yaml:"hook_duration_seconds"`
	CTADurationSeconds  int      `yaml:"cta_duration_seconds"`
	Language            string   `yaml:"language"`
	Tone                string   `yaml:"tone"`
	KeywordFilter       []string `yaml:"keyword_filter"`
	ExtractFullText     bool     `yaml:"extract_full_text"`
}

type LLM struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type TTS struct {
	BaseURL         string  `yaml:"base_url"`
	VoiceID         string  `yaml:"voice_id"`
	ModelID         string  `yaml:"model_id"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
}

type Broll struct {
	BaseURL string `yaml:"base_url"`
	Enabled bool   `yaml:"enabled"`
}

type Video struct {
	FPS             int    `yaml:"fps"`
	BackgroundColor string `yaml:"background_color"`
	SubtitleFont    string `yaml:"subtitle_font"`
	SubtitleSize    int    `yaml:"subtitle_font_size"`
	WordsPerCaption int    `yaml:"words_per_caption"`
}

type Thumbnail struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Size    string `yaml:"size"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Quality int    `yaml:"quality"`
}

type YouTube struct {
	Enabled         bool     `yaml:"enabled"`
	CategoryID      string   `yaml:"category_id"`
	PrivacyStatus   string   `yaml:"privacy_status"`
	DefaultLanguage string   `yaml:"default_language"`
	Tags            []string `yaml:"tags"`
}

type Records struct {
	// Backend is "file" (text records under paths.logs) or "sqlite".
	Backend string `yaml:"backend"`
}

type Retention struct {
	Days     int `yaml:"days"`
	HashDays int `yaml:"hash_days"`
	LogDays  int `yaml:"log_days"`
}

type Retry struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
	Backoff     float64       `yaml:"backoff"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Server struct {
	Port     int    `yaml:"port"`
	Schedule string `yaml:"schedule"`
}

// Secrets holds API keys. They only ever come from the environment.
type Secrets struct {
	CohereAPIKey     string
	OpenAIAPIKey     string
	ElevenLabsAPIKey string
	PexelsAPIKey     string
	ImageAPIKey      string
}

type Redis struct {
	Addr     string
	Password string
	BloomKey string
}

type S3 struct {
	Bucket       string
	Region       string
	Profile      string
	Prefix       string
	UsePathStyle bool
}

type Kafka struct {
	Brokers     []string
	EventsTopic string
	NewsTopic   string
	GroupID     string
}

// Load reads the env file (missing is fine) and the settings file, merges
// the settings over the embedded defaults and overlays environment values.
// An empty path uses the defaults alone.
func Load(path, envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading env file %s: %w", envPath, err)
		}
	}

	var data []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		data = b
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parse decodes the embedded defaults and then the user settings on top.
func parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(DefaultConfigYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing default config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	c.Secrets = Secrets{
		CohereAPIKey:     env("COHERE_API_KEY"),
		OpenAIAPIKey:     env("OPENAI_API_KEY"),
		ElevenLabsAPIKey: env("ELEVENLABS_API_KEY"),
		PexelsAPIKey:     env("PEXELS_API_KEY"),
		ImageAPIKey:      env("IMAGE_API_KEY"),
	}
	if c.Secrets.ImageAPIKey == "" {
		c.Secrets.ImageAPIKey = c.Secrets.OpenAIAPIKey
	}
	if v := env("ELEVENLABS_VOICE_ID"); v != "" {
		c.TTS.VoiceID = v
	}

	c.Redis = Redis{
		Addr:     env("REDIS_ADDR"),
		Password: env("REDIS_PASS"),
		BloomKey: orDefault(env("BLOOM_KEY"), "finshorts:records"),
	}

	c.S3 = S3{
		Bucket:       env("S3_BUCKET"),
		Region:       env("S3_REGION"),
		Profile:      env("S3_PROFILE"),
		Prefix:       strings.Trim(env("S3_PREFIX"), "/"),
		UsePathStyle: strings.EqualFold(env("S3_USE_PATH_STYLE"), "true"),
	}

	c.Kafka = Kafka{
		EventsTopic: orDefault(env("KAFKA_EVENTS_TOPIC"), "finshorts.stage-events"),
		NewsTopic:   orDefault(env("KAFKA_NEWS_TOPIC"), "finshorts.news"),
		GroupID:     orDefault(env("KAFKA_GROUP_ID"), "finshorts"),
	}
	if brokers := env("KAFKA_BOOTSTRAP_SERVERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}

	if port := env("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			c.Server.Port = p
		}
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Paths.WorkItems == "" || c.Paths.Outputs == "" || c.Paths.Logs == "" {
		errs = append(errs, errors.New("paths.workitems, paths.outputs and paths.logs are required"))
	}
	for i, src := range c.NewsSources {
		if strings.TrimSpace(src.URL) == "" {
			errs = append(errs, fmt.Errorf("news_sources[%d]: url is required", i))
		}
	}
	if c.Content.ScriptLengthSeconds <= 0 {
		errs = append(errs, errors.New("content.script_length_seconds must be positive"))
	}
	switch c.LLM.Provider {
	case "cohere", "openai":
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q: want cohere or openai", c.LLM.Provider))
	}
	switch c.Records.Backend {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("records.backend %q: want file or sqlite", c.Records.Backend))
	}
	if c.Retention.Days <= 0 {
		errs = append(errs, errors.New("retention.days must be positive"))
	}
	if c.Video.FPS <= 0 {
		errs = append(errs, errors.New("video.fps must be positive"))
	}
	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry.max_attempts must be positive"))
	}
	return errors.Join(errs...)
}

// EnsureDirectories creates the data directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkItems, c.Paths.Outputs, c.Paths.Logs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// DataRoot is the directory holding workitems, outputs and logs; the run lock lives here.
func (c *Config) DataRoot() string {
	return filepath.Dir(filepath.Clean(c.Paths.WorkItems))
}

// ClientSecretPath is the OAuth client descriptor for the upload platform.
func (c *Config) ClientSecretPath() string {
	return filepath.Join(c.Paths.Credentials, ClientSecretFile)
}

// TokenPath is the generated OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Paths.Credentials, TokenFile)
}

// ResolveConfigPath returns the explicit path if it exists, else ./config.yaml
// when present, else "" (embedded defaults only).
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml", nil
	}
	return "", nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
