package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"finshorts/author"
	"finshorts/common"
	"finshorts/config"
	"finshorts/deduplication"
	"finshorts/orchestrator"
	"finshorts/publish"
	"finshorts/rssfeeds"
	"finshorts/shared/kafka"
	"finshorts/thumbnail"
	"finshorts/video"
	"finshorts/voice"
	"finshorts/workitems"
)

// app holds every wired component of one process.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *workitems.Store
	records  *deduplication.Records
	bloom    *deduplication.RedisBloom
	ingester *rssfeeds.Ingester
	events   kafka.EventPublisher
	state    *orchestrator.Manager
	pipeline *orchestrator.Pipeline
}

func retryPolicy(cfg config.Retry) common.RetryPolicy {
	return common.RetryPolicy{MaxAttempts: cfg.MaxAttempts, Delay: cfg.Delay, Backoff: cfg.Backoff}
}

// buildApp wires the pipeline from cfg. Optional infrastructure (Redis,
// S3, Kafka) is enabled by its environment variables.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, logPath string) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  workitems.NewStore(cfg.Paths.WorkItems),
		state:  orchestrator.NewManager(),
		events: kafka.NopPublisher{},
	}
	retry := retryPolicy(cfg.Retry)

	if cfg.Redis.Addr != "" {
		bloom, err := deduplication.NewRedisBloom(ctx, deduplication.BloomConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			KeyPrefix: cfg.Redis.BloomKey,
		})
		if err != nil {
			logger.Warn("redis bloom unavailable; using records only", "addr", cfg.Redis.Addr, "error", err)
		} else {
			a.bloom = bloom
		}
	}

	records, err := deduplication.OpenRecords(ctx, deduplication.RecordsOptions{
		Backend: cfg.Records.Backend,
		Dir:     cfg.Paths.Logs,
		Bloom:   a.bloom,
		Logger:  logger,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening records: %w", err)
	}
	a.records = records

	var extractor rssfeeds.Extractor
	if cfg.Content.ExtractFullText {
		extractor = rssfeeds.ReadabilityExtractor{Timeout: config.ExtractorTimeout}
	}
	a.ingester = &rssfeeds.Ingester{
		Sources:   cfg.NewsSources,
		Content:   cfg.Content,
		Records:   records,
		Store:     a.store,
		Fetcher:   rssfeeds.NewGoFeedFetcher(&http.Client{Timeout: config.DefaultHTTPTimeout}),
		Extractor: extractor,
		Retry:     retry,
		Logger:    logger,
	}

	llm, err := author.NewProvider(cfg.LLM, cfg.Secrets)
	if err != nil {
		a.Close()
		return nil, err
	}

	var broll *video.BrollFetcher
	if cfg.Broll.Enabled && cfg.Secrets.PexelsAPIKey != "" {
		broll = &video.BrollFetcher{
			Pexels: video.NewPexelsClient(cfg.Broll.BaseURL, cfg.Secrets.PexelsAPIKey),
			Retry:  retry,
			Logger: logger,
		}
	} else if cfg.Broll.Enabled {
		logger.Warn("PEXELS_API_KEY not set; rendering on a solid background")
	}

	var images *thumbnail.ImageClient
	if cfg.Secrets.ImageAPIKey != "" {
		images = thumbnail.NewImageClient(cfg.Thumbnail, cfg.Secrets.ImageAPIKey)
	}

	stages := []orchestrator.Stage{
		&orchestrator.ScriptStage{Author: &author.Author{
			LLM:       llm,
			Content:   cfg.Content,
			MaxTokens: cfg.LLM.MaxTokens,
			Scripts:   records.Scripts(),
			Retry:     retry,
			Logger:    logger,
		}},
		&orchestrator.VoiceStage{Narrator: &voice.Narrator{
			TTS:    voice.NewElevenLabs(cfg.TTS, cfg.Secrets.ElevenLabsAPIKey),
			Retry:  retry,
			Logger: logger,
		}},
		&orchestrator.ComposeStage{Composer: &video.Composer{
			Broll:    broll,
			Renderer: video.FFmpegRenderer{},
			Video:    cfg.Video,
			Logger:   logger,
		}},
		&orchestrator.ThumbnailStage{Generator: &thumbnail.Generator{
			Images:  images,
			Width:   cfg.Thumbnail.Width,
			Height:  cfg.Thumbnail.Height,
			Quality: cfg.Thumbnail.Quality,
			Retry:   retry,
			Logger:  logger,
		}},
	}

	if cfg.YouTube.Enabled {
		publisher, err := newPublisher(ctx, cfg, records.Uploads(), retry, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		stages = append(stages, &orchestrator.PublishStage{Publisher: publisher})
	} else {
		logger.Info("youtube.enabled is false; items stop at thumbnailed")
	}

	var mirror *common.ArtifactMirror
	if cfg.S3.Bucket != "" {
		s3c, err := common.NewS3(ctx, common.S3Config{
			Region:       cfg.S3.Region,
			Profile:      cfg.S3.Profile,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
		if err != nil {
			logger.Warn("s3 mirror disabled", "bucket", cfg.S3.Bucket, "error", err)
		} else {
			mirror = common.NewArtifactMirror(s3c, cfg.S3.Bucket, cfg.S3.Prefix)
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.EventsTopic})
		if err != nil {
			logger.Warn("stage events disabled", "brokers", cfg.Kafka.Brokers, "error", err)
		} else {
			a.events = kafka.LoggingPublisher{Next: producer, Logger: logger}
		}
	}

	a.pipeline = &orchestrator.Pipeline{
		Config:    cfg,
		Store:     a.store,
		Records:   records,
		Ingester:  a.ingester,
		Stages:    stages,
		Events:    a.events,
		Mirror:    mirror,
		State:     a.state,
		Logger:    logger,
		ActiveLog: logPath,
	}
	return a, nil
}

// newPublisher loads the OAuth client. A missing token is not fatal: items
// stay thumbnailed and report ErrNoToken until `finshorts auth` has run.
func newPublisher(ctx context.Context, cfg *config.Config, uploads deduplication.Store, retry common.RetryPolicy, logger *slog.Logger) (*publish.Publisher, error) {
	if info, err := os.Stat(cfg.Paths.Credentials); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("credentials directory %s is not readable: %w", cfg.Paths.Credentials, errOrNotDir(err))
	}
	oauthCfg, err := publish.LoadOAuthConfig(cfg.ClientSecretPath())
	if err != nil {
		return nil, err
	}

	p := &publish.Publisher{
		Uploads: uploads,
		YouTube: cfg.YouTube,
		Retry:   retry,
		Logger:  logger,
	}
	uploader, err := publish.NewYouTubeUploader(ctx, oauthCfg, cfg.TokenPath())
	switch {
	case errors.Is(err, publish.ErrNoToken):
		logger.Warn("no OAuth token; uploads will fail until `finshorts auth` is run", "token", cfg.TokenPath())
		p.UploaderErr = err
	case err != nil:
		return nil, err
	default:
		p.Uploader = uploader
	}
	return p, nil
}

func errOrNotDir(err error) error {
	if err != nil {
		return err
	}
	return errors.New("not a directory")
}

// Close releases records, caches and producers.
func (a *app) Close() {
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("closing event producer", "error", err)
		}
	}
	if a.records != nil {
		if err := a.records.Close(); err != nil {
			a.logger.Warn("closing records", "error", err)
		}
	}
	if a.bloom != nil {
		_ = a.bloom.Close()
	}
}

// recordCounts returns entry counts of the script and upload records.
func (a *app) recordCounts(ctx context.Context) (scripts, uploads int, err error) {
	s, err := a.records.Scripts().Entries(ctx)
	if err != nil {
		return 0, 0, err
	}
	u, err := a.records.Uploads().Entries(ctx)
	if err != nil {
		return 0, 0, err
	}
	return len(s), len(u), nil
}

func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Second).String()
}
