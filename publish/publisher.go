// Package publish uploads finished shorts and keeps the upload record.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finshorts/common"
	"finshorts/config"
	"finshorts/deduplication"
	"finshorts/types"
)

// Result is the outcome of publishing one item.
type Result struct {
	VideoID  string
	VideoURL string
	Metadata *types.VideoMetadata
	Reused   bool // an upload with the same fingerprint already existed
}

// Publisher checks the upload record and uploads what is new.
type Publisher struct {
	Uploader VideoUploader
	// UploaderErr explains a nil Uploader (for example ErrNoToken).
	UploaderErr error
	Uploads     deduplication.Store
	YouTube     config.YouTube
	Retry       common.RetryPolicy
	Logger      *slog.Logger
	Now         func() time.Time
}

func (p *Publisher) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Publish writes the metadata file and uploads the video unless its
// fingerprint is already in the upload record.
func (p *Publisher) Publish(ctx context.Context, item *types.WorkItem, metadataPath string) (*Result, error) {
	logger := p.Logger.With("component", "publish", "work_item", item.ID)
	if item.Script == nil || item.VideoPath == "" {
		return nil, common.Permanent(errors.New("item has no script or video"))
	}

	meta := BuildMetadata(item, p.YouTube, p.now())
	if err := writeMetadata(metadataPath, meta); err != nil {
		return nil, err
	}

	prior, found, err := p.Uploads.Get(ctx, meta.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("checking upload record: %w", err)
	}
	if found {
		meta.VideoID = prior.String("video_id")
		meta.VideoURL = prior.String("url")
		if meta.VideoURL == "" && meta.VideoID != "" {
			meta.VideoURL = config.YouTubeWatchURL + meta.VideoID
		}
		logger.Info("already uploaded; skipping", "video_id", meta.VideoID, "fingerprint", meta.Fingerprint)
		if err := writeMetadata(metadataPath, meta); err != nil {
			return nil, err
		}
		return &Result{VideoID: meta.VideoID, VideoURL: meta.VideoURL, Metadata: meta, Reused: true}, nil
	}

	if p.Uploader == nil {
		if p.UploaderErr != nil {
			return nil, p.UploaderErr
		}
		return nil, ErrNoToken
	}

	var videoID string
	err = common.Retry(ctx, p.Retry, logger, "video upload", func(ctx context.Context) error {
		var uerr error
		videoID, uerr = p.Uploader.Upload(ctx, meta)
		return uerr
	})
	if err != nil {
		return nil, fmt.Errorf("uploading video: %w", err)
	}
	meta.VideoID = videoID
	meta.VideoURL = config.YouTubeWatchURL + videoID
	logger.Info("video uploaded", "video_id", videoID, "url", meta.VideoURL)

	if meta.ThumbnailPath != "" {
		if err := p.Uploader.SetThumbnail(ctx, videoID, meta.ThumbnailPath); err != nil {
			logger.Warn("thumbnail upload failed", "video_id", videoID, "error", err)
		}
	}

	if _, err := p.Uploads.Add(ctx, meta.Fingerprint, map[string]any{
		"timestamp": p.now().UTC().Format(time.RFC3339),
		"video_id":  videoID,
		"url":       meta.VideoURL,
		"title":     meta.Title,
		"work_item": item.ID,
	}); err != nil {
		// The video is live; losing the record would allow a re-upload.
		logger.Error("failed to record upload", "video_id", videoID, "error", err)
	}

	if err := writeMetadata(metadataPath, meta); err != nil {
		logger.Warn("failed to update metadata file", "error", err)
	}
	return &Result{VideoID: videoID, VideoURL: meta.VideoURL, Metadata: meta}, nil
}

func writeMetadata(path string, meta *types.VideoMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if _, err := common.WriteFileAtomic(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}
