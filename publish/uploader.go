package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"finshorts/common"
	"finshorts/types"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// VideoUploader is the video platform.
type VideoUploader interface {
	Upload(ctx context.Context, meta *types.VideoMetadata) (string, error)
	SetThumbnail(ctx context.Context, videoID, path string) error
}

// YouTubeUploader uploads through the YouTube Data API.
type YouTubeUploader struct {
	service *youtube.Service
}

// NewYouTubeUploader authorizes with the saved OAuth token.
func NewYouTubeUploader(ctx context.Context, cfg *oauth2.Config, tokenPath string) (*YouTubeUploader, error) {
	client, err := TokenClient(ctx, cfg, tokenPath)
	if err != nil {
		return nil, err
	}
	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create YouTube service: %w", err)
	}
	return &YouTubeUploader{service: service}, nil
}

func (u *YouTubeUploader) Upload(ctx context.Context, meta *types.VideoMetadata) (string, error) {
	file, err := os.Open(meta.VideoPath)
	if err != nil {
		return "", common.Permanent(fmt.Errorf("failed to open video file: %w", err))
	}
	defer file.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           meta.CategoryID,
			DefaultLanguage:      meta.Language,
			DefaultAudioLanguage: meta.Language,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           meta.PrivacyStatus,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	resp, err := u.service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(file).
		Context(ctx).
		Do()
	if err != nil {
		return "", classify(fmt.Errorf("failed to upload video: %w", err))
	}
	if resp.Id == "" {
		return "", errors.New("upload returned no video id")
	}
	return resp.Id, nil
}

func (u *YouTubeUploader) SetThumbnail(ctx context.Context, videoID, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open thumbnail: %w", err)
	}
	defer file.Close()

	if _, err := u.service.Thumbnails.Set(videoID).Media(file).Context(ctx).Do(); err != nil {
		return classify(fmt.Errorf("failed to set thumbnail: %w", err))
	}
	return nil
}

// classify marks client errors other than rate limits as permanent.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code >= 400 && gerr.Code < 500 && gerr.Code != http.StatusTooManyRequests {
		return common.Permanent(err)
	}
	return err
}
