package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"finshorts/common"
	"finshorts/config"
)

// ImageClient calls an OpenAI-compatible image generation endpoint.
type ImageClient struct {
	BaseURL string
	APIKey  string
	Model   string
	Size    string
	client  *http.Client
}

func NewImageClient(cfg config.Thumbnail, apiKey string) *ImageClient {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.openai.com"
	}
	return &ImageClient{
		BaseURL: strings.TrimRight(base, "/"),
		APIKey:  apiKey,
		Model:   cfg.Model,
		Size:    cfg.Size,
		client:  &http.Client{Timeout: config.DownloadHTTPTimeout},
	}
}

// Generate returns the image bytes for prompt, whether the API answers with
// inline base64 or a download URL.
func (c *ImageClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if c.APIKey == "" {
		return nil, common.Permanent(errors.New("images: IMAGE_API_KEY not configured"))
	}
	data, err := json.Marshal(map[string]any{
		"model":  c.Model,
		"prompt": prompt,
		"size":   c.Size,
		"n":      1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/images/generations", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("images API error: %w", err)
	}
	defer resp.Body.Close()
	if err := common.CheckResponse("images", resp); err != nil {
		return nil, err
	}

	var result struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
			URL     string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding images response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, errors.New("images API returned no data")
	}
	img := result.Data[0]
	switch {
	case img.B64JSON != "":
		b, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return nil, common.Permanent(fmt.Errorf("decoding b64_json: %w", err))
		}
		return b, nil
	case img.URL != "":
		return c.download(ctx, img.URL)
	default:
		return nil, errors.New("images API returned neither b64_json nor url")
	}
}

func (c *ImageClient) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()
	if err := common.CheckResponse("image download", resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}
