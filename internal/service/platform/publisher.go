package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"captionclash/internal/config"
	"captionclash/internal/domain"
	apperrors "captionclash/pkg/errors"
	"captionclash/pkg/logger"
)

// Client publishes rendered caption posts through the platform HTTP API.
// Rendering happens platform-side; we only hand over the image reference
// and the caption payload.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

// NewClient creates a platform publisher. When client credentials are
// configured, requests carry an OAuth2 bearer token.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	httpClient := &http.Client{Timeout: 15 * time.Second}

	if cfg.PlatformClientID != "" && cfg.PlatformTokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.PlatformClientID,
			ClientSecret: cfg.PlatformClientSecret,
			TokenURL:     cfg.PlatformTokenURL,
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = 15 * time.Second
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.PlatformBaseURL,
		log:        log,
	}
}

type publishRequest struct {
	ImageRef   string `json:"image_ref"`
	TopText    string `json:"top_text,omitempty"`
	MiddleText string `json:"middle_text,omitempty"`
	BottomText string `json:"bottom_text,omitempty"`
	Bold       bool   `json:"bold,omitempty"`
	AllCaps    bool   `json:"all_caps,omitempty"`
}

type publishResponse struct {
	PostRef string `json:"post_ref"`
}

// Publish renders the caption onto the image and re-publishes it, returning
// the platform's reference for the new post.
func (c *Client) Publish(ctx context.Context, imageRef string, caption domain.CaptionPayload) (string, error) {
	body, err := json.Marshal(publishRequest{
		ImageRef:   imageRef,
		TopText:    caption.TopText,
		MiddleText: caption.MiddleText,
		BottomText: caption.BottomText,
		Bold:       caption.Bold,
		AllCaps:    caption.AllCaps,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode publish request: %w", err)
	}

	url := c.baseURL + "/v1/captioned-posts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewUpstreamError("publish request failed", err)
	}
	defer resp.Body.Close()

	c.log.WithFields(map[string]interface{}{
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("Platform publish call completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperrors.NewUpstreamError(
			fmt.Sprintf("platform returned status %d", resp.StatusCode),
			fmt.Errorf("response body: %s", string(snippet)))
	}

	var out publishResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode publish response: %w", err)
	}

	return out.PostRef, nil
}
