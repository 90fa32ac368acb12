// internal/media/client.go
// Package media wraps the external image hosting service. Uploads go out
// as multipart form posts and come back as hosted URLs; the service is the
// only place image bytes ever live.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/utils"
)

const (
	// MaxUploadBytes bounds an accepted image payload.
	MaxUploadBytes = 10 << 20 // 10 MB

	requestTimeout = 30 * time.Second
)

// allowedImageTypes lists the content types the host accepts.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// AllowedImageType reports whether a content type is an accepted image
// format.
func AllowedImageType(contentType string) bool {
	return allowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))]
}

// UploadResult is the hosted image descriptor returned by the service.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Format   string `json:"format,omitempty"`
}

// Client talks to the image hosting service.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *http.Client
}

func NewClient(cfg *config.MediaConfig) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		http:      &http.Client{Timeout: requestTimeout},
	}
}

// Configured reports whether the client has an upstream to talk to.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// UploadImage streams an image to the hosting service and returns its
// hosted descriptor.
func (c *Client) UploadImage(ctx context.Context, filename, contentType string, data io.Reader) (*UploadResult, error) {
	if !c.Configured() {
		return nil, utils.NewAppError(utils.ErrUpstream, "Image hosting is not configured", nil)
	}
	if !AllowedImageType(contentType) {
		return nil, utils.NewValidationError("file", "unsupported image type")
	}

	var body strings.Builder
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, io.LimitReader(data, MaxUploadBytes)); err != nil {
		return nil, err
	}
	if err := writer.WriteField("api_key", c.apiKey); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/image/upload", strings.NewReader(body.String()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrUpstream, "Image host unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("Image upload failed with status %d: %s", resp.StatusCode, detail)
		return nil, utils.NewAppError(utils.ErrUpstream,
			fmt.Sprintf("Image host rejected upload (status %d)", resp.StatusCode), nil)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, utils.NewAppError(utils.ErrUpstream, "Malformed image host response", err)
	}
	if result.URL == "" {
		return nil, utils.NewAppError(utils.ErrUpstream, "Image host returned no URL", nil)
	}

	return &result, nil
}

// DeleteImage removes a hosted image by its public ID. A missing image is
// not an error.
func (c *Client) DeleteImage(ctx context.Context, publicID string) error {
	if !c.Configured() {
		return utils.NewAppError(utils.ErrUpstream, "Image hosting is not configured", nil)
	}
	if publicID == "" {
		return utils.NewValidationError("public_id", "must not be empty")
	}

	form := url.Values{}
	form.Set("public_id", publicID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/image/destroy", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return utils.NewAppError(utils.ErrUpstream, "Image host unreachable", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return utils.NewAppError(utils.ErrUpstream,
			fmt.Sprintf("Image host rejected delete (status %d)", resp.StatusCode), nil)
	}
	return nil
}
