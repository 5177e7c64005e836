// Package imagegen fetches still images for scene prompts from an
// HTTP image generation endpoint.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"storyreel/internal/services"
)

// DefaultModel is requested when the configuration names none.
const DefaultModel = "flux"

// Client generates images through a pollinations-style prompt URL.
type Client struct {
	endpoint string
	model    string
	http     *http.Client
}

// New returns a client for the given endpoint and model.
func New(endpoint, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		endpoint: endpoint,
		model:    model,
		http:     &http.Client{Timeout: 120 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client (for testing).
func (c *Client) WithHTTPClient(client *http.Client) {
	c.http = client
}

// Generate fetches an image for the prompt at the given canvas size and writes
// it to dest. Responses smaller than minBytes are rejected; generators have
// been seen returning tiny error placeholders with a 200 status.
func (c *Client) Generate(ctx context.Context, prompt string, width, height int, dest string, minBytes int64) error {
	if prompt == "" {
		return services.Wrap(services.ErrValidation, "imagegen", "generate", "empty prompt", nil)
	}

	reqURL := fmt.Sprintf("%s/prompt/%s?width=%d&height=%d&model=%s&nologo=true",
		c.endpoint, url.PathEscape(prompt), width, height, url.QueryEscape(c.model))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "imagegen", "generate", "build request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return services.Wrap(marker, "imagegen", "generate", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return services.Wrap(services.ErrTransient, "imagegen", "generate",
			fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.Wrap(services.ErrTransient, "imagegen", "generate", "read response", err)
	}
	if int64(len(data)) < minBytes {
		return services.Wrap(services.ErrTransient, "imagegen", "generate",
			fmt.Sprintf("response of %d bytes below sanity threshold", len(data)), nil)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "imagegen", "generate", "write image", err)
	}
	return nil
}
