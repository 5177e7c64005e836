package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"storyreel/internal/services"
)

// DefaultModelID is the synthesis model requested from the remote service.
const DefaultModelID = "eleven_multilingual_v2"

// Remote synthesizes speech through an ElevenLabs-style HTTP API. Keys are an
// ordered list tried in sequence: when a key is rejected or rate limited the
// next one is used, and the first working key is remembered for later calls.
type Remote struct {
	endpoint string
	voiceID  string
	keys     []string
	http     *http.Client

	// keyIndex is shared by every worker in a wave.
	mu       sync.Mutex
	keyIndex int
}

// NewRemote returns a remote generator. keys must be non-empty.
func NewRemote(endpoint, voiceID string, keys []string) *Remote {
	return &Remote{
		endpoint: endpoint,
		voiceID:  voiceID,
		keys:     keys,
		http:     &http.Client{Timeout: 120 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client (for testing).
func (r *Remote) WithHTTPClient(client *http.Client) {
	r.http = client
}

type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize writes the spoken audio for text to dest, rotating through the
// configured keys until one succeeds.
func (r *Remote) Synthesize(ctx context.Context, text, dest string) error {
	if text == "" {
		return services.Wrap(services.ErrValidation, "speech", "synthesize", "empty text", nil)
	}
	if len(r.keys) == 0 {
		return services.Wrap(services.ErrConfiguration, "speech", "synthesize", "no api keys configured", nil)
	}

	r.mu.Lock()
	start := r.keyIndex
	r.mu.Unlock()

	var lastErr error
	for tried := 0; tried < len(r.keys); tried++ {
		idx := (start + tried) % len(r.keys)
		retriable, err := r.attempt(ctx, r.keys[idx], text, dest)
		if err == nil {
			r.mu.Lock()
			r.keyIndex = idx
			r.mu.Unlock()
			return nil
		}
		lastErr = err
		if !retriable {
			return err
		}
	}
	return services.Wrap(services.ErrTransient, "speech", "synthesize", "all api keys exhausted", lastErr)
}

// attempt performs one request with one key. The bool reports whether the
// failure is key-specific and the next key should be tried.
func (r *Remote) attempt(ctx context.Context, key, text, dest string) (bool, error) {
	body, err := json.Marshal(synthesisRequest{Text: text, ModelID: DefaultModelID})
	if err != nil {
		return false, services.Wrap(services.ErrValidation, "speech", "synthesize", "encode request", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", r.endpoint, r.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, services.Wrap(services.ErrValidation, "speech", "synthesize", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", key)

	resp, err := r.http.Do(req)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return false, services.Wrap(marker, "speech", "synthesize", "request failed", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return true, services.Wrap(services.ErrTransient, "speech", "synthesize",
			fmt.Sprintf("key rejected with status %d: %s", resp.StatusCode, string(detail)), nil)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, services.Wrap(services.ErrTransient, "speech", "synthesize",
			fmt.Sprintf("status %d: %s", resp.StatusCode, string(detail)), nil)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, services.Wrap(services.ErrTransient, "speech", "synthesize", "read audio", err)
	}
	if err := os.WriteFile(dest, audio, 0o644); err != nil {
		return false, services.Wrap(services.ErrTransient, "speech", "synthesize", "write audio", err)
	}
	return false, nil
}
