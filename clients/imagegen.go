package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maastricht-university/dream-pipeline/emotion"
)

// --- Image generation (GET /prompt/{prompt}) ---

func (h *HTTP) Image(ctx context.Context, baseURL, prompt string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/prompt/"+url.PathEscape(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("imagegen: build request: %w", err)
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagegen: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("imagegen %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("imagegen read: %w", err)
	}
	if len(b) == 0 {
		return nil, errors.New("imagegen: empty response body")
	}
	return b, nil
}

// ImageGenerator fetches one image per prompt, bounded by timeout.
type ImageGenerator struct {
	http    *HTTP
	url     string
	timeout time.Duration
}

func NewImageGenerator(h *HTTP, baseURL string, timeout time.Duration) *ImageGenerator {
	return &ImageGenerator{http: h, url: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

func (g *ImageGenerator) Generate(ctx context.Context, prompt emotion.Prompt) ([]byte, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return g.http.Image(ctx, g.url, prompt.String())
}
