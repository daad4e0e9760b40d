package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/maastricht-university/dream-pipeline/emotion"
)

// --- Emotion (/detect) ---
type EmoReq struct {
	Text string `json:"text"`
}
type EmoScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
type EmoResp struct {
	Emotions []EmoScore `json:"emotions"`
}

// Scores folds the label/score list into raw scores; repeated labels add up.
func (r *EmoResp) Scores() emotion.Scores {
	out := emotion.Scores{}
	for _, e := range r.Emotions {
		out[e.Label] += e.Score
	}
	return out
}

func (h *HTTP) Emotion(ctx context.Context, url, text string) (*EmoResp, error) {
	b, err := json.Marshal(EmoReq{Text: text})
	if err != nil {
		return nil, fmt.Errorf("emotion encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/detect", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("emotion %s: %s", resp.Status, string(body))
	}

	var out EmoResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("emotion decode: %w", err)
	}
	return &out, nil
}

// HTTPClassifier talks to a self-hosted emotion service exposing POST /detect.
type HTTPClassifier struct {
	http *HTTP
	url  string
}

func NewHTTPClassifier(h *HTTP, url string) *HTTPClassifier {
	return &HTTPClassifier{http: h, url: strings.TrimRight(url, "/")}
}

func (c *HTTPClassifier) Classify(ctx context.Context, transcript string) (emotion.Scores, error) {
	resp, err := c.http.Emotion(ctx, c.url, transcript)
	if err != nil {
		return nil, err
	}
	return resp.Scores(), nil
}
