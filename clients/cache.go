package clients

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
)

// Transcriber turns an audio file into text in the given language (empty lets the
// backend detect it).
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
}

// CachedTranscriber reuses transcripts of identical audio content within the process.
type CachedTranscriber struct {
	next  Transcriber
	cache *cache.Cache
}

func NewCachedTranscriber(next Transcriber, ttl time.Duration) *CachedTranscriber {
	return &CachedTranscriber{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (c *CachedTranscriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	key, err := contentKey(audioPath, language)
	if err != nil {
		return "", err
	}
	if v, ok := c.cache.Get(key); ok {
		return v.(string), nil
	}

	text, err := c.next.Transcribe(ctx, audioPath, language)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, text, cache.DefaultExpiration)
	return text, nil
}

func contentKey(path, language string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)) + ":" + language, nil
}
