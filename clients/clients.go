package clients

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

type HTTP struct{ c *http.Client }

func NewHTTP(timeout time.Duration) *HTTP { return &HTTP{c: &http.Client{Timeout: timeout}} }

// NewBearerHTTP attaches token as an Authorization bearer header. An empty token
// yields a plain client.
func NewBearerHTTP(ctx context.Context, timeout time.Duration, token string) *HTTP {
	if token == "" {
		return NewHTTP(timeout)
	}
	base := &http.Client{Timeout: timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	c := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	c.Timeout = timeout
	return &HTTP{c: c}
}
