package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/davgate/davgate/internal/config"
)

const maxErrorBody = 512

// Client talks JSON over HTTP to the upstream calendar/address API.
// It owns the token lifecycle; callers never see authentication.
type Client struct {
	cfg    config.UpstreamConfig
	base   string
	http   *http.Client
	logger zerolog.Logger

	mu     sync.Mutex
	tokens *tokenSet
	flight singleflight.Group
}

func New(cfg config.UpstreamConfig, logger zerolog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		base:   strings.TrimSuffix(cfg.BaseURL, "/"),
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "upstream").Logger(),
	}
}

// Close releases pooled connections. Safe to call once at shutdown.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// FormatTime renders an instant in the upstream wire format: always UTC,
// second precision, trailing Z. The upstream rejects fractional seconds
// and offset notation.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// ParseTime is the inverse of FormatTime.
func ParseTime(s string) (time.Time, error) {
	return time.Parse("2006-01-02T15:04:05Z", s)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := method + " " + path

	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return netError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		e := &Error{
			Kind:   kindForStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Op:     op,
			Body:   string(snippet),
		}
		c.logger.Debug().Int("status", resp.StatusCode).Str("op", op).Msg("upstream error")
		return e
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Op: op, Err: err,
			Body: "undecodable response body"}
	}
	return nil
}
