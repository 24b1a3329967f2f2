package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	refreshSkew      = 60 * time.Second
	defaultExpiresIn = 1800
)

type tokenSet struct {
	access    string
	refresh   string
	expiresAt time.Time
}

// stale reports whether the access token is missing or within the
// refresh skew of expiry.
func (t *tokenSet) stale(now time.Time) bool {
	return t == nil || !now.Before(t.expiresAt.Add(-refreshSkew))
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

// token returns a valid access token, acquiring or refreshing as needed.
// Concurrent stale observers coalesce on one grant via singleflight; the
// mutex guards only the token swap, never an outbound call.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	cur := c.tokens
	c.mu.Unlock()
	if !cur.stale(time.Now()) {
		return cur.access, nil
	}

	v, err, _ := c.flight.Do("token", func() (any, error) {
		c.mu.Lock()
		cur := c.tokens
		c.mu.Unlock()
		if !cur.stale(time.Now()) {
			return cur.access, nil
		}

		next, err := c.acquire(ctx, cur)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.tokens = next
		c.mu.Unlock()
		return next.access, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// acquire runs the grant state machine: refresh when a refresh token is
// on hand, password grant otherwise or when the refresh leg fails.
func (c *Client) acquire(ctx context.Context, cur *tokenSet) (*tokenSet, error) {
	if cur == nil || cur.refresh == "" {
		return c.passwordGrant(ctx)
	}
	next, err := c.refreshGrant(ctx, cur.refresh)
	if err == nil {
		return next, nil
	}
	c.logger.Warn().Err(err).Msg("token refresh failed, falling back to password grant")
	return c.passwordGrant(ctx)
}

func (c *Client) passwordGrant(ctx context.Context) (*tokenSet, error) {
	return c.postToken(ctx, map[string]string{
		"grantType":    "password",
		"clientId":     c.cfg.ClientID,
		"clientSecret": c.cfg.ClientSecret,
		"license":      c.cfg.License,
		"user":         c.cfg.User,
		"pass":         c.cfg.Password,
	})
}

func (c *Client) refreshGrant(ctx context.Context, refresh string) (*tokenSet, error) {
	return c.postToken(ctx, map[string]string{
		"grantType":    "refreshToken",
		"clientId":     c.cfg.ClientID,
		"clientSecret": c.cfg.ClientSecret,
		"refreshToken": refresh,
	})
}

func (c *Client) postToken(ctx context.Context, payload map[string]string) (*tokenSet, error) {
	const op = "POST /token"

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode token payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/token", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, netError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{Kind: KindAuth, Status: resp.StatusCode, Op: op, Body: string(snippet)}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &Error{Kind: KindAuth, Status: resp.StatusCode, Op: op, Err: err, Body: "undecodable token response"}
	}
	if tr.AccessToken == "" {
		return nil, &Error{Kind: KindAuth, Status: resp.StatusCode, Op: op, Body: "token response missing accessToken"}
	}

	expiresIn := tr.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	return &tokenSet{
		access:    tr.AccessToken,
		refresh:   tr.RefreshToken,
		expiresAt: time.Now().Add(time.Duration(expiresIn) * time.Second),
	}, nil
}
