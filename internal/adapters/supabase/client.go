package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/SyncSound/internal/core"
	"github.com/dkeye/SyncSound/internal/domain"
	"github.com/rs/zerolog/log"
)

// Postgres / PostgREST codes surfaced as core errors.
const (
	codeUniqueViolation = "23505"
	codeNoRows          = "PGRST116"
)

// Requests under this prefix manage the session themselves.
const authPrefix = "/auth/"

type Options struct {
	URL        string
	AnonKey    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the hosted auth (GoTrue) and record (PostgREST) APIs.
// It implements core.IdentityProvider and core.RecordStore.
type Client struct {
	base    *url.URL
	anonKey string
	http    *http.Client

	refreshMu sync.Mutex

	mu      sync.RWMutex
	session *authSession
	subs    map[int]func(*domain.User)
	nextSub int
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.URL), "/")
	if raw == "" {
		return nil, errors.New("supabase: empty url")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("supabase: bad url %q", opts.URL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		base:    u,
		anonKey: opts.AnonKey,
		http:    hc,
		subs:    make(map[int]func(*domain.User)),
	}, nil
}

// APIError is a non-2xx answer from either API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Unwrap maps well-known codes onto core sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.Code == codeUniqueViolation || e.Status == http.StatusConflict:
		return core.ErrDuplicate
	case e.Code == codeNoRows:
		return core.ErrNotFound
	}
	return nil
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	header http.Header
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if !strings.HasPrefix(r.path, authPrefix) {
		if _, err := c.freshSession(ctx); err != nil {
			return err
		}
	}

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + r.path
	if r.query != nil {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("supabase: encode body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("supabase: build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("supabase: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp.StatusCode, data)
		log.Debug().Str("module", "supabase").Str("path", r.path).Int("status", resp.StatusCode).Str("code", apiErr.Code).Msg("api error")
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("supabase: decode response: %w", err)
	}
	return nil
}

// decodeError understands both GoTrue and PostgREST error bodies.
func decodeError(status int, data []byte) *APIError {
	var body struct {
		Code             json.RawMessage `json:"code"`
		ErrorCode        string          `json:"error_code"`
		Message          string          `json:"message"`
		Msg              string          `json:"msg"`
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
	}
	_ = json.Unmarshal(data, &body)

	out := &APIError{Status: status}
	var code string
	if json.Unmarshal(body.Code, &code) == nil {
		out.Code = code
	}
	if out.Code == "" {
		out.Code = body.ErrorCode
	}
	for _, m := range []string{body.Msg, body.ErrorDescription, body.Message, body.Error} {
		if m != "" {
			out.Message = m
			break
		}
	}
	return out
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session != nil && c.session.AccessToken != "" {
		return c.session.AccessToken
	}
	return c.anonKey
}
