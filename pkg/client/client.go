// Package client is the consumer side of the dropdown API: a resty-based
// fetcher with a short-lived response cache, in-flight de-duplication, and
// the field/screen state holders UI code binds to.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"

	"contentd/internal/infrastructure/cache"
	"contentd/internal/ports/output"
	"contentd/pkg/alias"
	"contentd/pkg/dropdown"
)

// ErrCancelled marks a superseded request. It is never exposed as a state error.
var ErrCancelled = errors.New("dropdown request cancelled")

// StatusError is returned when the API answers with a non-2xx status or a
// non-success payload.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dropdown api: HTTP %d (%s): %s", e.Code, e.Status, e.Message)
}

const dropdownsPath = "/api/dropdowns/{screen}/{language}"

// Client fetches screen payloads and resolves fields with the shared alias table.
type Client struct {
	http    *resty.Client
	aliases *alias.Table
	cache   *cache.Memory
	flight  singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithAliases replaces the default alias table.
func WithAliases(t *alias.Table) Option {
	return func(c *Client) { c.aliases = t }
}

// WithCacheTTL sets how long fetched screens are reused. Default 5 minutes.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cache = cache.NewMemory(ttl) }
}

// WithTimeout bounds a single network read. Default 20 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    resty.New().SetBaseURL(baseURL).SetTimeout(20 * time.Second),
		aliases: alias.Default(),
		cache:   cache.NewMemory(5 * time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchScreen returns the structured payload of (screen, language). Cached
// payloads are served without a network read and concurrent callers share
// one request. Cancelling ctx abandons the wait; the shared request still
// completes for the other callers and its result is discarded for this one.
func (c *Client) FetchScreen(ctx context.Context, screen, language string) (*dropdown.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	key := output.CacheKey{Screen: screen, Language: language, Variant: "dropdowns"}
	if v, ok := c.cache.Get(key); ok {
		return v.(*dropdown.Response), nil
	}

	ch := c.flight.DoChan(key.String(), func() (any, error) {
		resp, err := c.get(context.WithoutCancel(ctx), screen, language)
		if err != nil {
			return nil, err
		}
		c.cache.Put(key, resp)
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*dropdown.Response), nil
	}
}

// Field fetches the screen and resolves one field through the alias table.
func (c *Client) Field(ctx context.Context, screen, field, language string) (dropdown.FieldProps, error) {
	resp, err := c.FetchScreen(ctx, screen, language)
	if err != nil {
		return dropdown.FieldProps{Options: []dropdown.Option{}}, err
	}
	return c.Lookup(resp, screen, field), nil
}

// Lookup runs the canonical-then-synonym search on an already fetched payload.
func (c *Client) Lookup(resp *dropdown.Response, screen, field string) dropdown.FieldProps {
	if resp == nil {
		return dropdown.Lookup(nil, screen, field, c.aliases)
	}
	return dropdown.Lookup(&resp.Structure, screen, field, c.aliases)
}

// Forget drops the cached payload of (screen, language).
func (c *Client) Forget(screen, language string) {
	c.cache.Delete(output.CacheKey{Screen: screen, Language: language, Variant: "dropdowns"})
}

// ClearCache drops every cached payload.
func (c *Client) ClearCache() int {
	return c.cache.Clear()
}

// CacheStats reports the client-side cache.
func (c *Client) CacheStats() output.CacheStats {
	return c.cache.Stats()
}

func (c *Client) get(ctx context.Context, screen, language string) (*dropdown.Response, error) {
	var out dropdown.Response
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"screen": screen, "language": language}).
		SetResult(&out).
		SetError(&out).
		Get(dropdownsPath)
	if err != nil {
		return nil, fmt.Errorf("get dropdowns %s/%s: %w", screen, language, err)
	}
	if resp.IsError() || out.Status != dropdown.StatusSuccess {
		return nil, &StatusError{Code: resp.StatusCode(), Status: out.Status, Message: out.Message}
	}
	return &out, nil
}

// IsCancelled reports whether err only means "superseded".
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}
