// Package push sends exported crates to an ingestion endpoint.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/metacrate/internal/apperr"
)

// Result is the endpoint's acknowledgement of an inserted document.
type Result struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Client posts documents to a single URL.
type Client struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New returns a Client for url.
func New(url string, opts ...Option) *Client {
	c := &Client{url: url, http: http.DefaultClient, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}


// Send posts doc as application/json. Failures are logged and returned as
// *apperr.NetworkError; Send never retries.
func (c *Client) Send(ctx context.Context, doc []byte) (*Result, error) {
	res, err := c.send(ctx, doc)
	if err != nil {
		c.logger.Error("push: send failed", slog.String("url", c.url), slog.String("error", err.Error()))
		return nil, err
	}
	c.logger.Info("push: document accepted", slog.String("url", c.url), slog.String("id", res.ID))
	return res, nil
}

func (c *Client) send(ctx context.Context, doc []byte) (*Result, error) {
	if !json.Valid(doc) {
		return nil, c.fail(0, errors.New("document is not valid JSON"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(doc))
	if err != nil {
		return nil, c.fail(0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, c.fail(resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, c.fail(resp.StatusCode, errors.New(e.Error))
		}
		return nil, c.fail(resp.StatusCode, nil)
	}

	var res Result
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, c.fail(resp.StatusCode, err)
		}
	}
	return &res, nil
}

func (c *Client) fail(status int, err error) error {
	return &apperr.NetworkError{Op: "push", URL: c.url, Status: status, Err: err}
}
