package crate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/starford/metacrate/internal/apperr"
)

// Vocabulary reports the terms defined by the RO-Crate context.
type Vocabulary interface {
	// URL is the context document the terms come from.
	URL() string
	// Terms returns the set of known term names.
	Terms(ctx context.Context) (map[string]struct{}, error)
}

// HTTPVocabulary fetches the context document over HTTP and caches the
// decoded term set per URL.
type HTTPVocabulary struct {
	url    string
	client *http.Client
	cache  *lru.Cache[string, map[string]struct{}]
}

// NewHTTPVocabulary returns a vocabulary backed by url. A nil client uses
// http.DefaultClient.
func NewHTTPVocabulary(url string, client *http.Client, cacheSize int) (*HTTPVocabulary, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if cacheSize <= 0 {
		cacheSize = 8
	}
	cache, err := lru.New[string, map[string]struct{}](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("crate: vocabulary cache: %w", err)
	}
	return &HTTPVocabulary{url: url, client: client, cache: cache}, nil
}

// URL implements Vocabulary.
func (v *HTTPVocabulary) URL() string { return v.url }

// Terms implements Vocabulary. Any failure is an *apperr.NetworkError.
func (v *HTTPVocabulary) Terms(ctx context.Context) (map[string]struct{}, error) {
	if terms, ok := v.cache.Get(v.url); ok {
		return terms, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return nil, v.fail(0, err)
	}
	req.Header.Set("Accept", "application/ld+json, application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, v.fail(0, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, v.fail(resp.StatusCode, nil)
	}

	var body struct {
		Context map[string]json.RawMessage `json:"@context"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, v.fail(resp.StatusCode, err)
	}
	if body.Context == nil {
		return nil, v.fail(resp.StatusCode, errors.New("response has no @context object"))
	}

	terms := make(map[string]struct{}, len(body.Context))
	for term := range body.Context {
		terms[term] = struct{}{}
	}
	v.cache.Add(v.url, terms)
	return terms, nil
}

func (v *HTTPVocabulary) fail(status int, err error) error {
	return &apperr.NetworkError{Op: "fetch vocabulary", URL: v.url, Status: status, Err: err}
}

// StaticVocabulary is a fixed term set.
type StaticVocabulary struct {
	ContextURL string
	Known      []string
}

// URL implements Vocabulary.
func (s StaticVocabulary) URL() string {
	if s.ContextURL == "" {
		return ContextURL
	}
	return s.ContextURL
}

// Terms implements Vocabulary.
func (s StaticVocabulary) Terms(context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(s.Known))
	for _, t := range s.Known {
		out[t] = struct{}{}
	}
	return out, nil
}
