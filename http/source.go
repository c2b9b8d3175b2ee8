// Package http provides an HTTP-based implementation of rulekit.ImageSource
// for loading candidate image pixels. It lives outside the harvesting core:
// the engine receives it as an injected capability and never performs
// network I/O itself.
package http

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/fwojciec/rulekit"
	"github.com/fwojciec/rulekit/dhash"
)

// DefaultLoadTimeout is the default timeout for image requests.
const DefaultLoadTimeout = 10 * time.Second

// Ensure Source implements rulekit.ImageSource at compile time.
var _ rulekit.ImageSource = (*Source)(nil)

// Source loads and decodes images over HTTP.
type Source struct {
	client  *http.Client
	timeout time.Duration
}

// Option configures a Source.
type Option func(*Source)

// WithTimeout sets the timeout for image requests.
// Defaults to DefaultLoadTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		s.timeout = d
	}
}

// NewSource creates a new HTTP-based Source.
func NewSource(opts ...Option) *Source {
	s := &Source{
		timeout: DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.client = &http.Client{
		Timeout: s.timeout,
	}

	return s
}

// Load retrieves and decodes the image at the given URL.
func (s *Source) Load(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	return dhash.Decode(resp.Body)
}
