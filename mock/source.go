package mock

import (
	"context"
	"image"

	"github.com/fwojciec/rulekit"
)

var _ rulekit.ImageSource = (*ImageSource)(nil)

// ImageSource is a mock implementation of rulekit.ImageSource.
type ImageSource struct {
	LoadFn func(ctx context.Context, url string) (image.Image, error)
}

func (s *ImageSource) Load(ctx context.Context, url string) (image.Image, error) {
	return s.LoadFn(ctx, url)
}

var _ rulekit.Hasher = (*Hasher)(nil)

// Hasher is a mock implementation of rulekit.Hasher.
type Hasher struct {
	HashFn func(img image.Image) rulekit.PerceptualHash
}

func (h *Hasher) Hash(img image.Image) rulekit.PerceptualHash {
	return h.HashFn(img)
}

var _ rulekit.HostLimiter = (*HostLimiter)(nil)

// HostLimiter is a mock implementation of rulekit.HostLimiter.
type HostLimiter struct {
	WaitFn func(ctx context.Context, host string) error
}

func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	return l.WaitFn(ctx, host)
}
