package rulekit

import (
	"context"
	"image"
)

// Describer turns a fetched HTML document into image descriptors. This is
// the fetcher-adapter boundary: the harvesting engine never parses HTML or
// touches the network itself.
type Describer interface {
	// Describe parses the document and returns descriptors for every
	// <img>-like element, in document order.
	Describe(doc *FetchedDocument, profile *GameProfile) ([]ImageDescriptor, error)
}

// ImageSource loads decoded image pixels for perceptual hashing.
// Implementations may fetch over HTTP or read from a local store; the
// context controls timeout and cancellation.
type ImageSource interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// HostLimiter provides per-host politeness for image loading.
type HostLimiter interface {
	// Wait blocks until the rate limit allows a request to the host.
	// Returns an error if the context is canceled before the wait completes.
	Wait(ctx context.Context, host string) error
}

// Hasher computes a perceptual hash for an image.
type Hasher interface {
	Hash(img image.Image) PerceptualHash
}
