package rulekit

import "math/bits"

// PerceptualHash is a fixed-width (64-bit) visual signature of an image.
// Near-duplicate images produce hashes with small Hamming distance.
type PerceptualHash uint64

// HashZero marks a candidate whose hash could not be computed. Such
// candidates are treated as unclusterable and always form singleton clusters.
const HashZero PerceptualHash = 0

// Distance returns the Hamming distance between two perceptual hashes.
func (h PerceptualHash) Distance(other PerceptualHash) int {
	return bits.OnesCount64(uint64(h) ^ uint64(other))
}

// HashBits is the width of a PerceptualHash in bits.
const HashBits = 64

// ConfidenceBand is an ordinal classification of a relevance score.
type ConfidenceBand string

// Confidence bands, ordered low to high.
const (
	BandLow    ConfidenceBand = "low"
	BandMedium ConfidenceBand = "medium"
	BandHigh   ConfidenceBand = "high"
)

// Rank returns the ordinal position of the band (higher = more confident).
func (b ConfidenceBand) Rank() int {
	switch b {
	case BandHigh:
		return 2
	case BandMedium:
		return 1
	default:
		return 0
	}
}

// FetchedDocument is an already-fetched HTML document handed to the
// harvesting engine by an external fetch collaborator. The engine performs
// no network I/O of its own.
type FetchedDocument struct {
	// SourceURL is the document's URL, used to resolve relative image paths.
	SourceURL string

	// Provider identifies the originating source for trust weighting
	// (e.g., "publisher", "bgg", "wiki").
	Provider string

	// HTML is the raw document body.
	HTML string
}

// Validate returns an error if the document cannot be harvested.
func (d *FetchedDocument) Validate() error {
	if d.SourceURL == "" {
		return Errorf(EINVALID, "fetched document source URL required")
	}
	if d.HTML == "" {
		return Errorf(EINVALID, "fetched document body required")
	}
	return nil
}

// ImageDescriptor describes one <img>-like element found in a fetched
// document. Produced by the fetcher-adapter boundary (goquery package),
// consumed by the harvesting engine.
type ImageDescriptor struct {
	// URL is the resolved absolute image URL.
	URL string

	// Width and Height are declared pixel dimensions, 0 when undeclared.
	Width  int
	Height int

	// Alt and Title are the element's alt/title text.
	Alt   string
	Title string

	// Provider is inherited from the enclosing FetchedDocument.
	Provider string

	// Position is the element's document-order index.
	Position int

	// SectionDistance is the number of elements between the image and the
	// nearest preceding recognized section header, or -1 when no header
	// was recognized in the document.
	SectionDistance int
}

// ImageCandidate is a filtered, scored image considered for the final
// component-image set.
type ImageCandidate struct {
	SourceURL      string         `json:"sourceUrl"`
	CanonicalURL   string         `json:"canonicalUrl"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	Format         string         `json:"format"`
	AltText        string         `json:"altText,omitempty"`
	Provider       string         `json:"provider"`
	ProximityScore float64        `json:"proximityScore"`
	SizeScore      float64        `json:"sizeScore"`
	QualityScore   float64        `json:"qualityScore"`
	FinalScore     float64        `json:"finalScore"`
	ConfidenceBand ConfidenceBand `json:"confidenceBand"`
	Hash           PerceptualHash `json:"-"`
}

// Area returns the candidate's pixel area.
func (c *ImageCandidate) Area() int {
	return c.Width * c.Height
}

// DedupeCluster groups near-duplicate image candidates. Every member is
// within the configured Hamming distance of the representative, which is
// the member with the highest final score.
type DedupeCluster struct {
	Representative      ImageCandidate   `json:"representative"`
	Members             []ImageCandidate `json:"members"`
	MaxPairwiseDistance int              `json:"maxPairwiseDistance"`
}
