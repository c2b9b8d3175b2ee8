// Package goquery implements the fetcher-adapter boundary: it parses
// fetched HTML documents with goquery and produces image descriptors for
// the harvesting engine, which never touches HTML itself.
package goquery

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/rulekit"
)

// Ensure Describer implements rulekit.Describer at compile time.
var _ rulekit.Describer = (*Describer)(nil)

// Describer extracts <img> descriptors from HTML documents.
type Describer struct{}

// NewDescriber creates a new Describer.
func NewDescriber() *Describer {
	return &Describer{}
}

// Describe parses the document and returns a descriptor for every usable
// <img> element in document order. Each descriptor carries its DOM-order
// distance from the nearest preceding section header recognized by the
// profile (-1 when none was seen). Relative URLs are resolved against the
// document URL; data: and other non-HTTP sources are skipped.
func (d *Describer) Describe(doc *rulekit.FetchedDocument, profile *rulekit.GameProfile) ([]rulekit.ImageDescriptor, error) {
	base, err := url.Parse(doc.SourceURL)
	if err != nil {
		return nil, rulekit.Errorf(rulekit.EINVALID, "invalid document URL: %v", err)
	}

	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(doc.HTML))
	if err != nil {
		return nil, rulekit.Errorf(rulekit.EINVALID, "failed to parse HTML: %v", err)
	}

	var descriptors []rulekit.ImageDescriptor
	lastHeader := -1
	position := 0

	// Walking headers and images together keeps DOM distance a simple
	// index difference in document order.
	parsed.Find("h1, h2, h3, h4, h5, h6, img").Each(func(i int, sel *goquery.Selection) {
		if goquery.NodeName(sel) != "img" {
			if profile.MatchSectionHeader(sel.Text(), "") {
				lastHeader = i
			}
			return
		}

		src := bestSource(sel)
		if src == "" || isNonHTTPSource(src) {
			return
		}
		resolved := resolveURL(base, src)
		if resolved == "" {
			return
		}

		distance := -1
		if lastHeader >= 0 {
			distance = i - lastHeader - 1
		}

		descriptors = append(descriptors, rulekit.ImageDescriptor{
			URL:             resolved,
			Width:           intAttr(sel, "width"),
			Height:          intAttr(sel, "height"),
			Alt:             strings.TrimSpace(sel.AttrOr("alt", "")),
			Title:           strings.TrimSpace(sel.AttrOr("title", "")),
			Provider:        doc.Provider,
			Position:        position,
			SectionDistance: distance,
		})
		position++
	})

	return descriptors, nil
}

// bestSource returns the element's image URL, preferring the largest
// srcset variant over the plain src attribute.
func bestSource(sel *goquery.Selection) string {
	if srcset, ok := sel.Attr("srcset"); ok {
		if best := largestSrcsetVariant(srcset); best != "" {
			return best
		}
	}
	return strings.TrimSpace(sel.AttrOr("src", ""))
}

// largestSrcsetVariant picks the URL with the largest width descriptor
// from a srcset value ("a.jpg 320w, b.jpg 1024w" → "b.jpg"). Variants
// without a width descriptor are used only when nothing better exists.
func largestSrcsetVariant(srcset string) string {
	bestURL := ""
	bestWidth := -1
	for _, entry := range strings.Split(srcset, ",") {
		fields := strings.Fields(strings.TrimSpace(entry))
		if len(fields) == 0 {
			continue
		}
		width := 0
		if len(fields) > 1 {
			desc := fields[1]
			if strings.HasSuffix(desc, "w") {
				if n, err := strconv.Atoi(strings.TrimSuffix(desc, "w")); err == nil {
					width = n
				}
			}
		}
		if width > bestWidth {
			bestWidth = width
			bestURL = fields[0]
		}
	}
	return bestURL
}

// intAttr parses a numeric attribute, tolerating a trailing "px".
func intAttr(sel *goquery.Selection, name string) int {
	raw := strings.TrimSpace(sel.AttrOr(name, ""))
	raw = strings.TrimSuffix(raw, "px")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// resolveURL resolves a relative image URL against the document URL.
// Returns empty string if the source cannot be parsed.
func resolveURL(base *url.URL, src string) string {
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}

// isNonHTTPSource checks if an image source should be skipped entirely.
func isNonHTTPSource(src string) bool {
	lowered := strings.ToLower(strings.TrimSpace(src))
	return strings.HasPrefix(lowered, "data:") ||
		strings.HasPrefix(lowered, "javascript:") ||
		strings.HasPrefix(lowered, "blob:")
}
