package harvest

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/fwojciec/rulekit"
)

// dropParams are query parameters stripped during canonicalization:
// tracking and cache-busting noise that never changes the image served.
var dropParams = map[string]bool{
	"cache":     true,
	"cachebust": true,
	"cb":        true,
	"bust":      true,
	"nonce":     true,
	"ref":       true,
	"referrer":  true,
	"source":    true,
	"fbclid":    true,
	"gclid":     true,
	"t":         true,
	"ts":        true,
	"timestamp": true,
	"v":         true,
	"ver":       true,
	"version":   true,
}

// keepParams are parameters that encode actual image variants and must
// survive canonicalization.
var keepParams = map[string]bool{
	"w":       true,
	"h":       true,
	"width":   true,
	"height":  true,
	"size":    true,
	"format":  true,
	"quality": true,
}

// nonceValueRe matches values that look like cache-busting nonces: long
// runs of hex digits.
var nonceValueRe = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)

// Canonicalize reduces an image URL to a stable form used as the primary
// deduplication key: lowercased scheme and host, fragment dropped,
// tracking and cache-busting query parameters stripped, remaining
// parameters sorted. Canonicalizing a canonical URL again yields the same
// string.
func Canonicalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", rulekit.Errorf(rulekit.EINVALID, "unparseable image URL %q: %v", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", rulekit.Errorf(rulekit.EINVALID, "image URL %q is not absolute", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	query := u.Query()
	kept := url.Values{}
	for name, values := range query {
		lowered := strings.ToLower(name)
		switch {
		case keepParams[lowered]:
			kept[lowered] = values
		case dropParams[lowered]:
		case strings.HasPrefix(lowered, "utm_"):
		case allNonceValues(values):
		default:
			kept[lowered] = values
		}
	}
	// Encode sorts parameters by name, which keeps the result stable.
	u.RawQuery = kept.Encode()

	return u.String(), nil
}

// allNonceValues reports whether every value looks like a cache-busting
// nonce. A parameter with at least one meaningful value is kept.
func allNonceValues(values []string) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if !nonceValueRe.MatchString(v) {
			return false
		}
	}
	return true
}

// FormatOf extracts the raster format from a canonical URL's path
// extension ("jpeg" is folded to "jpg"). Returns "" when the path has no
// extension.
func FormatOf(canonicalURL string) string {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return ""
	}
	path := u.Path
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 || dot == len(path)-1 {
		return ""
	}
	format := strings.ToLower(path[dot+1:])
	if format == "jpeg" {
		format = "jpg"
	}
	return format
}
