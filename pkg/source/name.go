package source

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FallbackName is shown when neither a name nor the URL yields one.
const FallbackName = "Document.pdf"

// DisplayName returns name if set, otherwise the percent-decoded last path
// segment of location. The result is NFC-normalized so names decoded from
// URLs compare equal to typed ones.
func DisplayName(location, name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return norm.NFC.String(n)
	}

	p := location
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		p = p[i+1:]
	}
	if dec, err := url.PathUnescape(p); err == nil {
		p = dec
	}
	p = strings.TrimSpace(p)
	if p == "" || strings.HasSuffix(p, ":") {
		return FallbackName
	}
	return norm.NFC.String(p)
}
