// Package utm collects campaign parameters for a short link visit and builds the WhatsApp target URL.
package utm

import (
	"net/url"
	"strings"

	"github.com/zaplinker/backend/internal/models"
)

// reservedTargetKeys are owned by the WhatsApp URL itself and never copied from visitor input.
var reservedTargetKeys = map[string]bool{"text": true, "phone": true}

// ParsePath splits the short link path into the workspace slug and its path-embedded parameters.
// customURLSegment is the first path segment, trailing is everything after it.
// Supported forms: /shop&utm_source=ig, /shop/utm_source=ig/utm_medium=bio and
// /shop/utm_source=ig&utm_medium=bio.
func ParsePath(customURLSegment, trailing string) (string, url.Values) {
	params := url.Values{}

	slug := customURLSegment
	if i := strings.IndexByte(customURLSegment, '&'); i >= 0 {
		slug = customURLSegment[:i]
		addPairs(params, customURLSegment[i+1:])
	}
	for _, segment := range strings.Split(strings.Trim(trailing, "/"), "/") {
		addPairs(params, segment)
	}
	return slug, params
}

func addPairs(into url.Values, raw string) {
	for _, pair := range strings.Split(raw, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		if value = strings.TrimSpace(value); value != "" {
			into.Set(key, value)
		}
	}
}

// Merge combines the three parameter sources. The query string wins over path-embedded
// parameters, which win over the workspace defaults. Empty values never override.
func Merge(defaults models.UTMParameters, path, query url.Values) url.Values {
	merged := defaults.Values()
	for _, src := range []url.Values{path, query} {
		for key, values := range src {
			if reservedTargetKeys[key] {
				continue
			}
			for _, v := range values {
				if v = strings.TrimSpace(v); v != "" {
					merged.Set(key, v)
				}
			}
		}
	}
	return merged
}

// BuildTarget renders the WhatsApp URL for the workspace's link style.
func BuildTarget(style models.LinkStyle, digits, text string, params url.Values) string {
	q := url.Values{}
	for key, values := range params {
		if reservedTargetKeys[key] || len(values) == 0 {
			continue
		}
		q.Set(key, values[len(values)-1])
	}
	if text != "" {
		q.Set("text", text)
	}

	if style == models.LinkStyleAPI {
		q.Set("phone", digits)
		return "https://api.whatsapp.com/send?" + q.Encode()
	}

	target := "https://wa.me/" + digits
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}

// NormalizeNumber strips everything but digits.
func NormalizeNumber(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidNumber reports whether digits has the length of an E.164 number without the plus sign.
func ValidNumber(digits string) bool {
	return len(digits) >= 8 && len(digits) <= 15 && NormalizeNumber(digits) == digits
}
