// Package visitor identifies the people behind short link requests: the visitor key,
// the tracking cookie, the device class and link preview crawlers.
package visitor

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CookieMaxAge is how long the visitor cookie lives; it is reissued on every request.
const CookieMaxAge = 365 * 24 * time.Hour

// Key hashes the cookie ID, client IP and user agent into the 64 character visitor key.
func Key(cookieID, ip, userAgent string) string {
	sum := sha256.Sum256([]byte(cookieID + "|" + ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}

// EnsureCookie returns the visitor ID carried by the named cookie and (re)issues the cookie.
// A missing or malformed value is replaced by a fresh UUID.
func EnsureCookie(w http.ResponseWriter, r *http.Request, name string) string {
	id := ""
	if c, err := r.Cookie(name); err == nil {
		if parsed, err := uuid.Parse(c.Value); err == nil {
			id = parsed.String()
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		Expires:  time.Now().Add(CookieMaxAge),
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
