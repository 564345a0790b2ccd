package visitor

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zaplinker/backend/internal/models"
)

const (
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	androidUA = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	ipadUA    = "Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1"
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	pinterestIOSUA     = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 [Pinterest/iOS]"
	pinterestAndroidUA = "Mozilla/5.0 (Linux; Android 14; Pixel 8 Build/UD1A.230803.041; wv) AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/120.0.0.0 Mobile Safari/537.36 [Pinterest/Android]"
)

func TestKey(t *testing.T) {
	k := Key("cookie", "1.2.3.4", desktopUA)
	assert.Len(t, k, 64)
	assert.Equal(t, k, Key("cookie", "1.2.3.4", desktopUA))
	assert.NotEqual(t, k, Key("cookie", "1.2.3.5", desktopUA))
	assert.NotEqual(t, k, Key("other", "1.2.3.4", desktopUA))
}

func TestEnsureCookieIssuesNewID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/promo", nil)
	w := httptest.NewRecorder()

	id := EnsureCookie(w, req, "zl_vid")
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "zl_vid", c.Name)
	assert.Equal(t, id, c.Value)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, int(CookieMaxAge.Seconds()), c.MaxAge)
	assert.False(t, c.Secure)
}

func TestEnsureCookieKeepsValidID(t *testing.T) {
	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/promo", nil)
	req.AddCookie(&http.Cookie{Name: "zl_vid", Value: existing})
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()

	assert.Equal(t, existing, EnsureCookie(w, req, "zl_vid"))
	require.Len(t, w.Result().Cookies(), 1)
	assert.True(t, w.Result().Cookies()[0].Secure)
}

func TestEnsureCookieReplacesMalformedID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/promo", nil)
	req.AddCookie(&http.Cookie{Name: "zl_vid", Value: "not-a-uuid"})
	w := httptest.NewRecorder()

	id := EnsureCookie(w, req, "zl_vid")
	assert.NotEqual(t, "not-a-uuid", id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want models.DeviceType
	}{
		{"iphone", iphoneUA, models.DeviceMobile},
		{"android phone", androidUA, models.DeviceMobile},
		{"ipad", ipadUA, models.DeviceMobile},
		{"desktop", desktopUA, models.DeviceDesktop},
		{"empty", "", models.DeviceDesktop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.ua))
		})
	}
}

func TestIsBot(t *testing.T) {
	bots := []string{
		"WhatsApp/2.23.20.0",
		"facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)",
		"TelegramBot (like TwitterBot)",
		"Mozilla/5.0 (compatible; Discordbot/2.0; +https://discordapp.com)",
		"Slackbot-LinkExpanding 1.0 (+https://api.slack.com/robots)",
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
		"Pinterestbot/1.0 (+http://www.pinterest.com/bot.html)",
		"Pinterest/0.2 (+https://www.pinterest.com/bot.html)",
	}
	for _, ua := range bots {
		assert.True(t, IsBot(ua), ua)
	}

	assert.False(t, IsBot(iphoneUA))
	assert.False(t, IsBot(desktopUA))
	assert.False(t, IsBot(""))
	assert.Equal(t, "whatsapp", MatchBot("WhatsApp/2.23.20.0"))
}

func TestInAppBrowsersAreHuman(t *testing.T) {
	for _, ua := range []string{pinterestIOSUA, pinterestAndroidUA} {
		assert.Empty(t, MatchBot(ua), ua)
		assert.Equal(t, models.DeviceMobile, Classify(ua), ua)
	}
}
