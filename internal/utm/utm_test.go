package utm

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zaplinker/backend/internal/models"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name     string
		segment  string
		trailing string
		slug     string
		params   url.Values
	}{
		{"plain", "shop", "", "shop", url.Values{}},
		{"ampersand", "shop&utm_source=ig", "", "shop", url.Values{"utm_source": {"ig"}}},
		{"segments", "shop", "/utm_source=ig/utm_medium=bio", "shop", url.Values{"utm_source": {"ig"}, "utm_medium": {"bio"}}},
		{"segment with ampersand", "shop", "/utm_source=ig&utm_medium=bio", "shop", url.Values{"utm_source": {"ig"}, "utm_medium": {"bio"}}},
		{"escaped", "shop", "/utm_campaign=black%20friday", "shop", url.Values{"utm_campaign": {"black friday"}}},
		{"junk ignored", "shop", "/foo/=x/utm_term=", "shop", url.Values{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slug, params := ParsePath(tt.segment, tt.trailing)
			assert.Equal(t, tt.slug, slug)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestMergePrecedence(t *testing.T) {
	defaults := models.UTMParameters{Source: "default", Medium: "bio", Campaign: "spring"}
	path := url.Values{"utm_source": {"path"}, "utm_campaign": {""}}
	query := url.Values{"utm_source": {"query"}, "utm_medium": {""}, "text": {"hijack"}, "fbclid": {"abc"}}

	merged := Merge(defaults, path, query)

	assert.Equal(t, "query", merged.Get("utm_source"))
	assert.Equal(t, "bio", merged.Get("utm_medium"))
	assert.Equal(t, "spring", merged.Get("utm_campaign"))
	assert.Equal(t, "abc", merged.Get("fbclid"))
	assert.Empty(t, merged.Get("text"))
}

func TestMergePathOverridesDefaults(t *testing.T) {
	merged := Merge(models.UTMParameters{Source: "default"}, url.Values{"utm_source": {"path"}}, nil)
	assert.Equal(t, "path", merged.Get("utm_source"))
}

func TestBuildTarget(t *testing.T) {
	params := url.Values{"utm_source": {"ig"}}

	assert.Equal(t,
		"https://wa.me/5511999999999?text=Ol%C3%A1+mundo&utm_source=ig",
		BuildTarget(models.LinkStyleWaMe, "5511999999999", "Olá mundo", params))
	assert.Equal(t,
		"https://wa.me/5511999999999",
		BuildTarget(models.LinkStyleWaMe, "5511999999999", "", nil))
	assert.Equal(t,
		"https://api.whatsapp.com/send?phone=5511999999999&text=hi&utm_source=ig",
		BuildTarget(models.LinkStyleAPI, "5511999999999", "hi", params))
}

func TestNormalizeNumber(t *testing.T) {
	assert.Equal(t, "5511999999999", NormalizeNumber("+55 (11) 99999-9999"))
	assert.Equal(t, "", NormalizeNumber("abc"))

	assert.True(t, ValidNumber("5511999999999"))
	assert.False(t, ValidNumber("1234567"))
	assert.False(t, ValidNumber("1234567890123456"))
	assert.False(t, ValidNumber("+5511999999999"))
}
