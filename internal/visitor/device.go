package visitor

import (
	"strings"

	"github.com/mssola/useragent"
	"github.com/zaplinker/backend/internal/models"
)

// Classify maps a user agent to mobile or desktop. Tablets count as mobile.
func Classify(userAgent string) models.DeviceType {
	if userAgent == "" {
		return models.DeviceDesktop
	}
	if useragent.New(userAgent).Mobile() {
		return models.DeviceMobile
	}

	lower := strings.ToLower(userAgent)
	for _, hint := range []string{"ipad", "tablet", "android", "kindle", "silk", "playbook"} {
		if strings.Contains(lower, hint) {
			return models.DeviceMobile
		}
	}
	return models.DeviceDesktop
}

// previewBots are link preview crawlers that fetch a short link when it is shared.
// Tokens must not match in-app browsers, e.g. "[Pinterest/iOS]" is a person.
var previewBots = []string{
	"whatsapp",
	"facebookexternalhit",
	"facebot",
	"twitterbot",
	"telegrambot",
	"slackbot",
	"linkedinbot",
	"discordbot",
	"skypeuripreview",
	"googlebot",
	"bingbot",
	"applebot",
	"pinterestbot",
	"pinterest/0.",
	"redditbot",
	"embedly",
	"vkshare",
	"iframely",
	"bitlybot",
	"yandexbot",
	"duckduckbot",
}

// MatchBot returns the crawler name matched in userAgent, or "" for a human visitor.
// An empty user agent is treated as human.
func MatchBot(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	lower := strings.ToLower(userAgent)
	for _, bot := range previewBots {
		if strings.Contains(lower, bot) {
			return bot
		}
	}
	if useragent.New(userAgent).Bot() {
		return "other"
	}
	return ""
}

// IsBot reports whether userAgent belongs to a crawler.
func IsBot(userAgent string) bool {
	return MatchBot(userAgent) != ""
}
