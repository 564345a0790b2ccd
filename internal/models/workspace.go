package models

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LinkStyle selects the WhatsApp URL format a workspace redirects to.
type LinkStyle string

const (
	LinkStyleWaMe LinkStyle = "wa_me"
	LinkStyleAPI  LinkStyle = "api"
)

// Valid reports whether s is a known link style.
func (s LinkStyle) Valid() bool {
	return s == LinkStyleWaMe || s == LinkStyleAPI
}

// MaxCustomURLLength and MaxWorkspaceNameLength bound the user supplied workspace fields.
const (
	MaxCustomURLLength     = 35
	MaxWorkspaceNameLength = 25
)

var customURLPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// reservedCustomURLs collide with top level routes of the service.
var reservedCustomURLs = map[string]bool{"api": true, "health": true, "metrics": true, "favicon": true}

// ValidCustomURL reports whether s can be used as a short link slug.
func ValidCustomURL(s string) bool {
	return len(s) <= MaxCustomURLLength && customURLPattern.MatchString(s) && !reservedCustomURLs[strings.ToLower(s)]
}

// UTMKeys lists the campaign parameters tracked on every workspace.
var UTMKeys = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content"}

// UTMParameters are the default campaign tags stored on a workspace.
type UTMParameters struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Term     string `json:"utm_term,omitempty"`
	Content  string `json:"utm_content,omitempty"`
}

// Values returns the non-empty parameters keyed by their query names.
func (p UTMParameters) Values() url.Values {
	v := url.Values{}
	for key, val := range map[string]string{
		"utm_source":   p.Source,
		"utm_medium":   p.Medium,
		"utm_campaign": p.Campaign,
		"utm_term":     p.Term,
		"utm_content":  p.Content,
	} {
		if val = strings.TrimSpace(val); val != "" {
			v.Set(key, val)
		}
	}
	return v
}

// IsZero reports whether no parameter is set.
func (p UTMParameters) IsZero() bool {
	return len(p.Values()) == 0
}

// UTMFromValues picks the tracked keys out of a query.
func UTMFromValues(v url.Values) UTMParameters {
	return UTMParameters{
		Source:   v.Get("utm_source"),
		Medium:   v.Get("utm_medium"),
		Campaign: v.Get("utm_campaign"),
		Term:     v.Get("utm_term"),
		Content:  v.Get("utm_content"),
	}
}

// Workspace owns a custom short URL, its numbers and the aggregated counters.
type Workspace struct {
	ID                 string        `gorm:"primaryKey;size:36" json:"id"`
	UserID             string        `gorm:"size:36;not null;index" json:"userId"`
	Name               string        `gorm:"size:25;not null" json:"name"`
	CustomURL          string        `gorm:"size:35;not null;uniqueIndex" json:"customUrl"`
	LinkStyle          LinkStyle     `gorm:"size:8;not null;default:wa_me" json:"linkStyle"`
	UTMParameters      UTMParameters `gorm:"serializer:json" json:"utmParameters"`
	AccessCount        int64         `gorm:"not null;default:0" json:"accessCount"`
	DesktopAccessCount int64         `gorm:"not null;default:0" json:"desktopAccessCount"`
	MobileAccessCount  int64         `gorm:"not null;default:0" json:"mobileAccessCount"`
	UniqueVisitorCount int64         `gorm:"not null;default:0" json:"uniqueVisitorCount"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// TableName specifies the table name
func (Workspace) TableName() string {
	return "workspaces"
}

// BeforeCreate assigns the ID and default link style.
func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.LinkStyle == "" {
		w.LinkStyle = LinkStyleWaMe
	}
	return nil
}
