package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceType classifies the visitor's user agent.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceDesktop DeviceType = "desktop"
)

// CounterColumn is the workspace column incremented for this device type.
func (d DeviceType) CounterColumn() string {
	if d == DeviceMobile {
		return "mobile_access_count"
	}
	return "desktop_access_count"
}

// Visitor is a deduplicated visitor of one workspace.
// The (workspace_id, visitor_key) pair is unique; concurrent first visits collapse on it.
type Visitor struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID string    `gorm:"size:36;not null;uniqueIndex:idx_visitors_workspace_key,priority:1" json:"workspaceId"`
	VisitorKey  string    `gorm:"size:64;not null;uniqueIndex:idx_visitors_workspace_key,priority:2" json:"visitorId"`
	IP          string    `gorm:"size:64" json:"ip"`
	UserAgent   string    `gorm:"size:512" json:"userAgent"`
	FirstVisit  time.Time `gorm:"not null" json:"firstVisit"`
	LastVisit   time.Time `gorm:"not null" json:"lastVisit"`
	VisitCount  int64     `gorm:"not null;default:1" json:"visitCount"`
}

// TableName specifies the table name
func (Visitor) TableName() string {
	return "visitors"
}

func (v *Visitor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// AccessEvent is one attributed redirect, the "access details" of a workspace.
// NumberID is nil when the workspace had no active number at the time.
type AccessEvent struct {
	ID            string        `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID   string        `gorm:"size:36;not null;index:idx_access_events_workspace_ts,priority:1" json:"workspaceId"`
	NumberID      *string       `gorm:"size:36;index" json:"numberId,omitempty"`
	VisitorKey    string        `gorm:"size:64;not null" json:"visitorId"`
	IPAddress     string        `gorm:"size:64" json:"ipAddress"`
	DeviceType    DeviceType    `gorm:"size:8;not null" json:"deviceType"`
	Country       string        `gorm:"size:64" json:"country"`
	UTMParameters UTMParameters `gorm:"serializer:json" json:"utmParameters"`
	Referer       string        `gorm:"size:1024" json:"referer,omitempty"`
	Timestamp     time.Time     `gorm:"column:occurred_at;not null;index;index:idx_access_events_workspace_ts,priority:2" json:"timestamp"`
}

// TableName specifies the table name
func (AccessEvent) TableName() string {
	return "access_events"
}

func (e *AccessEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
