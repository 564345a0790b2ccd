// Package events publishes attributed access events to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/zaplinker/backend/internal/models"
)

// AccessMessage is the payload published for every attributed redirect.
type AccessMessage struct {
	EventID       string               `json:"eventId"`
	WorkspaceID   string               `json:"workspaceId"`
	NumberID      string               `json:"numberId,omitempty"`
	VisitorKey    string               `json:"visitorId"`
	DeviceType    models.DeviceType    `json:"deviceType"`
	Country       string               `json:"country"`
	UTMParameters models.UTMParameters `json:"utmParameters"`
	Timestamp     time.Time            `json:"timestamp"`
}

// FromAccessEvent converts a stored event into its published form.
func FromAccessEvent(e *models.AccessEvent) *AccessMessage {
	msg := &AccessMessage{
		EventID:       e.ID,
		WorkspaceID:   e.WorkspaceID,
		VisitorKey:    e.VisitorKey,
		DeviceType:    e.DeviceType,
		Country:       e.Country,
		UTMParameters: e.UTMParameters,
		Timestamp:     e.Timestamp,
	}
	if e.NumberID != nil {
		msg.NumberID = *e.NumberID
	}
	return msg
}

// Publisher delivers access messages.
type Publisher interface {
	Publish(ctx context.Context, msg *AccessMessage) error
	Close() error
}

// NoopPublisher discards every message. Used when NATS is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *AccessMessage) error { return nil }
func (NoopPublisher) Close() error { return nil }

// Subject returns the NATS subject for a workspace's access events.
func Subject(workspaceID string) string {
	return subjectPrefix + ".access." + workspaceID
}
