package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/zaplinker/backend/internal/logger"
	"go.uber.org/zap"
)

const (
	streamName    = "ZAPLINKER"
	subjectPrefix = "zaplinker"
)

// NATSPublisher publishes access messages to a JetStream stream.
type NATSPublisher struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// NewNATSPublisher connects to url and makes sure the stream exists.
// NATS may still be starting, so stream creation is retried until ctx is done.
func NewNATSPublisher(ctx context.Context, url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("zaplinker-backend"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err = js.CreateOrUpdateStream(attemptCtx, jetstream.StreamConfig{
			Name:      streamName,
			Subjects:  []string{subjectPrefix + ".>"},
			Retention: jetstream.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   jetstream.FileStorage,
			Replicas:  1,
		})
		cancel()
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			nc.Close()
			return nil, fmt.Errorf("creating JetStream stream after %d attempts: %w", attempt, ctx.Err())
		}
		logger.Log.Warn("JetStream stream not ready, retrying", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			nc.Close()
			return nil, fmt.Errorf("creating JetStream stream after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}

	logger.Log.Info("✅ NATS publisher connected", zap.String("stream", streamName))
	return &NATSPublisher{conn: nc, js: js}, nil
}

// Publish sends msg on the workspace's subject. The event ID is used for de-duplication.
func (p *NATSPublisher) Publish(ctx context.Context, msg *AccessMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshalling access message: %w", err)
	}

	subject := Subject(msg.WorkspaceID)
	opts := []jetstream.PublishOpt{}
	if msg.EventID != "" {
		opts = append(opts, jetstream.WithMsgID(msg.EventID))
	}
	if _, err := p.js.Publish(ctx, subject, data, opts...); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
