package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/rs/zerolog/log"
)

const flushTimeout = 10 * time.Second

// Publisher sends chapter events to a message broker
type Publisher interface {
	PublishChapterEvents(ctx context.Context, events []model.ChapterEvent) error
	Close() error
}

// natsConn is the subset of *nats.Conn the publisher needs
type natsConn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NatsPublisher provides an abstraction over NATS publishing
type NatsPublisher struct {
	conn    natsConn
	subject string
}

// NewNatsPublisher connects to the broker at url
func NewNatsPublisher(url, subject string) (*NatsPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	nc, err := nats.Connect(url,
		nats.Name("manga-notifier"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	log.Info().Str("url", url).Str("subject", subject).Msg("Connected to broker")
	return &NatsPublisher{conn: nc, subject: subject}, nil
}

// PublishChapterEvents publishes one message per event and flushes once.
// Publishing stops at the first error.
func (p *NatsPublisher) PublishChapterEvents(ctx context.Context, events []model.ChapterEvent) error {
	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		data, err := json.Marshal(NewChapterMessage(event))
		if err != nil {
			return fmt.Errorf("failed to marshal chapter message: %w", err)
		}

		if err := p.conn.Publish(p.subject, data); err != nil {
			return fmt.Errorf("failed to publish chapter event for %s: %w", event.Name, err)
		}

		log.Debug().
			Str("run_id", event.RunID).
			Str("manga", event.Name).
			Str("new_chapter", event.NewChapter).
			Msg("Published chapter event")
	}

	// FlushWithContext rejects contexts without a deadline
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}

	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush chapter events: %w", err)
	}

	log.Info().Int("event_count", len(events)).Str("subject", p.subject).Msg("Chapter events published")
	return nil
}

// Close closes the broker connection
func (p *NatsPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

// NoopPublisher is used when no broker is configured
type NoopPublisher struct{}

func (NoopPublisher) PublishChapterEvents(ctx context.Context, events []model.ChapterEvent) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
