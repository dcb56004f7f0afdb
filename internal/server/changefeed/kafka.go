package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/turismap/internal/logging"
	"github.com/dmitrijs2005/turismap/internal/server/models"
	"github.com/segmentio/kafka-go"
)

// Header keys set on every change message.
const (
	HeaderOrigin     = "origin"
	HeaderChangeType = "change-type"
)

type record struct {
	Type       string         `json:"type"`
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	Data       map[string]any `json:"data,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// encodeChange keys the message by collection and id so every change of one
// document lands on the same partition, in order.
func encodeChange(c Change, origin string) (kafka.Message, error) {
	d := c.Document
	value, err := json.Marshal(record{
		Type:       c.Type,
		Collection: d.Collection,
		ID:         d.ID,
		Data:       d.Data,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode change: %w", err)
	}
	return kafka.Message{
		Key:   []byte(d.Collection + "/" + d.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderOrigin, Value: []byte(origin)},
			{Key: HeaderChangeType, Value: []byte(c.Type)},
		},
		Time: time.Now(),
	}, nil
}

func decodeChange(msg kafka.Message) (Change, error) {
	var r record
	if err := json.Unmarshal(msg.Value, &r); err != nil {
		return Change{}, fmt.Errorf("decode change: %w", err)
	}
	if r.Collection == "" || r.ID == "" {
		return Change{}, errors.New("decode change: missing collection or id")
	}
	if r.Type != ChangeSnapshot && r.Type != ChangeDeleted {
		return Change{}, fmt.Errorf("decode change: unknown type %q", r.Type)
	}
	return Change{Type: r.Type, Document: models.Document{
		Collection: r.Collection,
		ID:         r.ID,
		Data:       r.Data,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}}, nil
}

func header(msg kafka.Message, name string) string {
	for _, h := range msg.Headers {
		if h.Key == name {
			return string(h.Value)
		}
	}
	return ""
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher appends every change to a topic. Writes are asynchronous;
// failures are logged and never reach the caller.
type KafkaPublisher struct {
	writer messageWriter
	origin string
	log    logging.Logger
}

func NewKafkaPublisher(brokers []string, topic, origin string, log logging.Logger) *KafkaPublisher {
	log = log.With("module", "changefeed", "topic", topic)
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Error(context.Background(), fmt.Sprintf(msg, args...))
		}),
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error(context.Background(), "changes not published", "count", len(messages), "error", err)
			}
		},
	}
	return &KafkaPublisher{writer: w, origin: origin, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, c Change) {
	msg, err := encodeChange(c, p.origin)
	if err != nil {
		p.log.Error(ctx, "change not published", "collection", c.Document.Collection, "id", c.Document.ID, "error", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error(ctx, "change not published", "collection", c.Document.Collection, "id", c.Document.ID, "error", err)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Relay feeds changes written by other server instances into a local
// publisher, normally the Hub. Messages carrying this instance's origin are
// skipped because the Hub already saw them.
type Relay struct {
	reader  messageReader
	origin  string
	target  Publisher
	log     logging.Logger
	backoff time.Duration
}

// NewKafkaRelay reads from the latest offset in a consumer group private to
// origin, so every instance receives every change.
func NewKafkaRelay(brokers []string, topic, origin string, target Publisher, log logging.Logger) *Relay {
	log = log.With("module", "changefeed-relay", "topic", topic)
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     "turismap-relay-" + origin,
		StartOffset: kafka.LastOffset,
		MaxWait:     500 * time.Millisecond,
		Logger:      kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Error(context.Background(), fmt.Sprintf(msg, args...))
		}),
	})
	return &Relay{reader: reader, origin: origin, target: target, log: log, backoff: time.Second}
}

// Run consumes until ctx is done. It returns nil on cancellation.
func (r *Relay) Run(ctx context.Context) error {
	for {
		msg, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.log.Warn(ctx, "read failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(r.backoff):
			}
			continue
		}

		if header(msg, HeaderOrigin) == r.origin {
			continue
		}
		c, err := decodeChange(msg)
		if err != nil {
			r.log.Warn(ctx, "skipping message", "offset", msg.Offset, "error", err)
			continue
		}
		r.target.Publish(ctx, c)
	}
}

func (r *Relay) Close() error {
	return r.reader.Close()
}
