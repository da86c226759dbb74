package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ms-ordering/internal/config"
	"ms-ordering/internal/feed"
	"ms-ordering/internal/logger"

	"github.com/segmentio/kafka-go"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ChangeConsumer feeds row-change messages from an external change stream
// into the in-process bus, so the live views also see writes made outside
// this service.
type ChangeConsumer struct {
	Reader MessageReader
	Bus    feed.Publisher
	Logger *logger.Logger
	// RetryDelay is the pause after a failed fetch.
	RetryDelay time.Duration
}

func NewChangeConsumer(cfg config.KafkaConfig, bus feed.Publisher, log *logger.Logger) *ChangeConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topics.Changes,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  500 * time.Millisecond,
	})
	return &ChangeConsumer{Reader: reader, Bus: bus, Logger: log, RetryDelay: time.Second}
}

// Run consumes until ctx is done. Undecodable messages are committed and skipped.
func (c *ChangeConsumer) Run(ctx context.Context) error {
	c.Logger.Info("KAFKA", "change consumer started")

	for {
		msg, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.Logger.Info("KAFKA", "change consumer stopped")
				return nil
			}
			c.Logger.Error("KAFKA", fmt.Sprintf("Error reading change message: %v", err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.RetryDelay):
			}
			continue
		}

		if ev, ok := c.decode(msg); ok {
			c.Bus.Publish(ev)
		}
		if err := c.Reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.Logger.Warn("KAFKA", fmt.Sprintf("failed to commit offset %d: %v", msg.Offset, err))
		}
	}
}

func (c *ChangeConsumer) decode(msg kafka.Message) (feed.ChangeEvent, bool) {
	var ev feed.ChangeEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.Logger.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal change message at offset %d: %v", msg.Offset, err))
		return ev, false
	}
	if ev.Table == "" {
		c.Logger.Warn("KAFKA", fmt.Sprintf("change message at offset %d has no table", msg.Offset))
		return ev, false
	}
	if ev.At.IsZero() {
		ev.At = msg.Time
	}
	c.Logger.LogKafka("CHANGE", msg.Topic, fmt.Sprintf("%s %s %s", ev.Op, ev.Table, ev.RecordID))
	return ev, true
}

func (c *ChangeConsumer) Close() error {
	return c.Reader.Close()
}
