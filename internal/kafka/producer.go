package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-ordering/internal/config"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"

	"github.com/segmentio/kafka-go"
)

const (
	EventOrderCreated   = "order.created"
	EventOrderUpdated   = "order.updated"
	EventCallCreated    = "server_call.created"
	EventRatingCreated  = "rating.created"
	EventDailyReport    = "report.daily"
	defaultWriteTimeout = 5 * time.Second
)

// Event is the envelope of every message the service publishes.
type Event struct {
	Type         string      `json:"type"`
	RestaurantID string      `json:"restaurant_id"`
	At           time.Time   `json:"at"`
	Payload      interface{} `json:"payload"`
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes domain events. In mock mode messages are only logged.
type Producer struct {
	Writer   MessageWriter
	Topics   config.TopicConfig
	MockMode bool
	Logger   *logger.Logger
}

func NewProducer(cfg config.KafkaConfig, log *logger.Logger) *Producer {
	p := &Producer{Topics: cfg.Topics, MockMode: cfg.MockMode, Logger: log}
	if !cfg.MockMode {
		p.Writer = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			WriteTimeout:           defaultWriteTimeout,
			AllowAutoTopicCreation: true,
		}
	}
	return p
}

// Publish writes value as JSON to topic. Messages sharing a key keep their order.
func (p *Producer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	msgBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode message for %s: %w", topic, err)
	}

	if p.MockMode || p.Writer == nil {
		p.Logger.LogKafka("MOCK", topic, fmt.Sprintf("key=%s %s", key, msgBytes))
		return nil
	}

	if err := p.Writer.WriteMessages(ctx, kafka.Message{Topic: topic, Key: []byte(key), Value: msgBytes}); err != nil {
		p.Logger.LogKafka("FAILED", topic, fmt.Sprintf("key=%s: %v", key, err))
		return err
	}
	p.Logger.LogKafka("PUBLISHED", topic, "key="+key)
	return nil
}

func (p *Producer) publishEvent(ctx context.Context, topic, eventType, restaurantID, key string, payload interface{}) error {
	return p.Publish(ctx, topic, key, Event{
		Type:         eventType,
		RestaurantID: restaurantID,
		At:           time.Now().UTC(),
		Payload:      payload,
	})
}

func (p *Producer) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return p.publishEvent(ctx, p.Topics.OrderEvents, EventOrderCreated, order.RestaurantID, order.ID, order)
}

func (p *Producer) PublishOrderUpdated(ctx context.Context, order *models.Order) error {
	return p.publishEvent(ctx, p.Topics.OrderEvents, EventOrderUpdated, order.RestaurantID, order.ID, order)
}

func (p *Producer) PublishCallCreated(ctx context.Context, call *models.ServerCall) error {
	return p.publishEvent(ctx, p.Topics.CallEvents, EventCallCreated, call.RestaurantID, call.ID, call)
}

func (p *Producer) PublishRatingCreated(ctx context.Context, restaurantID string, rating *models.Rating) error {
	return p.publishEvent(ctx, p.Topics.RatingEvents, EventRatingCreated, restaurantID, rating.OrderID, rating)
}

// PublishDailyReport is keyed by restaurant so reports of one restaurant stay ordered.
func (p *Producer) PublishDailyReport(ctx context.Context, restaurantID string, report interface{}) error {
	return p.publishEvent(ctx, p.Topics.DailyReports, EventDailyReport, restaurantID, restaurantID, report)
}

func (p *Producer) Close() error {
	if p.Writer == nil {
		return nil
	}
	return p.Writer.Close()
}
