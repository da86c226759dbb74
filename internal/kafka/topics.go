package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"ms-ordering/internal/config"
	"ms-ordering/internal/logger"

	"github.com/segmentio/kafka-go"
)

// TopicNames lists the configured topics, skipping blanks and duplicates.
func TopicNames(t config.TopicConfig) []string {
	seen := map[string]bool{}
	var out []string
	for _, name := range []string{t.OrderEvents, t.CallEvents, t.RatingEvents, t.Changes, t.DailyReports} {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// EnsureTopicsExist creates missing topics through the cluster controller.
// A topic that fails to create is logged and the others are still tried.
func EnsureTopicsExist(ctx context.Context, brokers []string, topics []string, log *logger.Logger) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		err := controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		switch {
		case err == nil:
			log.LogKafka("CREATED", topic, "topic created")
		case errors.Is(err, kafka.TopicAlreadyExists):
			log.Debug("KAFKA", fmt.Sprintf("Topic %s already exists", topic))
		default:
			log.Error("KAFKA", fmt.Sprintf("Error creating topic %s: %v", topic, err))
		}
	}
	return nil
}
