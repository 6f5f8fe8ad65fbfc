package kafka

import (
	"context"
	"encoding/json"
	"log"

	"club-pos/internal/models"

	"github.com/segmentio/kafka-go"
)

// ReminderConsumer reads queued payment reminders off the reminder topic.
type ReminderConsumer struct {
	reader *kafka.Reader
}

// NewReminderConsumer creates a new Kafka consumer for the given topic and group
func NewReminderConsumer(brokers []string, topic, groupID string) *ReminderConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &ReminderConsumer{reader: reader}
}

// Start consumes reminder events until ctx is cancelled.
func (c *ReminderConsumer) Start(ctx context.Context, handler func(event models.ReminderEvent)) {
	log.Println("Reminder consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Error reading reminder message: %v\n", err)
			continue
		}

		var event models.ReminderEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("Failed to unmarshal reminder message: %v\n", err)
			continue
		}

		log.Printf("Received reminder event: payment=%s", event.PaymentID)
		handler(event)
	}
}

// Close gracefully shuts down the Kafka reader
func (c *ReminderConsumer) Close() error {
	return c.reader.Close()
}
