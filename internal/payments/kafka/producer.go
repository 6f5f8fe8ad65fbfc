package kafka

import (
	"context"
	"encoding/json"

	"club-pos/internal/models"

	"github.com/segmentio/kafka-go"
)

// Producer queues reminder events for the notifier consumer.
type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, reminderTopic string) *Producer {
	return &Producer{
		Writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   reminderTopic,
		}),
	}
}

func (p *Producer) PublishReminder(event models.ReminderEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(event.PaymentID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
