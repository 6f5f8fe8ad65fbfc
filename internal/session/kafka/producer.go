package kafka

import (
	"context"
	"encoding/json"

	"club-pos/internal/models"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	SessionWriter *kafka.Writer
	PaymentWriter *kafka.Writer
}

func NewProducer(brokers []string, sessionTopic, paymentTopic string) *Producer {
	return &Producer{
		SessionWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   sessionTopic,
		}),
		PaymentWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   paymentTopic,
		}),
	}
}

func (p *Producer) publishSession(event models.SessionEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.SessionWriter.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(event.SessionID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) PublishSessionStarted(event models.SessionEvent) error {
	event.Type = models.EventSessionStarted
	return p.publishSession(event)
}

func (p *Producer) PublishSessionUpdated(event models.SessionEvent) error {
	event.Type = models.EventSessionUpdated
	return p.publishSession(event)
}

func (p *Producer) PublishSessionClosed(event models.SessionEvent) error {
	event.Type = models.EventSessionClosed
	return p.publishSession(event)
}

func (p *Producer) PublishPaymentEvent(event models.PaymentEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.PaymentWriter.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(event.SessionID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	if err := p.SessionWriter.Close(); err != nil {
		return err
	}
	return p.PaymentWriter.Close()
}
