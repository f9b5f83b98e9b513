package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	kafka "github.com/tixlabs/tix-server/internal/delivery/kafka"
	"github.com/tixlabs/tix-server/pkg/logger"
)

type Producer interface {
	PublishOrder(ctx context.Context, msg kafka.OrderMessage) error
	PublishNotification(ctx context.Context, batch kafka.NotificationBatch) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

func (p *implProducer) PublishOrder(ctx context.Context, msg kafka.OrderMessage) error {
	msg.Timestamp = time.Now()
	val, err := json.Marshal(msg)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishOrder: %v", err)
		return err
	}

	pm := &sarama.ProducerMessage{
		Topic: kafka.TopicTicketOrders,
		Key:   sarama.StringEncoder(msg.EventID), // Partition by event_id for ordering
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	_, _, err = p.prod.SendMessage(pm)
	return err
}

func (p *implProducer) PublishNotification(ctx context.Context, batch kafka.NotificationBatch) error {
	batch.Timestamp = time.Now()
	val, err := json.Marshal(batch)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishNotification: %v", err)
		return err
	}

	pm := &sarama.ProducerMessage{
		Topic: kafka.TopicEventUpdates,
		Key:   sarama.StringEncoder(batch.EventTitle),
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	_, _, err = p.prod.SendMessage(pm)
	return err
}

func (p *implProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}

	return nil
}
