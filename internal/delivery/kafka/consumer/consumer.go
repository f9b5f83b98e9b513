package consumer

import (
	"context"
	"errors"
	"sync"

	"github.com/IBM/sarama"

	"github.com/tixlabs/tix-server/internal/service"
	"github.com/tixlabs/tix-server/pkg/logger"
)

// handleFunc processes one message; a nil return marks the offset, a
// non-nil return aborts the session so the message is redelivered.
type handleFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// Consumer drains one topic with one consumer group, marking offsets only
// after the handler succeeds (at-least-once).
type Consumer struct {
	consGr sarama.ConsumerGroup
	topics []string
	handle handleFunc
	l      logger.Logger
	wg     sync.WaitGroup
}

// NewOrderConsumer drains the ticket order topic into the fulfillment
// service.
func NewOrderConsumer(consGr sarama.ConsumerGroup, fulfillSvc service.FulfillmentService, l logger.Logger) *Consumer {
	c := &Consumer{
		consGr: consGr,
		l:      l,
	}
	c.topics = []string{orderTopic}
	c.handle = c.orderHandler(fulfillSvc)
	return c
}

// NewUpdateConsumer drains the event update topic into the notification
// service.
func NewUpdateConsumer(consGr sarama.ConsumerGroup, notifSvc service.NotificationService, l logger.Logger) *Consumer {
	c := &Consumer{
		consGr: consGr,
		l:      l,
	}
	c.topics = []string{updateTopic}
	c.handle = c.updateHandler(notifSvc)
	return c
}

// Run blocks, re-entering the consume loop on every session error, until
// ctx is cancelled or the group is closed. A session error here includes a
// handler failure surfaced through ConsumeClaim; re-entering resumes at
// the last committed offset, which is what redelivers the failed message.
func (c *Consumer) Run(ctx context.Context) error {
	c.wg.Go(func() {
		for err := range c.consGr.Errors() {
			c.l.Errorf(ctx, "delivery.kafka.consumer.Consumer.Run: %v", err)
		}
	})

	c.l.Infof(ctx, "Consumer is consuming topics: %v", c.topics)

	for {
		if err := c.consGr.Consume(ctx, c.topics, c); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.l.Errorf(ctx, "delivery.kafka.consumer.Consumer.Run: %v", err)
		}

		if ctx.Err() != nil {
			c.l.Infof(ctx, "delivery.kafka.consumer.Consumer.Run: %v", ctx.Err())
			return nil
		}
	}
}

func (c *Consumer) Close() error {
	if err := c.consGr.Close(); err != nil {
		return err
	}

	c.wg.Wait()
	return nil
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session started")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session ended")
	return nil
}

func (c *Consumer) ConsumeClaim(ss sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if err := c.handle(ss.Context(), message); err != nil {
				// Do not mark and do not move on: marking any later
				// offset would commit past this message and lose the
				// order for good. Failing the session resumes the claim
				// at the last committed offset.
				c.l.Errorf(ss.Context(), "delivery.kafka.consumer.Consumer.ConsumeClaim: topic %s offset %d: %v",
					message.Topic, message.Offset, err)
				return err
			}

			ss.MarkMessage(message, "")

		case <-ss.Context().Done():
			return nil
		}
	}
}
