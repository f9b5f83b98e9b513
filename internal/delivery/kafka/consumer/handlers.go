package consumer

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"

	kafka "github.com/tixlabs/tix-server/internal/delivery/kafka"
	"github.com/tixlabs/tix-server/internal/service"
)

const (
	orderTopic  = kafka.TopicTicketOrders
	updateTopic = kafka.TopicEventUpdates
)

func (c *Consumer) orderHandler(fulfillSvc service.FulfillmentService) handleFunc {
	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		var m kafka.OrderMessage
		if err := json.Unmarshal(message.Value, &m); err != nil {
			// A malformed order can never succeed; log and mark it so it
			// does not wedge the partition.
			c.l.Errorf(ctx, "delivery.kafka.consumer.orderHandler: %v", err)
			return nil
		}

		if err := fulfillSvc.ProcessOrder(ctx, service.OrderInput{
			EventID:  m.EventID,
			UserID:   m.UserID,
			Quantity: m.Quantity,
			ScanCode: m.ScanCode,
		}); err != nil {
			c.l.Errorf(ctx, "delivery.kafka.consumer.orderHandler: %v", err)
			return err
		}

		return nil
	}
}

func (c *Consumer) updateHandler(notifSvc service.NotificationService) handleFunc {
	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		var b kafka.NotificationBatch
		if err := json.Unmarshal(message.Value, &b); err != nil {
			c.l.Errorf(ctx, "delivery.kafka.consumer.updateHandler: %v", err)
			return nil
		}

		if err := notifSvc.ProcessBatch(ctx, service.NotificationInput{
			EventTitle:  b.EventTitle,
			NewDate:     b.NewDate,
			NewLocation: b.NewLocation,
			Emails:      b.Emails,
			Alert:       string(b.Alert),
		}); err != nil {
			c.l.Errorf(ctx, "delivery.kafka.consumer.updateHandler: %v", err)
			return err
		}

		return nil
	}
}
