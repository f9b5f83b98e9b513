package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	kafka "github.com/tixlabs/tix-server/internal/delivery/kafka"
	"github.com/tixlabs/tix-server/internal/delivery/kafka/producer"
	"github.com/tixlabs/tix-server/internal/models"
	repo "github.com/tixlabs/tix-server/internal/repository/postgres"
	pkgLog "github.com/tixlabs/tix-server/pkg/logger"
)

// PurchaseService is the admission gate: it pre-checks capacity at read
// time, then enqueues the order and answers optimistically. The
// fulfillment consumer is the sole source of truth and re-checks.
type PurchaseService interface {
	Purchase(ctx context.Context, in PurchaseInput) (*PurchaseOutput, error)
}

type purchaseService struct {
	eventRepo repo.EventRepository
	prod      producer.Producer
	l         pkgLog.Logger
}

func NewPurchaseService(
	eventRepo repo.EventRepository,
	prod producer.Producer,
	l pkgLog.Logger,
) PurchaseService {
	return &purchaseService{
		eventRepo: eventRepo,
		prod:      prod,
		l:         l,
	}
}

func (s *purchaseService) Purchase(ctx context.Context, in PurchaseInput) (*PurchaseOutput, error) {
	if in.Quantity < models.MinTicketQuantity || in.Quantity > models.MaxTicketQuantity {
		return nil, ErrInvalidQuantity
	}

	e, err := s.eventRepo.Get(ctx, in.EventID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		s.l.Errorf(ctx, "service.purchaseService.Purchase: %v", err)
		return nil, err
	}

	if !e.HasCapacity(in.Quantity) {
		return nil, &CapacityExceededError{Remaining: e.Remaining()}
	}

	// Generated once here so a redelivered order message cannot mint a
	// second ticket downstream.
	scanCode := uuid.NewString()

	if err := s.prod.PublishOrder(ctx, kafka.OrderMessage{
		EventID:  in.EventID,
		UserID:   in.UserID,
		Quantity: in.Quantity,
		ScanCode: scanCode,
	}); err != nil {
		// A lost order is worse than a failed request: fail loudly.
		s.l.Errorf(ctx, "service.purchaseService.Purchase: %v", err)
		return nil, fmt.Errorf("failed to enqueue order: %w", err)
	}

	s.l.Infof(ctx, "Order enqueued - event_id: %s, user_id: %s, quantity: %d", in.EventID, in.UserID, in.Quantity)

	return &PurchaseOutput{
		Message:    "Purchase processing started!",
		ScanCode:   scanCode,
		EventTitle: e.Title,
		EventDate:  e.Date,
		Quantity:   in.Quantity,
	}, nil
}
