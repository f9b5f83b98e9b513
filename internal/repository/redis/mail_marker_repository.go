package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tixlabs/tix-server/pkg/logger"
)

// MailMarkerRepository records which scan codes already had their
// confirmation email dispatched, so a redelivered order does not mail the
// buyer twice. Losing a marker only risks a duplicate email, never a
// duplicate ticket, so a TTL is fine.
type MailMarkerRepository interface {
	// MarkSent returns true if this call claimed the marker, false if the
	// email was already recorded as sent.
	MarkSent(ctx context.Context, scanCode string, ttl time.Duration) (bool, error)
	ClearSent(ctx context.Context, scanCode string) error
}

type redisMailMarkerRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisMailMarkerRepository(cli *redis.Client, l logger.Logger) MailMarkerRepository {
	return &redisMailMarkerRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisMailMarkerRepository) MarkSent(ctx context.Context, scanCode string, ttl time.Duration) (bool, error) {
	claimed, err := r.cli.SetNX(ctx, r.markerKey(scanCode), time.Now().Unix(), ttl).Result()
	if err != nil {
		r.l.Errorf(ctx, "repository.redisMailMarkerRepository.MarkSent: %v", err)
		return false, err
	}

	return claimed, nil
}

func (r *redisMailMarkerRepository) ClearSent(ctx context.Context, scanCode string) error {
	if err := r.cli.Del(ctx, r.markerKey(scanCode)).Err(); err != nil {
		r.l.Errorf(ctx, "repository.redisMailMarkerRepository.ClearSent: %v", err)
		return err
	}

	return nil
}

func (r *redisMailMarkerRepository) markerKey(scanCode string) string {
	return fmt.Sprintf("tix:mail:confirmation:%s", scanCode)
}
