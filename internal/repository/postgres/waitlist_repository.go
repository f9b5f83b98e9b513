package repository

import (
	"context"

	"github.com/tixlabs/tix-server/internal/models"
	"github.com/tixlabs/tix-server/pkg/logger"
)

type WaitlistRepository interface {
	Add(ctx context.Context, entry *models.WaitlistEntry) error
	ListByEvent(ctx context.Context, eventID string) ([]models.WaitlistEntry, error)
	DeleteByEvent(ctx context.Context, eventID string) error
}

type postgresWaitlistRepository struct {
	db DB
	l  logger.Logger
}

func NewPostgresWaitlistRepository(db DB, l logger.Logger) WaitlistRepository {
	return &postgresWaitlistRepository{
		db: db,
		l:  l,
	}
}

func (r *postgresWaitlistRepository) Add(ctx context.Context, entry *models.WaitlistEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO waitlist (id, event_id, user_id, email)
		VALUES ($1, $2, $3, $4)
	`, entry.ID, entry.EventID, entry.UserID, entry.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.l.Errorf(ctx, "repository.postgresWaitlistRepository.Add: %v", err)
		return err
	}

	return nil
}

func (r *postgresWaitlistRepository) ListByEvent(ctx context.Context, eventID string) ([]models.WaitlistEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, event_id, user_id, email, created_at
		FROM waitlist
		WHERE event_id = $1
		ORDER BY created_at ASC
	`, eventID)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgresWaitlistRepository.ListByEvent: %v", err)
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.WaitlistEntry, 0)
	for rows.Next() {
		var e models.WaitlistEntry
		if err := rows.Scan(&e.ID, &e.EventID, &e.UserID, &e.Email, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *postgresWaitlistRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM waitlist WHERE event_id = $1`, eventID); err != nil {
		r.l.Errorf(ctx, "repository.postgresWaitlistRepository.DeleteByEvent: %v", err)
		return err
	}

	return nil
}
