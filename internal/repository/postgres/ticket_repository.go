package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/tixlabs/tix-server/internal/models"
	"github.com/tixlabs/tix-server/pkg/logger"
)

type FulfillStatus int

const (
	// FulfillCreated: ticket persisted and sold incremented.
	FulfillCreated FulfillStatus = iota
	// FulfillDuplicate: a ticket with this scan code already exists; the
	// earlier delivery did all the work.
	FulfillDuplicate
	// FulfillRejected: capacity no longer holds; nothing was written.
	FulfillRejected
)

type FulfillResult struct {
	Status    FulfillStatus
	Remaining int
}

type CheckInStats struct {
	TotalTickets int
	CheckedIn    int
}

type TicketRepository interface {
	// Fulfill re-checks capacity and persists the ticket plus the ledger
	// increment in one transaction. Safe to call again with the same scan
	// code: the duplicate insert no-ops and sold is not incremented twice.
	Fulfill(ctx context.Context, t *models.Ticket) (FulfillResult, error)

	GetByScanCode(ctx context.Context, scanCode string) (*models.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]models.Ticket, error)

	// CheckIn flips is_checked_in exactly once. Returns ErrTicketUsed when
	// the ticket was already scanned and ErrNotFound for unknown codes.
	CheckIn(ctx context.Context, scanCode string) (*models.Ticket, error)

	HolderEmails(ctx context.Context, eventID string) ([]string, error)
	Stats(ctx context.Context, eventID string) (CheckInStats, error)
}

type postgresTicketRepository struct {
	db DB
	l  logger.Logger
}

func NewPostgresTicketRepository(db DB, l logger.Logger) TicketRepository {
	return &postgresTicketRepository{
		db: db,
		l:  l,
	}
}

func (r *postgresTicketRepository) Fulfill(ctx context.Context, t *models.Ticket) (FulfillResult, error) {
	res := FulfillResult{}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgresTicketRepository.Fulfill: %v", err)
		return res, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the ledger row so concurrent consumers serialize on this event.
	var sold, capacity int
	err = tx.QueryRow(ctx, `
		SELECT sold, capacity FROM events WHERE id = $1 FOR UPDATE
	`, t.EventID).Scan(&sold, &capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return res, ErrNotFound
		}
		r.l.Errorf(ctx, "repository.postgresTicketRepository.Fulfill: %v", err)
		return res, err
	}

	// The scan code is the idempotency anchor: a redelivered order finds
	// its ticket already inserted and must not touch the ledger again.
	tag, err := tx.Exec(ctx, `
		INSERT INTO tickets (id, event_id, user_id, quantity, scan_code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (scan_code) DO NOTHING
	`, t.ID, t.EventID, t.UserID, t.Quantity, t.ScanCode)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgresTicketRepository.Fulfill: %v", err)
		return res, err
	}
	if tag.RowsAffected() == 0 {
		res.Status = FulfillDuplicate
		res.Remaining = capacity - sold
		return res, nil
	}

	if sold+t.Quantity > capacity {
		res.Status = FulfillRejected
		res.Remaining = capacity - sold
		return res, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE events SET sold = sold + $2, updated_at = now() WHERE id = $1
	`, t.EventID, t.Quantity); err != nil {
		r.l.Errorf(ctx, "repository.postgresTicketRepository.Fulfill: %v", err)
		return res, err
	}

	if err := tx.Commit(ctx); err != nil {
		r.l.Errorf(ctx, "repository.postgresTicketRepository.Fulfill: %v", err)
		return res, err
	}

	res.Status = FulfillCreated
	res.Remaining = capacity - sold - t.Quantity
	return res, nil
}

const ticketColumns = `id, event_id, user_id, quantity, scan_code, is_checked_in, purchased_at`

func scanTicket(row pgx.Row, t *models.Ticket) error {
	return row.Scan(
		&t.ID,
		&t.EventID,
		&t.UserID,
		&t.Quantity,
		&t.ScanCode,
		&t.IsCheckedIn,
		&t.PurchasedAt,
	)
}

func (r *postgresTicketRepository) GetByScanCode(ctx context.Context, scanCode string) (*models.Ticket, error) {
	var t models.Ticket
	row := r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE scan_code = $1`, scanCode)
	if err := scanTicket(row, &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.l.Errorf(ctx, "repository.postgresTicketRepository.GetByScanCode: %v", err)
		return nil, err
	}

	return &t, nil
}

func (r *postgresTicketRepository) ListByUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE user_id = $1 ORDER BY purchased_at DESC`,
		userID,
	)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgresTicketRepository.ListByUser: %v", err)
		return nil, err
	}
	defer rows.Close()

	tickets := make([]models.Ticket, 0)
	for rows.Next() {
		var t models.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

func (r *postgresTicketRepository) CheckIn(ctx context.Context, scanCode string) (*models.Ticket, error) {
	var t models.Ticket
	row := r.db.QueryRow(ctx, `
		UPDATE tickets SET is_checked_in = TRUE
		WHERE scan_code = $1 AND NOT is_checked_in
		RETURNING `+ticketColumns,
		scanCode,
	)
	err := scanTicket(row, &t)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.l.Errorf(ctx, "repository.postgresTicketRepository.CheckIn: %v", err)
		return nil, err
	}

	// No row transitioned: either the code is unknown or a previous scan
	// won the race.
	var checkedIn bool
	err = r.db.QueryRow(ctx, `SELECT is_checked_in FROM tickets WHERE scan_code = $1`, scanCode).Scan(&checkedIn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.l.Errorf(ctx, "repository.postgresTicketRepository.CheckIn: %v", err)
		return nil, err
	}
	if checkedIn {
		return nil, ErrTicketUsed
	}

	return nil, ErrNotFound
}

func (r *postgresTicketRepository) HolderEmails(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT u.email
		FROM tickets t
		JOIN users u ON u.id = t.user_id
		WHERE t.event_id = $1 AND u.email <> ''
	`, eventID)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgresTicketRepository.HolderEmails: %v", err)
		return nil, err
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}

	return emails, rows.Err()
}

func (r *postgresTicketRepository) Stats(ctx context.Context, eventID string) (CheckInStats, error) {
	var stats CheckInStats
	err := r.db.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE is_checked_in)
		FROM tickets
		WHERE event_id = $1
	`, eventID).Scan(&stats.TotalTickets, &stats.CheckedIn)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgresTicketRepository.Stats: %v", err)
		return CheckInStats{}, err
	}

	return stats, nil
}
