package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tixlabs/tix-server/internal/models"
	"github.com/tixlabs/tix-server/pkg/logger"
)

type ListEventsFilter struct {
	Search   string
	Location string
	Date     *time.Time
	Page     int
	Limit    int
}

type EventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	Get(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, f ListEventsFilter) ([]models.Event, int, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error)
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id string) error
}

type postgresEventRepository struct {
	db DB
	l  logger.Logger
}

func NewPostgresEventRepository(db DB, l logger.Logger) EventRepository {
	return &postgresEventRepository{
		db: db,
		l:  l,
	}
}

const eventColumns = `id, organizer_id, title, description, date, location, price, capacity, sold, created_at, updated_at`

func scanEvent(row pgx.Row, e *models.Event) error {
	return row.Scan(
		&e.ID,
		&e.OrganizerID,
		&e.Title,
		&e.Description,
		&e.Date,
		&e.Location,
		&e.Price,
		&e.Capacity,
		&e.Sold,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}

func (r *postgresEventRepository) Create(ctx context.Context, e *models.Event) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO events (id, organizer_id, title, description, date, location, price, capacity, sold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)
	`, e.ID, e.OrganizerID, e.Title, e.Description, e.Date, e.Location, e.Price, e.Capacity)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgresEventRepository.Create: %v", err)
		return err
	}

	return nil
}

func (r *postgresEventRepository) Get(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	row := r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if err := scanEvent(row, &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.l.Errorf(ctx, "repository.postgresEventRepository.Get: %v", err)
		return nil, err
	}

	return &e, nil
}

func (r *postgresEventRepository) List(ctx context.Context, f ListEventsFilter) ([]models.Event, int, error) {
	conds := make([]string, 0, 3)
	args := make([]any, 0, 5)

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if f.Location != "" {
		args = append(args, "%"+f.Location+"%")
		conds = append(conds, fmt.Sprintf("location ILIKE $%d", len(args)))
	}
	if f.Date != nil {
		day := f.Date.Truncate(24 * time.Hour)
		args = append(args, day)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
		args = append(args, day.Add(24*time.Hour))
		conds = append(conds, fmt.Sprintf("date < $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM events`+where, args...).Scan(&total); err != nil {
		r.l.Errorf(ctx, "repository.postgresEventRepository.List: %v", err)
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 6
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}

	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(
		`SELECT `+eventColumns+` FROM events%s ORDER BY date ASC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgresEventRepository.List: %v", err)
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var e models.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (r *postgresEventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE organizer_id = $1 ORDER BY created_at DESC`,
		organizerID,
	)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgresEventRepository.ListByOrganizer: %v", err)
		return nil, err
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var e models.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// Update never touches sold; the fulfillment consumer owns that column.
func (r *postgresEventRepository) Update(ctx context.Context, e *models.Event) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE events
		SET title = $2, description = $3, date = $4, location = $5, price = $6, capacity = $7, updated_at = now()
		WHERE id = $1
	`, e.ID, e.Title, e.Description, e.Date, e.Location, e.Price, e.Capacity)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgresEventRepository.Update: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresEventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgresEventRepository.Delete: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
