package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tixlabs/tix-server/internal/models"
	"github.com/tixlabs/tix-server/pkg/logger"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id string) error
}

type postgresUserRepository struct {
	db DB
	l  logger.Logger
}

func NewPostgresUserRepository(db DB, l logger.Logger) UserRepository {
	return &postgresUserRepository{
		db: db,
		l:  l,
	}
}

const userColumns = `id, username, email, password_hash, full_name, role, created_at`

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.Role,
		&u.CreatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *postgresUserRepository) Create(ctx context.Context, u *models.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.FullName, u.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		r.l.Errorf(ctx, "repository.postgresUserRepository.Create: %v", err)
		return err
	}

	return nil
}

func (r *postgresUserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, `id`, id)
}

func (r *postgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, `username`, username)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, `email`, email)
}

func (r *postgresUserRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	var u models.User
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.l.Errorf(ctx, "repository.postgresUserRepository.getBy: %v", err)
		return nil, err
	}

	return &u, nil
}

func (r *postgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgresUserRepository.List: %v", err)
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *postgresUserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.l.Errorf(ctx, "repository.postgresUserRepository.Delete: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
