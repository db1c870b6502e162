package postgres

import (
	"context"
	"errors"

	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, auth0_id, email, name, picture_url, created_at, updated_at`

// GetByAuth0ID retrieves a user by their Auth0 ID
func (r *UserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	row := r.pool.QueryRow(context.Background(), `
		SELECT `+userColumns+` FROM users WHERE auth0_id = $1`,
		auth0ID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// CreateOrGetByAuth0ID creates a user on first login or returns the
// existing one. Name and picture are refreshed from the token claims.
func (r *UserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO users (auth0_id, email, name, picture_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (auth0_id) DO UPDATE
		SET email = EXCLUDED.email,
			name = COALESCE(EXCLUDED.name, users.name),
			picture_url = COALESCE(EXCLUDED.picture_url, users.picture_url),
			updated_at = now()
		RETURNING `+userColumns,
		auth0ID, email, pgTextPtr(name), pgTextPtr(pictureURL))
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user    domain.User
		name    pgtype.Text
		picture pgtype.Text
	)
	err := row.Scan(&user.ID, &user.Auth0ID, &user.Email, &name, &picture,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Name = pgTextToStringPtr(name)
	user.PictureURL = pgTextToStringPtr(picture)
	return &user, nil
}
