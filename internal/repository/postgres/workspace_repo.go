package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hakimz/duit/duit-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkspaceRepository implements domain.WorkspaceRepository using PostgreSQL
type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

const workspaceColumns = `id, user_id, name, created_at, updated_at`

// GetByUserID retrieves a user's workspace
func (r *WorkspaceRepository) GetByUserID(userID uuid.UUID) (*domain.Workspace, error) {
	row := r.pool.QueryRow(context.Background(), `
		SELECT `+workspaceColumns+` FROM workspaces WHERE user_id = $1`,
		userID)
	return scanWorkspace(row)
}

// GetByUserAuth0ID retrieves a workspace by the owning user's Auth0 ID
func (r *WorkspaceRepository) GetByUserAuth0ID(auth0ID string) (*domain.Workspace, error) {
	row := r.pool.QueryRow(context.Background(), `
		SELECT w.id, w.user_id, w.name, w.created_at, w.updated_at
		FROM workspaces w
		JOIN users u ON u.id = w.user_id
		WHERE u.auth0_id = $1`,
		auth0ID)
	return scanWorkspace(row)
}

// Create creates a new workspace
func (r *WorkspaceRepository) Create(workspace *domain.Workspace) (*domain.Workspace, error) {
	row := r.pool.QueryRow(context.Background(), `
		INSERT INTO workspaces (user_id, name)
		VALUES ($1, $2)
		RETURNING `+workspaceColumns,
		workspace.UserID, workspace.Name)
	return scanWorkspace(row)
}

func scanWorkspace(row pgx.Row) (*domain.Workspace, error) {
	var workspace domain.Workspace
	err := row.Scan(&workspace.ID, &workspace.UserID, &workspace.Name,
		&workspace.CreatedAt, &workspace.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return &workspace, nil
}
