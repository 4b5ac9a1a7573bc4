package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

const userColumns = `id, nombre, username, password_hash, rol, activo, created_at, updated_at`

// UserRepository handles user database operations.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row scanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO usuarios (nombre, username, password_hash, rol)
		VALUES ($1, $2, $3, $4)
		RETURNING id, activo, created_at, updated_at
	`, u.Name, u.Username, u.PasswordHash, u.Role).Scan(&u.ID, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetUserByUsername retrieves a user by username (case-insensitive).
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM usuarios WHERE LOWER(username) = LOWER($1)
	`, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &u, nil
}

// UsernameExists reports whether username is taken (case-insensitive).
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM usuarios WHERE LOWER(username) = LOWER($1))
	`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// List retrieves all users ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM usuarios ORDER BY nombre, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	return collect(rows, "user", scanUser)
}

// SetActive changes the active flag and returns the updated user.
func (r *UserRepository) SetActive(ctx context.Context, id int, active bool) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `
		UPDATE usuarios SET activo = $2, updated_at = NOW() WHERE id = $1
		RETURNING `+userColumns, id, active))
	if err != nil {
		return nil, fmt.Errorf("failed to set user active: %w", err)
	}
	return &u, nil
}
