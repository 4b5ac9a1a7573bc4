package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

const categoryColumns = `id, nombre, sentido, es_plan, activo, created_at, updated_at`

// CategoryRepository handles category database operations.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func scanCategory(row scanner) (models.Category, error) {
	var cat models.Category
	err := row.Scan(&cat.ID, &cat.Name, &cat.Direction, &cat.IsPlan, &cat.Active, &cat.CreatedAt, &cat.UpdatedAt)
	return cat, err
}

// List retrieves categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context, onlyActive bool) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+categoryColumns+` FROM categorias
		WHERE ($1 = FALSE OR activo)
		ORDER BY nombre
	`, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	return collect(rows, "category", scanCategory)
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	cat, err := scanCategory(r.db.QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM categorias WHERE id = $1
	`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &cat, nil
}

// GetByIDForUpdate retrieves a category and locks its row until the
// surrounding transaction ends.
func (r *CategoryRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.Category, error) {
	cat, err := scanCategory(r.db.QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM categorias WHERE id = $1 FOR UPDATE
	`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock category: %w", err)
	}
	return &cat, nil
}

// NameExists reports whether another category already uses name
// (case-insensitive). excludeID is ignored when zero.
func (r *CategoryRepository) NameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM categorias WHERE LOWER(nombre) = LOWER($1) AND id <> $2)
	`, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return exists, nil
}

// Create adds a new category.
func (r *CategoryRepository) Create(ctx context.Context, cat *models.Category) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO categorias (nombre, sentido, es_plan)
		VALUES ($1, $2, $3)
		RETURNING id, activo, created_at, updated_at
	`, cat.Name, cat.Direction, cat.IsPlan).Scan(&cat.ID, &cat.Active, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// Update persists name and plan flag. Direction is never written.
func (r *CategoryRepository) Update(ctx context.Context, cat *models.Category) error {
	err := r.db.QueryRow(ctx, `
		UPDATE categorias SET nombre = $2, es_plan = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, cat.ID, cat.Name, cat.IsPlan).Scan(&cat.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// SetActive changes the active flag.
func (r *CategoryRepository) SetActive(ctx context.Context, id int, active bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE categorias SET activo = $2, updated_at = NOW() WHERE id = $1
	`, id, active)
	if err != nil {
		return fmt.Errorf("failed to set category active: %w", err)
	}
	return nil
}

// CountActiveOptions counts active options that reference the category.
func (r *CategoryRepository) CountActiveOptions(ctx context.Context, id int) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM opciones WHERE categoria_id = $1 AND activo
	`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active options for category: %w", err)
	}
	return count, nil
}
