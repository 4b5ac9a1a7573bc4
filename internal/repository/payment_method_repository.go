package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

const paymentMethodColumns = `id, nombre, activo, orden, created_at, updated_at`

// PaymentMethodRepository handles payment method database operations.
type PaymentMethodRepository struct {
	db database.PGXDB
}

// NewPaymentMethodRepository creates a new PaymentMethodRepository.
func NewPaymentMethodRepository(db database.PGXDB) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

func scanPaymentMethod(row scanner) (models.PaymentMethod, error) {
	var pm models.PaymentMethod
	err := row.Scan(&pm.ID, &pm.Name, &pm.Active, &pm.Rank, &pm.CreatedAt, &pm.UpdatedAt)
	return pm, err
}

// List retrieves payment methods in display order.
func (r *PaymentMethodRepository) List(ctx context.Context, onlyActive bool) ([]models.PaymentMethod, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentMethodColumns+` FROM medios_pago
		WHERE ($1 = FALSE OR activo)
		ORDER BY orden, id
	`, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment methods: %w", err)
	}
	defer rows.Close()

	return collect(rows, "payment method", scanPaymentMethod)
}

// GetByID retrieves a payment method by ID.
func (r *PaymentMethodRepository) GetByID(ctx context.Context, id int) (*models.PaymentMethod, error) {
	pm, err := scanPaymentMethod(r.db.QueryRow(ctx, `
		SELECT `+paymentMethodColumns+` FROM medios_pago WHERE id = $1
	`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}
	return &pm, nil
}

// GetByIDForUpdate retrieves a payment method and locks its row.
func (r *PaymentMethodRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.PaymentMethod, error) {
	pm, err := scanPaymentMethod(r.db.QueryRow(ctx, `
		SELECT `+paymentMethodColumns+` FROM medios_pago WHERE id = $1 FOR UPDATE
	`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock payment method: %w", err)
	}
	return &pm, nil
}

// NameExists reports whether another payment method already uses name
// (case-insensitive). excludeID is ignored when zero.
func (r *PaymentMethodRepository) NameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM medios_pago WHERE LOWER(nombre) = LOWER($1) AND id <> $2)
	`, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check payment method name: %w", err)
	}
	return exists, nil
}

// Create adds a new payment method. A zero Rank is assigned max+1.
func (r *PaymentMethodRepository) Create(ctx context.Context, pm *models.PaymentMethod) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO medios_pago (nombre, orden)
		SELECT $1::text, COALESCE(NULLIF($2::int, 0), COALESCE(MAX(orden), 0) + 1) FROM medios_pago
		RETURNING id, activo, orden, created_at, updated_at
	`, pm.Name, pm.Rank).Scan(&pm.ID, &pm.Active, &pm.Rank, &pm.CreatedAt, &pm.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment method: %w", err)
	}
	return nil
}

// Update persists name and rank.
func (r *PaymentMethodRepository) Update(ctx context.Context, pm *models.PaymentMethod) error {
	err := r.db.QueryRow(ctx, `
		UPDATE medios_pago SET nombre = $2, orden = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, pm.ID, pm.Name, pm.Rank).Scan(&pm.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update payment method: %w", err)
	}
	return nil
}

// SetActive changes the active flag.
func (r *PaymentMethodRepository) SetActive(ctx context.Context, id int, active bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE medios_pago SET activo = $2, updated_at = NOW() WHERE id = $1
	`, id, active)
	if err != nil {
		return fmt.Errorf("failed to set payment method active: %w", err)
	}
	return nil
}

// CountActiveOptions counts active options that reference the payment method.
func (r *PaymentMethodRepository) CountActiveOptions(ctx context.Context, id int) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM opciones WHERE medio_pago_id = $1 AND activo
	`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active options for payment method: %w", err)
	}
	return count, nil
}
