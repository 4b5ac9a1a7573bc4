package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/ordering"
)

const optionSelect = `
	SELECT o.id, o.categoria_id, o.medio_pago_id, o.nombre_display, o.icono, o.precio_sugerido,
	       o.activo, o.orden, o.precio_actualizado_at, o.created_at, o.updated_at,
	       c.nombre, c.sentido, m.nombre
	FROM opciones o
	JOIN categorias c ON c.id = o.categoria_id
	JOIN medios_pago m ON m.id = o.medio_pago_id
`

// orderingLockKey scopes the advisory lock shared by every statement that
// changes option ranks.
const orderingLockKey = "opciones.orden"

// OptionRepository handles option database operations, including the
// contiguous rank ordering shared by all options.
type OptionRepository struct {
	db database.PGXDB
}

// NewOptionRepository creates a new OptionRepository.
func NewOptionRepository(db database.PGXDB) *OptionRepository {
	return &OptionRepository{db: db}
}

func scanOption(row scanner) (models.Option, error) {
	var opt models.Option
	err := row.Scan(
		&opt.ID, &opt.CategoryID, &opt.PaymentMethodID, &opt.DisplayName, &opt.Icon, &opt.SuggestedAmount,
		&opt.Active, &opt.Rank, &opt.PriceUpdatedAt, &opt.CreatedAt, &opt.UpdatedAt,
		&opt.CategoryName, &opt.Direction, &opt.PaymentMethodName,
	)
	return opt, err
}

// List retrieves options in rank order, joined with their category and
// payment method.
func (r *OptionRepository) List(ctx context.Context, onlyActive bool) ([]models.Option, error) {
	rows, err := r.db.Query(ctx, optionSelect+`
		WHERE ($1 = FALSE OR o.activo)
		ORDER BY o.orden
	`, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	return collect(rows, "option", scanOption)
}

// GetByID retrieves an option by ID.
func (r *OptionRepository) GetByID(ctx context.Context, id int) (*models.Option, error) {
	opt, err := scanOption(r.db.QueryRow(ctx, optionSelect+`WHERE o.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get option: %w", err)
	}
	return &opt, nil
}

// GetByIDForUpdate retrieves an option and locks its row.
func (r *OptionRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.Option, error) {
	opt, err := scanOption(r.db.QueryRow(ctx, optionSelect+`WHERE o.id = $1 FOR UPDATE OF o`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock option: %w", err)
	}
	return &opt, nil
}

// DisplayNameExists reports whether another option already uses name
// (case-insensitive). excludeID is ignored when zero.
func (r *OptionRepository) DisplayNameExists(ctx context.Context, name string, excludeID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM opciones WHERE LOWER(nombre_display) = LOWER($1) AND id <> $2)
	`, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check option name: %w", err)
	}
	return exists, nil
}

// PairExists reports whether another option already links the category and
// payment method. excludeID is ignored when zero.
func (r *OptionRepository) PairExists(ctx context.Context, categoryID, paymentMethodID, excludeID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM opciones WHERE categoria_id = $1 AND medio_pago_id = $2 AND id <> $3
		)
	`, categoryID, paymentMethodID, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check option combination: %w", err)
	}
	return exists, nil
}

// LockOrdering serializes rank changes for the rest of the transaction.
// It must run on a pgx.Tx.
func (r *OptionRepository) LockOrdering(ctx context.Context) error {
	return database.AdvisoryXactLock(ctx, r.db, database.LockOptionOrdering, orderingLockKey)
}

// Count returns the number of options in the ordering.
func (r *OptionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM opciones`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count options: %w", err)
	}
	return count, nil
}

// Create appends a new option at the end of the ordering. Callers hold the
// ordering lock.
func (r *OptionRepository) Create(ctx context.Context, opt *models.Option) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO opciones (categoria_id, medio_pago_id, nombre_display, icono, precio_sugerido, precio_actualizado_at, orden)
		SELECT $1::int, $2::int, $3::text, $4::text, $5::numeric, CASE WHEN $5::numeric IS NULL THEN NULL ELSE NOW() END,
		       COALESCE(MAX(orden), 0) + 1
		FROM opciones
		RETURNING id, activo, orden, precio_actualizado_at, created_at, updated_at
	`, opt.CategoryID, opt.PaymentMethodID, opt.DisplayName, opt.Icon, opt.SuggestedAmount,
	).Scan(&opt.ID, &opt.Active, &opt.Rank, &opt.PriceUpdatedAt, &opt.CreatedAt, &opt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create option: %w", err)
	}
	return nil
}

// Update persists the editable fields. priceChanged stamps
// precio_actualizado_at.
func (r *OptionRepository) Update(ctx context.Context, opt *models.Option, priceChanged bool) error {
	err := r.db.QueryRow(ctx, `
		UPDATE opciones SET
			categoria_id = $2,
			medio_pago_id = $3,
			nombre_display = $4,
			icono = $5,
			precio_sugerido = $6,
			precio_actualizado_at = CASE WHEN $7::boolean THEN NOW() ELSE precio_actualizado_at END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING precio_actualizado_at, updated_at
	`, opt.ID, opt.CategoryID, opt.PaymentMethodID, opt.DisplayName, opt.Icon, opt.SuggestedAmount, priceChanged,
	).Scan(&opt.PriceUpdatedAt, &opt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update option: %w", err)
	}
	return nil
}

// SetActive changes the active flag.
func (r *OptionRepository) SetActive(ctx context.Context, id int, active bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE opciones SET activo = $2, updated_at = NOW() WHERE id = $1
	`, id, active)
	if err != nil {
		return fmt.Errorf("failed to set option active: %w", err)
	}
	return nil
}

// Move changes an option's rank, shifting the options in between so ranks
// stay a contiguous 1..N. The target is clamped into range. Callers hold the
// ordering lock inside a transaction.
func (r *OptionRepository) Move(ctx context.Context, id, target int) (ordering.Move, error) {
	var current int
	if err := r.db.QueryRow(ctx, `SELECT orden FROM opciones WHERE id = $1`, id).Scan(&current); err != nil {
		return ordering.Move{}, fmt.Errorf("failed to get option rank: %w", err)
	}

	count, err := r.Count(ctx)
	if err != nil {
		return ordering.Move{}, err
	}

	m := ordering.Plan(current, ordering.Clamp(target, count))
	if m.NoOp() {
		return m, nil
	}

	if _, err := r.db.Exec(ctx, `
		UPDATE opciones SET orden = orden + $3, updated_at = NOW()
		WHERE orden BETWEEN $1 AND $2 AND id <> $4
	`, m.Lo, m.Hi, m.Delta, id); err != nil {
		return ordering.Move{}, fmt.Errorf("failed to shift option ranks: %w", err)
	}

	if _, err := r.db.Exec(ctx, `
		UPDATE opciones SET orden = $2, updated_at = NOW() WHERE id = $1
	`, id, m.Target); err != nil {
		return ordering.Move{}, fmt.Errorf("failed to set option rank: %w", err)
	}

	return m, nil
}

// Delete removes an option and closes the gap in the ordering. Callers hold
// the ordering lock inside a transaction.
func (r *OptionRepository) Delete(ctx context.Context, id int) error {
	var removed int
	err := r.db.QueryRow(ctx, `DELETE FROM opciones WHERE id = $1 RETURNING orden`, id).Scan(&removed)
	if err != nil {
		return fmt.Errorf("failed to delete option: %w", err)
	}

	if _, err := r.db.Exec(ctx, `
		UPDATE opciones SET orden = orden - 1 WHERE orden > $1
	`, removed); err != nil {
		return fmt.Errorf("failed to compact option ranks: %w", err)
	}
	return nil
}

// CountMovements counts movements recorded through the option.
func (r *OptionRepository) CountMovements(ctx context.Context, id int) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM movimientos WHERE opcion_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count option movements: %w", err)
	}
	return count, nil
}

// ListPricedForUpdate selects options with a suggested price and locks them.
// With ids empty it selects every active option; otherwise exactly those ids,
// active or not. Callers that mean "no selection" must not call it.
func (r *OptionRepository) ListPricedForUpdate(ctx context.Context, ids []int) ([]models.Option, error) {
	if ids == nil {
		ids = []int{}
	}
	rows, err := r.db.Query(ctx, optionSelect+`
		WHERE o.precio_sugerido IS NOT NULL
		  AND (CASE WHEN cardinality($1::int[]) = 0 THEN o.activo ELSE o.id = ANY($1::int[]) END)
		ORDER BY o.orden
		FOR UPDATE OF o
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query priced options: %w", err)
	}
	defer rows.Close()

	return collect(rows, "option", scanOption)
}

// UpdatePrice writes a new suggested price and reports whether a row changed.
func (r *OptionRepository) UpdatePrice(ctx context.Context, id int, price decimal.Decimal) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE opciones SET precio_sugerido = $2, precio_actualizado_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id, price)
	if err != nil {
		return false, fmt.Errorf("failed to update option price: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
