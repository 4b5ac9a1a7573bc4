package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

const movementSelect = `
	SELECT mv.id, mv.fecha, mv.categoria_id, mv.sentido, mv.monto, mv.medio_pago_id, mv.opcion_id,
	       mv.nombre_cliente, mv.nota, mv.usuario_id, mv.created_at, mv.updated_at,
	       c.nombre, m.nombre, u.nombre
	FROM movimientos mv
	JOIN categorias c ON c.id = mv.categoria_id
	JOIN medios_pago m ON m.id = mv.medio_pago_id
	JOIN usuarios u ON u.id = mv.usuario_id
`

// DefaultMovementLimit caps list queries that do not set a limit.
const DefaultMovementLimit = 200

// MovementFilter narrows movement listings. Zero fields are ignored.
type MovementFilter struct {
	Date            *time.Time
	From            *time.Time
	To              *time.Time
	CategoryID      int
	PaymentMethodID int
	Direction       models.Direction
	UserID          int
	Limit           int
}

// DuplicateKey identifies movements that are probably the same entry typed twice.
type DuplicateKey struct {
	CategoryID      int
	PaymentMethodID int
	Amount          decimal.Decimal
	Date            time.Time
	ClientName      string
}

// NormalizeClientName is the client-name form compared by duplicate detection.
func NormalizeClientName(name *string) string {
	if name == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*name))
}

// LockKey is the advisory lock key serializing duplicate checks for k.
func (k DuplicateKey) LockKey() string {
	return fmt.Sprintf("%d|%d|%s|%s|%s",
		k.CategoryID, k.PaymentMethodID, k.Amount.String(), k.Date.Format(models.DateLayout), k.ClientName)
}

// MovementRepository handles movement database operations.
type MovementRepository struct {
	db database.PGXDB
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(db database.PGXDB) *MovementRepository {
	return &MovementRepository{db: db}
}

func scanMovement(row scanner) (models.Movement, error) {
	var mv models.Movement
	err := row.Scan(
		&mv.ID, &mv.Date, &mv.CategoryID, &mv.Direction, &mv.Amount, &mv.PaymentMethodID, &mv.OptionID,
		&mv.ClientName, &mv.Note, &mv.UserID, &mv.CreatedAt, &mv.UpdatedAt,
		&mv.CategoryName, &mv.PaymentMethodName, &mv.UserName,
	)
	return mv, err
}

// Create inserts a movement.
func (r *MovementRepository) Create(ctx context.Context, mv *models.Movement) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO movimientos (fecha, categoria_id, sentido, monto, medio_pago_id, opcion_id, nombre_cliente, nota, usuario_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, mv.Date, mv.CategoryID, mv.Direction, mv.Amount, mv.PaymentMethodID, mv.OptionID,
		mv.ClientName, mv.Note, mv.UserID,
	).Scan(&mv.ID, &mv.CreatedAt, &mv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create movement: %w", err)
	}
	return nil
}

// GetByID retrieves a movement by ID, joined with display names.
func (r *MovementRepository) GetByID(ctx context.Context, id int) (*models.Movement, error) {
	mv, err := scanMovement(r.db.QueryRow(ctx, movementSelect+`WHERE mv.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get movement: %w", err)
	}
	return &mv, nil
}

// GetByIDForUpdate retrieves a movement and locks its row.
func (r *MovementRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.Movement, error) {
	mv, err := scanMovement(r.db.QueryRow(ctx, movementSelect+`WHERE mv.id = $1 FOR UPDATE OF mv`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock movement: %w", err)
	}
	return &mv, nil
}

// FindDuplicate returns the id of the oldest movement matching key.
func (r *MovementRepository) FindDuplicate(ctx context.Context, key DuplicateKey) (int, bool, error) {
	var id int
	err := r.db.QueryRow(ctx, `
		SELECT id FROM movimientos
		WHERE categoria_id = $1
		  AND medio_pago_id = $2
		  AND monto = $3
		  AND fecha = $4
		  AND LOWER(TRIM(COALESCE(nombre_cliente, ''))) = $5
		ORDER BY id
		LIMIT 1
	`, key.CategoryID, key.PaymentMethodID, key.Amount, key.Date, key.ClientName).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to check duplicate movement: %w", err)
	}
	return id, true, nil
}

// Update persists the patchable fields of a movement.
func (r *MovementRepository) Update(ctx context.Context, mv *models.Movement) error {
	err := r.db.QueryRow(ctx, `
		UPDATE movimientos SET
			fecha = $2,
			monto = $3,
			medio_pago_id = $4,
			nombre_cliente = $5,
			nota = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, mv.ID, mv.Date, mv.Amount, mv.PaymentMethodID, mv.ClientName, mv.Note).Scan(&mv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update movement: %w", err)
	}
	return nil
}

// List retrieves movements newest first.
func (r *MovementRepository) List(ctx context.Context, f MovementFilter) ([]models.Movement, error) {
	var w whereBuilder
	if f.Date != nil {
		w.add("mv.fecha = $%d", *f.Date)
	}
	if f.From != nil {
		w.add("mv.fecha >= $%d", *f.From)
	}
	if f.To != nil {
		w.add("mv.fecha <= $%d", *f.To)
	}
	if f.CategoryID != 0 {
		w.add("mv.categoria_id = $%d", f.CategoryID)
	}
	if f.PaymentMethodID != 0 {
		w.add("mv.medio_pago_id = $%d", f.PaymentMethodID)
	}
	if f.Direction != "" {
		w.add("mv.sentido = $%d", f.Direction)
	}
	if f.UserID != 0 {
		w.add("mv.usuario_id = $%d", f.UserID)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultMovementLimit
	}

	query := movementSelect + w.String() + `
		ORDER BY mv.fecha DESC, mv.id DESC
		LIMIT ` + w.arg(limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	return collect(rows, "movement", scanMovement)
}

// Count returns the number of stored movements.
func (r *MovementRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM movimientos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count movements: %w", err)
	}
	return count, nil
}

// TotalsByCategory sums movements per category for dates in [from, to].
func (r *MovementRepository) TotalsByCategory(ctx context.Context, from, to time.Time) ([]models.CategoryTotal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.nombre, mv.sentido, SUM(mv.monto), COUNT(*)
		FROM movimientos mv
		JOIN categorias c ON c.id = mv.categoria_id
		WHERE mv.fecha >= $1 AND mv.fecha <= $2
		GROUP BY c.id, c.nombre, mv.sentido
		ORDER BY mv.sentido, SUM(mv.monto) DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals by category: %w", err)
	}
	defer rows.Close()

	return collect(rows, "category total", func(row scanner) (models.CategoryTotal, error) {
		var t models.CategoryTotal
		err := row.Scan(&t.CategoryID, &t.CategoryName, &t.Direction, &t.Total, &t.Count)
		return t, err
	})
}
