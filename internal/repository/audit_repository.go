package repository

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

// DefaultAuditLimit caps audit searches that do not set a limit.
const DefaultAuditLimit = 500

// AuditFilter narrows audit searches. Zero fields are ignored. To is
// exclusive.
type AuditFilter struct {
	MovementID int
	UserID     int
	From       *time.Time
	To         *time.Time
	Limit      int
}

// AuditRepository appends and reads movement audit entries. It never
// updates or deletes rows.
type AuditRepository struct {
	db database.PGXDB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db database.PGXDB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert appends one entry.
func (r *AuditRepository) Insert(ctx context.Context, e *models.AuditEntry) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO auditoria_movimientos (movimiento_id, usuario_id, campo, valor_anterior, valor_nuevo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, e.MovementID, e.UserID, e.Field, e.OldValue, e.NewValue).Scan(&e.ID, &e.ChangedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// GetByMovement returns the entries of one movement, newest first.
func (r *AuditRepository) GetByMovement(ctx context.Context, movementID int) ([]models.AuditEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, movimiento_id, usuario_id, campo, valor_anterior, valor_nuevo, created_at
		FROM auditoria_movimientos
		WHERE movimiento_id = $1
		ORDER BY created_at DESC, id DESC
	`, movementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	return collect(rows, "audit entry", func(row scanner) (models.AuditEntry, error) {
		var e models.AuditEntry
		err := row.Scan(&e.ID, &e.MovementID, &e.UserID, &e.Field, &e.OldValue, &e.NewValue, &e.ChangedAt)
		return e, err
	})
}

// GetByMovementWithUser is GetByMovement with the acting user's name joined.
func (r *AuditRepository) GetByMovementWithUser(ctx context.Context, movementID int) ([]models.AuditEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.movimiento_id, a.usuario_id, a.campo, a.valor_anterior, a.valor_nuevo, a.created_at, u.nombre
		FROM auditoria_movimientos a
		JOIN usuarios u ON u.id = a.usuario_id
		WHERE a.movimiento_id = $1
		ORDER BY a.created_at DESC, a.id DESC
	`, movementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	return collect(rows, "audit entry", scanEnrichedAudit)
}

func scanEnrichedAudit(row scanner) (models.AuditEntry, error) {
	var e models.AuditEntry
	err := row.Scan(&e.ID, &e.MovementID, &e.UserID, &e.Field, &e.OldValue, &e.NewValue, &e.ChangedAt, &e.UserName)
	return e, err
}

// Search returns entries matching f with the acting user's name, newest first.
func (r *AuditRepository) Search(ctx context.Context, f AuditFilter) ([]models.AuditEntry, error) {
	var w whereBuilder
	if f.MovementID != 0 {
		w.add("a.movimiento_id = $%d", f.MovementID)
	}
	if f.UserID != 0 {
		w.add("a.usuario_id = $%d", f.UserID)
	}
	if f.From != nil {
		w.add("a.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		w.add("a.created_at < $%d", *f.To)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}

	query := `
		SELECT a.id, a.movimiento_id, a.usuario_id, a.campo, a.valor_anterior, a.valor_nuevo, a.created_at, u.nombre
		FROM auditoria_movimientos a
		JOIN usuarios u ON u.id = a.usuario_id
		` + w.String() + `
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ` + w.arg(limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit entries: %w", err)
	}
	defer rows.Close()

	return collect(rows, "audit entry", scanEnrichedAudit)
}
