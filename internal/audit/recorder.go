package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/logger"
	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/repository"
)

// Recorder appends audit entries and reads them back.
type Recorder struct {
	db database.DB
}

// NewRecorder creates a Recorder. db may be a pool or a transaction; inside a
// transaction LogChanges runs in a savepoint.
func NewRecorder(db database.DB) *Recorder {
	return &Recorder{db: db}
}

// Entries turns changes into audit rows for one movement and user.
func Entries(movementID, userID int, changes []Change) []models.AuditEntry {
	entries := make([]models.AuditEntry, 0, len(changes))
	for _, c := range changes {
		entries = append(entries, models.AuditEntry{
			MovementID: movementID,
			UserID:     userID,
			Field:      c.Field,
			OldValue:   c.Old,
			NewValue:   c.New,
		})
	}
	return entries
}

// LogChange appends a single entry.
func (r *Recorder) LogChange(ctx context.Context, movementID, userID int, field, oldValue, newValue string) (*models.AuditEntry, error) {
	e := &models.AuditEntry{
		MovementID: movementID,
		UserID:     userID,
		Field:      field,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if err := repository.NewAuditRepository(r.db).Insert(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// LogChanges appends all entries or none.
func (r *Recorder) LogChanges(ctx context.Context, entries []models.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		repo := repository.NewAuditRepository(tx)
		for i := range entries {
			if err := repo.Insert(ctx, &entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to log audit changes: %w", err)
	}

	logger.Log.Debug().
		Int("movement_id", entries[0].MovementID).
		Str("user_hash", logger.HashUserID(entries[0].UserID)).
		Int("fields", len(entries)).
		Msg("Audit entries recorded")

	return nil
}

// GetByMovement returns a movement's entries, newest first.
func (r *Recorder) GetByMovement(ctx context.Context, movementID int) ([]models.AuditEntry, error) {
	return repository.NewAuditRepository(r.db).GetByMovement(ctx, movementID)
}

// GetByMovementEnriched is GetByMovement with the acting user's name.
func (r *Recorder) GetByMovementEnriched(ctx context.Context, movementID int) ([]models.AuditEntry, error) {
	return repository.NewAuditRepository(r.db).GetByMovementWithUser(ctx, movementID)
}

// Search returns entries matching f, newest first, with user names.
func (r *Recorder) Search(ctx context.Context, f repository.AuditFilter) ([]models.AuditEntry, error) {
	return repository.NewAuditRepository(r.db).Search(ctx, f)
}
