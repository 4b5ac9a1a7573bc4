package service

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
	"gitlab.com/yelinaung/caja-gym/internal/audit"
	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/logger"
	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/repository"
	"gitlab.com/yelinaung/caja-gym/internal/telemetry"
)

// MovementInput holds the fields for a new movement. Either OptionID or both
// CategoryID and PaymentMethodID must be set. With an option, PaymentMethodID
// overrides the option's payment method.
type MovementInput struct {
	Date            time.Time
	OptionID        *int
	CategoryID      *int
	PaymentMethodID *int
	Amount          decimal.Decimal
	ClientName      *string
	Note            *string
}

// MovementPatch holds optional movement changes. For ClientName and Note a
// blank string clears the value.
type MovementPatch struct {
	Date            *time.Time
	Amount          *decimal.Decimal
	PaymentMethodID *int
	ClientName      *string
	Note            *string
}

// touched lists the audited fields present in the patch.
func (p MovementPatch) touched() map[string]bool {
	t := map[string]bool{}
	if p.Date != nil {
		t[FieldDate] = true
	}
	if p.Amount != nil {
		t[FieldAmount] = true
	}
	if p.PaymentMethodID != nil {
		t[FieldPaymentMethod] = true
	}
	if p.ClientName != nil {
		t[FieldClientName] = true
	}
	if p.Note != nil {
		t[FieldNote] = true
	}
	return t
}

// Audited movement field names.
const (
	FieldDate          = "fecha"
	FieldAmount        = "monto"
	FieldPaymentMethod = "medio_pago_id"
	FieldClientName    = "nombre_cliente"
	FieldNote          = "nota"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// MovementFields is the audited field list of a movement, in log order.
var MovementFields = []audit.Field[models.Movement]{
	{Name: FieldDate, Value: func(m models.Movement) string { return m.Date.Format(models.DateLayout) }},
	{Name: FieldAmount, Value: func(m models.Movement) string { return m.Amount.String() }},
	{Name: FieldPaymentMethod, Value: func(m models.Movement) string { return strconv.Itoa(m.PaymentMethodID) }},
	{Name: FieldClientName, Value: func(m models.Movement) string { return deref(m.ClientName) }},
	{Name: FieldNote, Value: func(m models.Movement) string { return deref(m.Note) }},
}

// CreateResult is the outcome of MovementService.Create: either Created or
// NeedsConfirmation.
type CreateResult interface {
	isCreateResult()
}

// Created carries the inserted movement.
type Created struct {
	Movement *models.Movement
}

// NeedsConfirmation means a probable duplicate exists and nothing was
// inserted. Resubmitting with confirmation forces the insert.
type NeedsConfirmation struct {
	ConflictID int
}

func (Created) isCreateResult()           {}
func (NeedsConfirmation) isCreateResult() {}

// MovementService records and edits cash movements.
type MovementService struct {
	db     database.DB
	policy EditPolicy
	now    func() time.Time

	created    metric.Int64Counter
	duplicates metric.Int64Counter
	edits      metric.Int64Counter
}

// NewMovementService creates a new MovementService. A nil policy uses
// WindowPolicy with DefaultEditWindow.
func NewMovementService(db database.DB, policy EditPolicy) *MovementService {
	if policy == nil {
		policy = WindowPolicy{Window: DefaultEditWindow}
	}
	return &MovementService{
		db:         db,
		policy:     policy,
		now:        time.Now,
		created:    telemetry.Counter("caja.movements.created", "Movements inserted"),
		duplicates: telemetry.Counter("caja.movements.duplicates_flagged", "Creates held back for duplicate confirmation"),
		edits:      telemetry.Counter("caja.movements.updated", "Movement updates"),
	}
}

func movementNotFound() error { return apperror.NotFound("movimiento") }

// Create validates references, checks for a probable duplicate and inserts
// the movement. With confirmDuplicate false and a duplicate on record it
// returns NeedsConfirmation without inserting.
func (s *MovementService) Create(ctx context.Context, in MovementInput, actingUserID int, confirmDuplicate bool) (CreateResult, error) {
	if err := validAmount(in.Amount); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, apperror.Validation("fecha es requerida")
	}

	ctx, span := telemetry.Tracer().Start(ctx, "MovementService.Create")
	defer span.End()
	span.SetAttributes(attribute.Bool("confirm_duplicate", confirmDuplicate))

	var result CreateResult
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		categoryID, paymentMethodID, optionID, err := s.resolveReferences(ctx, tx, in)
		if err != nil {
			return err
		}

		cat, err := requireActiveCategory(ctx, repository.NewCategoryRepository(tx), categoryID, false)
		if err != nil {
			return err
		}
		if _, err := requireActivePaymentMethod(ctx, repository.NewPaymentMethodRepository(tx), paymentMethodID, false); err != nil {
			return err
		}

		mv := &models.Movement{
			Date:            in.Date,
			CategoryID:      cat.ID,
			Direction:       cat.Direction,
			Amount:          in.Amount,
			PaymentMethodID: paymentMethodID,
			OptionID:        optionID,
			ClientName:      cleanOptional(in.ClientName),
			Note:            cleanOptional(in.Note),
			UserID:          actingUserID,
		}

		key := repository.DuplicateKey{
			CategoryID:      mv.CategoryID,
			PaymentMethodID: mv.PaymentMethodID,
			Amount:          mv.Amount,
			Date:            mv.Date,
			ClientName:      repository.NormalizeClientName(mv.ClientName),
		}
		if err := database.AdvisoryXactLock(ctx, tx, database.LockMovementDuplicate, key.LockKey()); err != nil {
			return err
		}

		repo := repository.NewMovementRepository(tx)
		if !confirmDuplicate {
			conflictID, found, err := repo.FindDuplicate(ctx, key)
			if err != nil {
				return err
			}
			if found {
				result = NeedsConfirmation{ConflictID: conflictID}
				return nil
			}
		}

		if err := repo.Create(ctx, mv); err != nil {
			return err
		}
		loaded, err := repo.GetByID(ctx, mv.ID)
		if err != nil {
			return err
		}
		result = Created{Movement: loaded}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	switch r := result.(type) {
	case Created:
		s.created.Add(ctx, 1, metric.WithAttributes(attribute.String("sentido", string(r.Movement.Direction))))
		logger.Log.Info().
			Int("movement_id", r.Movement.ID).
			Str("user_hash", logger.HashUserID(actingUserID)).
			Str("amount", r.Movement.Amount.String()).
			Str("client", logger.SanitizePtr(r.Movement.ClientName)).
			Bool("confirmed_duplicate", confirmDuplicate).
			Msg("Movement created")
	case NeedsConfirmation:
		s.duplicates.Add(ctx, 1)
		logger.Log.Info().
			Int("conflict_id", r.ConflictID).
			Str("user_hash", logger.HashUserID(actingUserID)).
			Msg("Probable duplicate movement, confirmation required")
	}

	return result, nil
}

// resolveReferences picks the category, payment method and option for a new
// movement.
func (s *MovementService) resolveReferences(ctx context.Context, tx pgx.Tx, in MovementInput) (categoryID, paymentMethodID int, optionID *int, err error) {
	if in.OptionID == nil {
		if in.CategoryID == nil || in.PaymentMethodID == nil {
			return 0, 0, nil, apperror.Validation("se requiere opcion_id o categoria_id y medio_pago_id")
		}
		return *in.CategoryID, *in.PaymentMethodID, nil, nil
	}

	opt, err := repository.NewOptionRepository(tx).GetByID(ctx, *in.OptionID)
	if err != nil {
		if isNoRows(err) {
			return 0, 0, nil, apperror.Newf(apperror.CodeOptionNotFound, "opción %d no encontrada", *in.OptionID)
		}
		return 0, 0, nil, err
	}
	if !opt.Active {
		return 0, 0, nil, apperror.Newf(apperror.CodeOptionInactive, "la opción %q está inactiva", opt.DisplayName)
	}
	if in.CategoryID != nil && *in.CategoryID != opt.CategoryID {
		return 0, 0, nil, apperror.Validation("categoria_id no coincide con la opción")
	}

	paymentMethodID = opt.PaymentMethodID
	if in.PaymentMethodID != nil {
		paymentMethodID = *in.PaymentMethodID
	}
	id := opt.ID
	return opt.CategoryID, paymentMethodID, &id, nil
}

// Update applies patch and appends one audit entry per field present in the
// patch, all in one transaction. The category is not patchable.
func (s *MovementService) Update(ctx context.Context, id int, patch MovementPatch, actingUserID int) (*models.Movement, error) {
	if patch.Amount != nil {
		if err := validAmount(*patch.Amount); err != nil {
			return nil, err
		}
	}
	if patch.Date != nil && patch.Date.IsZero() {
		return nil, apperror.Validation("fecha inválida")
	}

	touched := patch.touched()

	ctx, span := telemetry.Tracer().Start(ctx, "MovementService.Update")
	defer span.End()
	span.SetAttributes(attribute.Int("movement_id", id), attribute.Int("fields", len(touched)))

	var updated *models.Movement
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		repo := repository.NewMovementRepository(tx)
		before, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return orNotFound(err, movementNotFound)
		}
		if len(touched) == 0 {
			updated = before
			return nil
		}

		after := *before
		if patch.Date != nil {
			after.Date = *patch.Date
		}
		if patch.Amount != nil {
			after.Amount = *patch.Amount
		}
		if patch.PaymentMethodID != nil {
			if *patch.PaymentMethodID != before.PaymentMethodID {
				if _, err := requireActivePaymentMethod(ctx, repository.NewPaymentMethodRepository(tx), *patch.PaymentMethodID, false); err != nil {
					return err
				}
			}
			after.PaymentMethodID = *patch.PaymentMethodID
		}
		if patch.ClientName != nil {
			after.ClientName = cleanOptional(patch.ClientName)
		}
		if patch.Note != nil {
			after.Note = cleanOptional(patch.Note)
		}

		if err := repo.Update(ctx, &after); err != nil {
			return err
		}

		changes := audit.Diff(MovementFields, *before, after, touched)
		if err := audit.NewRecorder(tx).LogChanges(ctx, audit.Entries(id, actingUserID, changes)); err != nil {
			return err
		}

		updated, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if len(touched) > 0 {
		s.edits.Add(ctx, 1)
		logger.Log.Info().
			Int("movement_id", id).
			Str("user_hash", logger.HashUserID(actingUserID)).
			Int("fields", len(touched)).
			Msg("Movement updated")
	}
	return updated, nil
}

// Get returns one movement.
func (s *MovementService) Get(ctx context.Context, id int) (*models.Movement, error) {
	mv, err := repository.NewMovementRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, movementNotFound)
	}
	return mv, nil
}

// List returns movements newest first.
func (s *MovementService) List(ctx context.Context, f repository.MovementFilter) ([]models.Movement, error) {
	if f.Direction != "" && !f.Direction.Valid() {
		return nil, apperror.Validation("sentido inválido")
	}
	return repository.NewMovementRepository(s.db).List(ctx, f)
}

// CanEdit reports whether user may edit the movement right now.
func (s *MovementService) CanEdit(ctx context.Context, id int, user *models.User) (bool, error) {
	mv, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return s.policy.CanEdit(mv, user, s.now()), nil
}

// History returns the movement's audit trail, newest first, with user names.
func (s *MovementService) History(ctx context.Context, id int) ([]models.AuditEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return audit.NewRecorder(s.db).GetByMovementEnriched(ctx, id)
}
