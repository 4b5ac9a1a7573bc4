package service

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/logger"
	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/pricing"
	"gitlab.com/yelinaung/caja-gym/internal/repository"
	"gitlab.com/yelinaung/caja-gym/internal/telemetry"
)

// OptionInput holds the fields for a new option. A nil Rank appends at the
// end of the ordering.
type OptionInput struct {
	CategoryID      int
	PaymentMethodID int
	DisplayName     string
	Icon            string
	SuggestedAmount decimal.NullDecimal
	Rank            *int
}

// OptionPatch holds optional option changes. A non-nil SuggestedAmount with
// Valid false clears the price.
type OptionPatch struct {
	CategoryID      *int
	PaymentMethodID *int
	DisplayName     *string
	Icon            *string
	SuggestedAmount *decimal.NullDecimal
}

// PriceAdjustment selects options and the percentage to apply.
type PriceAdjustment struct {
	Percentage decimal.Decimal
	OptionIDs  []int
	RoundTo    *int
}

// PriceChange is one option's old and new suggested price.
type PriceChange struct {
	ID          int             `json:"id"`
	DisplayName string          `json:"nombre_display"`
	OldPrice    decimal.Decimal `json:"precio_anterior"`
	NewPrice    decimal.Decimal `json:"precio_nuevo"`
}

// PriceAdjustmentResult reports a bulk price adjustment. Updated counts rows
// actually written; Details lists every selected option.
type PriceAdjustmentResult struct {
	Updated int           `json:"actualizadas"`
	Details []PriceChange `json:"detalles"`
}

// OptionService manages options, their ordering and their prices.
type OptionService struct {
	db            database.DB
	pricesUpdated metric.Int64Counter
}

// NewOptionService creates a new OptionService.
func NewOptionService(db database.DB) *OptionService {
	return &OptionService{
		db:            db,
		pricesUpdated: telemetry.Counter("caja.option_prices.updated", "Option prices changed by bulk adjustments"),
	}
}

func optionNotFound() error { return apperror.NotFound("opción") }

func validPrice(price decimal.NullDecimal) error {
	if !price.Valid {
		return nil
	}
	if price.Decimal.IsNegative() {
		return apperror.Validation("precio_sugerido no puede ser negativo")
	}
	return checkMoney("precio_sugerido", price.Decimal)
}

// ListOptions returns options in rank order with category and payment method
// names.
func (s *OptionService) ListOptions(ctx context.Context, onlyActive bool) ([]models.Option, error) {
	return repository.NewOptionRepository(s.db).List(ctx, onlyActive)
}

// GetOption returns one option.
func (s *OptionService) GetOption(ctx context.Context, id int) (*models.Option, error) {
	opt, err := repository.NewOptionRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, optionNotFound)
	}
	return opt, nil
}

// CreateOption links an active category and an active payment method. The
// option is appended to the ordering, then moved to Rank when given.
func (s *OptionService) CreateOption(ctx context.Context, in OptionInput) (*models.Option, error) {
	name, err := cleanName("nombre_display", in.DisplayName)
	if err != nil {
		return nil, err
	}
	if err := validPrice(in.SuggestedAmount); err != nil {
		return nil, err
	}
	if err := validRank(in.Rank); err != nil {
		return nil, err
	}

	var created *models.Option
	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := requireActiveCategory(ctx, repository.NewCategoryRepository(tx), in.CategoryID, true); err != nil {
			return err
		}
		if _, err := requireActivePaymentMethod(ctx, repository.NewPaymentMethodRepository(tx), in.PaymentMethodID, true); err != nil {
			return err
		}

		repo := repository.NewOptionRepository(tx)
		if err := checkOptionUniqueness(ctx, repo, in.CategoryID, in.PaymentMethodID, name, 0); err != nil {
			return err
		}

		if err := repo.LockOrdering(ctx); err != nil {
			return err
		}

		opt := &models.Option{
			CategoryID:      in.CategoryID,
			PaymentMethodID: in.PaymentMethodID,
			DisplayName:     name,
			Icon:            strings.TrimSpace(in.Icon),
			SuggestedAmount: in.SuggestedAmount,
		}
		if err := repo.Create(ctx, opt); err != nil {
			return err
		}
		if in.Rank != nil {
			if _, err := repo.Move(ctx, opt.ID, *in.Rank); err != nil {
				return err
			}
		}

		loaded, err := repo.GetByID(ctx, opt.ID)
		if err != nil {
			return err
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, translateConflict(err)
	}

	logger.Log.Info().Int("option_id", created.ID).Int("rank", created.Rank).Msg("Option created")
	return created, nil
}

func checkOptionUniqueness(ctx context.Context, repo *repository.OptionRepository, categoryID, paymentMethodID int, name string, excludeID int) error {
	pairTaken, err := repo.PairExists(ctx, categoryID, paymentMethodID, excludeID)
	if err != nil {
		return err
	}
	if pairTaken {
		return conflict(database.ConstraintOptionPair)
	}

	nameTaken, err := repo.DisplayNameExists(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if nameTaken {
		return conflict(database.IdxOptionsDisplayName)
	}
	return nil
}

// UpdateOption applies patch. Changing the category or payment method
// re-checks that both are active and that the pair is free. A price change
// stamps precio_actualizado_at.
func (s *OptionService) UpdateOption(ctx context.Context, id int, patch OptionPatch) (*models.Option, error) {
	if patch.SuggestedAmount != nil {
		if err := validPrice(*patch.SuggestedAmount); err != nil {
			return nil, err
		}
	}

	var updated *models.Option
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		repo := repository.NewOptionRepository(tx)
		opt, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return orNotFound(err, optionNotFound)
		}

		pairChanged := false
		if patch.CategoryID != nil && *patch.CategoryID != opt.CategoryID {
			if _, err := requireActiveCategory(ctx, repository.NewCategoryRepository(tx), *patch.CategoryID, true); err != nil {
				return err
			}
			opt.CategoryID = *patch.CategoryID
			pairChanged = true
		}
		if patch.PaymentMethodID != nil && *patch.PaymentMethodID != opt.PaymentMethodID {
			if _, err := requireActivePaymentMethod(ctx, repository.NewPaymentMethodRepository(tx), *patch.PaymentMethodID, true); err != nil {
				return err
			}
			opt.PaymentMethodID = *patch.PaymentMethodID
			pairChanged = true
		}
		if pairChanged {
			taken, err := repo.PairExists(ctx, opt.CategoryID, opt.PaymentMethodID, opt.ID)
			if err != nil {
				return err
			}
			if taken {
				return conflict(database.ConstraintOptionPair)
			}
		}

		if patch.DisplayName != nil {
			name, err := cleanName("nombre_display", *patch.DisplayName)
			if err != nil {
				return err
			}
			if !strings.EqualFold(name, opt.DisplayName) {
				taken, err := repo.DisplayNameExists(ctx, name, opt.ID)
				if err != nil {
					return err
				}
				if taken {
					return conflict(database.IdxOptionsDisplayName)
				}
			}
			opt.DisplayName = name
		}
		if patch.Icon != nil {
			opt.Icon = strings.TrimSpace(*patch.Icon)
		}

		priceChanged := false
		if patch.SuggestedAmount != nil {
			priceChanged = !samePrice(opt.SuggestedAmount, *patch.SuggestedAmount)
			opt.SuggestedAmount = *patch.SuggestedAmount
		}

		if err := repo.Update(ctx, opt, priceChanged); err != nil {
			return err
		}

		updated, err = repo.GetByID(ctx, opt.ID)
		return err
	})
	if err != nil {
		return nil, translateConflict(err)
	}
	return updated, nil
}

func samePrice(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

// ToggleOption flips the active flag. Activation requires the category and
// the payment method to be active; deactivation is unconditional.
func (s *OptionService) ToggleOption(ctx context.Context, id int) (*models.Option, error) {
	var toggled *models.Option
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		repo := repository.NewOptionRepository(tx)
		opt, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return orNotFound(err, optionNotFound)
		}

		if !opt.Active {
			if _, err := requireActiveCategory(ctx, repository.NewCategoryRepository(tx), opt.CategoryID, true); err != nil {
				return err
			}
			if _, err := requireActivePaymentMethod(ctx, repository.NewPaymentMethodRepository(tx), opt.PaymentMethodID, true); err != nil {
				return err
			}
		}

		if err := repo.SetActive(ctx, id, !opt.Active); err != nil {
			return err
		}
		opt.Active = !opt.Active
		toggled = opt
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info().Int("option_id", id).Bool("active", toggled.Active).Msg("Option toggled")
	return toggled, nil
}

// DeleteOption removes an option never used by a movement and closes the
// gap it leaves in the ordering.
func (s *OptionService) DeleteOption(ctx context.Context, id int) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		repo := repository.NewOptionRepository(tx)
		if err := repo.LockOrdering(ctx); err != nil {
			return err
		}
		if _, err := repo.GetByIDForUpdate(ctx, id); err != nil {
			return orNotFound(err, optionNotFound)
		}

		count, err := repo.CountMovements(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperror.Newf(apperror.CodeHasMovements, "la opción tiene %d movimientos registrados", count)
		}

		return repo.Delete(ctx, id)
	})
	if database.IsForeignKeyViolation(err) {
		return apperror.Wrap(apperror.CodeHasMovements, "la opción tiene movimientos registrados", err)
	}
	if err != nil {
		return err
	}

	logger.Log.Info().Int("option_id", id).Msg("Option deleted")
	return nil
}

// ReorderOption moves an option to target, shifting the options in between.
// Targets outside 1..N are clamped.
func (s *OptionService) ReorderOption(ctx context.Context, id, target int) (*models.Option, error) {
	var moved *models.Option
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		repo := repository.NewOptionRepository(tx)
		if err := repo.LockOrdering(ctx); err != nil {
			return err
		}

		m, err := repo.Move(ctx, id, target)
		if err != nil {
			return orNotFound(err, optionNotFound)
		}

		logger.Log.Debug().
			Int("option_id", id).
			Int("from", m.Current).
			Int("to", m.Target).
			Msg("Option moved")

		moved, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// ApplyPercentage raises suggested prices by a percentage. Explicit ids are
// intersected with priced options; without ids every active priced option is
// adjusted. All writes commit together.
func (s *OptionService) ApplyPercentage(ctx context.Context, adj PriceAdjustment) (*PriceAdjustmentResult, error) {
	if err := pricing.Validate(adj.Percentage, adj.RoundTo); err != nil {
		return nil, err
	}
	if adj.OptionIDs != nil && len(adj.OptionIDs) == 0 {
		return nil, apperror.Validation("opcion_ids no puede estar vacío; omitirlo aplica a todas las opciones activas")
	}

	ctx, span := telemetry.Tracer().Start(ctx, "OptionService.ApplyPercentage")
	defer span.End()

	result := &PriceAdjustmentResult{Details: []PriceChange{}}
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		repo := repository.NewOptionRepository(tx)
		opts, err := repo.ListPricedForUpdate(ctx, adj.OptionIDs)
		if err != nil {
			return err
		}

		for _, opt := range opts {
			oldPrice := opt.SuggestedAmount.Decimal
			newPrice := pricing.Adjust(oldPrice, adj.Percentage, adj.RoundTo)

			changed, err := repo.UpdatePrice(ctx, opt.ID, newPrice)
			if err != nil {
				return err
			}
			if changed {
				result.Updated++
			}
			result.Details = append(result.Details, PriceChange{
				ID:          opt.ID,
				DisplayName: opt.DisplayName,
				OldPrice:    oldPrice,
				NewPrice:    newPrice,
			})
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("percentage", adj.Percentage.String()),
		attribute.Int("selected", len(result.Details)),
		attribute.Int("updated", result.Updated),
	)
	s.pricesUpdated.Add(ctx, int64(result.Updated))

	logger.Log.Info().
		Str("percentage", adj.Percentage.String()).
		Int("selected", len(result.Details)).
		Int("updated", result.Updated).
		Msg("Bulk price adjustment applied")

	return result, nil
}
