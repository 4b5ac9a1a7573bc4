package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/logger"
	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/repository"
)

// CategoryInput holds the fields for a new category.
type CategoryInput struct {
	Name      string
	Direction models.Direction
	IsPlan    bool
}

// CategoryPatch holds optional category changes. Direction is accepted only
// when it equals the stored value.
type CategoryPatch struct {
	Name      *string
	IsPlan    *bool
	Direction *models.Direction
}

// PaymentMethodInput holds the fields for a new payment method. A nil Rank
// appends at the end.
type PaymentMethodInput struct {
	Name string
	Rank *int
}

// PaymentMethodPatch holds optional payment method changes.
type PaymentMethodPatch struct {
	Name *string
	Rank *int
}

// CatalogService manages categories and payment methods.
type CatalogService struct {
	db database.DB
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(db database.DB) *CatalogService {
	return &CatalogService{db: db}
}

func categoryNotFound() error { return apperror.NotFound("categoría") }

func paymentMethodNotFound() error { return apperror.NotFound("medio de pago") }

// ListCategories returns categories ordered by name.
func (s *CatalogService) ListCategories(ctx context.Context, onlyActive bool) ([]models.Category, error) {
	return repository.NewCategoryRepository(s.db).List(ctx, onlyActive)
}

// GetCategory returns one category.
func (s *CatalogService) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	cat, err := repository.NewCategoryRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, categoryNotFound)
	}
	return cat, nil
}

// CreateCategory adds a category. Names are unique case-insensitively across
// active and inactive categories.
func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name, err := cleanName("nombre", in.Name)
	if err != nil {
		return nil, err
	}
	if !in.Direction.Valid() {
		return nil, apperror.Validation("sentido debe ser %q o %q", models.DirectionIncome, models.DirectionExpense)
	}

	repo := repository.NewCategoryRepository(s.db)
	exists, err := repo.NameExists(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict(database.IdxCategoriesName)
	}

	cat := &models.Category{Name: name, Direction: in.Direction, IsPlan: in.IsPlan}
	if err := repo.Create(ctx, cat); err != nil {
		return nil, translateConflict(err)
	}

	logger.Log.Info().Int("category_id", cat.ID).Str("direction", string(cat.Direction)).Msg("Category created")
	return cat, nil
}

// UpdateCategory applies patch. The name uniqueness check only runs when the
// name actually changes.
func (s *CatalogService) UpdateCategory(ctx context.Context, id int, patch CategoryPatch) (*models.Category, error) {
	var updated *models.Category
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		repo := repository.NewCategoryRepository(tx)
		cat, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return orNotFound(err, categoryNotFound)
		}

		if patch.Direction != nil && *patch.Direction != cat.Direction {
			return apperror.Validation("el sentido de una categoría no se puede modificar")
		}

		if patch.Name != nil {
			name, err := cleanName("nombre", *patch.Name)
			if err != nil {
				return err
			}
			if !strings.EqualFold(name, cat.Name) {
				exists, err := repo.NameExists(ctx, name, cat.ID)
				if err != nil {
					return err
				}
				if exists {
					return conflict(database.IdxCategoriesName)
				}
			}
			cat.Name = name
		}
		if patch.IsPlan != nil {
			cat.IsPlan = *patch.IsPlan
		}

		if err := repo.Update(ctx, cat); err != nil {
			return err
		}
		updated = cat
		return nil
	})
	if err != nil {
		return nil, translateConflict(err)
	}
	return updated, nil
}

// ToggleCategory flips the active flag. Deactivation is refused while an
// active option references the category.
func (s *CatalogService) ToggleCategory(ctx context.Context, id int) (*models.Category, error) {
	var toggled *models.Category
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		repo := repository.NewCategoryRepository(tx)
		cat, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return orNotFound(err, categoryNotFound)
		}

		if cat.Active {
			count, err := repo.CountActiveOptions(ctx, id)
			if err != nil {
				return err
			}
			if count > 0 {
				return apperror.Newf(apperror.CodeHasActiveOptions,
					"la categoría tiene %d opciones activas", count)
			}
		}

		if err := repo.SetActive(ctx, id, !cat.Active); err != nil {
			return err
		}
		cat.Active = !cat.Active
		toggled = cat
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info().Int("category_id", id).Bool("active", toggled.Active).Msg("Category toggled")
	return toggled, nil
}

// ListPaymentMethods returns payment methods in display order.
func (s *CatalogService) ListPaymentMethods(ctx context.Context, onlyActive bool) ([]models.PaymentMethod, error) {
	return repository.NewPaymentMethodRepository(s.db).List(ctx, onlyActive)
}

// GetPaymentMethod returns one payment method.
func (s *CatalogService) GetPaymentMethod(ctx context.Context, id int) (*models.PaymentMethod, error) {
	pm, err := repository.NewPaymentMethodRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, paymentMethodNotFound)
	}
	return pm, nil
}

func validRank(rank *int) error {
	if rank != nil && *rank < 1 {
		return apperror.Validation("orden debe ser mayor o igual a 1")
	}
	return nil
}

// CreatePaymentMethod adds a payment method, appended at max+1 unless a rank
// is given.
func (s *CatalogService) CreatePaymentMethod(ctx context.Context, in PaymentMethodInput) (*models.PaymentMethod, error) {
	name, err := cleanName("nombre", in.Name)
	if err != nil {
		return nil, err
	}
	if err := validRank(in.Rank); err != nil {
		return nil, err
	}

	repo := repository.NewPaymentMethodRepository(s.db)
	exists, err := repo.NameExists(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict(database.IdxPaymentMethodsName)
	}

	pm := &models.PaymentMethod{Name: name}
	if in.Rank != nil {
		pm.Rank = *in.Rank
	}
	if err := repo.Create(ctx, pm); err != nil {
		return nil, translateConflict(err)
	}

	logger.Log.Info().Int("payment_method_id", pm.ID).Int("rank", pm.Rank).Msg("Payment method created")
	return pm, nil
}

// UpdatePaymentMethod applies patch.
func (s *CatalogService) UpdatePaymentMethod(ctx context.Context, id int, patch PaymentMethodPatch) (*models.PaymentMethod, error) {
	if err := validRank(patch.Rank); err != nil {
		return nil, err
	}

	var updated *models.PaymentMethod
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		repo := repository.NewPaymentMethodRepository(tx)
		pm, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return orNotFound(err, paymentMethodNotFound)
		}

		if patch.Name != nil {
			name, err := cleanName("nombre", *patch.Name)
			if err != nil {
				return err
			}
			if !strings.EqualFold(name, pm.Name) {
				exists, err := repo.NameExists(ctx, name, pm.ID)
				if err != nil {
					return err
				}
				if exists {
					return conflict(database.IdxPaymentMethodsName)
				}
			}
			pm.Name = name
		}
		if patch.Rank != nil {
			pm.Rank = *patch.Rank
		}

		if err := repo.Update(ctx, pm); err != nil {
			return err
		}
		updated = pm
		return nil
	})
	if err != nil {
		return nil, translateConflict(err)
	}
	return updated, nil
}

// TogglePaymentMethod flips the active flag. Deactivation is refused while an
// active option references the payment method.
func (s *CatalogService) TogglePaymentMethod(ctx context.Context, id int) (*models.PaymentMethod, error) {
	var toggled *models.PaymentMethod
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		repo := repository.NewPaymentMethodRepository(tx)
		pm, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return orNotFound(err, paymentMethodNotFound)
		}

		if pm.Active {
			count, err := repo.CountActiveOptions(ctx, id)
			if err != nil {
				return err
			}
			if count > 0 {
				return apperror.Newf(apperror.CodeHasActiveOptions,
					"el medio de pago tiene %d opciones activas", count)
			}
		}

		if err := repo.SetActive(ctx, id, !pm.Active); err != nil {
			return err
		}
		pm.Active = !pm.Active
		toggled = pm
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info().Int("payment_method_id", id).Bool("active", toggled.Active).Msg("Payment method toggled")
	return toggled, nil
}

// requireActiveCategory loads a referenced category, failing with the
// category-specific codes.
func requireActiveCategory(ctx context.Context, repo *repository.CategoryRepository, id int, lock bool) (*models.Category, error) {
	get := repo.GetByID
	if lock {
		get = repo.GetByIDForUpdate
	}
	cat, err := get(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.Newf(apperror.CodeCategoryNotFound, "categoría %d no encontrada", id)
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	if !cat.Active {
		return nil, apperror.Newf(apperror.CodeCategoryInactive, "la categoría %q está inactiva", cat.Name)
	}
	return cat, nil
}

// requireActivePaymentMethod loads a referenced payment method, failing with
// the payment-method-specific codes.
func requireActivePaymentMethod(ctx context.Context, repo *repository.PaymentMethodRepository, id int, lock bool) (*models.PaymentMethod, error) {
	get := repo.GetByID
	if lock {
		get = repo.GetByIDForUpdate
	}
	pm, err := get(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.Newf(apperror.CodePaymentMethodNotFound, "medio de pago %d no encontrado", id)
		}
		return nil, fmt.Errorf("failed to load payment method: %w", err)
	}
	if !pm.Active {
		return nil, apperror.Newf(apperror.CodePaymentMethodInactive, "el medio de pago %q está inactivo", pm.Name)
	}
	return pm, nil
}
