package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

func TestCatalogService_Categories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("validates input", func(t *testing.T) {
		_, err := f.catalog.CreateCategory(ctx, CategoryInput{Name: "  ", Direction: models.DirectionIncome})
		require.True(t, apperror.HasCode(err, apperror.CodeValidation))

		_, err = f.catalog.CreateCategory(ctx, CategoryInput{Name: "Cuota", Direction: "otro"})
		require.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("rejects duplicate names case-insensitively", func(t *testing.T) {
		f.category(t, "Plan mensual", models.DirectionIncome)

		_, err := f.catalog.CreateCategory(ctx, CategoryInput{Name: "PLAN MENSUAL", Direction: models.DirectionIncome})
		require.True(t, apperror.HasCode(err, apperror.CodeDuplicateName))
	})

	t.Run("inactive categories still block their name", func(t *testing.T) {
		cat := f.category(t, "Vieja", models.DirectionExpense)
		_, err := f.catalog.ToggleCategory(ctx, cat.ID)
		require.NoError(t, err)

		_, err = f.catalog.CreateCategory(ctx, CategoryInput{Name: "vieja", Direction: models.DirectionExpense})
		require.True(t, apperror.HasCode(err, apperror.CodeDuplicateName))
	})

	t.Run("update keeps same name in other case", func(t *testing.T) {
		cat := f.category(t, "Agua", models.DirectionExpense)
		updated, err := f.catalog.UpdateCategory(ctx, cat.ID, CategoryPatch{Name: strPtr("AGUA")})
		require.NoError(t, err)
		require.Equal(t, "AGUA", updated.Name)
	})

	t.Run("update rejects taken names", func(t *testing.T) {
		f.category(t, "Luz", models.DirectionExpense)
		cat := f.category(t, "Gas", models.DirectionExpense)

		_, err := f.catalog.UpdateCategory(ctx, cat.ID, CategoryPatch{Name: strPtr("luz")})
		require.True(t, apperror.HasCode(err, apperror.CodeDuplicateName))
	})

	t.Run("direction is immutable", func(t *testing.T) {
		cat := f.category(t, "Clases", models.DirectionIncome)

		expense := models.DirectionExpense
		_, err := f.catalog.UpdateCategory(ctx, cat.ID, CategoryPatch{Direction: &expense})
		require.True(t, apperror.HasCode(err, apperror.CodeValidation))

		income := models.DirectionIncome
		isPlan := true
		updated, err := f.catalog.UpdateCategory(ctx, cat.ID, CategoryPatch{Direction: &income, IsPlan: &isPlan})
		require.NoError(t, err)
		require.True(t, updated.IsPlan)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.catalog.UpdateCategory(ctx, 999999, CategoryPatch{Name: strPtr("x")})
		require.True(t, apperror.HasCode(err, apperror.CodeNotFound))

		_, err = f.catalog.ToggleCategory(ctx, 999999)
		require.True(t, apperror.HasCode(err, apperror.CodeNotFound))

		_, err = f.catalog.GetCategory(ctx, 999999)
		require.True(t, apperror.HasCode(err, apperror.CodeNotFound))
	})
}

func TestCatalogService_ToggleWithActiveOptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cat := f.category(t, "Plan mensual", models.DirectionIncome)
	pm := f.paymentMethod(t, "Efectivo")
	opt := f.option(t, cat, pm, "Mensual efectivo", "70000")

	t.Run("category with active option cannot be deactivated", func(t *testing.T) {
		_, err := f.catalog.ToggleCategory(ctx, cat.ID)
		require.True(t, apperror.HasCode(err, apperror.CodeHasActiveOptions))

		got, err := f.catalog.GetCategory(ctx, cat.ID)
		require.NoError(t, err)
		require.True(t, got.Active)
	})

	t.Run("payment method with active option cannot be deactivated", func(t *testing.T) {
		_, err := f.catalog.TogglePaymentMethod(ctx, pm.ID)
		require.True(t, apperror.HasCode(err, apperror.CodeHasActiveOptions))

		got, err := f.catalog.GetPaymentMethod(ctx, pm.ID)
		require.NoError(t, err)
		require.True(t, got.Active)
	})

	t.Run("deactivating the option unblocks both", func(t *testing.T) {
		_, err := f.options.ToggleOption(ctx, opt.ID)
		require.NoError(t, err)

		toggled, err := f.catalog.ToggleCategory(ctx, cat.ID)
		require.NoError(t, err)
		require.False(t, toggled.Active)

		toggled, err = f.catalog.ToggleCategory(ctx, cat.ID)
		require.NoError(t, err)
		require.True(t, toggled.Active)

		pmToggled, err := f.catalog.TogglePaymentMethod(ctx, pm.ID)
		require.NoError(t, err)
		require.False(t, pmToggled.Active)
	})
}

func TestCatalogService_PaymentMethods(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.paymentMethod(t, "Efectivo")
	b := f.paymentMethod(t, "Transferencia")
	require.Equal(t, 1, a.Rank)
	require.Equal(t, 2, b.Rank)

	t.Run("explicit rank", func(t *testing.T) {
		pm, err := f.catalog.CreatePaymentMethod(ctx, PaymentMethodInput{Name: "Tarjeta", Rank: intPtr(7)})
		require.NoError(t, err)
		require.Equal(t, 7, pm.Rank)
	})

	t.Run("rejects rank below one", func(t *testing.T) {
		_, err := f.catalog.CreatePaymentMethod(ctx, PaymentMethodInput{Name: "Cheque", Rank: intPtr(0)})
		require.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		_, err := f.catalog.CreatePaymentMethod(ctx, PaymentMethodInput{Name: " efectivo "})
		require.True(t, apperror.HasCode(err, apperror.CodeDuplicateName))
	})

	t.Run("updates name and rank", func(t *testing.T) {
		updated, err := f.catalog.UpdatePaymentMethod(ctx, b.ID, PaymentMethodPatch{Name: strPtr("Transf."), Rank: intPtr(5)})
		require.NoError(t, err)
		require.Equal(t, "Transf.", updated.Name)
		require.Equal(t, 5, updated.Rank)
	})

	t.Run("lists active only", func(t *testing.T) {
		_, err := f.catalog.TogglePaymentMethod(ctx, a.ID)
		require.NoError(t, err)

		active, err := f.catalog.ListPaymentMethods(ctx, true)
		require.NoError(t, err)
		for _, pm := range active {
			require.NotEqual(t, a.ID, pm.ID)
		}
	})
}
