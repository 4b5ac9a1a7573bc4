package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/repository"
)

func mustCreate(t *testing.T, f *fixture, in MovementInput, confirm bool) *models.Movement {
	t.Helper()
	res, err := f.movements.Create(context.Background(), in, f.admin.ID, confirm)
	require.NoError(t, err)
	created, ok := res.(Created)
	require.True(t, ok, "expected Created, got %T", res)
	return created.Movement
}

func TestMovementService_CreateFromOption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan := f.category(t, "Plan mensual", models.DirectionIncome)
	cash := f.paymentMethod(t, "Efectivo")
	transfer := f.paymentMethod(t, "Transferencia")
	opt := f.option(t, plan, cash, "Mensual efectivo", "70000")

	t.Run("copies category and direction from the option", func(t *testing.T) {
		mv := mustCreate(t, f, MovementInput{
			Date: date(t, "2025-01-01"), OptionID: &opt.ID, Amount: decimal.NewFromInt(70000),
		}, false)

		require.Equal(t, plan.ID, mv.CategoryID)
		require.Equal(t, models.DirectionIncome, mv.Direction)
		require.Equal(t, cash.ID, mv.PaymentMethodID)
		require.Equal(t, opt.ID, *mv.OptionID)
		require.Equal(t, f.admin.ID, mv.UserID)
		require.Equal(t, "Plan mensual", mv.CategoryName)

		rows, err := f.movements.List(ctx, repository.MovementFilter{Date: &mv.Date})
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})

	t.Run("payment method override", func(t *testing.T) {
		mv := mustCreate(t, f, MovementInput{
			Date: date(t, "2025-01-02"), OptionID: &opt.ID, PaymentMethodID: &transfer.ID, Amount: decimal.NewFromInt(70000),
		}, false)
		require.Equal(t, transfer.ID, mv.PaymentMethodID)
	})

	t.Run("category mismatch", func(t *testing.T) {
		other := f.category(t, "Agua", models.DirectionExpense)
		_, err := f.movements.Create(ctx, MovementInput{
			Date: date(t, "2025-01-01"), OptionID: &opt.ID, CategoryID: &other.ID, Amount: decimal.NewFromInt(1),
		}, f.admin.ID, false)
		require.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("unknown and inactive option", func(t *testing.T) {
		_, err := f.movements.Create(ctx, MovementInput{
			Date: date(t, "2025-01-01"), OptionID: intPtr(999999), Amount: decimal.NewFromInt(1),
		}, f.admin.ID, false)
		require.True(t, apperror.HasCode(err, apperror.CodeOptionNotFound))

		_, err = f.options.ToggleOption(ctx, opt.ID)
		require.NoError(t, err)
		_, err = f.movements.Create(ctx, MovementInput{
			Date: date(t, "2025-01-01"), OptionID: &opt.ID, Amount: decimal.NewFromInt(1),
		}, f.admin.ID, false)
		require.True(t, apperror.HasCode(err, apperror.CodeOptionInactive))
	})
}

func TestMovementService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cat := f.category(t, "Agua", models.DirectionExpense)
	pm := f.paymentMethod(t, "Efectivo")

	tests := []struct {
		name string
		in   MovementInput
		code apperror.Code
	}{
		{"zero amount", MovementInput{Date: date(t, "2025-01-01"), CategoryID: &cat.ID, PaymentMethodID: &pm.ID}, apperror.CodeValidation},
		{"negative amount", MovementInput{Date: date(t, "2025-01-01"), CategoryID: &cat.ID, PaymentMethodID: &pm.ID, Amount: decimal.NewFromInt(-5)}, apperror.CodeValidation},
		{"sub-cent amount", MovementInput{Date: date(t, "2025-01-01"), CategoryID: &cat.ID, PaymentMethodID: &pm.ID, Amount: decimal.RequireFromString("0.004")}, apperror.CodeValidation},
		{"amount with three decimals", MovementInput{Date: date(t, "2025-01-01"), CategoryID: &cat.ID, PaymentMethodID: &pm.ID, Amount: decimal.RequireFromString("100.004")}, apperror.CodeValidation},
		{"amount too large", MovementInput{Date: date(t, "2025-01-01"), CategoryID: &cat.ID, PaymentMethodID: &pm.ID, Amount: decimal.New(1, 10)}, apperror.CodeValidation},
		{"missing date", MovementInput{CategoryID: &cat.ID, PaymentMethodID: &pm.ID, Amount: decimal.NewFromInt(5)}, apperror.CodeValidation},
		{"missing references", MovementInput{Date: date(t, "2025-01-01"), CategoryID: &cat.ID, Amount: decimal.NewFromInt(5)}, apperror.CodeValidation},
		{"unknown category", MovementInput{Date: date(t, "2025-01-01"), CategoryID: intPtr(999999), PaymentMethodID: &pm.ID, Amount: decimal.NewFromInt(5)}, apperror.CodeCategoryNotFound},
		{"unknown payment method", MovementInput{Date: date(t, "2025-01-01"), CategoryID: &cat.ID, PaymentMethodID: intPtr(999999), Amount: decimal.NewFromInt(5)}, apperror.CodePaymentMethodNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.movements.Create(ctx, tt.in, f.admin.ID, false)
			require.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}

	t.Run("inactive category", func(t *testing.T) {
		_, err := f.catalog.ToggleCategory(ctx, cat.ID)
		require.NoError(t, err)

		_, err = f.movements.Create(ctx, MovementInput{
			Date: date(t, "2025-01-01"), CategoryID: &cat.ID, PaymentMethodID: &pm.ID, Amount: decimal.NewFromInt(5),
		}, f.admin.ID, false)
		require.True(t, apperror.HasCode(err, apperror.CodeCategoryInactive))
		require.Zero(t, f.countRows(t, "movimientos"))
	})
}

func TestMovementService_DuplicateDetection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cat := f.category(t, "Plan mensual", models.DirectionIncome)
	pm := f.paymentMethod(t, "Efectivo")

	in := MovementInput{
		Date: date(t, "2025-02-03"), CategoryID: &cat.ID, PaymentMethodID: &pm.ID,
		Amount: decimal.NewFromInt(70000), ClientName: strPtr("Juan Perez"),
	}
	first := mustCreate(t, f, in, false)

	t.Run("same key asks for confirmation", func(t *testing.T) {
		dup := in
		dup.ClientName = strPtr("  JUAN PEREZ ")
		dup.Amount = decimal.RequireFromString("70000.00")

		res, err := f.movements.Create(ctx, dup, f.admin.ID, false)
		require.NoError(t, err)
		require.Equal(t, NeedsConfirmation{ConflictID: first.ID}, res)
		require.Equal(t, 1, f.countRows(t, "movimientos"))
	})

	t.Run("confirmation inserts exactly one row", func(t *testing.T) {
		mustCreate(t, f, in, true)
		require.Equal(t, 2, f.countRows(t, "movimientos"))
	})

	t.Run("conflict is the oldest duplicate", func(t *testing.T) {
		res, err := f.movements.Create(ctx, in, f.admin.ID, false)
		require.NoError(t, err)
		require.Equal(t, NeedsConfirmation{ConflictID: first.ID}, res)
	})

	t.Run("different client is not a duplicate", func(t *testing.T) {
		other := in
		other.ClientName = strPtr("Ana")
		mustCreate(t, f, other, false)
	})

	t.Run("missing client only matches missing client", func(t *testing.T) {
		anon := in
		anon.ClientName = nil
		mustCreate(t, f, anon, false)

		blank := in
		blank.ClientName = strPtr("  ")
		res, err := f.movements.Create(ctx, blank, f.admin.ID, false)
		require.NoError(t, err)
		require.IsType(t, NeedsConfirmation{}, res)
	})

	t.Run("different date is not a duplicate", func(t *testing.T) {
		next := in
		next.Date = date(t, "2025-02-04")
		mustCreate(t, f, next, false)
	})
}

func TestMovementService_UpdateAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cat := f.category(t, "Agua", models.DirectionExpense)
	cash := f.paymentMethod(t, "Efectivo")
	card := f.paymentMethod(t, "Tarjeta")

	mv := mustCreate(t, f, MovementInput{
		Date: date(t, "2025-01-10"), CategoryID: &cat.ID, PaymentMethodID: &cash.ID, Amount: decimal.NewFromInt(100),
	}, false)

	t.Run("amount change logs one entry", func(t *testing.T) {
		amount := decimal.NewFromInt(150)
		updated, err := f.movements.Update(ctx, mv.ID, MovementPatch{Amount: &amount}, f.admin.ID)
		require.NoError(t, err)
		require.True(t, updated.Amount.Equal(amount))

		history, err := f.movements.History(ctx, mv.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		require.Equal(t, FieldAmount, history[0].Field)
		require.Equal(t, "100", history[0].OldValue)
		require.Equal(t, "150", history[0].NewValue)
		require.Equal(t, "Admin", history[0].UserName)
	})

	t.Run("two fields log two entries", func(t *testing.T) {
		newDate := date(t, "2025-01-11")
		_, err := f.movements.Update(ctx, mv.ID, MovementPatch{Date: &newDate, Note: strPtr("factura 12")}, f.admin.ID)
		require.NoError(t, err)

		history, err := f.movements.History(ctx, mv.ID)
		require.NoError(t, err)
		require.Len(t, history, 3)
	})

	t.Run("empty patch changes nothing", func(t *testing.T) {
		got, err := f.movements.Update(ctx, mv.ID, MovementPatch{}, f.admin.ID)
		require.NoError(t, err)
		require.Equal(t, "2025-01-11", got.Date.Format(models.DateLayout))
		require.Equal(t, 3, f.countRows(t, "auditoria_movimientos"))
	})

	t.Run("inactive payment method is rejected atomically", func(t *testing.T) {
		_, err := f.catalog.TogglePaymentMethod(ctx, card.ID)
		require.NoError(t, err)

		amount := decimal.NewFromInt(999)
		_, err = f.movements.Update(ctx, mv.ID, MovementPatch{Amount: &amount, PaymentMethodID: &card.ID}, f.admin.ID)
		require.True(t, apperror.HasCode(err, apperror.CodePaymentMethodInactive))

		got, err := f.movements.Get(ctx, mv.ID)
		require.NoError(t, err)
		require.True(t, got.Amount.Equal(decimal.NewFromInt(150)))
		require.Equal(t, 3, f.countRows(t, "auditoria_movimientos"))
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		zero := decimal.Zero
		_, err := f.movements.Update(ctx, mv.ID, MovementPatch{Amount: &zero}, f.admin.ID)
		require.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("rejects sub-cent amount", func(t *testing.T) {
		amount := decimal.RequireFromString("150.004")
		_, err := f.movements.Update(ctx, mv.ID, MovementPatch{Amount: &amount}, f.admin.ID)
		require.True(t, apperror.HasCode(err, apperror.CodeValidation))
	})

	t.Run("unknown movement", func(t *testing.T) {
		amount := decimal.NewFromInt(1)
		_, err := f.movements.Update(ctx, 999999, MovementPatch{Amount: &amount}, f.admin.ID)
		require.True(t, apperror.HasCode(err, apperror.CodeNotFound))

		_, err = f.movements.History(ctx, 999999)
		require.True(t, apperror.HasCode(err, apperror.CodeNotFound))
	})
}

func TestMovementService_CanEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	coach, err := f.users.CreateUser(ctx, UserInput{Name: "Coach", Username: "coach", Password: "coach-password", Role: models.RoleCoach})
	require.NoError(t, err)

	cat := f.category(t, "Agua", models.DirectionExpense)
	pm := f.paymentMethod(t, "Efectivo")

	res, err := f.movements.Create(ctx, MovementInput{
		Date: date(t, "2025-01-10"), CategoryID: &cat.ID, PaymentMethodID: &pm.ID, Amount: decimal.NewFromInt(100),
	}, coach.ID, false)
	require.NoError(t, err)
	mv := res.(Created).Movement

	ok, err := f.movements.CanEdit(ctx, mv.ID, coach)
	require.NoError(t, err)
	require.True(t, ok)

	f.movements.now = func() time.Time { return mv.CreatedAt.Add(25 * time.Hour) }
	ok, err = f.movements.CanEdit(ctx, mv.ID, coach)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.movements.CanEdit(ctx, mv.ID, f.admin)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.movements.CanEdit(ctx, 999999, f.admin)
	require.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}

func TestMovementService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	income := f.category(t, "Plan", models.DirectionIncome)
	expense := f.category(t, "Agua", models.DirectionExpense)
	pm := f.paymentMethod(t, "Efectivo")

	mustCreate(t, f, MovementInput{Date: date(t, "2025-01-01"), CategoryID: &income.ID, PaymentMethodID: &pm.ID, Amount: decimal.NewFromInt(100)}, false)
	mustCreate(t, f, MovementInput{Date: date(t, "2025-01-02"), CategoryID: &expense.ID, PaymentMethodID: &pm.ID, Amount: decimal.NewFromInt(50)}, false)

	rows, err := f.movements.List(ctx, repository.MovementFilter{Direction: models.DirectionExpense})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, expense.ID, rows[0].CategoryID)

	rows, err = f.movements.List(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "2025-01-02", rows[0].Date.Format(models.DateLayout))

	_, err = f.movements.List(ctx, repository.MovementFilter{Direction: "otro"})
	require.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
