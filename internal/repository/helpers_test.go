package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

func createTestUser(t *testing.T, db database.PGXDB, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: "Usuario " + username, Username: username, PasswordHash: "x", Role: role}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func createTestCategory(t *testing.T, db database.PGXDB, name string, dir models.Direction) *models.Category {
	t.Helper()
	cat := &models.Category{Name: name, Direction: dir}
	require.NoError(t, NewCategoryRepository(db).Create(context.Background(), cat))
	return cat
}

func createTestPaymentMethod(t *testing.T, db database.PGXDB, name string) *models.PaymentMethod {
	t.Helper()
	pm := &models.PaymentMethod{Name: name}
	require.NoError(t, NewPaymentMethodRepository(db).Create(context.Background(), pm))
	return pm
}

func createTestOption(t *testing.T, db database.PGXDB, cat *models.Category, pm *models.PaymentMethod, price string) *models.Option {
	t.Helper()
	opt := &models.Option{
		CategoryID:      cat.ID,
		PaymentMethodID: pm.ID,
		DisplayName:     cat.Name + " " + pm.Name,
	}
	if price != "" {
		opt.SuggestedAmount = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	require.NoError(t, NewOptionRepository(db).Create(context.Background(), opt))
	return opt
}

func optionOrder(t *testing.T, repo *OptionRepository) []int {
	t.Helper()
	opts, err := repo.List(context.Background(), false)
	require.NoError(t, err)
	ids := make([]int, len(opts))
	for i, o := range opts {
		require.Equal(t, i+1, o.Rank)
		ids[i] = o.ID
	}
	return ids
}
