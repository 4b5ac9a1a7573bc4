package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/caja-gym/internal/auth"
	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

type fixture struct {
	db        database.DB
	catalog   *CatalogService
	options   *OptionService
	movements *MovementService
	users     *UserService
	admin     *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.TestTx(t)

	f := &fixture{
		db:        db,
		catalog:   NewCatalogService(db),
		options:   NewOptionService(db),
		movements: NewMovementService(db, WindowPolicy{Window: 24 * time.Hour}),
		users:     NewUserService(db, auth.NewTokenManager("service-test-secret-of-32-characters", time.Hour)),
	}

	admin, err := f.users.CreateUser(context.Background(), UserInput{
		Name: "Admin", Username: "admin", Password: "admin-password", Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	f.admin = admin
	return f
}

func (f *fixture) category(t *testing.T, name string, dir models.Direction) *models.Category {
	t.Helper()
	cat, err := f.catalog.CreateCategory(context.Background(), CategoryInput{Name: name, Direction: dir})
	require.NoError(t, err)
	return cat
}

func (f *fixture) paymentMethod(t *testing.T, name string) *models.PaymentMethod {
	t.Helper()
	pm, err := f.catalog.CreatePaymentMethod(context.Background(), PaymentMethodInput{Name: name})
	require.NoError(t, err)
	return pm
}

func (f *fixture) option(t *testing.T, cat *models.Category, pm *models.PaymentMethod, name, price string) *models.Option {
	t.Helper()
	in := OptionInput{CategoryID: cat.ID, PaymentMethodID: pm.ID, DisplayName: name}
	if price != "" {
		in.SuggestedAmount = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	opt, err := f.options.CreateOption(context.Background(), in)
	require.NoError(t, err)
	return opt
}

func (f *fixture) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(models.DateLayout, s)
	require.NoError(t, err)
	return d
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }
