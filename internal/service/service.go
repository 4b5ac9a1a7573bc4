// Package service implements the back-office operations on top of the
// repositories: catalog administration, option ordering and pricing,
// movement recording with duplicate detection, and audited edits.
package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

var conflictByConstraint = map[string]*apperror.Error{
	database.IdxCategoriesName:     apperror.New(apperror.CodeDuplicateName, "ya existe una categoría con ese nombre"),
	database.IdxPaymentMethodsName: apperror.New(apperror.CodeDuplicateName, "ya existe un medio de pago con ese nombre"),
	database.IdxOptionsDisplayName: apperror.New(apperror.CodeDuplicateName, "ya existe una opción con ese nombre"),
	database.ConstraintOptionPair:  apperror.New(apperror.CodeDuplicateCombination, "ya existe una opción para esa categoría y medio de pago"),
	database.IdxUsersUsername:      apperror.New(apperror.CodeDuplicateUsername, "el nombre de usuario ya existe"),
}

// conflict returns a fresh conflict error for a unique index or constraint.
func conflict(constraint string) error {
	c := conflictByConstraint[constraint]
	return apperror.New(c.Code, c.Message)
}

// translateConflict turns a unique violation that raced past a pre-check
// into the matching conflict error. Other errors pass through.
func translateConflict(err error) error {
	name, ok := database.UniqueViolation(err)
	if !ok {
		return err
	}
	if conflict, found := conflictByConstraint[name]; found {
		return apperror.Wrap(conflict.Code, conflict.Message, err)
	}
	return err
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// orNotFound maps pgx.ErrNoRows to a domain error built by notFound.
func orNotFound(err error, notFound func() error) error {
	if isNoRows(err) {
		return notFound()
	}
	return err
}

// cleanName trims a catalog name and checks it is present and not too long.
func cleanName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.Validation("%s es requerido", field)
	}
	if utf8.RuneCountInString(name) > models.MaxNameLength {
		return "", apperror.Validation("%s no puede superar %d caracteres", field, models.MaxNameLength)
	}
	return name, nil
}

// maxMoney is the first value a DECIMAL(12, 2) column cannot hold.
var maxMoney = decimal.New(1, 10)

// checkMoney rejects values the DECIMAL(12, 2) money columns would round or
// overflow. Sign checks are left to the caller.
func checkMoney(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(2)) {
		return apperror.Validation("%s admite como máximo 2 decimales", field)
	}
	if d.Abs().GreaterThanOrEqual(maxMoney) {
		return apperror.Validation("%s es demasiado grande", field)
	}
	return nil
}

// validAmount checks a movement amount: positive and storable.
func validAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return apperror.Validation("monto debe ser mayor a 0")
	}
	return checkMoney("monto", d)
}

// cleanOptional trims optional free text; blank becomes nil.
func cleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
