// Package report builds cash summaries, CSV exports and charts over recorded
// movements.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/caja-gym/internal/models"
)

// Summary is the cash position for a date range.
type Summary struct {
	From       time.Time              `json:"desde"`
	To         time.Time              `json:"hasta"`
	Income     decimal.Decimal        `json:"ingresos"`
	Expense    decimal.Decimal        `json:"egresos"`
	Balance    decimal.Decimal        `json:"saldo"`
	Count      int                    `json:"cantidad"`
	Categories []models.CategoryTotal `json:"categorias"`
}

// Summarize folds per-category totals into a Summary.
func Summarize(from, to time.Time, totals []models.CategoryTotal) *Summary {
	s := &Summary{
		From:       from,
		To:         to,
		Income:     decimal.Zero,
		Expense:    decimal.Zero,
		Categories: totals,
	}
	if s.Categories == nil {
		s.Categories = []models.CategoryTotal{}
	}

	for _, t := range totals {
		switch t.Direction {
		case models.DirectionIncome:
			s.Income = s.Income.Add(t.Total)
		case models.DirectionExpense:
			s.Expense = s.Expense.Add(t.Total)
		}
		s.Count += t.Count
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// ByDirection returns the category totals of one direction.
func (s *Summary) ByDirection(dir models.Direction) []models.CategoryTotal {
	var out []models.CategoryTotal
	for _, t := range s.Categories {
		if t.Direction == dir {
			out = append(out, t)
		}
	}
	return out
}

// FormatText renders the summary as a plain-text cash close message.
func (s *Summary) FormatText() string {
	var sb strings.Builder

	if s.From.Equal(s.To) {
		fmt.Fprintf(&sb, "Cierre de caja %s\n\n", s.From.Format(models.DateLayout))
	} else {
		fmt.Fprintf(&sb, "Caja del %s al %s\n\n", s.From.Format(models.DateLayout), s.To.Format(models.DateLayout))
	}

	if s.Count == 0 {
		sb.WriteString("Sin movimientos registrados.")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Ingresos: $%s\n", s.Income.StringFixed(2))
	for _, t := range s.ByDirection(models.DirectionIncome) {
		fmt.Fprintf(&sb, "  • %s: $%s (%d)\n", t.CategoryName, t.Total.StringFixed(2), t.Count)
	}

	fmt.Fprintf(&sb, "Egresos: $%s\n", s.Expense.StringFixed(2))
	for _, t := range s.ByDirection(models.DirectionExpense) {
		fmt.Fprintf(&sb, "  • %s: $%s (%d)\n", t.CategoryName, t.Total.StringFixed(2), t.Count)
	}

	fmt.Fprintf(&sb, "\nSaldo: $%s (%d movimientos)", s.Balance.StringFixed(2), s.Count)
	return sb.String()
}
