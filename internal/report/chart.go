package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-analyze/charts"

	"gitlab.com/yelinaung/caja-gym/internal/models"
)

// ErrNoData is returned when there is nothing to chart.
var ErrNoData = errors.New("no movements to chart")

// GenerateCategoryChart renders a pie chart of the given direction's totals
// per category. Returns PNG bytes.
func GenerateCategoryChart(totals []models.CategoryTotal, dir models.Direction, title string) ([]byte, error) {
	var values []float64
	var names []string
	for _, t := range totals {
		if t.Direction != dir || !t.Total.IsPositive() {
			continue
		}
		names = append(names, t.CategoryName)
		values = append(values, t.Total.InexactFloat64())
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{Text: title}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// ChartTitle describes the chart for a direction and range.
func ChartTitle(dir models.Direction, from, to time.Time) string {
	label := "Ingresos"
	if dir == models.DirectionExpense {
		label = "Egresos"
	}
	if from.Equal(to) {
		return fmt.Sprintf("%s por categoría - %s", label, from.Format(models.DateLayout))
	}
	return fmt.Sprintf("%s por categoría - %s a %s", label, from.Format(models.DateLayout), to.Format(models.DateLayout))
}

// ChartFilename names a chart like "grafico_ingreso_2025-01-31.png".
func ChartFilename(dir models.Direction, to time.Time) string {
	return fmt.Sprintf("grafico_%s_%s.png", dir, to.Format(models.DateLayout))
}
