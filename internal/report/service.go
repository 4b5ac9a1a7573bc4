package report

import (
	"context"
	"time"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/repository"
	"gitlab.com/yelinaung/caja-gym/internal/telemetry"
)

// MaxExportRows caps a CSV export.
const MaxExportRows = 10000

// Service reads movements for reports.
type Service struct {
	db database.DB
}

// NewService creates a new report Service.
func NewService(db database.DB) *Service {
	return &Service{db: db}
}

func validRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return apperror.Validation("desde y hasta son requeridos")
	}
	if to.Before(from) {
		return apperror.Validation("hasta debe ser posterior a desde")
	}
	return nil
}

// Summary totals movements with dates in [from, to].
func (s *Service) Summary(ctx context.Context, from, to time.Time) (*Summary, error) {
	if err := validRange(from, to); err != nil {
		return nil, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, "report.Summary")
	defer span.End()

	totals, err := repository.NewMovementRepository(s.db).TotalsByCategory(ctx, from, to)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return Summarize(from, to, totals), nil
}

// MovementsCSV exports movements with dates in [from, to], newest first.
func (s *Service) MovementsCSV(ctx context.Context, from, to time.Time) ([]byte, error) {
	if err := validRange(from, to); err != nil {
		return nil, err
	}

	movements, err := repository.NewMovementRepository(s.db).List(ctx, repository.MovementFilter{
		From:  &from,
		To:    &to,
		Limit: MaxExportRows,
	})
	if err != nil {
		return nil, err
	}
	return GenerateMovementsCSV(movements)
}

// Chart renders the category pie chart of one direction for [from, to].
// Returns ErrNoData when the range has no movements in that direction.
func (s *Service) Chart(ctx context.Context, from, to time.Time, dir models.Direction) ([]byte, error) {
	if !dir.Valid() {
		return nil, apperror.Validation("sentido inválido")
	}
	summary, err := s.Summary(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return GenerateCategoryChart(summary.Categories, dir, ChartTitle(dir, from, to))
}
