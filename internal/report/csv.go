package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"gitlab.com/yelinaung/caja-gym/internal/models"
)

var csvHeader = []string{
	"ID", "Fecha", "Sentido", "Categoría", "Monto", "Medio de pago", "Cliente", "Nota", "Usuario", "Creado",
}

// GenerateMovementsCSV renders movements as CSV.
func GenerateMovementsCSV(movements []models.Movement) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range movements {
		mv := &movements[i]
		row := []string{
			strconv.Itoa(mv.ID),
			mv.Date.Format(models.DateLayout),
			string(mv.Direction),
			mv.CategoryName,
			mv.Amount.StringFixed(2),
			mv.PaymentMethodName,
			optional(mv.ClientName),
			optional(mv.Note),
			mv.UserName,
			mv.CreatedAt.Format("2006-01-02 15:04:05"),
		}

		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CSVFilename names an export like "movimientos_2025-01-01_2025-01-31.csv".
func CSVFilename(from, to time.Time) string {
	if from.Equal(to) {
		return fmt.Sprintf("movimientos_%s.csv", from.Format(models.DateLayout))
	}
	return fmt.Sprintf("movimientos_%s_%s.csv", from.Format(models.DateLayout), to.Format(models.DateLayout))
}
