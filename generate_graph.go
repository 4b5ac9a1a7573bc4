//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/report"
)

func main() {
	totals := []models.CategoryTotal{
		{CategoryName: "Cuota mensual", Direction: models.DirectionIncome, Total: decimal.NewFromInt(420000), Count: 6},
		{CategoryName: "Pase diario", Direction: models.DirectionIncome, Total: decimal.NewFromInt(45000), Count: 9},
		{CategoryName: "Clase personalizada", Direction: models.DirectionIncome, Total: decimal.NewFromInt(90000), Count: 3},
		{CategoryName: "Bebidas", Direction: models.DirectionIncome, Total: decimal.NewFromInt(18500), Count: 11},
		{CategoryName: "Limpieza", Direction: models.DirectionExpense, Total: decimal.NewFromInt(30000), Count: 1},
	}

	day := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	chartData, err := report.GenerateCategoryChart(totals, models.DirectionIncome,
		report.ChartTitle(models.DirectionIncome, day, day))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example income breakdown chart")
}
