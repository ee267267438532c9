package excel

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the consolidated current-price view as a single-sheet
// workbook, one row per priced relation.
func (g *Generator) Generate(rows []model.OverviewRow, asOf time.Time) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Market Prices"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Current market prices")
	set("B1", asOf.UTC().Format(time.RFC3339))

	headers := []string{
		"Waste",
		"Waste code",
		"Disposer",
		"Price",
		"Currency",
		"Unit",
		"Min lot",
		"Lead time (days)",
		"Source",
		"Valid from",
		"Recorded at",
	}
	headerRow := 3
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		set(cell, header)
	}

	for i, row := range rows {
		values := []interface{}{
			row.WasteName,
			row.WasteCode,
			disposerLabel(row),
			row.Price.InexactFloat64(),
			row.CurrencyCode,
			row.UomCode,
			formatDecimal(row.MinLot),
			formatInt(row.LeadTimeDays),
			formatText(row.Source),
			row.Period.Start.Format(time.RFC3339),
			row.RecordedAt.Format(time.RFC3339),
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, headerRow+1+i)
			set(cell, value)
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 35)
	_ = file.SetColWidth(sheet, "B", "C", 25)
	_ = file.SetColWidth(sheet, "D", "I", 16)
	_ = file.SetColWidth(sheet, "J", "K", 24)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func disposerLabel(row model.OverviewRow) string {
	if row.TradeName != nil && *row.TradeName != "" {
		return *row.TradeName
	}
	return row.LegalName
}

func formatDecimal(value *decimal.Decimal) interface{} {
	if value == nil {
		return ""
	}
	return value.InexactFloat64()
}

func formatInt(value *int) interface{} {
	if value == nil {
		return ""
	}
	return *value
}

func formatText(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
