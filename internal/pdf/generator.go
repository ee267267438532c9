package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders the cross-disposer price comparison for a waste as a
// one-page table, highest offer first (the order the entries arrive in).
func (g *Generator) Generate(waste model.Waste, entries []model.ComparisonEntry, asOf time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Market price comparison", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Waste: %s (%s)", waste.Name, waste.Code), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("As of %s", asOf.UTC().Format("2006-01-02 15:04 MST")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if len(entries) == 0 {
		pdf.SetFont(g.fontName, "", 11)
		pdf.MultiCell(0, 6, "No disposer currently offers a price for this waste.", "", "L", false)
		return output(pdf)
	}

	headers := []string{"#", "Disposer", "Price", "Currency", "Unit", "Min lot", "Lead time", "Source", "Valid since"}
	widths := []float64{10, 80, 30, 22, 18, 24, 22, 35, 26}
	drawTableRow(pdf, g.fontName, headers, widths, true)

	for i, entry := range entries {
		row := []string{
			fmt.Sprintf("%d", i+1),
			disposerLabel(entry),
			entry.Price.StringFixed(2),
			entry.CurrencyCode,
			entry.UomCode,
			formatDecimal(entry.MinLot),
			formatLeadTime(entry.LeadTimeDays),
			safeValue(entry.Source),
			entry.Period.Start.Format("2006-01-02"),
		}
		drawTableRow(pdf, g.fontName, row, widths, false)
	}

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i >= 2 && i <= 6 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func disposerLabel(entry model.ComparisonEntry) string {
	if entry.TradeName != nil && strings.TrimSpace(*entry.TradeName) != "" {
		return *entry.TradeName
	}
	return entry.LegalName
}

func formatDecimal(value *decimal.Decimal) string {
	if value == nil {
		return "-"
	}
	return value.StringFixed(2)
}

func formatLeadTime(days *int) string {
	if days == nil {
		return "-"
	}
	return fmt.Sprintf("%d d", *days)
}

func safeValue(value *string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return "-"
	}
	return *value
}
