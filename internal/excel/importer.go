package excel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WasteRow is one parsed line of a hierarchy upload: a waste product with the
// type and category it belongs under.
type WasteRow struct {
	Row            int
	TypeCode       string
	TypeName       string
	CategoryCode   string
	CategoryName   string
	ProductCode    string
	ProductName    string
	Subproduct     *string
	Description    *string
	HazardClass    *string
	TechnicalSpecs *string
}

type RowIssue struct {
	Row      int    `json:"row"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

var requiredHeaders = []string{
	"type_code", "type_name",
	"category_code", "category_name",
	"product_code", "product_name",
}

// ParseHierarchy reads the first sheet of an uploaded workbook into waste
// rows plus per-row validation issues. A missing required column or an
// unreadable workbook fails the whole upload; everything row-level comes back
// as an issue so the caller can import the good rows and report the rest.
func ParseHierarchy(data []byte) ([]WasteRow, []RowIssue, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()

	rows, err := file.GetRows(file.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("workbook needs a header row and at least one data row")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	var missing []string
	for _, header := range requiredHeaders {
		if _, ok := columns[header]; !ok {
			missing = append(missing, header)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	parsed := make([]WasteRow, 0, len(rows)-1)
	var issues []RowIssue
	for i, raw := range rows[1:] {
		rowNum := i + 2
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(raw) {
				return ""
			}
			return strings.TrimSpace(raw[idx])
		}

		row := WasteRow{
			Row:            rowNum,
			TypeCode:       cell("type_code"),
			TypeName:       cell("type_name"),
			CategoryCode:   cell("category_code"),
			CategoryName:   cell("category_name"),
			ProductCode:    cell("product_code"),
			ProductName:    cell("product_name"),
			Subproduct:     optional(cell("subproduct")),
			Description:    optional(cell("description")),
			HazardClass:    optional(cell("hazard_class")),
			TechnicalSpecs: optional(cell("technical_specs")),
		}
		issues = append(issues, validateRow(row)...)
		parsed = append(parsed, row)
	}
	return parsed, issues, nil
}

func validateRow(row WasteRow) []RowIssue {
	var issues []RowIssue
	required := []struct {
		field string
		value string
		limit int
	}{
		{"type_code", row.TypeCode, 20},
		{"type_name", row.TypeName, 100},
		{"category_code", row.CategoryCode, 30},
		{"category_name", row.CategoryName, 150},
		{"product_code", row.ProductCode, 50},
		{"product_name", row.ProductName, 255},
	}
	for _, r := range required {
		if r.value == "" {
			issues = append(issues, RowIssue{
				Row: row.Row, Field: r.field,
				Message:  r.field + " is required",
				Severity: SeverityError,
			})
			continue
		}
		if len(r.value) > r.limit {
			issues = append(issues, RowIssue{
				Row: row.Row, Field: r.field,
				Message:  fmt.Sprintf("%s cannot exceed %d characters", r.field, r.limit),
				Severity: SeverityError,
			})
		}
	}

	if row.TechnicalSpecs != nil && !json.Valid([]byte(*row.TechnicalSpecs)) {
		issues = append(issues, RowIssue{
			Row: row.Row, Field: "technical_specs",
			Message:  "technical_specs must be valid JSON",
			Severity: SeverityWarning,
		})
	}
	return issues
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
