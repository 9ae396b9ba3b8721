package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// LeadsSheetName is the worksheet holding exported results
const LeadsSheetName = "Leads"

// exportColumns defines the header row and column widths of an export
var exportColumns = []struct {
	Title string
	Width float64
}{
	{"Business Name", 30},
	{"Category", 18},
	{"Address", 40},
	{"Phone", 16},
	{"Website", 35},
	{"Rating", 8},
	{"Reviews", 10},
	{"Price Level", 11},
	{"Status", 16},
	{"Potential Lead", 14},
	{"Google Maps", 45},
	{"Notes", 25},
}

// ExportFileName builds the download name for an export
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("leads_%s.xlsx", now.Format("20060102_150405"))
}

// BuildLeadsWorkbook renders a search result into a styled workbook:
// header row on a blue fill, bordered wrapped cells, lead rows tinted green.
func BuildLeadsWorkbook(result *SearchResult) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", LeadsSheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	thinBorders := []excelize.Border{
		{Type: "left", Color: "D9D9D9", Style: 1},
		{Type: "top", Color: "D9D9D9", Style: 1},
		{Type: "bottom", Color: "D9D9D9", Style: 1},
		{Type: "right", Color: "D9D9D9", Style: 1},
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
		Border: thinBorders,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    thinBorders,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cell style: %w", err)
	}

	leadStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"E2EFDA"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    thinBorders,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create lead style: %w", err)
	}

	// Header row
	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(LeadsSheetName, cell, col.Title); err != nil {
			return nil, err
		}

		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(LeadsSheetName, colName, colName, col.Width); err != nil {
			return nil, err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(exportColumns))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(LeadsSheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, err
	}
	if err := f.SetRowHeight(LeadsSheetName, 1, 22); err != nil {
		return nil, err
	}

	// Data rows
	for i, business := range result.Businesses {
		row := i + 2
		values := []interface{}{
			business.Name,
			primaryCategory(business.Types),
			business.Address,
			business.Phone,
			business.Website,
			business.Rating,
			business.ReviewCount,
			strings.Repeat("$", business.PriceLevel),
			business.BusinessStatus,
			yesNo(business.IsLead),
			business.MapsURL,
			"", // Notes column stays free for the salesperson
		}

		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(LeadsSheetName, cell, value); err != nil {
				return nil, err
			}
		}

		rowStyle := cellStyle
		if business.IsLead {
			rowStyle = leadStyle
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		end, _ := excelize.CoordinatesToCellName(len(exportColumns), row)
		if err := f.SetCellStyle(LeadsSheetName, start, end, rowStyle); err != nil {
			return nil, err
		}
	}

	// Keep the header visible while scrolling
	if err := f.SetPanes(LeadsSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	return f, nil
}

// primaryCategory turns the first place type into a readable label
func primaryCategory(types []string) string {
	for _, t := range types {
		if t == "point_of_interest" || t == "establishment" {
			continue
		}
		return strings.ReplaceAll(t, "_", " ")
	}
	return ""
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
