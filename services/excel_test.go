package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestExportFileName(t *testing.T) {
	at := time.Date(2025, 1, 14, 15, 30, 45, 0, time.UTC)
	if got := ExportFileName(at); got != "leads_20250114_153045.xlsx" {
		t.Errorf("ExportFileName() = %q", got)
	}
}

func TestPrimaryCategory(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  string
	}{
		{name: "skips generic types", types: []string{"point_of_interest", "establishment", "roofing_contractor"}, want: "roofing contractor"},
		{name: "first specific type wins", types: []string{"plumber", "general_contractor"}, want: "plumber"},
		{name: "only generic types", types: []string{"point_of_interest", "establishment"}, want: ""},
		{name: "empty", types: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := primaryCategory(tt.types); got != tt.want {
				t.Errorf("primaryCategory(%v) = %q, want %q", tt.types, got, tt.want)
			}
		})
	}
}

func TestBuildLeadsWorkbook(t *testing.T) {
	result := &SearchResult{
		Location: "Austin, TX, USA",
		Keyword:  "plumber",
		Businesses: []Business{
			{
				Name:           "Joe's Plumbing",
				Types:          []string{"plumber", "point_of_interest"},
				Address:        "1 Main St, Austin, TX",
				Phone:          "(512) 555-0100",
				Rating:         4.5,
				ReviewCount:    3,
				PriceLevel:     2,
				BusinessStatus: "OPERATIONAL",
				MapsURL:        "https://maps.google.com/?cid=1",
				IsLead:         true,
			},
			{
				Name:           "MegaCorp Plumbing",
				Types:          []string{"plumber"},
				Address:        "500 Congress Ave, Austin, TX",
				Website:        "https://megacorp.example",
				Rating:         4.8,
				ReviewCount:    220,
				BusinessStatus: "OPERATIONAL",
				MapsURL:        "https://maps.google.com/?cid=2",
				IsLead:         false,
			},
		},
		TotalFound: 2,
		LeadCount:  1,
	}

	workbook, err := BuildLeadsWorkbook(result)
	if err != nil {
		t.Fatalf("BuildLeadsWorkbook() error = %v", err)
	}
	buf, err := workbook.WriteToBuffer()
	workbook.Close()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	reopened, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer reopened.Close()

	rows, err := reopened.GetRows(LeadsSheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 data rows, got %d rows", len(rows))
	}

	header := rows[0]
	if len(header) != len(exportColumns) {
		t.Errorf("header has %d columns, want %d", len(header), len(exportColumns))
	}
	if header[0] != "Business Name" || header[9] != "Potential Lead" {
		t.Errorf("unexpected header row: %v", header)
	}

	lead := rows[1]
	if lead[0] != "Joe's Plumbing" {
		t.Errorf("row 2 name = %q, want the lead first", lead[0])
	}
	if lead[1] != "plumber" {
		t.Errorf("row 2 category = %q", lead[1])
	}
	if lead[6] != "3" {
		t.Errorf("row 2 review count = %q", lead[6])
	}
	if lead[7] != "$$" {
		t.Errorf("row 2 price level = %q", lead[7])
	}
	if lead[9] != "Yes" {
		t.Errorf("row 2 lead flag = %q, want Yes", lead[9])
	}

	nonLead := rows[2]
	if nonLead[0] != "MegaCorp Plumbing" {
		t.Errorf("row 3 name = %q", nonLead[0])
	}
	if nonLead[4] != "https://megacorp.example" {
		t.Errorf("row 3 website = %q", nonLead[4])
	}
	if nonLead[9] != "No" {
		t.Errorf("row 3 lead flag = %q, want No", nonLead[9])
	}
}

func TestBuildLeadsWorkbookEmptyResult(t *testing.T) {
	workbook, err := BuildLeadsWorkbook(&SearchResult{Location: "Nowhere"})
	if err != nil {
		t.Fatalf("BuildLeadsWorkbook() error = %v", err)
	}
	defer workbook.Close()

	rows, err := workbook.GetRows(LeadsSheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected only the header row, got %d rows", len(rows))
	}
}
