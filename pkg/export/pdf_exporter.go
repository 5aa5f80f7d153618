package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// landscapeColumns is the column count from which tables switch to landscape.
const landscapeColumns = 8

// Field is a label/value pair printed above or below a sheet table.
type Field struct {
	Label string
	Value string
}

// Sheet is one printed page: heading, info fields, a table and footer fields.
type Sheet struct {
	Title    string
	Subtitle string
	Info     []Field
	Table    Dataset
	Footer   []Field
}

// PDFExporter renders datasets into tabular PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body. Wide
// tables are laid out on landscape pages.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation := "P"
	if len(data.Headers) >= landscapeColumns {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}
	writeTable(pdf, data)

	return output(pdf)
}

// RenderSheets prints one portrait page per sheet.
func (e *PDFExporter) RenderSheets(sheets []Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("pdf requires at least one sheet")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	for _, sheet := range sheets {
		if len(sheet.Table.Headers) == 0 {
			return nil, fmt.Errorf("sheet %q has no table headers", sheet.Title)
		}
		pdf.AddPage()
		if sheet.Title != "" {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 8, strings.ToUpper(sheet.Title), "", 1, "C", false, 0, "")
		}
		if sheet.Subtitle != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 7, sheet.Subtitle, "", 1, "C", false, 0, "")
		}
		pdf.Ln(3)
		writeFields(pdf, sheet.Info)
		pdf.Ln(2)
		writeTable(pdf, sheet.Table)
		pdf.Ln(3)
		writeFields(pdf, sheet.Footer)
	}

	return output(pdf)
}

func writeFields(pdf *gofpdf.Fpdf, fields []Field) {
	for _, field := range fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 6, field.Label+":", "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, field.Value, "", 1, "", false, 0, "")
	}
}

func writeTable(pdf *gofpdf.Fpdf, data Dataset) {
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(data.Headers))
	fontSize := 9.0
	if len(data.Headers) >= landscapeColumns*2 {
		fontSize = 6
	}

	pdf.SetFont("Arial", "B", fontSize+1)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", fontSize)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
