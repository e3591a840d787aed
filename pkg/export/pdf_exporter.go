package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth = 277.0
	pdfRowHeight = 7.0
)

// PDFExporter renders datasets as a landscape table, one section per group.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ContentType is the MIME type of rendered output.
func (e *PDFExporter) ContentType() string { return "application/pdf" }

// Extension is the file suffix of rendered output.
func (e *PDFExporter) Extension() string { return "pdf" }

// Render creates a PDF document with an optional title.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	columns := data.Headers
	if data.GroupBy != "" {
		columns = make([]string, 0, len(data.Headers))
		for _, header := range data.Headers {
			if header != data.GroupBy {
				columns = append(columns, header)
			}
		}
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	colWidth := pdfPageWidth / float64(len(columns))
	header := func() {
		pdf.SetFont("Arial", "B", 10)
		for _, column := range columns {
			pdf.CellFormat(colWidth, 8, column, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}

	if len(data.Rows) == 0 {
		header()
		pdf.CellFormat(pdfPageWidth, pdfRowHeight, "No rows", "1", 1, "C", false, 0, "")
	}

	current := "\x00"
	for _, row := range data.Rows {
		if data.GroupBy != "" && row[data.GroupBy] != current {
			current = row[data.GroupBy]
			pdf.Ln(2)
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, current, "", 1, "L", false, 0, "")
			header()
		} else if current == "\x00" {
			current = ""
			header()
		}
		for _, column := range columns {
			pdf.CellFormat(colWidth, pdfRowHeight, row[column], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
