package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Receipt is a key/value document with an optional line table.
type Receipt struct {
	Title  string
	Fields [][2]string
	Lines  Dataset
	Footer string
}

// PDFExporter renders receipts into a single-page PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the PDF document. The core fonts are cp1252 only, so
// characters outside that code page are dropped by the translator.
func (e *PDFExporter) Render(r Receipt) ([]byte, error) {
	if r.Title == "" {
		return nil, fmt.Errorf("receipt requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(r.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	for _, field := range r.Fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 7, tr(field[0]), "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, tr(field[1]), "", 1, "", false, 0, "")
	}

	if len(r.Lines.Headers) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		colWidth := 180.0 / float64(len(r.Lines.Headers))
		for _, header := range r.Lines.Headers {
			pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, row := range r.Lines.Rows {
			for _, header := range r.Lines.Headers {
				pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if r.Footer != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(0, 5, tr(r.Footer), "", "L", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
