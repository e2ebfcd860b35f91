package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Field is a labelled value printed in the document header.
type Field struct {
	Label string
	Value string
}

// Table is a titled grid; every row must have len(Headers) cells.
type Table struct {
	Title   string
	Headers []string
	Widths  []float64
	Rows    [][]string
}

// Document is a printable statement made of header fields followed by tables.
type Document struct {
	Title  string
	Fields []Field
	Tables []Table
}

// PDFExporter renders statements as A4 PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render produces the PDF bytes for doc.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 15)
		pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	for _, f := range doc.Fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 6, tr(f.Label), "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 6, tr(f.Value), "", "", false)
	}

	for _, t := range doc.Tables {
		if err := e.renderTable(pdf, tr, t); err != nil {
			return nil, err
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) renderTable(pdf *gofpdf.Fpdf, tr func(string) string, t Table) error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("table %q requires at least one header", t.Title)
	}
	widths := t.Widths
	if len(widths) != len(t.Headers) {
		widths = make([]float64, len(t.Headers))
		for i := range widths {
			widths[i] = 180.0 / float64(len(t.Headers))
		}
	}

	pdf.Ln(6)
	if t.Title != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, tr(strings.ToUpper(t.Title)), "", 1, "", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 9)
	for i, h := range t.Headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	if len(t.Rows) == 0 {
		pdf.CellFormat(sum(widths), 7, "-", "1", 1, "C", false, 0, "")
		return nil
	}
	for _, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return fmt.Errorf("table %q row has %d cells, want %d", t.Title, len(row), len(t.Headers))
		}
		for i, cell := range row {
			pdf.CellFormat(widths[i], 7, tr(truncate(cell, widths[i])), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return nil
}

// truncate keeps long comments inside their cell; roughly two characters per millimetre at 9pt.
func truncate(s string, width float64) string {
	limit := int(width * 2)
	r := []rune(s)
	if limit <= 3 || len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
