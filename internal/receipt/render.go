package receipt

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/go-pdf/fpdf"
)

// Render interprets a Document into PDF bytes: A4 portrait, core
// fonts, automatic page breaks when a long payments table overflows
// the page. Runes outside the core-font codepage are substituted by
// the translator rather than failing the export.
func Render(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()

	for _, s := range doc.Sections {
		switch sec := s.(type) {
		case Letterhead:
			drawLetterhead(pdf, sec, pageW)
		case Heading:
			pdf.SetFont("Arial", "B", 16)
			pdf.CellFormat(0, 10, tr(sec.Text), "", 1, "C", false, 0, "")
			pdf.Ln(4)
		case FieldTable:
			pdf.SetFont("Arial", "", 12)
			for _, row := range sec.Rows {
				pdf.SetFont("Arial", "B", 12)
				pdf.CellFormat(50, 8, tr(row.Label), "", 0, "L", false, 0, "")
				pdf.SetFont("Arial", "", 12)
				pdf.CellFormat(0, 8, tr(row.Value), "", 1, "L", false, 0, "")
			}
			pdf.Ln(6)
		case PaymentsTable:
			drawPaymentsTable(pdf, sec, tr)
		}
	}

	if pdf.Err() {
		return nil, fmt.Errorf("render receipt: %w", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

// drawLetterhead places the logo horizontally centered at the current
// position. The image is probed first so an absent or undecodable
// file degrades to "no letterhead" instead of poisoning the fpdf
// error state.
func drawLetterhead(pdf *fpdf.Fpdf, sec Letterhead, pageW float64) {
	f, err := os.Open(sec.Path)
	if err != nil {
		slog.Warn("Letterhead unavailable, skipping", "path", sec.Path, "error", err)
		return
	}
	_, _, err = image.DecodeConfig(f)
	f.Close()
	if err != nil {
		slog.Warn("Letterhead not decodable, skipping", "path", sec.Path, "error", err)
		return
	}

	x := (pageW - sec.Width) / 2
	pdf.ImageOptions(sec.Path, x, 0, sec.Width, 0, true, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	pdf.Ln(6)
}

func drawPaymentsTable(pdf *fpdf.Fpdf, sec PaymentsTable, tr func(string) string) {
	const colW = 60

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, tr(sec.Title), "", 1, "L", false, 0, "")

	pdf.CellFormat(colW, 10, tr(sec.Header[0]), "1", 0, "L", false, 0, "")
	pdf.CellFormat(colW, 10, tr(sec.Header[1]), "1", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	if sec.Placeholder != "" {
		pdf.CellFormat(2*colW, 10, tr(sec.Placeholder), "1", 1, "C", false, 0, "")
		return
	}
	for _, row := range sec.Rows {
		pdf.CellFormat(colW, 10, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW, 10, tr(row[1]), "1", 1, "L", false, 0, "")
	}
}
