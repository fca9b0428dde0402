package report

import (
	"bytes"

	"github.com/go-pdf/fpdf"
)

// Renderer turns a Layout into a PDF document.
type Renderer interface {
	Render(l Layout) ([]byte, error)
}

// RenderPDF renders l with r, reporting failures as *SerializationError.
func RenderPDF(r Renderer, l Layout) ([]byte, error) {
	data, err := r.Render(l)
	if err != nil {
		return nil, &SerializationError{Format: "pdf", Err: err}
	}
	return data, nil
}

var (
	headerFill = [3]int{37, 99, 235}
	stripeFill = [3]int{248, 250, 252}
	mutedText  = [3]int{100, 116, 139}
)

// FPDFRenderer draws layouts on A4 pages with github.com/go-pdf/fpdf.
type FPDFRenderer struct {
	// Uncompressed disables stream compression, mostly useful in tests.
	Uncompressed bool
}

func (r FPDFRenderer) Render(l Layout) ([]byte, error) {
	pdf := fpdf.New(string(l.Orientation), "mm", "A4", "")
	pdf.SetCompression(!r.Uncompressed)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetTitle(l.Title, true)
	pdf.SetCreator("tts", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	widths := columnWidths(l.ColumnWidths, len(l.Header), pageW-2*pageMargin)

	for i, rows := range l.Pages {
		pdf.AddPage()
		y := pageMargin
		if i == 0 {
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont("Helvetica", "B", 18)
			pdf.Text(pageMargin, 22, tr(l.Title))
			pdf.SetFont("Helvetica", "", 10)
			for j, line := range l.Info {
				pdf.Text(pageMargin, 30+float64(j)*6, tr(line))
			}
			y = titleBottom
		}

		pdf.SetXY(pageMargin, y)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
		pdf.SetTextColor(255, 255, 255)
		for c, cell := range l.Header {
			pdf.CellFormat(widths[c], rowHeight, fit(pdf, tr(cell), widths[c]), "", 0, "L", true, 0, "")
		}
		pdf.Ln(rowHeight)

		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFillColor(stripeFill[0], stripeFill[1], stripeFill[2])
		for n, row := range rows {
			pdf.SetX(pageMargin)
			for c := range widths {
				cell := ""
				if c < len(row) {
					cell = row[c]
				}
				pdf.CellFormat(widths[c], rowHeight, fit(pdf, tr(cell), widths[c]), "", 0, "L", n%2 == 1, 0, "")
			}
			pdf.Ln(rowHeight)
		}

		if i < len(l.Footers) {
			pdf.SetFont("Helvetica", "", 8)
			pdf.SetTextColor(mutedText[0], mutedText[1], mutedText[2])
			footer := tr(l.Footers[i])
			pdf.Text((pageW-pdf.GetStringWidth(footer))/2, pageH-10, footer)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func columnWidths(fixed []float64, n int, total float64) []float64 {
	widths := make([]float64, n)
	used, flexible := 0.0, 0
	for i := range widths {
		if i < len(fixed) && fixed[i] > 0 {
			widths[i] = fixed[i]
			used += fixed[i]
		} else {
			flexible++
		}
	}
	if flexible == 0 {
		return widths
	}
	share := (total - used) / float64(flexible)
	for i := range widths {
		if widths[i] == 0 {
			widths[i] = share
		}
	}
	return widths
}

// fit shortens s so it does not spill into the neighbouring cell.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	limit := width - 2*pdf.GetCellMargin()
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	b := []byte(s)
	for len(b) > 0 && pdf.GetStringWidth(string(b)+"...") > limit {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}
