package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/Simplici0/invoice-roi/internal/roi"
)

const (
	Title       = "Invoicing ROI Simulation Report"
	Filename    = "roi-report.pdf"
	ContentType = "application/pdf"
)

// Renderer produces the single-page PDF report.
type Renderer struct {
	*Formatter
	now      func() time.Time
	compress bool
}

func NewRenderer(locale string) (*Renderer, error) {
	f, err := NewFormatter(locale)
	if err != nil {
		return nil, err
	}
	return &Renderer{Formatter: f, now: time.Now, compress: true}, nil
}

// Render returns the PDF bytes for the given inputs and their results.
func (r *Renderer) Render(in roi.Inputs, res roi.Results) ([]byte, error) {
	generatedAt := r.now()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCreationDate(generatedAt)
	pdf.SetTitle(Title, false)
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "", 24)
	pdf.CellFormat(0, 12, Title, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 7, "Generated on: "+generatedAt.Format("Jan 2, 2006, 3:04:05 PM MST"), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	r.section(pdf, "Inputs", inputFields(in))
	pdf.Ln(8)
	r.section(pdf, "Results", resultFields(res))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) section(pdf *gofpdf.Fpdf, heading string, fields []field) {
	pdf.SetFont("Helvetica", "U", 16)
	pdf.CellFormat(0, 9, heading, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 12)
	for _, fld := range fields {
		pdf.CellFormat(0, 7, r.FormatLabel(fld.key)+": "+r.FormatNumber(fld.value), "", 1, "L", false, 0, "")
	}
}
