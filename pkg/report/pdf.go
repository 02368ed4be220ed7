package report

import (
	"io"
	"math"

	"github.com/go-pdf/fpdf"
	pkgerrors "github.com/pkg/errors"
)

type rgb struct{ r, g, b int }

var (
	headerFill  = rgb{42, 56, 76}
	stripeFill  = rgb{240, 242, 245}
	passColor   = rgb{40, 167, 69}
	failColor   = rgb{220, 53, 69}
	idealColor  = rgb{75, 192, 192}
	measColor   = rgb{255, 99, 132}
	gridColor   = rgb{210, 210, 210}
	footerColor = rgb{100, 100, 100}
)

const (
	pageMargin  = 14.0
	rowHeight   = 6.5
	chartHeight = 60.0
)

// RenderPDF writes doc as a single Letter page PDF.
func RenderPDF(doc *Document, w io.Writer) error {
	return renderPDF(doc, w, true)
}

func renderPDF(doc *Document, w io.Writer, compress bool) error {
	if doc == nil {
		return pkgerrors.New("document is nil")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.Technician, true)
	pdf.SetCreator("signalcheck", false)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin

	// Header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(pageMargin, 10)
	pdf.CellFormat(contentW, 9, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Date: "+doc.GeneratedAt.Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, "Report "+doc.ID, "", 1, "C", false, 0, "")

	// 1. Test data
	sectionTitle(pdf, "1. Test Data")
	labelW := 60.0
	tableHeader(pdf, tr, []string{"Parameter", "Value"}, []float64{labelW, contentW - labelW})
	pdf.SetFont("Helvetica", "", 10)
	for i, f := range doc.TestData {
		fill := i%2 == 1
		setFill(pdf, stripeFill)
		pdf.CellFormat(labelW, rowHeight, tr(f.Label), "", 0, "L", fill, 0, "")
		pdf.CellFormat(contentW-labelW, rowHeight, tr(f.Value), "", 1, "L", fill, 0, "")
	}

	// 2. Results
	sectionTitle(pdf, "2. Five-Point Test Results")
	unit := ""
	if doc.Unit != "" {
		unit = " (" + doc.Unit + ")"
	}
	colW := contentW / 4
	widths := []float64{colW, colW, colW, colW}
	tableHeader(pdf, tr, []string{"Point", "Ideal" + unit, "Measured" + unit, "Error" + unit}, widths)
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range doc.Rows {
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(colW, rowHeight, row.Label, "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW, rowHeight, FormatValue(row.Ideal), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW, rowHeight, FormatValue(row.Measured), "1", 0, "C", false, 0, "")
		if row.Passed {
			setFill(pdf, passColor)
		} else {
			setFill(pdf, failColor)
		}
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(colW, rowHeight, FormatValue(row.Error), "1", 1, "C", true, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)

	// 3. Conclusion
	sectionTitle(pdf, "3. Conclusion")
	pdf.SetFont("Helvetica", "B", 11)
	if doc.Approved {
		setText(pdf, passColor)
	} else {
		setText(pdf, failColor)
	}
	pdf.CellFormat(contentW, 6, "Result: "+doc.Verdict, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.Ln(2)
	pdf.SetFont("Courier", "B", 9)
	pdf.CellFormat(contentW, 5, "4-20 mA curve equation:", "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, tr(doc.Equation), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)

	// 4. Chart
	if len(doc.Chart) > 0 {
		sectionTitle(pdf, "4. Linearity Chart")
		drawChart(pdf, doc, pageMargin, pdf.GetY()+1, contentW, chartHeight)
	}

	// Signature and footer
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(pageMargin, pageH-30, "_________________________")
	pdf.Text(pageMargin, pageH-25, tr("Technician signature: "+doc.Technician))
	pdf.SetFont("Helvetica", "", 8)
	setText(pdf, footerColor)
	pdf.SetXY(pageMargin, pageH-13)
	pdf.CellFormat(contentW, 5, doc.Disclaimer, "", 0, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return pkgerrors.Wrap(err, "failed to render pdf")
	}
	return nil
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
}

// tableHeader draws one row of column titles. Titles carry the unit label,
// so they go through tr like every other user-supplied text.
func tableHeader(pdf *fpdf.Fpdf, tr func(string) string, cols []string, widths []float64) {
	pdf.SetFont("Helvetica", "B", 10)
	setFill(pdf, headerFill)
	pdf.SetTextColor(255, 255, 255)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], rowHeight+0.5, tr(c), "", ln, "C", true, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

func drawChart(pdf *fpdf.Fpdf, doc *Document, x, y, w, h float64) {
	lo, hi := chartBounds(doc.Chart)

	const (
		padLeft   = 16.0
		padBottom = 8.0
		padTop    = 7.0
	)
	plotX, plotY := x+padLeft, y+padTop
	plotW, plotH := w-padLeft-4, h-padTop-padBottom

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetLineWidth(0.1)
	setDraw(pdf, gridColor)
	for i := 0; i <= 4; i++ {
		v := lo + (hi-lo)*float64(i)/4
		gy := plotY + plotH - plotH*float64(i)/4
		pdf.Line(plotX, gy, plotX+plotW, gy)
		pdf.SetXY(x, gy-2)
		pdf.CellFormat(padLeft-1, 4, FormatValue(v), "", 0, "R", false, 0, "")
	}
	pdf.SetDrawColor(0, 0, 0)
	pdf.Rect(plotX, plotY, plotW, plotH, "D")

	points := 0
	for _, s := range doc.Chart {
		if len(s.Values) > points {
			points = len(s.Values)
		}
	}
	xAt := func(i int) float64 {
		if points <= 1 {
			return plotX + plotW/2
		}
		return plotX + plotW*float64(i)/float64(points-1)
	}
	yAt := func(v float64) float64 {
		return plotY + plotH - plotH*(v-lo)/(hi-lo)
	}

	for i := 0; i < points && i < len(doc.Rows); i++ {
		label := doc.Rows[i].Label
		pdf.SetXY(xAt(i)-8, plotY+plotH+1)
		pdf.CellFormat(16, 4, label, "", 0, "C", false, 0, "")
	}

	colors := []rgb{idealColor, measColor}
	for si, s := range doc.Chart {
		c := colors[si%len(colors)]
		setDraw(pdf, c)
		setFill(pdf, c)
		pdf.SetLineWidth(0.5)
		for i := 1; i < len(s.Values); i++ {
			pdf.Line(xAt(i-1), yAt(s.Values[i-1]), xAt(i), yAt(s.Values[i]))
		}
		for i, v := range s.Values {
			pdf.Circle(xAt(i), yAt(v), 0.9, "F")
		}

		lx := plotX + float64(si)*35
		pdf.Rect(lx, y+1, 4, 3, "F")
		pdf.SetXY(lx+5, y)
		pdf.CellFormat(28, 5, s.Name, "", 0, "L", false, 0, "")
	}
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.SetY(y + h)
}

// chartBounds returns a padded, non-empty value range covering all series.
func chartBounds(series []Series) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return 0, 1
	}
	if hi == lo {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setDraw(pdf *fpdf.Fpdf, c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
