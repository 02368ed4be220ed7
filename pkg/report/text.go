package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	pkgerrors "github.com/pkg/errors"
)

// Format is a report output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ParseFormat accepts pdf, text (or txt) and json. Empty means pdf.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return FormatPDF, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", pkgerrors.Errorf("unknown report format %q", s)
	}
}

// Render writes doc in format f.
func Render(doc *Document, f Format, w io.Writer) error {
	switch f {
	case FormatPDF:
		return RenderPDF(doc, w)
	case FormatText:
		return RenderText(doc, w, false)
	case FormatJSON:
		return RenderJSON(doc, w)
	default:
		return pkgerrors.Errorf("unknown report format %q", f)
	}
}

// RenderJSON writes doc as indented JSON.
func RenderJSON(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return pkgerrors.Wrap(enc.Encode(doc), "failed to encode report")
}

// RenderText writes a terminal-friendly report. Pass/fail cells are
// coloured only when colored is true.
func RenderText(doc *Document, w io.Writer, colored bool) error {
	if doc == nil {
		return pkgerrors.New("document is nil")
	}

	bold := color.New(color.Bold)
	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed)
	for _, c := range []*color.Color{bold, pass, fail} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	verdictColor := fail
	if doc.Approved {
		verdictColor = pass
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", bold.Sprint(doc.Title))
	fmt.Fprintf(&b, "Date: %s\n\n", doc.GeneratedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintln(&b, bold.Sprint("1. Test Data"))
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, f := range doc.TestData {
		fmt.Fprintf(tw, "  %s:\t%s\n", f.Label, f.Value)
	}
	_ = tw.Flush()

	fmt.Fprintf(&b, "\n%s\n", bold.Sprint("2. Five-Point Test Results"))
	tw = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Point\tIdeal\tMeasured\tError\t\n")
	for _, r := range doc.Rows {
		c := fail
		if r.Passed {
			c = pass
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t\n", r.Label, FormatValue(r.Ideal), FormatValue(r.Measured), c.Sprint(FormatValue(r.Error)))
	}
	_ = tw.Flush()

	fmt.Fprintf(&b, "\n%s\n", bold.Sprint("3. Conclusion"))
	fmt.Fprintf(&b, "  Result: %s\n", verdictColor.Sprint(doc.Verdict))
	fmt.Fprintf(&b, "  Equation: %s\n", doc.Equation)

	fmt.Fprintf(&b, "\nTechnician signature: %s\n%s\n", doc.Technician, doc.Disclaimer)

	_, err := io.WriteString(w, b.String())
	return pkgerrors.Wrap(err, "failed to write report")
}
