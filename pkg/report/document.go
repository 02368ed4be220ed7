package report

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/signalcheck/signalcheck/pkg/calibration"
	"github.com/signalcheck/signalcheck/pkg/session"
)

// ErrNotReady is returned when the session has not been evaluated yet.
var ErrNotReady = errors.New("calibration has not been evaluated")

const (
	Title      = "Instrument Calibration Report"
	Approved   = "APPROVED"
	Rejected   = "REJECTED"
	Disclaimer = "The validity of this report is subject to the condition of the instrument at the time of the test."
)

// Field is a labelled value of the test data section.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Row is one line of the five-point results table.
type Row struct {
	Label    string  `json:"label"`
	Ideal    float64 `json:"ideal"`
	Measured float64 `json:"measured"`
	Error    float64 `json:"error"`
	Passed   bool    `json:"passed"`
}

// Series is one line of the linearity chart.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Document is a rendered-independent calibration report.
type Document struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generatedAt"`
	Filename    string    `json:"filename"`

	Tag        string  `json:"tag"`
	Technician string  `json:"technician"`
	Unit       string  `json:"unit"`
	TestData   []Field `json:"testData"`

	Rows      []Row   `json:"rows"`
	Threshold float64 `json:"threshold"`
	Approved  bool    `json:"approved"`
	Verdict   string  `json:"verdict"`
	Equation  string  `json:"equation"`

	Chart      []Series `json:"chart"`
	Disclaimer string   `json:"disclaimer"`
}

// Build assembles the report for an evaluated session.
func Build(st session.State, generatedAt time.Time) (*Document, error) {
	if st.Step != session.StepReport {
		return nil, pkgerrors.Wrapf(ErrNotReady, "session is at step %s", st.Step)
	}
	n := len(st.Points)
	if n != calibration.NumPoints || len(st.Measured) != n || len(st.Errors) != n {
		return nil, pkgerrors.Wrapf(ErrNotReady, "incomplete results: %d points, %d measured, %d errors", n, len(st.Measured), len(st.Errors))
	}

	ds := st.Datasheet
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			Label:    fmt.Sprintf("%d%%", calibration.PointPercent(i)),
			Ideal:    st.Points[i],
			Measured: st.Measured[i],
			Error:    st.Errors[i],
			Passed:   calibration.PointPasses(st.Errors[i], st.Threshold),
		}
	}

	verdict := Rejected
	if st.Approved {
		verdict = Approved
	}

	return &Document{
		ID:          uuid.NewString(),
		SessionID:   st.ID,
		Title:       Title,
		GeneratedAt: generatedAt,
		Filename:    Filename(ds.Tag, st.ID),
		Tag:         ds.Tag,
		Technician:  ds.Technician,
		Unit:        ds.Unit,
		TestData: []Field{
			{"Tag", ds.Tag},
			{"Manufacturer", ds.Manufacturer},
			{"Model", ds.Model},
			{"Power supply", ds.PowerSupply},
			{"Range", fmt.Sprintf("%s to %s %s", FormatValue(ds.LowerRangeValue), FormatValue(ds.UpperRangeValue), ds.Unit)},
			{"Accepted tolerance", toleranceText(ds.InstrumentConfig, st.Threshold)},
			{"Calibration equipment", ds.CalibratorID},
			{"Technician", ds.Technician},
		},
		Rows:      rows,
		Threshold: st.Threshold,
		Approved:  st.Approved,
		Verdict:   verdict,
		Equation:  st.Equation.Text,
		Chart: []Series{
			{Name: "Ideal", Values: append([]float64(nil), st.Points...)},
			{Name: "Measured", Values: append([]float64(nil), st.Measured...)},
		},
		Disclaimer: Disclaimer,
	}, nil
}

func toleranceText(cfg calibration.InstrumentConfig, threshold float64) string {
	s := strings.TrimSpace(fmt.Sprintf("+/- %.3f %s", threshold, cfg.Unit))
	if cfg.ToleranceMode == calibration.ToleranceAbsolute {
		return s
	}
	return fmt.Sprintf("%s (%s%% of span)", s, FormatValue(cfg.Tolerance))
}

// FormatValue renders v rounded to six significant digits without
// trailing zeros.
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 6, 64), 64)
	if err != nil {
		r = v
	}
	if r == 0 {
		r = 0 // drop the sign of negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Filename returns the PDF file name for a tag. Characters outside
// [A-Za-z0-9._-] are replaced; an empty tag falls back to the session id.
func Filename(tag, sessionID string) string {
	name := sanitize(tag)
	if name == "" {
		name = sanitize(sessionID)
		if len(name) > 8 {
			name = name[:8]
		}
	}
	if name == "" {
		name = "untagged"
	}
	return "calibration_report_" + name + ".pdf"
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), ".")
}
