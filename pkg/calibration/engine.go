package calibration

import (
	"errors"
	"fmt"
	"math"

	pkgerrors "github.com/pkg/errors"
)

// InvalidRangeText replaces the equation text when the span is zero.
const InvalidRangeText = "invalid range"

// ErrLengthMismatch is returned when ideal and measured sequences differ in length.
var ErrLengthMismatch = errors.New("length mismatch")

// IdealPoints returns [L, L+s/4, L+2s/4, L+3s/4, U] where s = U - L.
//
// The range is not validated. A zero span yields five equal values and an
// inverted range yields a descending sequence.
func IdealPoints(lrv, urv float64) Points {
	step := (urv - lrv) / 4
	return Points{
		lrv,
		lrv + step,
		lrv + 2*step,
		lrv + 3*step,
		urv,
	}
}

// Equation solves output(lrv) = 4 and output(urv) = 20.
//
// A zero span has no solution; the sentinel {0, 4, "invalid range"} is
// returned instead of an infinite slope.
func Equation(lrv, urv float64) LinearEquation {
	span := urv - lrv
	if span == 0 {
		return LinearEquation{Slope: 0, Intercept: OutputLow, Text: InvalidRangeText}
	}

	slope := OutputSpan / span
	intercept := OutputLow - slope*lrv

	return LinearEquation{
		Slope:     slope,
		Intercept: intercept,
		Text:      FormatEquation(slope, intercept),
		Valid:     true,
	}
}

// FormatEquation renders slope and intercept with five fractional digits.
func FormatEquation(slope, intercept float64) string {
	sign := "+"
	if intercept < 0 {
		sign = "-"
	}
	return fmt.Sprintf("output (mA) = %.5f * PV %s %.5f", slope, sign, math.Abs(intercept))
}

// Errors returns ideal[i] - measured[i] for every index.
func Errors(ideal, measured []float64) ([]float64, error) {
	if len(ideal) != len(measured) {
		return nil, pkgerrors.Wrapf(ErrLengthMismatch, "%d ideal points, %d measured points", len(ideal), len(measured))
	}

	errs := make([]float64, len(ideal))
	for i := range ideal {
		errs[i] = ideal[i] - measured[i]
	}
	return errs, nil
}

// PointPasses reports whether a single error is within threshold. The
// boundary is inclusive.
func PointPasses(e, threshold float64) bool {
	if threshold < 0 || math.IsNaN(threshold) {
		return false
	}
	return math.Abs(e) <= threshold
}

// Approved reports whether every error is within threshold.
//
// A negative threshold passes nothing, not even an empty set.
func Approved(errs []float64, threshold float64) bool {
	if threshold < 0 || math.IsNaN(threshold) {
		return false
	}
	for _, e := range errs {
		if !PointPasses(e, threshold) {
			return false
		}
	}
	return true
}

// Threshold converts the configured tolerance into an absolute error limit
// in process units. Only percent tolerances are scaled by the span; any
// other mode, including an empty one, is taken as absolute.
func Threshold(cfg InstrumentConfig) float64 {
	if cfg.ToleranceMode == TolerancePercent {
		return math.Abs(cfg.Span()) * cfg.Tolerance / 100
	}
	return cfg.Tolerance
}

// PointPercent is the share of span of setpoint i.
func PointPercent(i int) int {
	return i * 25
}

// Evaluate runs the full check for a configuration and its measured readings.
func Evaluate(cfg InstrumentConfig, measured []float64) (*Result, error) {
	points := IdealPoints(cfg.LowerRangeValue, cfg.UpperRangeValue)
	eq := Equation(cfg.LowerRangeValue, cfg.UpperRangeValue)

	errs, err := Errors(points[:], measured)
	if err != nil {
		return nil, err
	}

	threshold := Threshold(cfg)
	passed := make([]bool, len(errs))
	for i, e := range errs {
		passed[i] = PointPasses(e, threshold)
	}

	m := make([]float64, len(measured))
	copy(m, measured)

	return &Result{
		Points:    points,
		Measured:  m,
		Errors:    errs,
		Passed:    passed,
		Threshold: threshold,
		Approved:  Approved(errs, threshold),
		Equation:  eq,
	}, nil
}
