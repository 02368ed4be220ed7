package workflow

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/signalcheck/signalcheck/pkg/calibration"
)

// ParseMeasurements converts the five raw reading fields into numbers.
// Empty fields are reported as incomplete, unparsable ones as non-numeric.
func ParseMeasurements(raw []string) ([]float64, error) {
	if len(raw) != calibration.NumPoints {
		return nil, invalid("measured", pkgerrors.Wrapf(ErrIncompleteMeasurements, "got %d values", len(raw)))
	}

	values := make([]float64, len(raw))
	for i, r := range raw {
		field := fmt.Sprintf("measured[%d]", i)
		r = strings.TrimSpace(r)
		if r == "" {
			return nil, invalid(field, ErrIncompleteMeasurements)
		}
		v, err := ParseNumber(r)
		if err != nil {
			return nil, invalid(field, err)
		}
		values[i] = v
	}
	return values, nil
}

// ParseNumber parses a finite decimal number. A decimal comma is accepted.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(ErrNonNumericInput, "%q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, pkgerrors.Wrapf(ErrNonNumericInput, "%q is not finite", s)
	}
	return v, nil
}

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(field, pkgerrors.Wrapf(ErrNonNumericInput, "%v is not finite", v))
	}
	return nil
}
