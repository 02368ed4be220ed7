package calibration

// NumPoints is the number of setpoints in a five-point check.
const NumPoints = 5

const (
	// OutputLow is the loop current at the lower range value, in mA.
	OutputLow = 4.0
	// OutputHigh is the loop current at the upper range value, in mA.
	OutputHigh = 20.0
	// OutputSpan is OutputHigh - OutputLow.
	OutputSpan = OutputHigh - OutputLow
)

// ToleranceMode defines how InstrumentConfig.Tolerance is interpreted.
type ToleranceMode string

const (
	// TolerancePercent is a percentage of the span.
	TolerancePercent ToleranceMode = "percent"
	// ToleranceAbsolute is an absolute deviation in process units.
	ToleranceAbsolute ToleranceMode = "absolute"
)

// Valid reports whether m is a known mode.
func (m ToleranceMode) Valid() bool {
	return m == TolerancePercent || m == ToleranceAbsolute
}

// InstrumentConfig is the numeric part of an instrument datasheet.
type InstrumentConfig struct {
	LowerRangeValue float64       `json:"lrv"`
	UpperRangeValue float64       `json:"urv"`
	Tolerance       float64       `json:"tolerance"`
	ToleranceMode   ToleranceMode `json:"toleranceMode"`
	// Unit is a display label only.
	Unit string `json:"unit"`
}

// Span returns URV - LRV.
func (c InstrumentConfig) Span() float64 {
	return c.UpperRangeValue - c.LowerRangeValue
}

// Points holds the five ideal setpoints, ordered 0 % to 100 % of span.
type Points [NumPoints]float64

// LinearEquation is output(mA) = Slope * PV + Intercept.
type LinearEquation struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Text      string  `json:"text"`
	// Valid is false for the zero-span sentinel.
	Valid bool `json:"valid"`
}

// Output evaluates the equation at a process value.
func (e LinearEquation) Output(pv float64) float64 {
	return e.Slope*pv + e.Intercept
}

// Result is a fully evaluated five-point check.
type Result struct {
	Points    Points         `json:"points"`
	Measured  []float64      `json:"measured"`
	Errors    []float64      `json:"errors"`
	Passed    []bool         `json:"passed"`
	Threshold float64        `json:"threshold"`
	Approved  bool           `json:"approved"`
	Equation  LinearEquation `json:"equation"`
}
