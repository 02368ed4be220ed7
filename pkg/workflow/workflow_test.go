package workflow

import (
	"errors"
	"math"
	"testing"

	"github.com/signalcheck/signalcheck/pkg/calibration"
	"github.com/signalcheck/signalcheck/pkg/events"
	"github.com/signalcheck/signalcheck/pkg/session"
)

type recorder struct {
	names []string
}

func (r *recorder) Publish(name string, _ any) { r.names = append(r.names, name) }

func newTestWorkflow() (*Workflow, *recorder) {
	rec := &recorder{}
	return New(session.NewHolder(), Options{Publisher: rec}), rec
}

func pressureTransmitter() session.Datasheet {
	return session.Datasheet{
		Tag:          "PT-101",
		Manufacturer: "Acme",
		Model:        "P200",
		PowerSupply:  "24 VDC",
		CalibratorID: "CAL-7",
		Technician:   "R. Diaz",
		InstrumentConfig: calibration.InstrumentConfig{
			LowerRangeValue: 0,
			UpperRangeValue: 100,
			Tolerance:       1,
			ToleranceMode:   calibration.ToleranceAbsolute,
			Unit:            "kPa",
		},
	}
}

func TestWorkflowHappyPath(t *testing.T) {
	w, rec := newTestWorkflow()
	initial := w.Snapshot()

	st, err := w.SubmitDatasheet(pressureTransmitter())
	if err != nil {
		t.Fatalf("SubmitDatasheet failed: %v", err)
	}
	if st.Step != session.StepMeasurement {
		t.Fatalf("expected measurement step, got %s", st.Step)
	}
	if st.ID == initial.ID {
		t.Fatalf("expected a new session generation")
	}
	want := []float64{0, 25, 50, 75, 100}
	for i, v := range want {
		if st.Points[i] != v {
			t.Fatalf("point %d is %v, want %v", i, st.Points[i], v)
		}
	}
	if st.Threshold != 1 {
		t.Fatalf("expected threshold 1, got %v", st.Threshold)
	}
	if !st.Equation.Valid || math.Abs(st.Equation.Slope-0.16) > 1e-12 {
		t.Fatalf("equation should be known once the range is, got %+v", st.Equation)
	}
	if len(st.Measured) != 0 || len(st.Errors) != 0 || st.Approved {
		t.Fatalf("a new datasheet starts without readings: %+v", st)
	}

	st, err = w.SubmitMeasurements([]string{"0", "24", "51", " 76 ", "100"})
	if err != nil {
		t.Fatalf("SubmitMeasurements failed: %v", err)
	}
	if st.Step != session.StepReport {
		t.Fatalf("expected report step, got %s", st.Step)
	}
	if !st.Approved {
		t.Fatalf("expected approval")
	}
	if math.Abs(st.Equation.Slope-0.16) > 1e-12 || st.Equation.Intercept != 4 {
		t.Fatalf("unexpected equation %+v", st.Equation)
	}

	wantEvents := []string{events.SessionStep, events.SessionStep, events.SessionVerdict}
	if len(rec.names) != len(wantEvents) {
		t.Fatalf("expected events %v, got %v", wantEvents, rec.names)
	}
	for i, n := range wantEvents {
		if rec.names[i] != n {
			t.Fatalf("event %d is %s, want %s", i, rec.names[i], n)
		}
	}
}

func TestWorkflowRejected(t *testing.T) {
	w, _ := newTestWorkflow()
	ds := pressureTransmitter()
	ds.Tolerance = 0.5
	if _, err := w.SubmitDatasheet(ds); err != nil {
		t.Fatalf("SubmitDatasheet failed: %v", err)
	}
	st, err := w.SubmitReadings([]float64{0, 24, 51, 76, 100})
	if err != nil {
		t.Fatalf("SubmitReadings failed: %v", err)
	}
	if st.Approved {
		t.Fatalf("expected rejection at threshold 0.5")
	}
}

func TestWorkflowInvalidRange(t *testing.T) {
	w, rec := newTestWorkflow()
	for _, r := range [][2]float64{{100, 0}, {5, 5}} {
		ds := pressureTransmitter()
		ds.LowerRangeValue, ds.UpperRangeValue = r[0], r[1]

		_, err := w.SubmitDatasheet(ds)
		if !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("range %v: expected ErrInvalidRange, got %v", r, err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != "urv" {
			t.Fatalf("expected validation error on urv, got %v", err)
		}
	}
	if st := w.Snapshot(); st.Step != session.StepDatasheet {
		t.Fatalf("invalid datasheet must not advance the step, got %s", st.Step)
	}
	if len(rec.names) != 0 {
		t.Fatalf("expected no events, got %v", rec.names)
	}
}

func TestWorkflowInvalidTolerance(t *testing.T) {
	w, _ := newTestWorkflow()

	ds := pressureTransmitter()
	ds.Tolerance = -1
	if _, err := w.SubmitDatasheet(ds); !errors.Is(err, ErrInvalidTolerance) {
		t.Fatalf("expected ErrInvalidTolerance, got %v", err)
	}

	ds = pressureTransmitter()
	ds.ToleranceMode = "ppm"
	if _, err := w.SubmitDatasheet(ds); !errors.Is(err, ErrInvalidTolerance) {
		t.Fatalf("expected ErrInvalidTolerance, got %v", err)
	}

	ds = pressureTransmitter()
	ds.UpperRangeValue = math.Inf(1)
	if _, err := w.SubmitDatasheet(ds); !errors.Is(err, ErrNonNumericInput) {
		t.Fatalf("expected ErrNonNumericInput, got %v", err)
	}
}

func TestWorkflowDefaultToleranceMode(t *testing.T) {
	w := New(session.NewHolder(), Options{})
	ds := pressureTransmitter()
	ds.ToleranceMode = ""
	ds.UpperRangeValue = 200
	ds.Tolerance = 0.5

	// Without a configured default the tolerance is used as entered.
	st, err := w.SubmitDatasheet(ds)
	if err != nil {
		t.Fatalf("SubmitDatasheet failed: %v", err)
	}
	if st.Datasheet.ToleranceMode != calibration.ToleranceAbsolute || st.Threshold != 0.5 {
		t.Fatalf("expected absolute threshold 0.5, got %q %v", st.Datasheet.ToleranceMode, st.Threshold)
	}

	w.SetDefaultToleranceMode("bogus")
	w.SetDefaultToleranceMode(calibration.TolerancePercent)
	st, err = w.SubmitDatasheet(ds)
	if err != nil {
		t.Fatalf("SubmitDatasheet failed: %v", err)
	}
	if st.Datasheet.ToleranceMode != calibration.TolerancePercent {
		t.Fatalf("expected percent mode, got %q", st.Datasheet.ToleranceMode)
	}
	if st.Threshold != 1 {
		t.Fatalf("expected threshold 1 (0.5%% of 200), got %v", st.Threshold)
	}
}

func TestWorkflowMeasurementsValidation(t *testing.T) {
	w, _ := newTestWorkflow()

	if _, err := w.SubmitReadings([]float64{0, 25, 50, 75, 100}); !errors.Is(err, ErrNoDatasheet) {
		t.Fatalf("expected ErrNoDatasheet, got %v", err)
	}

	if _, err := w.SubmitDatasheet(pressureTransmitter()); err != nil {
		t.Fatalf("SubmitDatasheet failed: %v", err)
	}

	cases := []struct {
		raw   []string
		want  error
		field string
	}{
		{[]string{"0", "25", "", "75", "100"}, ErrIncompleteMeasurements, "measured[2]"},
		{[]string{"0", "25", "50", "75"}, ErrIncompleteMeasurements, "measured"},
		{[]string{"0", "abc", "50", "75", "100"}, ErrNonNumericInput, "measured[1]"},
		{[]string{"0", "25", "50", "NaN", "100"}, ErrNonNumericInput, "measured[3]"},
	}
	for _, c := range cases {
		_, err := w.SubmitMeasurements(c.raw)
		if !errors.Is(err, c.want) {
			t.Fatalf("%v: expected %v, got %v", c.raw, c.want, err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != c.field {
			t.Fatalf("%v: expected field %s, got %v", c.raw, c.field, err)
		}
	}

	if st := w.Snapshot(); st.Step != session.StepMeasurement || len(st.Measured) != 0 {
		t.Fatalf("failed validation must not advance: %+v", st)
	}
}

func TestWorkflowBackAndResubmit(t *testing.T) {
	w, _ := newTestWorkflow()
	first, _ := w.SubmitDatasheet(pressureTransmitter())
	if _, err := w.SubmitReadings([]float64{0, 25, 50, 75, 100}); err != nil {
		t.Fatalf("SubmitReadings failed: %v", err)
	}

	st := w.Back()
	if st.Step != session.StepDatasheet {
		t.Fatalf("expected datasheet step, got %s", st.Step)
	}
	if st.Datasheet.Tag != "PT-101" || len(st.Measured) != 5 {
		t.Fatalf("back should keep entered data: %+v", st)
	}

	// The datasheet has to be resubmitted before readings are taken again.
	if _, err := w.SubmitReadings([]float64{0, 25, 50, 75, 100}); !errors.Is(err, ErrNoDatasheet) {
		t.Fatalf("expected ErrNoDatasheet after Back, got %v", err)
	}
	if st := w.Snapshot(); st.Step != session.StepDatasheet {
		t.Fatalf("readings after Back must not advance the step, got %s", st.Step)
	}

	ds := pressureTransmitter()
	ds.UpperRangeValue = 200
	st, err := w.SubmitDatasheet(ds)
	if err != nil {
		t.Fatalf("SubmitDatasheet failed: %v", err)
	}
	if st.ID == first.ID {
		t.Fatalf("new datasheet should start a new generation")
	}
	if len(st.Measured) != 0 || len(st.Errors) != 0 || st.Approved {
		t.Fatalf("new datasheet should invalidate readings: %+v", st)
	}
	if st.Points[4] != 200 {
		t.Fatalf("points not recomputed: %v", st.Points)
	}
}

func TestWorkflowReset(t *testing.T) {
	w, rec := newTestWorkflow()
	before, _ := w.SubmitDatasheet(pressureTransmitter())

	st := w.Reset()
	if st.Step != session.StepDatasheet || st.Datasheet.Tag != "" || len(st.Points) != 0 {
		t.Fatalf("reset did not clear state: %+v", st)
	}
	if st.ID == before.ID {
		t.Fatalf("reset should assign a new id")
	}
	if rec.names[len(rec.names)-1] != events.SessionReset {
		t.Fatalf("expected reset event, got %v", rec.names)
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"1":      1,
		" -2.5 ": -2.5,
		"3,25":   3.25,
		"1e3":    1000,
	}
	for in, want := range cases {
		got, err := ParseNumber(in)
		if err != nil || got != want {
			t.Fatalf("ParseNumber(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"", "x", "1,000.5", "Inf"} {
		if _, err := ParseNumber(in); !errors.Is(err, ErrNonNumericInput) {
			t.Fatalf("ParseNumber(%q): expected ErrNonNumericInput, got %v", in, err)
		}
	}
}
