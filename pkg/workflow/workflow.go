package workflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/signalcheck/signalcheck/pkg/calibration"
	"github.com/signalcheck/signalcheck/pkg/events"
	"github.com/signalcheck/signalcheck/pkg/session"
	"github.com/signalcheck/signalcheck/pkg/utils/ptr"
)

// Workflow drives a session through datasheet, measurement and report.
// Input is validated here; the engine is only called with valid numbers.
type Workflow struct {
	mu          sync.Mutex
	holder      *session.Holder
	pub         events.Publisher
	defaultMode calibration.ToleranceMode
	now         func() time.Time
}

// Options configures a Workflow.
type Options struct {
	// DefaultToleranceMode is applied to datasheets that leave the mode empty.
	DefaultToleranceMode calibration.ToleranceMode
	// Publisher receives workflow events. May be nil.
	Publisher events.Publisher
}

func New(holder *session.Holder, opts Options) *Workflow {
	mode := opts.DefaultToleranceMode
	if !mode.Valid() {
		mode = calibration.ToleranceAbsolute
	}
	return &Workflow{
		holder:      holder,
		pub:         opts.Publisher,
		defaultMode: mode,
		now:         time.Now,
	}
}

// SetDefaultToleranceMode changes the mode applied to later datasheets.
// Invalid modes are ignored.
func (w *Workflow) SetDefaultToleranceMode(mode calibration.ToleranceMode) {
	if !mode.Valid() {
		return
	}
	w.mu.Lock()
	w.defaultMode = mode
	w.mu.Unlock()
}

// Snapshot returns the current session state.
func (w *Workflow) Snapshot() session.State {
	return w.holder.Read()
}

// SubmitDatasheet validates the instrument datasheet and starts a new
// session generation with the ideal setpoints computed.
func (w *Workflow) SubmitDatasheet(ds session.Datasheet) (session.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ds.ToleranceMode == "" {
		ds.ToleranceMode = w.defaultMode
	}
	if err := ValidateDatasheet(ds); err != nil {
		return session.State{}, err
	}

	prev := w.holder.Read()
	cfg := ds.InstrumentConfig
	points := calibration.IdealPoints(cfg.LowerRangeValue, cfg.UpperRangeValue)
	eq := calibration.Equation(cfg.LowerRangeValue, cfg.UpperRangeValue)

	st := w.holder.Merge(session.Update{
		ID:        ptr.To(uuid.NewString()),
		Step:      ptr.To(session.StepMeasurement),
		Datasheet: &ds,
		Points:    ptr.To(points[:]),
		Measured:  ptr.To([]float64{}),
		Errors:    ptr.To([]float64{}),
		Threshold: ptr.To(calibration.Threshold(cfg)),
		Approved:  ptr.To(false),
		Equation:  &eq,
	})

	logrus.WithFields(logrus.Fields{
		"session":   st.ID,
		"tag":       ds.Tag,
		"lrv":       cfg.LowerRangeValue,
		"urv":       cfg.UpperRangeValue,
		"threshold": st.Threshold,
	}).Info("datasheet accepted")

	w.publishStep(st.ID, prev.Step, st.Step)
	return st, nil
}

// SubmitMeasurements parses the five raw reading fields and evaluates them.
func (w *Workflow) SubmitMeasurements(raw []string) (session.State, error) {
	values, err := ParseMeasurements(raw)
	if err != nil {
		return session.State{}, err
	}
	return w.SubmitReadings(values)
}

// SubmitReadings evaluates five numeric readings against the current
// datasheet and moves the session to the report step.
func (w *Workflow) SubmitReadings(values []float64) (session.State, error) {
	if len(values) != calibration.NumPoints {
		return session.State{}, invalid("measured", pkgerrors.Wrapf(ErrIncompleteMeasurements, "got %d values", len(values)))
	}
	for i, v := range values {
		if err := checkFinite(fmt.Sprintf("measured[%d]", i), v); err != nil {
			return session.State{}, err
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	prev := w.holder.Read()
	if prev.Step == session.StepDatasheet || len(prev.Points) != calibration.NumPoints {
		return session.State{}, pkgerrors.Wrapf(ErrNoDatasheet, "session is at step %s", prev.Step)
	}

	res, err := calibration.Evaluate(prev.Datasheet.InstrumentConfig, values)
	if err != nil {
		return session.State{}, pkgerrors.Wrap(err, "failed to evaluate readings")
	}

	st := w.holder.Merge(session.Update{
		Step:      ptr.To(session.StepReport),
		Points:    ptr.To(res.Points[:]),
		Measured:  &res.Measured,
		Errors:    &res.Errors,
		Threshold: &res.Threshold,
		Approved:  &res.Approved,
		Equation:  &res.Equation,
	})

	logrus.WithFields(logrus.Fields{
		"session":  st.ID,
		"tag":      st.Datasheet.Tag,
		"errors":   st.Errors,
		"approved": st.Approved,
	}).Info("readings evaluated")

	w.publishStep(st.ID, prev.Step, st.Step)
	if w.pub != nil {
		w.pub.Publish(events.SessionVerdict, events.VerdictEvent{
			SessionID: st.ID,
			Tag:       st.Datasheet.Tag,
			Approved:  st.Approved,
			Errors:    st.Errors,
			Threshold: st.Threshold,
			Ts:        w.now().Unix(),
		})
	}
	return st, nil
}

// Back returns to the datasheet step, keeping all entered data.
func (w *Workflow) Back() session.State {
	w.mu.Lock()
	defer w.mu.Unlock()

	prev := w.holder.Read()
	if prev.Step == session.StepDatasheet {
		return prev
	}
	st := w.holder.Merge(session.Update{Step: ptr.To(session.StepDatasheet)})
	w.publishStep(st.ID, prev.Step, st.Step)
	return st
}

// Reset discards the session and starts over.
func (w *Workflow) Reset() session.State {
	w.mu.Lock()
	defer w.mu.Unlock()

	prev := w.holder.Read()
	st := w.holder.Reset()
	logrus.WithField("previous", prev.ID).Info("session reset")
	if w.pub != nil {
		w.pub.Publish(events.SessionReset, events.ResetEvent{
			PreviousID: prev.ID,
			SessionID:  st.ID,
			Ts:         w.now().Unix(),
		})
	}
	return st
}

func (w *Workflow) publishStep(id string, from, to session.Step) {
	if w.pub == nil || from == to {
		return
	}
	w.pub.Publish(events.SessionStep, events.StepEvent{
		SessionID: id,
		From:      string(from),
		To:        string(to),
		Ts:        w.now().Unix(),
	})
}

// ValidateDatasheet checks the numeric fields of a datasheet.
func ValidateDatasheet(ds session.Datasheet) error {
	cfg := ds.InstrumentConfig
	if err := checkFinite("lrv", cfg.LowerRangeValue); err != nil {
		return err
	}
	if err := checkFinite("urv", cfg.UpperRangeValue); err != nil {
		return err
	}
	if cfg.LowerRangeValue >= cfg.UpperRangeValue {
		return invalid("urv", ErrInvalidRange)
	}
	if err := checkFinite("tolerance", cfg.Tolerance); err != nil {
		return err
	}
	if cfg.Tolerance < 0 {
		return invalid("tolerance", pkgerrors.Wrapf(ErrInvalidTolerance, "must not be negative, got %v", cfg.Tolerance))
	}
	if !cfg.ToleranceMode.Valid() {
		return invalid("toleranceMode", pkgerrors.Wrapf(ErrInvalidTolerance, "unknown mode %q", cfg.ToleranceMode))
	}
	return nil
}
