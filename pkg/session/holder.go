package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Holder owns the current session state. It performs no validation.
type Holder struct {
	mu    *sync.RWMutex
	state State
	now   func() time.Time
}

// NewHolder returns a holder in the initial empty state.
func NewHolder() *Holder {
	h := &Holder{
		mu:  &sync.RWMutex{},
		now: time.Now,
	}
	h.state = h.initial()
	return h
}

func (h *Holder) initial() State {
	return State{
		ID:        uuid.NewString(),
		Step:      StepDatasheet,
		Points:    []float64{},
		Measured:  []float64{},
		Errors:    []float64{},
		UpdatedAt: h.now(),
	}
}

// Read returns an independent copy of the current state.
func (h *Holder) Read() State {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.state.clone()
}

// Merge replaces the fields set in u and returns the resulting state.
func (h *Holder) Merge(u Update) State {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &h.state
	if u.ID != nil {
		s.ID = *u.ID
	}
	if u.Step != nil {
		s.Step = *u.Step
	}
	if u.Datasheet != nil {
		s.Datasheet = *u.Datasheet
	}
	if u.Points != nil {
		s.Points = cloneFloats(*u.Points)
	}
	if u.Measured != nil {
		s.Measured = cloneFloats(*u.Measured)
	}
	if u.Errors != nil {
		s.Errors = cloneFloats(*u.Errors)
	}
	if u.Threshold != nil {
		s.Threshold = *u.Threshold
	}
	if u.Approved != nil {
		s.Approved = *u.Approved
	}
	if u.Equation != nil {
		s.Equation = *u.Equation
	}
	s.UpdatedAt = h.now()

	return s.clone()
}

// Reset restores the initial state with a fresh ID.
func (h *Holder) Reset() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state = h.initial()
	return h.state.clone()
}

func (s State) clone() State {
	c := s
	c.Points = cloneFloats(s.Points)
	c.Measured = cloneFloats(s.Measured)
	c.Errors = cloneFloats(s.Errors)
	return c
}

func cloneFloats(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	return out
}
