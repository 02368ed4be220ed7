package session

import (
	"time"

	"github.com/signalcheck/signalcheck/pkg/calibration"
)

// Step is the workflow step a session is in.
type Step string

const (
	StepDatasheet   Step = "datasheet"
	StepMeasurement Step = "measurement"
	StepReport      Step = "report"
)

// Datasheet is the instrument intake form. Only the embedded
// InstrumentConfig takes part in computation.
type Datasheet struct {
	Tag          string `json:"tag"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	PowerSupply  string `json:"powerSupply"`
	CalibratorID string `json:"calibrator"`
	Technician   string `json:"technician"`

	calibration.InstrumentConfig
}

// State is one generation of a calibration session.
//
// Every slice in a State returned by Holder.Read is owned by the caller.
type State struct {
	// ID changes whenever the datasheet is replaced or the session is reset.
	ID        string                     `json:"id"`
	Step      Step                       `json:"step"`
	Datasheet Datasheet                  `json:"datasheet"`
	Points    []float64                  `json:"points"`
	Measured  []float64                  `json:"measured"`
	Errors    []float64                  `json:"errors"`
	Threshold float64                    `json:"threshold"`
	Approved  bool                       `json:"approved"`
	Equation  calibration.LinearEquation `json:"equation"`
	UpdatedAt time.Time                  `json:"updatedAt"`
}

// Update names the fields to replace in Holder.Merge. Nil fields are left
// untouched.
type Update struct {
	ID        *string
	Step      *Step
	Datasheet *Datasheet
	Points    *[]float64
	Measured  *[]float64
	Errors    *[]float64
	Threshold *float64
	Approved  *bool
	Equation  *calibration.LinearEquation
}
