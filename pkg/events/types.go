package events

import "encoding/json"

// Event names.
const (
	SessionStep    = "session.step"
	SessionVerdict = "session.verdict"
	SessionReset   = "session.reset"
	ReportExported = "report.exported"
)

// Event is a named JSON payload delivered to subscribers.
type Event struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// StepEvent is the payload of SessionStep.
type StepEvent struct {
	SessionID string `json:"sessionId"`
	From      string `json:"from"`
	To        string `json:"to"`
	Ts        int64  `json:"ts"`
}

// VerdictEvent is the payload of SessionVerdict.
type VerdictEvent struct {
	SessionID string    `json:"sessionId"`
	Tag       string    `json:"tag"`
	Approved  bool      `json:"approved"`
	Errors    []float64 `json:"errors"`
	Threshold float64   `json:"threshold"`
	Ts        int64     `json:"ts"`
}

// ResetEvent is the payload of SessionReset.
type ResetEvent struct {
	PreviousID string `json:"previousId"`
	SessionID  string `json:"sessionId"`
	Ts         int64  `json:"ts"`
}

// ExportEvent is the payload of ReportExported.
type ExportEvent struct {
	SessionID string `json:"sessionId"`
	ReportID  string `json:"reportId"`
	Location  string `json:"location"`
	Ts        int64  `json:"ts"`
}

// DecodeAs unmarshals the payload of e into T. An empty payload yields the
// zero value.
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
