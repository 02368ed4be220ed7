package client

import (
	"encoding/json"
	"net/url"

	pkgerrors "github.com/pkg/errors"

	"github.com/signalcheck/signalcheck/pkg/config"
	"github.com/signalcheck/signalcheck/pkg/report"
	"github.com/signalcheck/signalcheck/pkg/session"
)

// ExportResult is where the daemon stored an exported report.
type ExportResult struct {
	ReportID string `json:"reportId"`
	Location string `json:"location"`
}

func (c *Client) GetState() (*session.State, error) {
	ret, err := c.Get("/state")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get session state")
	}
	return decodeState(ret)
}

func (c *Client) SetDatasheet(ds session.Datasheet) (*session.State, error) {
	payload, err := json.Marshal(ds)
	if err != nil {
		return nil, err
	}
	ret, err := c.Put("/datasheet", payload)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to submit datasheet")
	}
	return decodeState(ret)
}

// SetMeasurements submits the five raw readings. They are parsed by the
// daemon so that field errors are reported the same way for every client.
func (c *Client) SetMeasurements(raw []string) (*session.State, error) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	ret, err := c.Put("/measurements", payload)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to submit measurements")
	}
	return decodeState(ret)
}

func (c *Client) Back() (*session.State, error) {
	ret, err := c.Post("/back", nil)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to go back")
	}
	return decodeState(ret)
}

func (c *Client) Reset() (*session.State, error) {
	ret, err := c.Post("/reset", nil)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to reset session")
	}
	return decodeState(ret)
}

// GetReport returns the rendered report of the evaluated session.
func (c *Client) GetReport(format report.Format) ([]byte, error) {
	ret, err := c.Get("/report?format=" + url.QueryEscape(string(format)))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get report")
	}
	return ret, nil
}

// GetReportDocument returns the report as a structured document.
func (c *Client) GetReportDocument() (*report.Document, error) {
	ret, err := c.GetReport(report.FormatJSON)
	if err != nil {
		return nil, err
	}
	var doc report.Document
	if err := json.Unmarshal(ret, &doc); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal report")
	}
	return &doc, nil
}

func (c *Client) ExportReport() (*ExportResult, error) {
	ret, err := c.Post("/report/export", nil)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to export report")
	}
	var res ExportResult
	if err := json.Unmarshal(ret, &res); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal export result")
	}
	return &res, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal(ret, &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	var v string
	if err := json.Unmarshal(ret, &v); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal version")
	}
	return v, nil
}

func decodeState(b []byte) (*session.State, error) {
	var st session.State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal session state")
	}
	return &st, nil
}
