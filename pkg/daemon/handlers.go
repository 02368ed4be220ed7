package daemon

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/signalcheck/signalcheck/pkg/config"
	"github.com/signalcheck/signalcheck/pkg/events"
	"github.com/signalcheck/signalcheck/pkg/report"
	"github.com/signalcheck/signalcheck/pkg/session"
	"github.com/signalcheck/signalcheck/pkg/version"
	"github.com/signalcheck/signalcheck/pkg/workflow"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ExportResult is the body of a successful report export.
type ExportResult struct {
	ReportID string `json:"reportId"`
	Location string `json:"location"`
}

func abort(c *gin.Context, code int, err error) {
	body := APIError{Error: err.Error()}
	var ve *workflow.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	c.IndentedJSON(code, body)
	_ = c.AbortWithError(code, err)
}

// statusFor maps workflow and report errors to HTTP status codes.
func statusFor(err error) int {
	var ve *workflow.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrNoDatasheet), errors.Is(err, report.ErrNotReady):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) getState(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.wf.Snapshot())
}

func (s *Server) putDatasheet(c *gin.Context) {
	var ds session.Datasheet
	if err := c.ShouldBindJSON(&ds); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	st, err := s.wf.SubmitDatasheet(ds)
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.IndentedJSON(http.StatusCreated, st)
}

func (s *Server) putMeasurements(c *gin.Context) {
	var body []any
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	raw := make([]string, len(body))
	for i, v := range body {
		switch x := v.(type) {
		case nil:
			raw[i] = ""
		case float64:
			raw[i] = strconv.FormatFloat(x, 'g', -1, 64)
		case string:
			raw[i] = x
		default:
			b, _ := json.Marshal(x)
			raw[i] = string(b)
		}
	}

	st, err := s.wf.SubmitMeasurements(raw)
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.IndentedJSON(http.StatusCreated, st)
}

func (s *Server) postBack(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.wf.Back())
}

func (s *Server) postReset(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.wf.Reset())
}

func (s *Server) getReport(c *gin.Context) {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	doc, err := report.Build(s.wf.Snapshot(), s.now())
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}

	var buf bytes.Buffer
	if err := report.Render(doc, format, &buf); err != nil {
		logrus.Errorf("render report failed: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}

	if format == report.FormatPDF {
		c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *Server) postReportExport(c *gin.Context) {
	doc, err := report.Build(s.wf.Snapshot(), s.now())
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}

	loc, err := report.Export(c.Request.Context(), doc, s.reportSink())
	if err != nil {
		logrus.Errorf("export report failed: %v", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}

	s.hub.Publish(events.ReportExported, events.ExportEvent{
		SessionID: doc.SessionID,
		ReportID:  doc.ID,
		Location:  loc,
		Ts:        s.now().Unix(),
	})
	c.IndentedJSON(http.StatusCreated, ExportResult{ReportID: doc.ID, Location: loc})
}

func (s *Server) getEvents(c *gin.Context) {
	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("hello", gin.H{"sessionId": s.wf.Snapshot().ID})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(_ io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func (s *Server) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(s.conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
