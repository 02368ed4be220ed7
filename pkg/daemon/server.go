package daemon

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/signalcheck/signalcheck/pkg/config"
	"github.com/signalcheck/signalcheck/pkg/events"
	"github.com/signalcheck/signalcheck/pkg/report"
	"github.com/signalcheck/signalcheck/pkg/workflow"
)

// Server serves one calibration workflow over HTTP.
type Server struct {
	conf config.Config
	wf   *workflow.Workflow
	hub  *events.Hub

	sinkMu sync.RWMutex
	sink   report.Sink

	now func() time.Time
}

func NewServer(conf config.Config, wf *workflow.Workflow, hub *events.Hub, sink report.Sink) *Server {
	return &Server{
		conf: conf,
		wf:   wf,
		hub:  hub,
		sink: sink,
		now:  time.Now,
	}
}

// SetSink replaces the report sink, e.g. after a config reload.
func (s *Server) SetSink(sink report.Sink) {
	s.sinkMu.Lock()
	s.sink = sink
	s.sinkMu.Unlock()
}

func (s *Server) reportSink() report.Sink {
	s.sinkMu.RLock()
	defer s.sinkMu.RUnlock()
	return s.sink
}

// Router returns the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/state", s.getState)
	router.PUT("/datasheet", s.putDatasheet)
	router.PUT("/measurements", s.putMeasurements)
	router.POST("/back", s.postBack)
	router.POST("/reset", s.postReset)
	router.GET("/report", s.getReport)
	router.POST("/report/export", s.postReportExport)
	router.GET("/events", s.getEvents)
	router.GET("/config", s.getConfig)
	router.GET("/version", getVersion)

	return router
}
