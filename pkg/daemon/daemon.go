package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/signalcheck/signalcheck/pkg/config"
	"github.com/signalcheck/signalcheck/pkg/events"
	"github.com/signalcheck/signalcheck/pkg/session"
	"github.com/signalcheck/signalcheck/pkg/workflow"
)

// Run serves the calibration API on unixSocketPath, and on the configured
// TCP address if any, until SIGINT or SIGTERM.
func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	conf, err := config.NewFile(configPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to parse config during startup")
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	sink, err := NewSink(conf)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to set up report sink")
	}

	hub := events.NewHub(conf.EventBuffer())
	wf := workflow.New(session.NewHolder(), workflow.Options{
		DefaultToleranceMode: conf.DefaultToleranceMode(),
		Publisher:            hub,
	})
	s := NewServer(conf, wf, hub, sink)

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			wf.SetDefaultToleranceMode(conf.DefaultToleranceMode())
			sink, err := NewSink(conf)
			if err != nil {
				logrus.Errorf("failed to rebuild report sink, keeping the old one: %v", err)
			} else {
				s.SetSink(sink)
			}
			logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
		}
	}()

	// Cancelled before Shutdown so that event streams return.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	// A stale socket from a crashed daemon would make Listen fail.
	if _, err := os.Stat(unixSocketPath); err == nil {
		logrus.Warnf("removing stale socket %s", unixSocketPath)
		if err := os.Remove(unixSocketPath); err != nil {
			return pkgerrors.Wrapf(err, "failed to remove stale socket %s", unixSocketPath)
		}
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", unixSocketPath)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			_ = l.Close()
			return pkgerrors.Wrapf(err, "failed to change permissions of %s", unixSocketPath)
		}
	}

	listeners := []net.Listener{l}
	if addr := conf.HTTPAddr(); addr != "" {
		tl, err := net.Listen("tcp", addr)
		if err != nil {
			_ = l.Close()
			return pkgerrors.Wrapf(err, "failed to listen on %s", addr)
		}
		listeners = append(listeners, tl)
	}

	serveErr := make(chan error, len(listeners))
	for _, l := range listeners {
		go func(l net.Listener) {
			logrus.Infof("http server listening on %s", l.Addr().String())
			if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}(l)
	}

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	var runErr error
	select {
	case sig := <-sigc:
		logrus.Infof("caught signal \"%s\": shutting down.", sig)
	case runErr = <-serveErr:
		logrus.Errorf("http server failed: %v", runErr)
	}

	logrus.Info("shutting down http server")
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	if err := os.Remove(unixSocketPath); err != nil && !os.IsNotExist(err) {
		logrus.Errorf("failed to remove socket %s: %v", unixSocketPath, err)
	}

	logrus.Info("exiting")
	return runErr
}
