package config

import (
	"github.com/sirupsen/logrus"

	"github.com/signalcheck/signalcheck/pkg/calibration"
)

// SinkKind selects where exported reports are stored.
type SinkKind string

const (
	SinkDir   SinkKind = "dir"
	SinkMinio SinkKind = "minio"
)

type Config interface {
	// HTTPAddr is an optional TCP address served in addition to the unix socket.
	HTTPAddr() string
	AllowNonRootAccess() bool
	DefaultToleranceMode() calibration.ToleranceMode
	EventBuffer() int

	ReportSink() SinkKind
	ReportDir() string
	Minio() MinioConfig

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error

	LogrusFields() logrus.Fields
}

// MinioConfig locates the bucket used by the minio report sink.
// Credentials are never stored in the config file.
type MinioConfig struct {
	Endpoint  string `json:"endpoint,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	UseSSL    bool   `json:"useSSL,omitempty"`
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
}
