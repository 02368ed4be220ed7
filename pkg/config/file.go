package config

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/signalcheck/signalcheck/pkg/calibration"
	"github.com/signalcheck/signalcheck/pkg/utils/ptr"
)

// Environment variables that override the file.
const (
	EnvHTTPAddr       = "SIGNALCHECK_HTTP_ADDR"
	EnvReportDir      = "SIGNALCHECK_REPORT_DIR"
	EnvReportSink     = "SIGNALCHECK_REPORT_SINK"
	EnvToleranceMode  = "SIGNALCHECK_TOLERANCE_MODE"
	EnvMinioEndpoint  = "MINIO_ENDPOINT"
	EnvMinioBucket    = "MINIO_BUCKET"
	EnvMinioUseSSL    = "MINIO_USE_SSL"
	EnvMinioAccessKey = "MINIO_ACCESS_KEY"
	EnvMinioSecretKey = "MINIO_SECRET_KEY"
)

var (
	defaultFileConfig = &RawFileConfig{
		HTTPAddr:             ptr.To(""),
		AllowNonRootAccess:   ptr.To(false),
		DefaultToleranceMode: ptr.To(string(calibration.ToleranceAbsolute)),
		EventBuffer:          ptr.To(16),
		ReportSink:           ptr.To(string(SinkDir)),
		ReportDir:            ptr.To("."),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
	getenv   func(string) string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
		getenv:   os.Getenv,
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
		getenv:   os.Getenv,
	}
}

type RawFileConfig struct {
	HTTPAddr             *string      `json:"httpAddr,omitempty"`
	AllowNonRootAccess   *bool        `json:"allowNonRootAccess,omitempty"`
	DefaultToleranceMode *string      `json:"defaultToleranceMode,omitempty"`
	EventBuffer          *int         `json:"eventBuffer,omitempty"`
	ReportSink           *string      `json:"reportSink,omitempty"`
	ReportDir            *string      `json:"reportDir,omitempty"`
	Minio                *MinioConfig `json:"minio,omitempty"`
}

// DefaultRawFileConfig returns a fully populated copy of the defaults.
func DefaultRawFileConfig() *RawFileConfig {
	return &RawFileConfig{
		HTTPAddr:             ptr.To(*defaultFileConfig.HTTPAddr),
		AllowNonRootAccess:   ptr.To(*defaultFileConfig.AllowNonRootAccess),
		DefaultToleranceMode: ptr.To(*defaultFileConfig.DefaultToleranceMode),
		EventBuffer:          ptr.To(*defaultFileConfig.EventBuffer),
		ReportSink:           ptr.To(*defaultFileConfig.ReportSink),
		ReportDir:            ptr.To(*defaultFileConfig.ReportDir),
		Minio:                &MinioConfig{},
	}
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	m := c.Minio()
	return &RawFileConfig{
		HTTPAddr:             ptr.To(c.HTTPAddr()),
		AllowNonRootAccess:   ptr.To(c.AllowNonRootAccess()),
		DefaultToleranceMode: ptr.To(string(c.DefaultToleranceMode())),
		EventBuffer:          ptr.To(c.EventBuffer()),
		ReportSink:           ptr.To(string(c.ReportSink())),
		ReportDir:            ptr.To(c.ReportDir()),
		Minio: &MinioConfig{
			Endpoint: m.Endpoint,
			Bucket:   m.Bucket,
			Prefix:   m.Prefix,
			UseSSL:   m.UseSSL,
		},
	}, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error. Variables already set are kept.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return pkgerrors.Wrapf(err, "failed to load env file %s", path)
	}
	return nil
}

func (f *File) env(key string) string {
	if f.getenv == nil {
		return ""
	}
	return strings.TrimSpace(f.getenv(key))
}

func (f *File) HTTPAddr() string {
	if v := f.env(EnvHTTPAddr); v != "" {
		return v
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.HTTPAddr, *defaultFileConfig.HTTPAddr)
}

func (f *File) AllowNonRootAccess() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.AllowNonRootAccess, *defaultFileConfig.AllowNonRootAccess)
}

func (f *File) DefaultToleranceMode() calibration.ToleranceMode {
	if v := calibration.ToleranceMode(f.env(EnvToleranceMode)); v.Valid() {
		return v
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	mode := calibration.ToleranceMode(ptr.Deref(f.c.DefaultToleranceMode, *defaultFileConfig.DefaultToleranceMode))
	if !mode.Valid() {
		logrus.Warnf("unknown default tolerance mode %q, using %s", mode, calibration.ToleranceAbsolute)
		return calibration.ToleranceAbsolute
	}
	return mode
}

func (f *File) EventBuffer() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := ptr.Deref(f.c.EventBuffer, *defaultFileConfig.EventBuffer)
	if n <= 0 {
		return *defaultFileConfig.EventBuffer
	}
	return n
}

func (f *File) ReportSink() SinkKind {
	if v := f.env(EnvReportSink); v != "" {
		return SinkKind(v)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return SinkKind(ptr.Deref(f.c.ReportSink, *defaultFileConfig.ReportSink))
}

func (f *File) ReportDir() string {
	if v := f.env(EnvReportDir); v != "" {
		return v
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.ReportDir, *defaultFileConfig.ReportDir)
}

func (f *File) Minio() MinioConfig {
	f.mu.RLock()
	var m MinioConfig
	if f.c.Minio != nil {
		m = *f.c.Minio
	}
	f.mu.RUnlock()

	if v := f.env(EnvMinioEndpoint); v != "" {
		m.Endpoint = v
	}
	if v := f.env(EnvMinioBucket); v != "" {
		m.Bucket = v
	}
	if v := f.env(EnvMinioUseSSL); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			m.UseSSL = b
		} else {
			logrus.Warnf("ignoring invalid %s=%q", EnvMinioUseSSL, v)
		}
	}
	m.AccessKey = f.env(EnvMinioAccessKey)
	m.SecretKey = f.env(EnvMinioSecretKey)

	return m
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// A missing file means defaults. Never leave f.c nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	m := f.Minio()
	return logrus.Fields{
		"httpAddr":             f.HTTPAddr(),
		"allowNonRootAccess":   f.AllowNonRootAccess(),
		"defaultToleranceMode": f.DefaultToleranceMode(),
		"eventBuffer":          f.EventBuffer(),
		"reportSink":           f.ReportSink(),
		"reportDir":            f.ReportDir(),
		"minioEndpoint":        m.Endpoint,
		"minioBucket":          m.Bucket,
	}
}
