package daemon

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/signalcheck/signalcheck/pkg/config"
	"github.com/signalcheck/signalcheck/pkg/report"
)

// NewSink builds the report sink selected by conf.
func NewSink(conf config.Config) (report.Sink, error) {
	switch conf.ReportSink() {
	case config.SinkDir, "":
		return report.NewDirSink(conf.ReportDir())
	case config.SinkMinio:
		m := conf.Minio()
		return report.NewMinioSink(report.MinioOptions{
			Endpoint:  m.Endpoint,
			Bucket:    m.Bucket,
			Prefix:    m.Prefix,
			UseSSL:    m.UseSSL,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
		})
	default:
		return nil, pkgerrors.Errorf("unknown report sink %q", conf.ReportSink())
	}
}
