package report

import (
	"bytes"
	"context"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Export renders doc as PDF and stores it in sink under doc.Filename.
func Export(ctx context.Context, doc *Document, sink Sink) (string, error) {
	if sink == nil {
		return "", pkgerrors.New("no report sink configured")
	}

	var buf bytes.Buffer
	if err := RenderPDF(doc, &buf); err != nil {
		return "", err
	}

	size := int64(buf.Len())
	loc, err := sink.Put(ctx, doc.Filename, FormatPDF.ContentType(), &buf, size)
	if err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"report":   doc.ID,
		"session":  doc.SessionID,
		"location": loc,
		"bytes":    size,
	}).Info("report exported")
	return loc, nil
}
