package report

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Sink stores a rendered report and returns where it went.
type Sink interface {
	Put(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
}

// DirSink writes reports into a local directory.
type DirSink struct {
	Dir string
}

var _ Sink = &DirSink{}

func NewDirSink(dir string) (*DirSink, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, pkgerrors.New("report directory is empty")
	}
	return &DirSink{Dir: dir}, nil
}

// Put writes r to Dir/name through a temporary file and a rename, so a
// partially written report never replaces an existing one.
func (s *DirSink) Put(ctx context.Context, name, _ string, r io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name {
		return "", pkgerrors.Errorf("invalid report name %q", name)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to create report directory %s", s.Dir)
	}

	tmp, err := os.CreateTemp(s.Dir, ".tmp-"+name+"-*")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to create temp file in %s", s.Dir)
	}
	tmpName := tmp.Name()
	defer func() {
		if _, err := os.Stat(tmpName); err == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", pkgerrors.Wrapf(err, "failed to write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to close %s", tmpName)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		logrus.Warnf("failed to chmod %s: %v", tmpName, err)
	}

	dest := filepath.Join(s.Dir, name)
	if err := os.Rename(tmpName, dest); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to move report to %s", dest)
	}
	return dest, nil
}

// MinioSink uploads reports to an S3-compatible bucket.
type MinioSink struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ Sink = &MinioSink{}

// MinioOptions locates the bucket and carries credentials.
type MinioOptions struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	UseSSL    bool
	AccessKey string
	SecretKey string
}

func NewMinioSink(opts MinioOptions) (*MinioSink, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, pkgerrors.New("minio endpoint and bucket are required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create minio client")
	}
	return &MinioSink{client: client, bucket: opts.Bucket, prefix: strings.Trim(opts.Prefix, "/")}, nil
}

// Key returns the object key used for name.
func (s *MinioSink) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *MinioSink) Put(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	if s.client == nil {
		return "", pkgerrors.New("minio client not initialized")
	}
	info, err := s.client.PutObject(ctx, s.bucket, s.Key(name), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to upload %s to bucket %s", name, s.bucket)
	}
	return "s3://" + s.bucket + "/" + info.Key, nil
}
