package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// File writes objects under dir/bucket/key. Data is written as stored,
// so gzipped objects stay gzipped.
type File struct {
	dir    string
	bucket string
}

func NewFile(dir string, bucket string) *File {
	return &File{
		dir:    dir,
		bucket: bucket,
	}
}

func (s *File) Upload(_ context.Context, o *Object) error {
	bucket, err := bucketOf(o, s.bucket)
	if err != nil {
		return err
	}
	data, _, err := encode(o)
	if err != nil {
		return err
	}
	p := filepath.Join(s.dir, bucket, filepath.FromSlash(o.Key))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create dir for %v", p)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %v", p)
	}
	log.WithField("path", p).
		WithField("size", humanize.Bytes(uint64(len(data)))).
		Info("object written")
	return nil
}
