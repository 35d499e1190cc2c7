package storage

import (
	"bytes"
	"context"
	"net/http"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"
)

const (
	storageDriverFlag = "storage-driver"
	storageBucketFlag = "storage-bucket"
	storageDirFlag    = "storage-dir"
)

const (
	CacheControlRevalidate = "max-age=300,public,must-revalidate"
	CacheControlPublic     = "max-age=300,public"
	ContentLanguage        = "zh"

	ContentTypeXML  = "application/xml; charset=utf-8"
	ContentTypeRSS  = "application/rss+xml"
	ContentTypeJSON = "application/json; charset=utf-8"
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	f = append(f,
		cli.StringFlag{
			Name:   storageDriverFlag,
			Usage:  "storage driver (s3, minio, file)",
			Value:  "s3",
			EnvVar: "STORAGE_DRIVER",
		},
		cli.StringFlag{
			Name:   storageBucketFlag,
			Usage:  "default bucket when the job config names none",
			EnvVar: "STORAGE_BUCKET",
		},
		cli.StringFlag{
			Name:   storageDirFlag,
			Usage:  "output directory of the file driver",
			Value:  "out",
			EnvVar: "STORAGE_DIR",
		},
	)
	f = cs.RegisterS3ClientFlags(f)
	f = registerMinioFlags(f)
	return f
}

// Object is a rendered document ready to be published.
type Object struct {
	Bucket       string
	Key          string
	Data         []byte
	ContentType  string
	CacheControl string
	Gzip         bool
}

type Uploader interface {
	Upload(ctx context.Context, o *Object) error
}

func New(c *cli.Context, cl *http.Client) (Uploader, error) {
	bucket := c.String(storageBucketFlag)
	switch d := c.String(storageDriverFlag); d {
	case "s3", "":
		s3cl := cs.NewS3Client(c, cl)
		if s3cl == nil {
			return nil, errors.New("s3 client is not configured")
		}
		return NewS3(s3cl.Get(), bucket), nil
	case "minio":
		return newMinioFromFlags(c, bucket)
	case "file":
		return NewFile(c.String(storageDirFlag), bucket), nil
	default:
		return nil, errors.Errorf("unknown storage driver %v", d)
	}
}

func bucketOf(o *Object, def string) (string, error) {
	if o.Bucket != "" {
		return o.Bucket, nil
	}
	if def != "" {
		return def, nil
	}
	return "", errors.Errorf("no bucket for %v", o.Key)
}

// encode returns the bytes to store and the content encoding they carry.
func encode(o *Object) ([]byte, string, error) {
	if !o.Gzip {
		return o.Data, "", nil
	}
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to create gzip writer")
	}
	if _, err := w.Write(o.Data); err != nil {
		return nil, "", errors.Wrap(err, "failed to compress data")
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "failed to flush gzip writer")
	}
	return buf.Bytes(), "gzip", nil
}
