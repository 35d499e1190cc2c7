package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	minioEndpointFlag  = "minio-endpoint"
	minioAccessKeyFlag = "minio-access-key"
	minioSecretKeyFlag = "minio-secret-key"
	minioSecureFlag    = "minio-secure"
)

func registerMinioFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   minioEndpointFlag,
			Usage:  "minio endpoint (host:port)",
			EnvVar: "MINIO_ENDPOINT",
		},
		cli.StringFlag{
			Name:   minioAccessKeyFlag,
			Usage:  "minio access key",
			EnvVar: "MINIO_ACCESS_KEY",
		},
		cli.StringFlag{
			Name:   minioSecretKeyFlag,
			Usage:  "minio secret key",
			EnvVar: "MINIO_SECRET_KEY",
		},
		cli.BoolTFlag{
			Name:   minioSecureFlag,
			Usage:  "use https to reach minio",
			EnvVar: "MINIO_SECURE",
		},
	)
}

type minioPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Minio struct {
	cl     minioPutter
	bucket string
}

func newMinioFromFlags(c *cli.Context, bucket string) (*Minio, error) {
	endpoint := c.String(minioEndpointFlag)
	if endpoint == "" {
		return nil, errors.New("minio endpoint is not configured")
	}
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.String(minioAccessKeyFlag), c.String(minioSecretKeyFlag), ""),
		Secure: c.BoolT(minioSecureFlag),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create minio client")
	}
	return &Minio{
		cl:     cl,
		bucket: bucket,
	}, nil
}

func (s *Minio) Upload(ctx context.Context, o *Object) error {
	bucket, err := bucketOf(o, s.bucket)
	if err != nil {
		return err
	}
	data, enc, err := encode(o)
	if err != nil {
		return err
	}
	_, err = s.cl.PutObject(ctx, bucket, o.Key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:     o.ContentType,
		ContentEncoding: enc,
		ContentLanguage: ContentLanguage,
		CacheControl:    o.CacheControl,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to put %v/%v", bucket, o.Key)
	}
	log.WithField("bucket", bucket).
		WithField("key", o.Key).
		WithField("size", humanize.Bytes(uint64(len(data)))).
		Info("object uploaded to minio")
	return nil
}
