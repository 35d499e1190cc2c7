package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type S3 struct {
	api    s3iface.S3API
	bucket string
}

func NewS3(api s3iface.S3API, bucket string) *S3 {
	return &S3{
		api:    api,
		bucket: bucket,
	}
}

func (s *S3) Upload(ctx context.Context, o *Object) error {
	bucket, err := bucketOf(o, s.bucket)
	if err != nil {
		return err
	}
	data, enc, err := encode(o)
	if err != nil {
		return err
	}
	sum := md5.Sum(data)
	in := &s3.PutObjectInput{
		Bucket:          aws.String(bucket),
		Key:             aws.String(o.Key),
		Body:            bytes.NewReader(data),
		ContentMD5:      aws.String(base64.StdEncoding.EncodeToString(sum[:])),
		ContentType:     aws.String(o.ContentType),
		ContentLanguage: aws.String(ContentLanguage),
		CacheControl:    aws.String(o.CacheControl),
	}
	if enc != "" {
		in.ContentEncoding = aws.String(enc)
	}
	if _, err := s.api.PutObjectWithContext(ctx, in); err != nil {
		return errors.Wrapf(err, "failed to put %v/%v", bucket, o.Key)
	}
	log.WithField("bucket", bucket).
		WithField("key", o.Key).
		WithField("size", humanize.Bytes(uint64(len(data)))).
		Info("object uploaded")
	return nil
}
