package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/klauspost/compress/gzip"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	inputs []*s3.PutObjectInput
	bodies [][]byte
}

func (s *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	s.inputs = append(s.inputs, in)
	s.bodies = append(s.bodies, b)
	return &s3.PutObjectOutput{}, nil
}

type fakeMinio struct {
	bucket string
	key    string
	data   []byte
	opts   minio.PutObjectOptions
}

func (s *fakeMinio) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	s.bucket = bucket
	s.key = key
	s.data, _ = io.ReadAll(r)
	s.opts = opts
	return minio.UploadInfo{Size: size}, nil
}

func gunzip(t *testing.T, b []byte) string {
	t.Helper()
	r, err := gzip.NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestEncode(t *testing.T) {
	data, enc, err := encode(&Object{Data: []byte("<rss/>")})
	require.NoError(t, err)
	assert.Empty(t, enc)
	assert.Equal(t, "<rss/>", string(data))

	data, enc, err = encode(&Object{Data: []byte("<rss/>"), Gzip: true})
	require.NoError(t, err)
	assert.Equal(t, "gzip", enc)
	assert.Equal(t, "<rss/>", gunzip(t, data))
}

func TestS3Upload(t *testing.T) {
	api := &fakeS3{}
	up := NewS3(api, "default-bucket")
	err := up.Upload(t.Context(), &Object{
		Key:          "rss/yahoo.xml",
		Data:         []byte("<rss/>"),
		ContentType:  ContentTypeRSS,
		CacheControl: CacheControlPublic,
		Gzip:         true,
	})
	require.NoError(t, err)
	require.Len(t, api.inputs, 1)
	in := api.inputs[0]
	assert.Equal(t, "default-bucket", aws.StringValue(in.Bucket))
	assert.Equal(t, "rss/yahoo.xml", aws.StringValue(in.Key))
	assert.Equal(t, "gzip", aws.StringValue(in.ContentEncoding))
	assert.Equal(t, "zh", aws.StringValue(in.ContentLanguage))
	assert.Equal(t, CacheControlPublic, aws.StringValue(in.CacheControl))
	assert.NotEmpty(t, aws.StringValue(in.ContentMD5))
	assert.Equal(t, "<rss/>", gunzip(t, api.bodies[0]))
}

func TestS3Upload_ObjectBucketWins(t *testing.T) {
	api := &fakeS3{}
	up := NewS3(api, "default-bucket")
	require.NoError(t, up.Upload(t.Context(), &Object{Bucket: "static", Key: "a.xml", Data: []byte("x")}))
	assert.Equal(t, "static", aws.StringValue(api.inputs[0].Bucket))
	assert.Nil(t, api.inputs[0].ContentEncoding)
}

func TestUpload_NoBucket(t *testing.T) {
	up := NewS3(&fakeS3{}, "")
	assert.Error(t, up.Upload(t.Context(), &Object{Key: "a.xml"}))
}

func TestMinioUpload(t *testing.T) {
	cl := &fakeMinio{}
	up := &Minio{cl: cl, bucket: "feeds"}
	err := up.Upload(t.Context(), &Object{
		Key:          "json/popularlist.json",
		Data:         []byte(`{"report":[]}`),
		ContentType:  ContentTypeJSON,
		CacheControl: CacheControlPublic,
		Gzip:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, "feeds", cl.bucket)
	assert.Equal(t, "json/popularlist.json", cl.key)
	assert.Equal(t, "gzip", cl.opts.ContentEncoding)
	assert.Equal(t, "zh", cl.opts.ContentLanguage)
	assert.Equal(t, ContentTypeJSON, cl.opts.ContentType)
	assert.Equal(t, `{"report":[]}`, gunzip(t, cl.data))
}

func TestFileUpload(t *testing.T) {
	dir := t.TempDir()
	up := NewFile(dir, "static")
	require.NoError(t, up.Upload(t.Context(), &Object{Key: "sitemap/sitemap_index.xml", Data: []byte("<sitemapindex/>")}))
	b, err := os.ReadFile(filepath.Join(dir, "static", "sitemap", "sitemap_index.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<sitemapindex/>", string(b))
}
