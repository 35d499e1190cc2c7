package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	esEndpointFlag = "es-endpoint"
	docType        = "_doc"
	metaDocID      = "meta"
)

const postsMapping = `{
  "mappings": {
    "_doc": {
      "properties": {
        "publishTime": {
          "type": "date",
          "format": "yyyy-MM-dd HH:mm:ss||yyyy-MM-dd HH:mm:ss.SSSSSS"
        }
      }
    }
  }
}`

func RegisterElasticFlags(f []cli.Flag) []cli.Flag {
	return append(f,
		cli.StringFlag{
			Name:   esEndpointFlag,
			Usage:  "elasticsearch endpoint",
			Value:  "http://localhost:9200",
			EnvVar: "ES_ENDPOINT",
		},
	)
}

// Elastic keeps post documents and the sync watermark in elasticsearch.
type Elastic struct {
	es         *elasticsearch.Client
	postsIndex string
	metaIndex  string
}

func NewElastic(endpoint string, cl *http.Client, cfg *Config) (*Elastic, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{endpoint},
	}
	if cl != nil {
		esCfg.Transport = cl.Transport
	}
	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create elasticsearch client")
	}
	log.Infof("elasticsearch endpoint %v", endpoint)
	return &Elastic{
		es:         es,
		postsIndex: cfg.PostsIndex,
		metaIndex:  cfg.MetaIndex,
	}, nil
}

func NewElasticFromFlags(c *cli.Context, cl *http.Client, cfg *Config) (*Elastic, error) {
	return NewElastic(c.String(esEndpointFlag), cl, cfg)
}

type esRequest interface {
	Do(ctx context.Context, transport esapi.Transport) (*esapi.Response, error)
}

// do runs req and treats the ignored status codes as success.
func (s *Elastic) do(ctx context.Context, req esRequest, ignore ...int) (*esapi.Response, error) {
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return nil, errors.Wrap(err, "elasticsearch request failed")
	}
	if !res.IsError() {
		return res, nil
	}
	for _, code := range ignore {
		if res.StatusCode == code {
			return res, nil
		}
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(res.Body)
	b, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return nil, errors.Errorf("elasticsearch responded with status %d: %s", res.StatusCode, b)
}

func (s *Elastic) close(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
}

// EnsureIndices creates the posts and meta indices. Existing indices are left as they are.
func (s *Elastic) EnsureIndices(ctx context.Context) error {
	includeTypeName := true
	res, err := s.do(ctx, esapi.IndicesCreateRequest{
		Index:           s.postsIndex,
		Body:            bytes.NewBufferString(postsMapping),
		IncludeTypeName: &includeTypeName,
	}, http.StatusBadRequest)
	if err != nil {
		return errors.Wrapf(err, "failed to create index %v", s.postsIndex)
	}
	s.close(res)
	res, err = s.do(ctx, esapi.IndicesCreateRequest{
		Index: s.metaIndex,
	}, http.StatusBadRequest)
	if err != nil {
		return errors.Wrapf(err, "failed to create index %v", s.metaIndex)
	}
	s.close(res)
	return nil
}

type metaDoc struct {
	TS string `json:"ts"`
}

func (s *Elastic) Watermark(ctx context.Context) (*time.Time, error) {
	res, err := s.do(ctx, esapi.GetRequest{
		Index:        s.metaIndex,
		DocumentType: docType,
		DocumentID:   metaDocID,
	}, http.StatusNotFound)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get watermark")
	}
	defer s.close(res)
	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	var body struct {
		Found  bool    `json:"found"`
		Source metaDoc `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "failed to decode watermark")
	}
	if !body.Found {
		return nil, nil
	}
	ms, err := strconv.ParseInt(body.Source.TS, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse watermark %v", body.Source.TS)
	}
	t := time.UnixMilli(ms)
	return &t, nil
}

func (s *Elastic) SaveWatermark(ctx context.Context, t time.Time) error {
	b, err := json.Marshal(metaDoc{TS: strconv.FormatInt(t.UnixMilli(), 10)})
	if err != nil {
		return err
	}
	res, err := s.do(ctx, esapi.IndexRequest{
		Index:        s.metaIndex,
		DocumentType: docType,
		DocumentID:   metaDocID,
		Body:         bytes.NewReader(b),
	})
	if err != nil {
		return errors.Wrap(err, "failed to save watermark")
	}
	s.close(res)
	log.WithField("ts", t).Debug("watermark saved")
	return nil
}

func (s *Elastic) Upsert(ctx context.Context, id string, doc map[string]any) error {
	b, err := json.Marshal(map[string]any{
		"doc":           doc,
		"doc_as_upsert": true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to encode document")
	}
	res, err := s.do(ctx, esapi.UpdateRequest{
		Index:        s.postsIndex,
		DocumentType: docType,
		DocumentID:   id,
		Body:         bytes.NewReader(b),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to upsert %v", id)
	}
	s.close(res)
	return nil
}

// Delete removes the document. Missing documents are not an error.
func (s *Elastic) Delete(ctx context.Context, id string) error {
	res, err := s.do(ctx, esapi.DeleteRequest{
		Index:        s.postsIndex,
		DocumentType: docType,
		DocumentID:   id,
	}, http.StatusBadRequest, http.StatusNotFound)
	if err != nil {
		return errors.Wrapf(err, "failed to delete %v", id)
	}
	s.close(res)
	return nil
}
