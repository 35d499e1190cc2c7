package k3

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// ConvertedText is plain text converted to the CMS rich text representation.
// Every field holds the value as a string ready to be stored.
type ConvertedText struct {
	Draft   string
	HTML    string
	APIData string
}

// Converter calls the converttext api that turns plain text into draft, html and api data.
type Converter struct {
	endpoint string
	cl       *http.Client
}

func NewConverter(endpoint string, cl *http.Client) *Converter {
	return &Converter{
		endpoint: endpoint,
		cl:       cl,
	}
}

// rawString unwraps a JSON string or keeps any other JSON value as text.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (s *Converter) Convert(ctx context.Context, text string) (*ConvertedText, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(text))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "application/json")
	res, err := s.cl.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "converttext request failed")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errors.Errorf("converttext responded with status %d", res.StatusCode)
	}
	var body struct {
		Draft   json.RawMessage `json:"draft"`
		HTML    json.RawMessage `json:"html"`
		APIData json.RawMessage `json:"apiData"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "failed to decode converttext response")
	}
	return &ConvertedText{
		Draft:   rawString(body.Draft),
		HTML:    rawString(body.HTML),
		APIData: rawString(body.APIData),
	}, nil
}
