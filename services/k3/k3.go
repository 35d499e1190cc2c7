package k3

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Draft is a rich text field as stored by the k3 api.
type Draft struct {
	Draft   json.RawMessage `json:"draft"`
	APIData json.RawMessage `json:"apiData"`
	HTML    string          `json:"html"`
}

type ResizedTarget struct {
	URL string `json:"url"`
}

type ImageFile struct {
	Filename       string `json:"filename"`
	Filetype       string `json:"filetype"`
	URL            string `json:"url"`
	ResizedTargets struct {
		Desktop ResizedTarget `json:"desktop"`
		Mobile  ResizedTarget `json:"mobile"`
		Tablet  ResizedTarget `json:"tablet"`
		Tiny    ResizedTarget `json:"tiny"`
	} `json:"resizedTargets"`
}

type HeroImage struct {
	Description string    `json:"description"`
	Image       ImageFile `json:"image"`
}

type Category struct {
	Name         string `json:"name"`
	IsMemberOnly *bool  `json:"is_member_only"`
}

type Section struct {
	Name string `json:"name"`
}

type Post struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Brief       Draft      `json:"brief"`
	Content     Draft      `json:"content"`
	HeroCaption *string    `json:"heroCaption"`
	HeroImage   *HeroImage `json:"heroImage"`
	Categories  []Category `json:"categories"`
	Sections    []Section  `json:"sections"`
}

// MemberOnly reports whether any category of the post is restricted to members.
func (s *Post) MemberOnly() bool {
	for _, c := range s.Categories {
		if c.IsMemberOnly != nil && *c.IsMemberOnly {
			return true
		}
	}
	return false
}

type Api struct {
	endpoint string
	cl       *http.Client
}

func New(endpoint string, cl *http.Client) *Api {
	return &Api{
		endpoint: endpoint,
		cl:       cl,
	}
}

// PublishedPosts returns the latest published posts with categories and hero image populated.
func (s *Api) PublishedPosts(ctx context.Context, max int) ([]Post, error) {
	q := url.Values{}
	q.Set("where", `{"state":"published"}`)
	q.Set("max_results", fmt.Sprintf("%d", max))
	q.Set("sort", "-publishedDate")
	q.Set("populate", "categories,heroImage")
	u := s.endpoint + "?" + q.Encode()
	log.Infof("fetching k3 posts from %v", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json;charset=utf-8")
	res, err := s.cl.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "k3 request failed")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, errors.Errorf("k3 responded with status %d: %s", res.StatusCode, b)
	}
	var body struct {
		Items []Post `json:"_items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "failed to decode k3 response")
	}
	return body.Items, nil
}
