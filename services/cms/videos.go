package cms

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/mirror-media/mnews-cronjobs/models"
)

// FeedVideos returns videos matching the raw where filter, newest first.
// relatedLimit > 0 restricts related posts to that many published ones.
func (s *Client) FeedVideos(ctx context.Context, where string, first int, relatedLimit int) ([]models.Video, error) {
	if where == "" {
		where = "{state: published}"
	}
	related := "relatedPosts"
	if relatedLimit > 0 {
		related = fmt.Sprintf("relatedPosts(first: %d, sortBy: publishTime_DESC, where: {state: published})", relatedLimit)
	}
	q := fmt.Sprintf(`query {
  allVideos(where: %v, sortBy: createdAt_DESC, first: %d) {
    id
    name
    url
    description
    categories {
      name
      slug
    }
    %v {
      name
      slug
      heroImage {
        urlOriginal
      }
    }
    createdAt
    updatedAt
  }
}`, where, first, related)
	var resp struct {
		AllVideos []models.Video `json:"allVideos"`
	}
	if err := s.Run(ctx, q, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to fetch feed videos")
	}
	return resp.AllVideos, nil
}

// YoutubeVideoURLs returns urls of youtube videos whose url ends with one of ids.
func (s *Client) YoutubeVideoURLs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf(`query {
  allVideos(where: {AND: [%v, {OR: [{url_contains_i: "youtube"}, {url_contains_i: "youtu.be"}]}]}) {
    url
  }
}`, OrFilter("url_ends_with", ids))
	var resp struct {
		AllVideos []models.Video `json:"allVideos"`
	}
	if err := s.Run(ctx, q, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to fetch youtube videos")
	}
	res := make([]string, 0, len(resp.AllVideos))
	for _, v := range resp.AllVideos {
		if u := strings.TrimSpace(v.URL); u != "" {
			res = append(res, u)
		}
	}
	return res, nil
}
