package cms

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mirror-media/mnews-cronjobs/models"
)

func (s *Client) CategorySlugs(ctx context.Context) ([]string, error) {
	var resp struct {
		AllCategories []models.Category `json:"allCategories"`
	}
	q := `query {
  allCategories(sortBy: sortOrder_ASC) {
    slug
  }
}`
	if err := s.Run(ctx, q, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to fetch categories")
	}
	res := make([]string, 0, len(resp.AllCategories))
	for _, c := range resp.AllCategories {
		res = append(res, c.Slug)
	}
	return res, nil
}

func (s *Client) ShowSlugs(ctx context.Context) ([]string, error) {
	var resp struct {
		AllShows []models.Show `json:"allShows"`
	}
	q := `query {
  allShows(sortBy: sortOrder_ASC) {
    slug
  }
}`
	if err := s.Run(ctx, q, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to fetch shows")
	}
	res := make([]string, 0, len(resp.AllShows))
	for _, c := range resp.AllShows {
		res = append(res, c.Slug)
	}
	return res, nil
}
