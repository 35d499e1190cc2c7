package cms

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/mirror-media/mnews-cronjobs/models"
)

const feedPostFields = `id
    name
    slug
    briefHtml
    contentHtml
    contentApiData
    heroCaption
    heroImage {
      name
      urlOriginal
    }
    categories {
      name
      slug
    }
    relatedPosts {
      name
      slug
      heroImage {
        urlOriginal
      }
    }
    writers {
      name
    }
    tags {
      name
    }
    publishTime
    updatedAt`

// FeedPosts returns posts matching the raw where filter, newest first.
func (s *Client) FeedPosts(ctx context.Context, where string, first int) ([]models.Post, error) {
	if where == "" {
		where = "{state: published}"
	}
	q := fmt.Sprintf(`query {
  allPosts(where: %v, sortBy: publishTime_DESC, first: %d) {
    %v
  }
}`, where, first, feedPostFields)
	var resp struct {
		AllPosts []models.Post `json:"allPosts"`
	}
	if err := s.Run(ctx, q, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to fetch feed posts")
	}
	return resp.AllPosts, nil
}

// LatestPostSlugs returns slugs of the latest published posts.
func (s *Client) LatestPostSlugs(ctx context.Context, first int) ([]string, error) {
	q := fmt.Sprintf(`query {
  allPosts(where: {state: published}, sortBy: publishTime_DESC, first: %d) {
    slug
  }
}`, first)
	var resp struct {
		AllPosts []models.Post `json:"allPosts"`
	}
	if err := s.Run(ctx, q, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to fetch latest posts")
	}
	res := make([]string, 0, len(resp.AllPosts))
	for _, p := range resp.AllPosts {
		res = append(res, p.Slug)
	}
	return res, nil
}

// CategoryPosts returns published posts of a category. A non-nil since limits
// them to posts published after it.
func (s *Client) CategoryPosts(ctx context.Context, category string, first int, since *time.Time) ([]models.Post, error) {
	where := fmt.Sprintf("{state: published, categories_some: {slug: %v}", String(category))
	if since != nil {
		where += ", publishTime_gte: " + Time(*since)
	}
	where += "}"
	q := fmt.Sprintf(`query {
  allPosts(where: %v, sortBy: publishTime_DESC, first: %d) {
    slug
    name
    publishTime
    updatedAt
  }
}`, where, first)
	var resp struct {
		AllPosts []models.Post `json:"allPosts"`
	}
	if err := s.Run(ctx, q, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch posts of category %v", category)
	}
	return resp.AllPosts, nil
}

// PostsBySlugs returns published posts with the given slugs in cms order.
func (s *Client) PostsBySlugs(ctx context.Context, slugs []string) ([]models.Post, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf(`query {
  allPosts(where: {AND: [{state: published}, %v]}) {
    id
    publishTime
    heroImage {
      urlMobileSized
      urlTinySized
    }
    slug
    name
  }
}`, OrFilter("slug", slugs))
	var resp struct {
		AllPosts []models.Post `json:"allPosts"`
	}
	if err := s.Run(ctx, q, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to fetch posts by slugs")
	}
	return resp.AllPosts, nil
}

// ExistingSlugs reports which of the given slugs are already taken by a post.
func (s *Client) ExistingSlugs(ctx context.Context, slugs []string) (map[string]bool, error) {
	res := map[string]bool{}
	if len(slugs) == 0 {
		return res, nil
	}
	q := fmt.Sprintf(`query {
  allPosts(where: {AND: [%v]}) {
    slug
  }
}`, OrFilter("slug", slugs))
	var resp struct {
		AllPosts []models.Post `json:"allPosts"`
	}
	if err := s.Run(ctx, q, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to fetch existing slugs")
	}
	for _, p := range resp.AllPosts {
		res[p.Slug] = true
	}
	return res, nil
}
