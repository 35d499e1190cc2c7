package cms

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const searchPostFields = `id
    slug
    title
    subtitle
    state
    publishTime
    categories {
      title
      ogTitle
      ogDescription
    }
    writers {
      name
    }
    photographers {
      name
    }
    cameraOperators {
      name
    }
    designers {
      name
    }
    engineers {
      name
    }
    vocals {
      name
    }
    otherbyline
    heroVideo {
      title
      description
    }
    heroImage {
      title
      keywords
      urlMobileSized
    }
    heroCaption
    style
    brief
    content
    topics {
      title
      subtitle
    }
    tags {
      name
      ogTitle
      ogDescription
    }
    audio {
      title
    }
    ogTitle
    ogDescription
    ogImage {
      title
      keywords
    }
    updatedAt`

// PostsUpdatedBetween returns raw non-advertised posts updated in (start, end],
// oldest update first. A nil end leaves the window open.
func (s *Client) PostsUpdatedBetween(ctx context.Context, start time.Time, end *time.Time) ([]map[string]any, error) {
	where := fmt.Sprintf("{AND: [{OR: [{isAdvertised: null}, {isAdvertised: false}]}, {updatedAt_gt: %v}", Time(start))
	if end != nil {
		where += fmt.Sprintf(", {updatedAt_lte: %v}", Time(*end))
	}
	where += "]}"
	q := fmt.Sprintf(`query {
  allPosts(where: %v, sortBy: updatedAt_ASC) {
    %v
  }
}`, where, searchPostFields)
	var resp struct {
		AllPosts []map[string]any `json:"allPosts"`
	}
	if err := s.Run(ctx, q, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to fetch updated posts")
	}
	return resp.AllPosts, nil
}
