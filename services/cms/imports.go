package cms

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Field is a rendered GraphQL input field like `name: "value"`.
type Field struct {
	Name  string
	Value string
}

func render(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Name+": "+f.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Object renders fields as a GraphQL input object literal.
func Object(fields ...Field) string {
	return render(fields)
}

func (s *Client) create(ctx context.Context, mutation string, fields []Field) (string, error) {
	q := fmt.Sprintf(`mutation {
  item: %v(data: %v) {
    id
  }
}`, mutation, render(fields))
	var resp struct {
		Item *struct {
			ID string `json:"id"`
		} `json:"item"`
	}
	if err := s.Run(ctx, q, &resp); err != nil {
		return "", errors.Wrapf(err, "failed to run %v", mutation)
	}
	if resp.Item == nil {
		return "", errors.Errorf("%v returned no item", mutation)
	}
	return resp.Item.ID, nil
}

// CreatePost creates a post and returns its id.
func (s *Client) CreatePost(ctx context.Context, fields []Field) (string, error) {
	return s.create(ctx, "createPost", fields)
}

// CreateImage creates an image record and returns its id.
func (s *Client) CreateImage(ctx context.Context, fields []Field) (string, error) {
	return s.create(ctx, "createImage", fields)
}

// ImageIDByName returns the id of an image with the given name or "" if none exists.
func (s *Client) ImageIDByName(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf(`query {
  allImages(where: {name: %v}, first: 1) {
    id
  }
}`, String(name))
	var resp struct {
		AllImages []struct {
			ID string `json:"id"`
		} `json:"allImages"`
	}
	if err := s.Run(ctx, q, &resp); err != nil {
		return "", errors.Wrapf(err, "failed to look up image %v", name)
	}
	if len(resp.AllImages) == 0 {
		return "", nil
	}
	return resp.AllImages[0].ID, nil
}
