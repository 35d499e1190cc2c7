package models

import (
	"time"
)

// Video is a CMS video entry as returned by the allVideos query.
type Video struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	URL          string         `json:"url"`
	Description  string         `json:"description"`
	Categories   []Category     `json:"categories"`
	RelatedPosts []*RelatedPost `json:"relatedPosts"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    *time.Time     `json:"updatedAt"`
}

func (s *Video) LastModified() time.Time {
	if s.UpdatedAt != nil && s.UpdatedAt.After(s.CreatedAt) {
		return *s.UpdatedAt
	}
	return s.CreatedAt
}
