package models

import (
	"time"
)

type Image struct {
	Name           string `json:"name,omitempty"`
	URLOriginal    string `json:"urlOriginal,omitempty"`
	URLMobileSized string `json:"urlMobileSized,omitempty"`
	URLTinySized   string `json:"urlTinySized,omitempty"`
}

type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Writer struct {
	Name string `json:"name"`
}

type Tag struct {
	Name string `json:"name"`
}

type RelatedPost struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	HeroImage *Image `json:"heroImage"`
}

// Post is a CMS article as returned by the allPosts query.
type Post struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Slug           string         `json:"slug"`
	BriefHTML      string         `json:"briefHtml"`
	ContentHTML    string         `json:"contentHtml"`
	ContentAPIData string         `json:"contentApiData"`
	HeroCaption    string         `json:"heroCaption"`
	HeroImage      *Image         `json:"heroImage"`
	Categories     []Category     `json:"categories"`
	RelatedPosts   []*RelatedPost `json:"relatedPosts"`
	Writers        []Writer       `json:"writers"`
	Tags           []Tag          `json:"tags"`
	PublishTime    time.Time      `json:"publishTime"`
	UpdatedAt      *time.Time     `json:"updatedAt"`
}

// LastModified returns the later of the publish and update times.
func (s *Post) LastModified() time.Time {
	if s.UpdatedAt != nil && s.UpdatedAt.After(s.PublishTime) {
		return *s.UpdatedAt
	}
	return s.PublishTime
}

type Show struct {
	Slug string `json:"slug"`
}
