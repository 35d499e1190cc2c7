package feed

import (
	"context"
	"time"

	"github.com/mirror-media/mnews-cronjobs/models"
	"github.com/mirror-media/mnews-cronjobs/services/storage"
)

type fakeSource struct {
	posts         []models.Post
	videos        []models.Video
	categories    []string
	shows         []string
	latest        []string
	categoryPosts map[string][]models.Post

	where        string
	first        int
	relatedLimit int
	since        []*time.Time
}

func (s *fakeSource) FeedPosts(_ context.Context, where string, first int) ([]models.Post, error) {
	s.where = where
	s.first = first
	return s.posts, nil
}

func (s *fakeSource) FeedVideos(_ context.Context, where string, first int, relatedLimit int) ([]models.Video, error) {
	s.where = where
	s.first = first
	s.relatedLimit = relatedLimit
	return s.videos, nil
}

func (s *fakeSource) CategorySlugs(context.Context) ([]string, error) {
	return s.categories, nil
}

func (s *fakeSource) ShowSlugs(context.Context) ([]string, error) {
	return s.shows, nil
}

func (s *fakeSource) LatestPostSlugs(_ context.Context, first int) ([]string, error) {
	return s.latest, nil
}

func (s *fakeSource) CategoryPosts(_ context.Context, category string, first int, since *time.Time) ([]models.Post, error) {
	s.since = append(s.since, since)
	return s.categoryPosts[category], nil
}

type memUploader struct {
	objects []*storage.Object
}

func (s *memUploader) Upload(_ context.Context, o *storage.Object) error {
	s.objects = append(s.objects, o)
	return nil
}

func (s *memUploader) keys() []string {
	var res []string
	for _, o := range s.objects {
		res = append(res, o.Key)
	}
	return res
}

func (s *memUploader) get(key string) *storage.Object {
	for _, o := range s.objects {
		if o.Key == key {
			return o
		}
	}
	return nil
}
