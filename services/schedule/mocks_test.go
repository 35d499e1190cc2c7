package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mirror-media/mnews-cronjobs/models"
	"github.com/mirror-media/mnews-cronjobs/services/analytics"
	"github.com/mirror-media/mnews-cronjobs/services/cms"
	"github.com/mirror-media/mnews-cronjobs/services/k3"
	"github.com/mirror-media/mnews-cronjobs/services/storage"
	"github.com/mirror-media/mnews-cronjobs/services/ytrelay"
)

type dueKey struct {
	list  string
	state models.State
}

type fakeStates struct {
	due   map[dueKey][]models.Item
	items map[string][]models.Item
	fail  error

	wheres  map[string]string
	updates map[string][]cms.StateUpdate
	calls   []string
	batches int
}

func newFakeStates() *fakeStates {
	return &fakeStates{
		due:     map[dueKey][]models.Item{},
		items:   map[string][]models.Item{},
		wheres:  map[string]string{},
		updates: map[string][]cms.StateUpdate{},
	}
}

func (s *fakeStates) Items(_ context.Context, list string, where string) ([]models.Item, error) {
	s.wheres[list] = where
	return s.items[list], nil
}

func (s *fakeStates) DueItems(_ context.Context, list string, state models.State, _ string, _ time.Time) ([]models.Item, error) {
	return s.due[dueKey{list, state}], nil
}

func (s *fakeStates) UpdateStates(_ context.Context, mutation string, updates []cms.StateUpdate) ([]models.Item, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	s.calls = append(s.calls, mutation)
	s.updates[mutation] = append(s.updates[mutation], updates...)
	res := make([]models.Item, 0, len(updates))
	for _, u := range updates {
		res = append(res, models.Item{ID: u.ID, State: u.State})
	}
	return res, nil
}

func (s *fakeStates) UpdateStatesBatch(_ context.Context, batches []cms.StateBatch) (map[string][]models.Item, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	s.batches++
	res := map[string][]models.Item{}
	for _, b := range batches {
		s.calls = append(s.calls, b.Mutation)
		s.updates[b.Mutation] = append(s.updates[b.Mutation], b.Updates...)
		for _, u := range b.Updates {
			res[b.Mutation] = append(res[b.Mutation], models.Item{ID: u.ID, State: u.State})
		}
	}
	return res, nil
}

type fakeK3 struct {
	posts []k3.Post
	max   int
}

func (s *fakeK3) PublishedPosts(_ context.Context, max int) ([]k3.Post, error) {
	s.max = max
	return s.posts, nil
}

type fakePostStore struct {
	mu         sync.Mutex
	existing   map[string]bool
	images     map[string]string
	failSlug   string
	slugs      []string
	imageCalls []string
	created    [][]cms.Field
	posts      [][]cms.Field
	urls       []string
	urlIDs     []string
}

func field(fields []cms.Field, name string) (string, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func (s *fakePostStore) ExistingSlugs(_ context.Context, slugs []string) (map[string]bool, error) {
	s.slugs = slugs
	res := map[string]bool{}
	for _, sl := range slugs {
		if s.existing[sl] {
			res[sl] = true
		}
	}
	return res, nil
}

func (s *fakePostStore) ImageIDByName(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageCalls = append(s.imageCalls, name)
	return s.images[name], nil
}

func (s *fakePostStore) CreateImage(_ context.Context, fields []cms.Field) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, fields)
	return fmt.Sprintf("img-%d", len(s.created)), nil
}

func (s *fakePostStore) CreatePost(_ context.Context, fields []cms.Field) (string, error) {
	if s.failSlug != "" {
		if v, _ := field(fields, "slug"); v == cms.String(s.failSlug) {
			return "", fmt.Errorf("boom")
		}
	}
	s.posts = append(s.posts, fields)
	return fmt.Sprintf("post-%d", len(s.posts)), nil
}

func (s *fakePostStore) YoutubeVideoURLs(_ context.Context, ids []string) ([]string, error) {
	s.urlIDs = ids
	return s.urls, nil
}

type fakePlaylists struct {
	items map[string][]ytrelay.PlaylistItem
}

func (s *fakePlaylists) PlaylistItems(_ context.Context, playlistID string, _ int) ([]ytrelay.PlaylistItem, error) {
	items, ok := s.items[playlistID]
	if !ok {
		return nil, fmt.Errorf("unknown playlist %v", playlistID)
	}
	return items, nil
}

type fakeConverter struct{}

func (fakeConverter) Convert(_ context.Context, text string) (*k3.ConvertedText, error) {
	return &k3.ConvertedText{
		Draft:   `{"blocks":[]}`,
		HTML:    "<p>" + text + "</p>",
		APIData: "[]",
	}, nil
}

type fakeReporter struct {
	rows  []analytics.Row
	query *analytics.Query
}

func (s *fakeReporter) Report(_ context.Context, q *analytics.Query) ([]analytics.Row, error) {
	s.query = q
	return s.rows, nil
}

type fakeSlugStore struct {
	posts []models.Post
	slugs []string
}

func (s *fakeSlugStore) PostsBySlugs(_ context.Context, slugs []string) ([]models.Post, error) {
	s.slugs = slugs
	return s.posts, nil
}

type memUploader struct {
	objects []*storage.Object
}

func (s *memUploader) Upload(_ context.Context, o *storage.Object) error {
	s.objects = append(s.objects, o)
	return nil
}
