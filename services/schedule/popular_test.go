package schedule

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirror-media/mnews-cronjobs/models"
	"github.com/mirror-media/mnews-cronjobs/services/analytics"
	"github.com/mirror-media/mnews-cronjobs/services/storage"
)

func TestPopularRun(t *testing.T) {
	rep := &fakeReporter{rows: []analytics.Row{
		{Dimensions: []string{"/b/"}, Pageviews: 30},
		{Dimensions: []string{"/hidden/"}, Pageviews: 20},
		{Dimensions: []string{"/a/"}, Pageviews: 10},
		{Dimensions: []string{"/missing/"}, Pageviews: 5},
	}}
	store := &fakeSlugStore{posts: []models.Post{
		{ID: "1", Slug: "a", Name: "A & B"},
		{ID: "2", Slug: "b", Name: "B", HeroImage: &models.Image{
			URLMobileSized: "https://storage.googleapis.com/static-mnews-tw-prod/m.jpg",
		}},
	}}
	up := &memUploader{}
	cfg := DefaultPopularConfig()
	cfg.AnalyticsID = "123"
	cfg.Report.BucketName = "bucket"
	cfg.SlugBlacklist = []string{"hidden"}
	p := NewPopular(cfg, rep, store, up, -3)
	p.now = func() time.Time { return time.Date(2021, 3, 10, 12, 0, 0, 0, time.UTC) }

	n, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "2021-03-09", rep.query.StartDate)
	assert.Equal(t, "2021-03-10", rep.query.EndDate)
	assert.Equal(t, "123", rep.query.ViewID)
	assert.Equal(t, int64(20), rep.query.PageSize)
	assert.Equal(t, []string{"b", "a", "missing"}, store.slugs)

	require.Len(t, up.objects, 1)
	o := up.objects[0]
	assert.Equal(t, "bucket", o.Bucket)
	assert.Equal(t, "json/popularlist.json", o.Key)
	assert.Equal(t, storage.ContentTypeJSON, o.ContentType)
	assert.True(t, o.Gzip)
	assert.Contains(t, string(o.Data), `"name":"A & B"`)

	var r PopularReport
	require.NoError(t, json.Unmarshal(o.Data, &r))
	require.Len(t, r.Report, 2)
	assert.Equal(t, "b", r.Report[0].Slug)
	assert.Equal(t, "https://statics.mnews.tw/m.jpg", r.Report[0].HeroImage.URLMobileSized)
	assert.Nil(t, r.Report[1].HeroImage)
	assert.Equal(t, "2021-03-10 12:00:00.000000", r.GenerateTime)
}
