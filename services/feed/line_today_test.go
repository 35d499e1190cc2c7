package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirror-media/mnews-cronjobs/models"
	"github.com/mirror-media/mnews-cronjobs/services/storage"
)

func newTestLineToday(t *testing.T, src *fakeSource, up *memUploader) *LineToday {
	t.Helper()
	cfg := DefaultLineTodayConfig()
	cfg.BaseURL = "https://www.mnews.tw/story/"
	cfg.Feed.Item.LogoURL = "https://www.mnews.tw/logo.png"
	cfg.Feed.Item.YoutubeIframeRegex = `<iframe[^>]*youtube[^>]*></iframe>`
	cfg.Feed.Item.UTMSource = "?utm_source=linetoday"
	cfg.Feed.Item.Author = "鏡新聞"
	cfg.Feed.Item.OfficialLine = "<p>加入官方帳號</p>"
	cfg.File = FileConfig{Bucket: "feeds", FilePathBase: "rss", FilenamePrefix: "line_today", Extension: "xml"}
	lt, err := NewLineToday(cfg, src, up, 30)
	require.NoError(t, err)
	lt.now = func() time.Time { return time.UnixMilli(1600000000000) }
	lt.newUUID = func() string { return "uuid-1" }
	return lt
}

func testPost() models.Post {
	pub := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	upd := pub.Add(time.Hour)
	return models.Post{
		ID:             "10",
		Name:           "標題\x0b",
		Slug:           "story-1",
		BriefHTML:      "<p>brief</p>",
		ContentHTML:    `<p>body</p><iframe src="https://www.youtube.com/embed/x"></iframe><img src="a.jpg">`,
		ContentAPIData: `[{"type":"image","content":[{"description":"圖說"}]}]`,
		HeroCaption:    "hero caption",
		HeroImage:      &models.Image{URLOriginal: "https://img/hero.jpg"},
		Categories:     []models.Category{{Name: "政治", Slug: "politics"}},
		RelatedPosts: []*models.RelatedPost{
			{Name: "r1", Slug: "rel-1", HeroImage: &models.Image{URLOriginal: "https://img/r1.jpg"}},
			nil,
			{Name: "r2", Slug: "rel-2"},
		},
		Tags:        []models.Tag{{Name: "t1"}, {Name: "t2"}},
		PublishTime: pub,
		UpdatedAt:   &upd,
	}
}

func TestLineTodayArticle(t *testing.T) {
	lt := newTestLineToday(t, &fakeSource{}, &memUploader{})
	p := testPost()
	doc := lt.BuildArticles([]models.Post{p})

	assert.Equal(t, "uuid-1", doc.UUID)
	assert.Equal(t, int64(1600000000000), doc.Time)
	require.Len(t, doc.Articles, 1)
	a := doc.Articles[0]
	assert.Equal(t, "10", a.ID)
	assert.Equal(t, CDATA("標題"), a.Title)
	assert.Equal(t, UnixMillis(*p.UpdatedAt), a.StartYmdtUnix)
	assert.Equal(t, UnixMillis(p.PublishTime)+365*24*3600*1000, a.EndYmdtUnix)
	assert.Equal(t, UnixMillis(*p.UpdatedAt), a.UpdateTimeUnix)
	assert.Equal(t, "政治", a.Category)
	assert.Equal(t, 0, a.ContentType)
	assert.Equal(t, "https://img/hero.jpg", a.Thumbnail)
	assert.Equal(t, "https://www.mnews.tw/story/story-1?utm_source=linetoday", a.SourceURL)
	assert.Equal(t, []string{"t1", "t2"}, a.Tags.Tags)

	content := string(a.Contents.Text.Content)
	assert.True(t, strings.HasPrefix(content, `<img alt="hero caption" src="https://img/hero.jpg"><p>brief</p><p>body</p>`))
	assert.NotContains(t, content, "iframe")
	assert.Contains(t, content, `<img alt="圖說" src="a.jpg">`)
	assert.Contains(t, content, `<li><a href="https://www.mnews.tw/story/rel-1">r1</a></li>`)
	assert.True(t, strings.HasSuffix(content, "</ul>"))

	require.Len(t, a.RecommendArticles.Articles, 2)
	assert.Equal(t, "https://www.mnews.tw/story/rel-1?utm_source=linetoday", a.RecommendArticles.Articles[0].URL)
	assert.Equal(t, "https://img/r1.jpg", a.RecommendArticles.Articles[0].Thumbnail)
	assert.Empty(t, a.RecommendArticles.Articles[1].Thumbnail)
}

func TestLineTodayArticle_NoHeroNoCategory(t *testing.T) {
	lt := newTestLineToday(t, &fakeSource{}, &memUploader{})
	p := testPost()
	p.HeroImage = nil
	p.Categories = nil
	p.UpdatedAt = nil
	p.RelatedPosts = nil
	p.Tags = nil
	doc := lt.BuildArticles([]models.Post{p})
	a := doc.Articles[0]
	assert.True(t, strings.HasPrefix(string(a.Contents.Text.Content), `<img alt="logo" src="https://www.mnews.tw/logo.png">`))
	assert.Empty(t, a.Thumbnail)
	assert.Nil(t, a.RecommendArticles)
	assert.Nil(t, a.Tags)

	b, err := Marshal(doc)
	require.NoError(t, err)
	s := string(b)
	assert.NotContains(t, s, "<category>")
	assert.NotContains(t, s, "<updateTimeUnix>")
	assert.NotContains(t, s, "<tags>")
	assert.Contains(t, s, "<UUID>uuid-1</UUID>")
	assert.Contains(t, s, "<author><![CDATA[鏡新聞]]></author>")
}

func TestLineTodayVideo(t *testing.T) {
	lt := newTestLineToday(t, &fakeSource{}, &memUploader{})
	created := time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)
	v := models.Video{
		ID:           "v1",
		Name:         "影片",
		URL:          "https://video/v1.mp4",
		Description:  "desc",
		CreatedAt:    created,
		RelatedPosts: []*models.RelatedPost{{Name: "r", Slug: "rel"}},
	}
	doc := lt.BuildVideos([]models.Video{v})
	a := doc.Articles[0]
	assert.Equal(t, 5, a.ContentType)
	assert.Equal(t, UnixMillis(created), a.StartYmdtUnix)
	assert.Equal(t, UnixMillis(created), a.PublishTimeUnix)
	assert.Equal(t, "https://video/v1.mp4", a.Contents.Video.URL)
	assert.Empty(t, a.SourceURL)
	content := string(a.Contents.Text.Content)
	assert.True(t, strings.HasPrefix(content, "desc<p>加入官方帳號</p>"))
	assert.Contains(t, content, `<a href="https://www.mnews.tw/story/rel?utm_source=linetoday_影片">r</a>`)
	assert.Equal(t, "https://www.mnews.tw/story/rel?utm_source=linetoday_影片", a.RecommendArticles.Articles[0].URL)

	v.Description = ""
	v.RelatedPosts = nil
	doc = lt.BuildVideos([]models.Video{v})
	assert.Equal(t, CDATA("<p>加入官方帳號</p>"), doc.Articles[0].Contents.Text.Content)
}

func TestLineTodayRunArticles(t *testing.T) {
	src := &fakeSource{posts: []models.Post{testPost()}}
	up := &memUploader{}
	lt := newTestLineToday(t, src, up)
	n, err := lt.RunArticles(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "{state: published}", src.where)
	assert.Equal(t, 30, src.first)
	require.Len(t, up.objects, 1)
	o := up.objects[0]
	assert.Equal(t, "feeds", o.Bucket)
	assert.Equal(t, "rss/line_today.xml", o.Key)
	assert.True(t, o.Gzip)
	assert.Equal(t, storage.ContentTypeXML, o.ContentType)
	assert.Equal(t, storage.CacheControlRevalidate, o.CacheControl)
	assert.Contains(t, string(o.Data), "<articles>")
}

func TestLineTodayRunVideos_LimitsRelated(t *testing.T) {
	src := &fakeSource{}
	lt := newTestLineToday(t, src, &memUploader{})
	_, err := lt.RunVideos(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, src.relatedLimit)
}

func TestNewLineToday_BadRegex(t *testing.T) {
	cfg := DefaultLineTodayConfig()
	cfg.Feed.Item.YoutubeIframeRegex = "("
	_, err := NewLineToday(cfg, &fakeSource{}, &memUploader{}, 1)
	assert.Error(t, err)
}
