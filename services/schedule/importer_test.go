package schedule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirror-media/mnews-cronjobs/services/cms"
	"github.com/mirror-media/mnews-cronjobs/services/k3"
)

func k3Post(slug string) k3.Post {
	p := k3.Post{
		Slug:  slug,
		Title: "title " + slug,
		Brief: k3.Draft{
			Draft:   []byte(`{"blocks":[]}`),
			APIData: []byte(`[]`),
			HTML:    "<p>brief</p>",
		},
	}
	p.HeroImage = &k3.HeroImage{Description: "cover"}
	p.HeroImage.Image.URL = "https://storage.googleapis.com/mirrormedia-files/a.jpg"
	p.HeroImage.Image.ResizedTargets.Mobile.URL = "https://storage.googleapis.com/mirrormedia-files/a-mobile.jpg"
	return p
}

func TestPostImporterRun(t *testing.T) {
	yes := true
	member := k3Post("member")
	member.Categories = []k3.Category{{Name: "vip", IsMemberOnly: &yes}}
	blocked := k3Post("blocked")
	blocked.Sections = []k3.Section{{Name: "external"}}
	noHero := k3Post("nohero")
	noHero.HeroImage = nil

	src := &fakeK3{posts: []k3.Post{k3Post("a"), k3Post("old"), member, blocked, k3Post("b"), noHero}}
	store := &fakePostStore{existing: map[string]bool{"mm-old": true}}
	cfg := DefaultImportConfig()
	cfg.Blacklist.SectionNames = []string{"external"}

	n, err := NewPostImporter(cfg, src, store, 12).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 12, src.max)
	assert.Contains(t, store.slugs, "mm-a")

	// both posts share one hero image that is created once
	assert.Equal(t, []string{"mm-cover"}, store.imageCalls)
	require.Len(t, store.created, 1)
	mobile, _ := field(store.created[0], "urlMobileSized")
	assert.Equal(t, `"https://www.mirrormedia.mg/a-mobile.jpg"`, mobile)

	require.Len(t, store.posts, 3)
	slug, _ := field(store.posts[0], "slug")
	assert.Equal(t, `"mm-a"`, slug)
	state, _ := field(store.posts[0], "state")
	assert.Equal(t, "draft", state)
	hero, _ := field(store.posts[0], "heroImage")
	assert.Equal(t, `{connect: {id: "img-1"}}`, hero)
	writers, _ := field(store.posts[0], "writers")
	assert.Equal(t, "{connect: {id: 201}}", writers)
	caption, _ := field(store.posts[0], "heroCaption")
	assert.Equal(t, "null", caption)

	_, ok := field(store.posts[2], "heroImage")
	assert.False(t, ok)
}

func TestPostImporterContinuesOnFailure(t *testing.T) {
	src := &fakeK3{posts: []k3.Post{k3Post("a"), k3Post("b")}}
	store := &fakePostStore{images: map[string]string{"mm-cover": "42"}, failSlug: "mm-a"}
	n, err := NewPostImporter(DefaultImportConfig(), src, store, 10).Run(context.Background())
	assert.EqualError(t, err, "failed to import 1 of 2 posts")
	assert.Equal(t, 1, n)
	require.Len(t, store.posts, 1)
	hero, _ := field(store.posts[0], "heroImage")
	assert.Equal(t, `{connect: {id: "42"}}`, hero)
	assert.Empty(t, store.created)
}

func TestPostFields(t *testing.T) {
	s := NewPostImporter(DefaultImportConfig(), &fakeK3{}, &fakePostStore{}, 1)
	p := k3Post("x")
	fields := s.postFields(&p, "")
	brief, _ := field(fields, "brief")
	assert.Equal(t, cms.String(`{"blocks":[]}`), brief)
	src, _ := field(fields, "source")
	assert.Equal(t, `"mm"`, src)
}
