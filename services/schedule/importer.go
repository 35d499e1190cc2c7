package schedule

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/webtor-io/lazymap"

	"github.com/mirror-media/mnews-cronjobs/services/cms"
	"github.com/mirror-media/mnews-cronjobs/services/k3"
)

type ImportConfig struct {
	SourceK3Endpoints struct {
		Posts string `yaml:"posts"`
	} `yaml:"sourceK3Endpoints"`
	Author    string `yaml:"author"`
	Blacklist struct {
		SectionNames []string `yaml:"sectionNames"`
	} `yaml:"blacklist"`
	WriterID           int               `yaml:"writerID"`
	Source             string            `yaml:"source"`
	DestSlugPrefix     string            `yaml:"destSlugPrefix"`
	FileHostDomainRule map[string]string `yaml:"fileHostDomainRule"`
}

func DefaultImportConfig() *ImportConfig {
	cfg := &ImportConfig{
		Author:             "鏡週刊",
		WriterID:           201,
		Source:             "mm",
		DestSlugPrefix:     "mm-",
		FileHostDomainRule: DefaultFileHostDomainRule(),
	}
	cfg.SourceK3Endpoints.Posts = "https://api.mirrormedia.mg/drafts"
	return cfg
}

type k3PostSource interface {
	PublishedPosts(ctx context.Context, max int) ([]k3.Post, error)
}

type postStore interface {
	ExistingSlugs(ctx context.Context, slugs []string) (map[string]bool, error)
	ImageIDByName(ctx context.Context, name string) (string, error)
	CreateImage(ctx context.Context, fields []cms.Field) (string, error)
	CreatePost(ctx context.Context, fields []cms.Field) (string, error)
}

// PostImporter copies new published k3 posts into the CMS as drafts.
type PostImporter struct {
	cfg    *ImportConfig
	src    k3PostSource
	store  postStore
	number int
	images *lazymap.LazyMap[string]
}

func NewPostImporter(cfg *ImportConfig, src k3PostSource, store postStore, number int) *PostImporter {
	return &PostImporter{
		cfg:    cfg,
		src:    src,
		store:  store,
		number: number,
		images: lazymap.New[string](&lazymap.Config{
			Expire:      time.Hour,
			ErrorExpire: time.Second,
		}),
	}
}

func (s *PostImporter) sectionAllowed(p *k3.Post) bool {
	for _, sec := range p.Sections {
		for _, b := range s.cfg.Blacklist.SectionNames {
			if sec.Name == b {
				return false
			}
		}
	}
	return true
}

// candidates prefixes slugs and image names and drops posts that exist already
// or must not be imported.
func (s *PostImporter) candidates(ctx context.Context, posts []k3.Post) ([]k3.Post, error) {
	slugs := make([]string, 0, len(posts))
	for i := range posts {
		posts[i].Slug = s.cfg.DestSlugPrefix + posts[i].Slug
		if posts[i].HeroImage != nil {
			posts[i].HeroImage.Description = s.cfg.DestSlugPrefix + posts[i].HeroImage.Description
		}
		slugs = append(slugs, posts[i].Slug)
	}
	existing, err := s.store.ExistingSlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	var res []k3.Post
	for _, p := range posts {
		switch {
		case existing[p.Slug]:
			log.WithField("slug", p.Slug).Debug("post exists already")
		case p.MemberOnly():
			log.WithField("slug", p.Slug).Info("skipping member only post")
		case !s.sectionAllowed(&p):
			log.WithField("slug", p.Slug).Info("skipping post of blacklisted section")
		default:
			res = append(res, p)
		}
	}
	return res, nil
}

func (s *PostImporter) imageID(ctx context.Context, img *k3.HeroImage) (string, error) {
	return s.images.Get(img.Description, func() (string, error) {
		id, err := s.store.ImageIDByName(ctx, img.Description)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
		rules := s.cfg.FileHostDomainRule
		t := img.Image.ResizedTargets
		id, err = s.store.CreateImage(ctx, []cms.Field{
			{Name: "name", Value: cms.String(img.Description)},
			{Name: "meta", Value: cms.String(img.Image.Filetype)},
			{Name: "urlOriginal", Value: cms.String(img.Image.URL)},
			{Name: "urlDesktopSized", Value: cms.String(RewriteHost(rules, t.Desktop.URL))},
			{Name: "urlMobileSized", Value: cms.String(RewriteHost(rules, t.Mobile.URL))},
			{Name: "urlTabletSized", Value: cms.String(RewriteHost(rules, t.Tablet.URL))},
			{Name: "urlTinySized", Value: cms.String(RewriteHost(rules, t.Tiny.URL))},
		})
		if err != nil {
			return "", err
		}
		log.WithField("name", img.Description).WithField("id", id).Info("image created")
		return id, nil
	})
}

func (s *PostImporter) postFields(p *k3.Post, heroImageID string) []cms.Field {
	fields := []cms.Field{
		{Name: "slug", Value: cms.String(p.Slug)},
		{Name: "state", Value: "draft"},
		{Name: "name", Value: cms.String(p.Title)},
		{Name: "writers", Value: cms.Object(cms.Field{Name: "connect", Value: cms.Object(cms.Field{Name: "id", Value: strconv.Itoa(s.cfg.WriterID)})})},
	}
	if heroImageID != "" {
		fields = append(fields, cms.Field{Name: "heroImage", Value: cms.Object(cms.Field{Name: "connect", Value: cms.Object(cms.Field{Name: "id", Value: cms.String(heroImageID)})})})
	}
	return append(fields,
		cms.Field{Name: "heroCaption", Value: cms.NullableString(p.HeroCaption)},
		cms.Field{Name: "brief", Value: cms.String(string(p.Brief.Draft))},
		cms.Field{Name: "briefHtml", Value: cms.String(p.Brief.HTML)},
		cms.Field{Name: "briefApiData", Value: cms.String(string(p.Brief.APIData))},
		cms.Field{Name: "content", Value: cms.String(string(p.Content.Draft))},
		cms.Field{Name: "contentHtml", Value: cms.String(p.Content.HTML)},
		cms.Field{Name: "contentApiData", Value: cms.String(string(p.Content.APIData))},
		cms.Field{Name: "source", Value: cms.String(s.cfg.Source)},
	)
}

func (s *PostImporter) importPost(ctx context.Context, p *k3.Post) error {
	heroID := ""
	if p.HeroImage != nil {
		id, err := s.imageID(ctx, p.HeroImage)
		if err != nil {
			return errors.Wrapf(err, "failed to get hero image of %v", p.Slug)
		}
		heroID = id
	}
	id, err := s.store.CreatePost(ctx, s.postFields(p, heroID))
	if err != nil {
		return errors.Wrapf(err, "failed to create post %v", p.Slug)
	}
	log.WithField("slug", p.Slug).WithField("id", id).Info("post created")
	return nil
}

// Run imports new posts and returns how many were created. Failed posts are
// logged and reported after every post was tried.
func (s *PostImporter) Run(ctx context.Context) (int, error) {
	posts, err := s.src.PublishedPosts(ctx, s.number)
	if err != nil {
		return 0, err
	}
	posts, err = s.candidates(ctx, posts)
	if err != nil {
		return 0, err
	}
	log.Infof("%d new posts to import", len(posts))
	created, failed := 0, 0
	for i := range posts {
		if err := s.importPost(ctx, &posts[i]); err != nil {
			log.WithError(err).Warn("failed to import post")
			failed++
			continue
		}
		created++
	}
	if failed > 0 {
		return created, errors.Errorf("failed to import %d of %d posts", failed, len(posts))
	}
	return created, nil
}
