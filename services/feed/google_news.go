package feed

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mirror-media/mnews-cronjobs/models"
	"github.com/mirror-media/mnews-cronjobs/services/storage"
)

type GoogleNewsConfig struct {
	BaseURL     string `yaml:"base_url"`
	Days        int    `yaml:"days"`
	Publication struct {
		Name     string `yaml:"name"`
		Language string `yaml:"language"`
	} `yaml:"publication"`
	File SitemapFileConfig `yaml:"file"`
}

func DefaultGoogleNewsConfig() *GoogleNewsConfig {
	cfg := &GoogleNewsConfig{
		BaseURL: "https://www.mnews.tw",
		Days:    2,
	}
	cfg.Publication.Name = "鏡新聞"
	cfg.Publication.Language = "zh-tw"
	cfg.File.DestinationPrefix = "sitemap/"
	cfg.File.SrcFileName.CatePost = "google_news_{}.xml"
	cfg.File.SrcFileName.SitemapIndex = "google_news_index.xml"
	return cfg
}

type categoryPostSource interface {
	CategoryPosts(ctx context.Context, category string, first int, since *time.Time) ([]models.Post, error)
}

type googleNewsSource interface {
	CategorySlugs(ctx context.Context) ([]string, error)
	categoryPostSource
}

// GoogleNews renders per category news sitemaps of recent posts plus their index.
type GoogleNews struct {
	cfg    *GoogleNewsConfig
	src    googleNewsSource
	up     storage.Uploader
	number int
	now    func() time.Time
}

func NewGoogleNews(cfg *GoogleNewsConfig, src googleNewsSource, up storage.Uploader, number int) *GoogleNews {
	return &GoogleNews{
		cfg:    cfg,
		src:    src,
		up:     up,
		number: number,
		now:    time.Now,
	}
}

func (s *GoogleNews) BuildURLSet(posts []models.Post) *URLSet {
	lastmod := s.now().In(Taipei).Format(lastmodLayout)
	us := &URLSet{
		XMLNS:     sitemapNS,
		XMLNSNews: sitemapNewsNS,
	}
	for _, p := range posts {
		us.URLs = append(us.URLs, URL{
			Loc:     s.cfg.BaseURL + "/story/" + p.Slug,
			LastMod: lastmod,
			News: &News{
				Publication: NewsPublication{
					Name:     s.cfg.Publication.Name,
					Language: s.cfg.Publication.Language,
				},
				PublicationDate: p.PublishTime.In(Taipei).Format(time.RFC3339),
				Title:           StripInvalidXMLChars(p.Name),
			},
		})
	}
	return us
}

func (s *GoogleNews) Run(ctx context.Context) (int, error) {
	cats, err := s.src.CategorySlugs(ctx)
	if err != nil {
		return 0, err
	}
	if len(cats) == 0 {
		log.Warn("no categories found")
	}
	since := s.now().AddDate(0, 0, -s.cfg.Days)
	var keys []string
	items := 0
	for _, c := range cats {
		posts, err := s.src.CategoryPosts(ctx, c, s.number, &since)
		if err != nil {
			return 0, err
		}
		if len(posts) == 0 {
			log.WithField("category", c).Info("no recent posts in category")
			continue
		}
		key := s.cfg.File.categoryKey(c)
		if err := uploadXML(ctx, s.up, s.cfg.File.Bucket, key, s.BuildURLSet(posts), storage.CacheControlRevalidate); err != nil {
			return 0, err
		}
		keys = append(keys, key)
		items += len(posts)
	}
	index := buildIndex(s.cfg.BaseURL, keys, s.now())
	if err := uploadXML(ctx, s.up, s.cfg.File.Bucket, s.cfg.File.key(s.cfg.File.SrcFileName.SitemapIndex), index, storage.CacheControlRevalidate); err != nil {
		return 0, err
	}
	return items, nil
}
