package feed

import (
	"context"
	"encoding/xml"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mirror-media/mnews-cronjobs/services/storage"
)

const (
	sitemapNS     = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapNewsNS = "http://www.google.com/schemas/sitemap-news/0.9"
	lastmodLayout = "2006-01-02"
)

type URLSet struct {
	XMLName   xml.Name `xml:"urlset"`
	XMLNS     string   `xml:"xmlns,attr"`
	XMLNSNews string   `xml:"xmlns:news,attr,omitempty"`
	URLs      []URL    `xml:"url"`
}

type URL struct {
	Loc      string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
	Priority string `xml:"priority,omitempty"`
	News     *News  `xml:"news:news,omitempty"`
}

type News struct {
	Publication     NewsPublication `xml:"news:publication"`
	PublicationDate string          `xml:"news:publication_date,omitempty"`
	Title           string          `xml:"news:title"`
}

type NewsPublication struct {
	Name     string `xml:"news:name"`
	Language string `xml:"news:language"`
}

type SitemapIndex struct {
	XMLName  xml.Name  `xml:"sitemapindex"`
	XMLNS    string    `xml:"xmlns,attr"`
	Sitemaps []Sitemap `xml:"sitemap"`
}

type Sitemap struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type SitemapConfig struct {
	BaseURL        string            `yaml:"base_url"`
	Endpoints      []string          `yaml:"configs_endpoint"`
	LatestNumber   int               `yaml:"latest_number"`
	CategoryNumber int               `yaml:"category_number"`
	File           SitemapFileConfig `yaml:"file"`
}

func DefaultSitemapConfig() *SitemapConfig {
	cfg := &SitemapConfig{
		BaseURL:        "https://www.mnews.tw",
		Endpoints:      []string{"/"},
		LatestNumber:   120,
		CategoryNumber: 200,
	}
	cfg.File.DestinationPrefix = "sitemap/"
	cfg.File.SrcFileName.Homepage = "sitemap_homepage.xml"
	cfg.File.SrcFileName.CatePost = "sitemap_{}.xml"
	cfg.File.SrcFileName.SitemapIndex = "sitemap_index.xml"
	return cfg
}

type sitemapSource interface {
	CategorySlugs(ctx context.Context) ([]string, error)
	ShowSlugs(ctx context.Context) ([]string, error)
	LatestPostSlugs(ctx context.Context, first int) ([]string, error)
	categoryPostSource
}

// categoryEndpoint maps a category slug to its site path.
func categoryEndpoint(slug string) string {
	switch slug {
	case "ombuds":
		return "/ombuds"
	case "stream":
		return "/category/video"
	default:
		return "/category/" + slug
	}
}

// SiteSitemap renders the homepage and per category sitemaps plus their index.
type SiteSitemap struct {
	cfg *SitemapConfig
	src sitemapSource
	up  storage.Uploader
	now func() time.Time
}

func NewSiteSitemap(cfg *SitemapConfig, src sitemapSource, up storage.Uploader) *SiteSitemap {
	return &SiteSitemap{
		cfg: cfg,
		src: src,
		up:  up,
		now: time.Now,
	}
}

func (s *SiteSitemap) BuildURLSet(endpoints []string) *URLSet {
	lastmod := s.now().In(Taipei).Format(lastmodLayout)
	us := &URLSet{XMLNS: sitemapNS}
	for _, e := range endpoints {
		p := "0.5"
		if e == "/" {
			p = "1.0"
		}
		us.URLs = append(us.URLs, URL{
			Loc:      s.cfg.BaseURL + e,
			LastMod:  lastmod,
			Priority: p,
		})
	}
	return us
}

func (s *SiteSitemap) homepageEndpoints(ctx context.Context) ([]string, []string, error) {
	endpoints := append([]string{}, s.cfg.Endpoints...)
	cats, err := s.src.CategorySlugs(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range cats {
		endpoints = append(endpoints, categoryEndpoint(c))
	}
	shows, err := s.src.ShowSlugs(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, sh := range shows {
		endpoints = append(endpoints, "/show/"+sh)
	}
	latest, err := s.src.LatestPostSlugs(ctx, s.cfg.LatestNumber)
	if err != nil {
		return nil, nil, err
	}
	for _, sl := range latest {
		endpoints = append(endpoints, "/story/"+sl)
	}
	return endpoints, cats, nil
}

// Run uploads every sitemap and the index. It returns the number of uploaded sitemaps.
func (s *SiteSitemap) Run(ctx context.Context) (int, error) {
	endpoints, cats, err := s.homepageEndpoints(ctx)
	if err != nil {
		return 0, err
	}
	if len(cats) == 0 {
		log.Warn("no categories found")
	}
	var keys []string
	key := s.cfg.File.key(s.cfg.File.SrcFileName.Homepage)
	if err := uploadXML(ctx, s.up, s.cfg.File.Bucket, key, s.BuildURLSet(endpoints), storage.CacheControlPublic); err != nil {
		return 0, err
	}
	keys = append(keys, key)
	for _, c := range cats {
		if c == "stream" {
			continue
		}
		posts, err := s.src.CategoryPosts(ctx, c, s.cfg.CategoryNumber, nil)
		if err != nil {
			return 0, err
		}
		if len(posts) == 0 {
			log.WithField("category", c).Info("no posts in category, skipping sitemap")
			continue
		}
		eps := make([]string, 0, len(posts))
		for _, p := range posts {
			eps = append(eps, "/story/"+p.Slug)
		}
		key := s.cfg.File.categoryKey(c)
		if err := uploadXML(ctx, s.up, s.cfg.File.Bucket, key, s.BuildURLSet(eps), storage.CacheControlPublic); err != nil {
			return 0, err
		}
		keys = append(keys, key)
	}
	index := buildIndex(s.cfg.BaseURL, keys, s.now())
	if err := uploadXML(ctx, s.up, s.cfg.File.Bucket, s.cfg.File.key(s.cfg.File.SrcFileName.SitemapIndex), index, storage.CacheControlPublic); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func buildIndex(baseURL string, keys []string, now time.Time) *SitemapIndex {
	lastmod := now.In(Taipei).Format(lastmodLayout)
	idx := &SitemapIndex{XMLNS: sitemapNS}
	for _, k := range keys {
		idx.Sitemaps = append(idx.Sitemaps, Sitemap{
			Loc:     baseURL + "/" + k,
			LastMod: lastmod,
		})
	}
	return idx
}

func uploadXML(ctx context.Context, up storage.Uploader, bucket string, key string, v any, cacheControl string) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	return up.Upload(ctx, &storage.Object{
		Bucket:       bucket,
		Key:          key,
		Data:         data,
		ContentType:  storage.ContentTypeXML,
		CacheControl: cacheControl,
	})
}
