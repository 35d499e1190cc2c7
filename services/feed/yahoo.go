package feed

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mirror-media/mnews-cronjobs/models"
	"github.com/mirror-media/mnews-cronjobs/services/storage"
)

const yahooMaxRelated = 3

type YahooConfig struct {
	BaseURL         string        `yaml:"baseURL"`
	PostWhereFilter string        `yaml:"postWhereFilter"`
	ReadMoreTitle   string        `yaml:"readMoreTitle"`
	TTL             int           `yaml:"ttl"`
	Feed            ChannelConfig `yaml:"feed"`
	File            FileConfig    `yaml:"file"`
}

func DefaultYahooConfig() *YahooConfig {
	return &YahooConfig{
		BaseURL:         "https://www.mnews.tw/story/",
		PostWhereFilter: `{source: "tv", state: published}`,
		ReadMoreTitle:   "更多鏡週刊報導",
		TTL:             300,
		Feed: ChannelConfig{
			Title:       "鏡新聞",
			Link:        "https://www.mnews.tw",
			Description: "鏡新聞",
			Language:    "zh-TW",
		},
		File: FileConfig{
			FilePathBase:   "rss",
			FilenamePrefix: "yahoo",
			Extension:      "xml",
		},
	}
}

type postSource interface {
	FeedPosts(ctx context.Context, where string, first int) ([]models.Post, error)
}

// Yahoo renders the partner RSS feed with full article content.
type Yahoo struct {
	cfg    *YahooConfig
	src    postSource
	up     storage.Uploader
	number int
	now    func() time.Time
}

func NewYahoo(cfg *YahooConfig, src postSource, up storage.Uploader, number int) *Yahoo {
	return &Yahoo{
		cfg:    cfg,
		src:    src,
		up:     up,
		number: number,
		now:    time.Now,
	}
}

func (s *Yahoo) content(p *models.Post) string {
	var b strings.Builder
	b.WriteString(p.BriefHTML)
	if p.HeroImage != nil {
		fmt.Fprintf(&b, `<img src="%v" alt="%v" />`, p.HeroImage.URLOriginal, html.EscapeString(p.HeroImage.Name))
	}
	b.WriteString(p.ContentHTML)
	if len(p.RelatedPosts) > 0 {
		fmt.Fprintf(&b, `<br/><p class="read-more-vendor"><span>%v</span>`, html.EscapeString(s.cfg.ReadMoreTitle))
		n := 0
		for _, r := range p.RelatedPosts {
			if r == nil {
				continue
			}
			if n == yahooMaxRelated {
				break
			}
			fmt.Fprintf(&b, `<br/><a href="%v">%v</a>`, s.cfg.BaseURL+r.Slug, html.EscapeString(r.Name))
			n++
		}
		b.WriteString("</p>")
	}
	return StripInvalidXMLChars(b.String())
}

func (s *Yahoo) item(p *models.Post) Item {
	link := s.cfg.BaseURL + p.Slug
	it := Item{
		Title:          CDATA(StripInvalidXMLChars(p.Name)),
		Link:           link,
		Description:    CDATA(StripInvalidXMLChars(p.BriefHTML)),
		ContentEncoded: CDATA(s.content(p)),
		GUID:           &GUIDElement{IsPermaLink: "false", Value: GUID(link)},
		PubDate:        p.PublishTime.In(Taipei).Format(time.RFC1123Z),
	}
	if p.HeroImage != nil {
		it.MediaContent = &MediaContent{
			URL:    p.HeroImage.URLOriginal,
			Medium: "image",
		}
	}
	for _, c := range p.Categories {
		it.Categories = append(it.Categories, c.Name)
	}
	for _, w := range p.Writers {
		it.Creators = append(it.Creators, w.Name)
	}
	return it
}

func (s *Yahoo) Build(posts []models.Post) *RSS {
	ch := newChannel(s.cfg.Feed)
	now := s.now().In(Taipei).Format(time.RFC1123Z)
	ch.PubDate = now
	ch.LastBuildDate = now
	ch.TTL = s.cfg.TTL
	for i := range posts {
		ch.Items = append(ch.Items, s.item(&posts[i]))
	}
	return &RSS{
		Version:      "2.0",
		XMLNSMedia:   nsMedia,
		XMLNSDC:      nsDC,
		XMLNSContent: nsContent,
		Channel:      ch,
	}
}

func (s *Yahoo) Run(ctx context.Context) (int, error) {
	posts, err := s.src.FeedPosts(ctx, s.cfg.PostWhereFilter, s.number)
	if err != nil {
		return 0, err
	}
	log.Infof("got %d posts for yahoo rss", len(posts))
	data, err := Marshal(s.Build(posts))
	if err != nil {
		return 0, err
	}
	err = s.up.Upload(ctx, &storage.Object{
		Bucket:       s.cfg.File.Bucket,
		Key:          s.cfg.File.Key(),
		Data:         data,
		ContentType:  storage.ContentTypeRSS,
		CacheControl: storage.CacheControlPublic,
		Gzip:         true,
	})
	if err != nil {
		return 0, err
	}
	return len(posts), nil
}
