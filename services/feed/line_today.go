package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mirror-media/mnews-cronjobs/models"
	"github.com/mirror-media/mnews-cronjobs/services/storage"
)

const (
	lineTodayAvailableDays = 365
	lineTodayArticleType   = 0
	lineTodayVideoType     = 5
	lineTodayMaxRelated    = 6
	lineTodayVideoRelated  = 2
)

type LineTodayItemConfig struct {
	LogoURL                string `yaml:"logo_url"`
	YoutubeIframeRegex     string `yaml:"ytb_iframe_regex"`
	RelatedPostPrependHTML string `yaml:"relatedPostPrependHtml"`
	UTMSource              string `yaml:"utmSource"`
	Author                 string `yaml:"author"`
	OfficialLine           string `yaml:"officialLine"`
}

type LineTodayConfig struct {
	BaseURL         string `yaml:"baseURL"`
	PostWhereFilter string `yaml:"postWhereFilter"`
	Feed            struct {
		Item LineTodayItemConfig `yaml:"item"`
	} `yaml:"feed"`
	File FileConfig `yaml:"file"`
}

func DefaultLineTodayConfig() *LineTodayConfig {
	cfg := &LineTodayConfig{
		PostWhereFilter: "{state: published}",
	}
	cfg.Feed.Item.RelatedPostPrependHTML = "<br/><p>延伸閱讀</p><ul>"
	cfg.File.Extension = "xml"
	return cfg
}

type LineTodayArticles struct {
	XMLName  xml.Name           `xml:"articles"`
	UUID     string             `xml:"UUID"`
	Time     int64              `xml:"time"`
	Articles []LineTodayArticle `xml:"article"`
}

type LineTodayArticle struct {
	ID                string                      `xml:"ID"`
	NativeCountry     string                      `xml:"nativeCountry"`
	Language          string                      `xml:"language"`
	StartYmdtUnix     int64                       `xml:"startYmdtUnix"`
	EndYmdtUnix       int64                       `xml:"endYmdtUnix"`
	Title             CDATA                       `xml:"title"`
	Category          string                      `xml:"category,omitempty"`
	PublishTimeUnix   int64                       `xml:"publishTimeUnix"`
	UpdateTimeUnix    int64                       `xml:"updateTimeUnix,omitempty"`
	ContentType       int                         `xml:"contentType"`
	Thumbnail         string                      `xml:"thumbnail,omitempty"`
	Contents          LineTodayContents           `xml:"contents"`
	RecommendArticles *LineTodayRecommendArticles `xml:"recommendArticles,omitempty"`
	Author            CDATA                       `xml:"author"`
	SourceURL         string                      `xml:"sourceUrl,omitempty"`
	Tags              *LineTodayTags              `xml:"tags,omitempty"`
}

type LineTodayContents struct {
	Video *LineTodayVideo `xml:"video,omitempty"`
	Text  LineTodayText   `xml:"text"`
}

type LineTodayVideo struct {
	URL string `xml:"url"`
}

type LineTodayText struct {
	Content CDATA `xml:"content"`
}

type LineTodayRecommendArticles struct {
	Articles []LineTodayRecommendArticle `xml:"article"`
}

type LineTodayRecommendArticle struct {
	Title     CDATA  `xml:"title"`
	URL       string `xml:"url"`
	Thumbnail string `xml:"thumbnail,omitempty"`
}

type LineTodayTags struct {
	Tags []string `xml:"tag"`
}

type lineTodaySource interface {
	FeedPosts(ctx context.Context, where string, first int) ([]models.Post, error)
	FeedVideos(ctx context.Context, where string, first int, relatedLimit int) ([]models.Video, error)
}

// LineToday renders the LINE Today article and video feeds.
type LineToday struct {
	cfg      *LineTodayConfig
	src      lineTodaySource
	up       storage.Uploader
	number   int
	iframeRE *regexp.Regexp
	now      func() time.Time
	newUUID  func() string
}

func NewLineToday(cfg *LineTodayConfig, src lineTodaySource, up storage.Uploader, number int) (*LineToday, error) {
	lt := &LineToday{
		cfg:     cfg,
		src:     src,
		up:      up,
		number:  number,
		now:     time.Now,
		newUUID: uuid.NewString,
	}
	if cfg.Feed.Item.YoutubeIframeRegex != "" {
		re, err := regexp.Compile(cfg.Feed.Item.YoutubeIframeRegex)
		if err != nil {
			return nil, errors.Wrap(err, "failed to compile youtube iframe regex")
		}
		lt.iframeRE = re
	}
	return lt, nil
}

func (s *LineToday) heroImageTag(p *models.Post) string {
	if p.HeroImage == nil {
		return fmt.Sprintf(`<img alt="logo" src="%v">`, s.cfg.Feed.Item.LogoURL)
	}
	if p.HeroCaption != "" {
		return fmt.Sprintf(`<img alt="%v" src="%v">`, html.EscapeString(p.HeroCaption), p.HeroImage.URLOriginal)
	}
	return fmt.Sprintf(`<img src="%v">`, p.HeroImage.URLOriginal)
}

// relatedList appends related links to b. textSuffix and linkSuffix are
// appended to the links in the text and in recommendArticles.
func (s *LineToday) relatedList(b *strings.Builder, related []*models.RelatedPost, limit int, textSuffix string, linkSuffix string) *LineTodayRecommendArticles {
	b.WriteString(s.cfg.Feed.Item.RelatedPostPrependHTML)
	ra := &LineTodayRecommendArticles{}
	for i, r := range related {
		if limit > 0 && i >= limit {
			break
		}
		if r == nil {
			continue
		}
		fmt.Fprintf(b, `<li><a href="%v">%v</a></li>`, s.cfg.BaseURL+r.Slug+textSuffix, html.EscapeString(r.Name))
		a := LineTodayRecommendArticle{
			Title: CDATA(r.Name),
			URL:   s.cfg.BaseURL + r.Slug + linkSuffix,
		}
		if r.HeroImage != nil {
			a.Thumbnail = r.HeroImage.URLOriginal
		}
		ra.Articles = append(ra.Articles, a)
	}
	b.WriteString("</ul>")
	return ra
}

func (s *LineToday) article(p *models.Post) LineTodayArticle {
	item := s.cfg.Feed.Item
	var b strings.Builder
	b.WriteString(s.heroImageTag(p))
	b.WriteString(p.BriefHTML)
	if p.ContentHTML != "" {
		c := p.ContentHTML
		if s.iframeRE != nil {
			c = s.iframeRE.ReplaceAllString(c, "")
		}
		b.WriteString(ReplaceImageAlts(c, p.ContentAPIData))
	}
	a := LineTodayArticle{
		ID:              p.ID,
		NativeCountry:   "TW",
		Language:        "zh",
		StartYmdtUnix:   UnixMillis(p.LastModified()),
		EndYmdtUnix:     UnixMillis(p.PublishTime.AddDate(0, 0, lineTodayAvailableDays)),
		Title:           CDATA(StripInvalidXMLChars(p.Name)),
		PublishTimeUnix: UnixMillis(p.PublishTime),
		ContentType:     lineTodayArticleType,
		Author:          CDATA(item.Author),
		SourceURL:       s.cfg.BaseURL + p.Slug + item.UTMSource,
	}
	if len(p.Categories) > 0 {
		a.Category = p.Categories[0].Name
	}
	if p.UpdatedAt != nil {
		a.UpdateTimeUnix = UnixMillis(*p.UpdatedAt)
	}
	if p.HeroImage != nil {
		a.Thumbnail = p.HeroImage.URLOriginal
	}
	if len(p.RelatedPosts) > 0 {
		a.RecommendArticles = s.relatedList(&b, p.RelatedPosts, lineTodayMaxRelated, "", item.UTMSource)
	}
	a.Contents.Text.Content = CDATA(StripInvalidXMLChars(b.String()))
	if len(p.Tags) > 0 {
		tags := &LineTodayTags{}
		for _, t := range p.Tags {
			tags.Tags = append(tags.Tags, t.Name)
		}
		a.Tags = tags
	}
	return a
}

func (s *LineToday) video(v *models.Video) LineTodayArticle {
	item := s.cfg.Feed.Item
	available := UnixMillis(v.LastModified())
	var b strings.Builder
	if v.Description != "" {
		b.WriteString(StripInvalidXMLChars(v.Description + item.OfficialLine))
	} else {
		b.WriteString(item.OfficialLine)
	}
	a := LineTodayArticle{
		ID:              v.ID,
		NativeCountry:   "TW",
		Language:        "zh",
		StartYmdtUnix:   available,
		EndYmdtUnix:     UnixMillis(v.CreatedAt.AddDate(0, 0, lineTodayAvailableDays)),
		Title:           CDATA(StripInvalidXMLChars(v.Name)),
		PublishTimeUnix: available,
		ContentType:     lineTodayVideoType,
		Author:          CDATA(item.Author),
	}
	if len(v.Categories) > 0 {
		a.Category = v.Categories[0].Name
	}
	if len(v.RelatedPosts) > 0 {
		suffix := item.UTMSource + "_" + v.Name
		a.RecommendArticles = s.relatedList(&b, v.RelatedPosts, 0, suffix, suffix)
	}
	a.Contents.Video = &LineTodayVideo{URL: v.URL}
	a.Contents.Text.Content = CDATA(b.String())
	return a
}

func (s *LineToday) document() *LineTodayArticles {
	return &LineTodayArticles{
		UUID: s.newUUID(),
		Time: UnixMillis(s.now()),
	}
}

func (s *LineToday) BuildArticles(posts []models.Post) *LineTodayArticles {
	doc := s.document()
	for i := range posts {
		doc.Articles = append(doc.Articles, s.article(&posts[i]))
	}
	return doc
}

func (s *LineToday) BuildVideos(videos []models.Video) *LineTodayArticles {
	doc := s.document()
	for i := range videos {
		doc.Articles = append(doc.Articles, s.video(&videos[i]))
	}
	return doc
}

func (s *LineToday) upload(ctx context.Context, doc *LineTodayArticles) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	return s.up.Upload(ctx, &storage.Object{
		Bucket:       s.cfg.File.Bucket,
		Key:          s.cfg.File.Key(),
		Data:         data,
		ContentType:  storage.ContentTypeXML,
		CacheControl: storage.CacheControlRevalidate,
		Gzip:         true,
	})
}

// RunArticles publishes the article feed and returns the number of articles in it.
func (s *LineToday) RunArticles(ctx context.Context) (int, error) {
	posts, err := s.src.FeedPosts(ctx, s.cfg.PostWhereFilter, s.number)
	if err != nil {
		return 0, err
	}
	log.Infof("got %d posts for line today", len(posts))
	if err := s.upload(ctx, s.BuildArticles(posts)); err != nil {
		return 0, err
	}
	return len(posts), nil
}

// RunVideos publishes the video feed and returns the number of videos in it.
func (s *LineToday) RunVideos(ctx context.Context) (int, error) {
	videos, err := s.src.FeedVideos(ctx, s.cfg.PostWhereFilter, s.number, lineTodayVideoRelated)
	if err != nil {
		return 0, err
	}
	log.Infof("got %d videos for line today", len(videos))
	if err := s.upload(ctx, s.BuildVideos(videos)); err != nil {
		return 0, err
	}
	return len(videos), nil
}
