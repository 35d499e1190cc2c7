package feed

import (
	"context"
	"regexp"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mirror-media/mnews-cronjobs/models"
	"github.com/mirror-media/mnews-cronjobs/services/storage"
)

const yahooVideoDateLayout = "Monday, 02 January 2006 15:04:05 -0700"

type YahooVideoConfig struct {
	// BaseURL is a pattern matched against video urls; matching videos get a media:content element.
	BaseURL         string        `yaml:"baseURL"`
	PostWhereFilter string        `yaml:"postWhereFilter"`
	Media           string        `yaml:"media"`
	DCTerms         string        `yaml:"dcterms"`
	Feed            ChannelConfig `yaml:"feed"`
	File            FileConfig    `yaml:"file"`
}

func DefaultYahooVideoConfig() *YahooVideoConfig {
	return &YahooVideoConfig{
		PostWhereFilter: "{state: published}",
		Media:           nsMedia,
		DCTerms:         nsDCTerms,
		File: FileConfig{
			FilePathBase:   "rss",
			FilenamePrefix: "yahoo_video",
			Extension:      "xml",
		},
	}
}

type videoSource interface {
	FeedVideos(ctx context.Context, where string, first int, relatedLimit int) ([]models.Video, error)
}

// YahooVideo renders the partner video RSS feed.
type YahooVideo struct {
	cfg    *YahooVideoConfig
	src    videoSource
	up     storage.Uploader
	number int
	urlRE  *regexp.Regexp
}

func NewYahooVideo(cfg *YahooVideoConfig, src videoSource, up storage.Uploader, number int) (*YahooVideo, error) {
	re, err := regexp.Compile(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile video base url pattern")
	}
	return &YahooVideo{
		cfg:    cfg,
		src:    src,
		up:     up,
		number: number,
		urlRE:  re,
	}, nil
}

func (s *YahooVideo) item(v *models.Video) Item {
	it := Item{
		Title:       CDATA(StripInvalidXMLChars(v.Name)),
		Link:        v.URL,
		Description: CDATA(StripInvalidXMLChars(v.Description)),
		MediaCredit: &MediaCredit{
			Role:  "author",
			Value: s.cfg.Feed.Title,
		},
		MediaKeywords: &MediaKeywords{},
		GUID: &GUIDElement{
			IsPermaLink: "false",
			Value:       GUID(v.URL),
		},
		PubDate: v.CreatedAt.In(Taipei).Format(yahooVideoDateLayout),
	}
	if len(v.Categories) > 0 {
		it.Categories = []string{v.Categories[0].Name}
	}
	if s.urlRE.MatchString(v.URL) {
		it.MediaContent = &MediaContent{
			URL:       v.URL,
			Type:      "video/mp4",
			Medium:    "video",
			IsDefault: "true",
		}
	}
	return it
}

func (s *YahooVideo) Build(videos []models.Video) *RSS {
	ch := newChannel(s.cfg.Feed)
	for i := range videos {
		ch.Items = append(ch.Items, s.item(&videos[i]))
	}
	return &RSS{
		Version:      "2.0",
		XMLNSMedia:   s.cfg.Media,
		XMLNSDCTerms: s.cfg.DCTerms,
		Channel:      ch,
	}
}

func (s *YahooVideo) Run(ctx context.Context) (int, error) {
	videos, err := s.src.FeedVideos(ctx, s.cfg.PostWhereFilter, s.number, 0)
	if err != nil {
		return 0, err
	}
	log.Infof("got %d videos for yahoo video rss", len(videos))
	data, err := Marshal(s.Build(videos))
	if err != nil {
		return 0, err
	}
	err = s.up.Upload(ctx, &storage.Object{
		Bucket:       s.cfg.File.Bucket,
		Key:          s.cfg.File.Key(),
		Data:         data,
		ContentType:  storage.ContentTypeXML,
		CacheControl: storage.CacheControlRevalidate,
		Gzip:         true,
	})
	if err != nil {
		return 0, err
	}
	return len(videos), nil
}
