package feed

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mirror-media/mnews-cronjobs/models"
	"github.com/mirror-media/mnews-cronjobs/services/storage"
)

const facebookArticleTemplate = `<!doctype html>
<html lang="zh" prefix="op: http://media.facebook.com/op#">
  <head>
    <meta charset="utf-8">
    <link rel="canonical" href="{{ .URL }}">
    <meta property="op:markup_version" content="v1.0">
  </head>
  <body>
    <article>
      <header>
        <h1>{{ .Title }}</h1>
        {{- if .Image }}
        <figure><img src="{{ .Image }}"></figure>
        {{- end }}
      </header>
      <p>{{ .Body }}</p>
      {{- if .TrackingCode }}
      <figure class="op-tracker">
        <iframe hidden>{{ .TrackingCode }}</iframe>
      </figure>
      {{- end }}
      <footer></footer>
    </article>
  </body>
</html>`

const defaultTrackingCode = `<script>
var _comscore = _comscore || [];
_comscore.push({ c1: "2", c2: "24318560" });
(function() {
var s = document.createElement("script"), el = document.getElementsByTagName("script")[0];
s.async = true; s.src = "https://sb.scorecardresearch.com/cs/24318560/beacon.js";
el.parentNode.insertBefore(s, el);
})();
</script>`

type FacebookIAConfig struct {
	BaseURL         string        `yaml:"baseURL"`
	PostWhereFilter string        `yaml:"postWhereFilter"`
	TrackingCode    string        `yaml:"trackingCode"`
	Feed            ChannelConfig `yaml:"feed"`
	File            FileConfig    `yaml:"file"`
}

func DefaultFacebookIAConfig() *FacebookIAConfig {
	return &FacebookIAConfig{
		BaseURL:         "https://www.mnews.tw/story/",
		PostWhereFilter: `{source: "tv", state: published}`,
		TrackingCode:    defaultTrackingCode,
		Feed: ChannelConfig{
			Title:       "Facebook IA",
			Link:        "https://www.mnews.tw",
			Description: "News from MNEWS.",
			Language:    "zh-tw",
		},
		File: FileConfig{
			FilePathBase:   "rss",
			FilenamePrefix: "facebook_ia_rss",
			Extension:      "xml",
		},
	}
}

type facebookArticle struct {
	URL          string
	Title        string
	Image        string
	Body         string
	TrackingCode template.HTML
}

// FacebookIA renders the Instant Articles RSS feed.
type FacebookIA struct {
	cfg    *FacebookIAConfig
	src    postSource
	up     storage.Uploader
	number int
	tpl    *template.Template
	now    func() time.Time
}

func NewFacebookIA(cfg *FacebookIAConfig, src postSource, up storage.Uploader, number int) (*FacebookIA, error) {
	tpl, err := template.New("article").Parse(facebookArticleTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse article template")
	}
	return &FacebookIA{
		cfg:    cfg,
		src:    src,
		up:     up,
		number: number,
		tpl:    tpl,
		now:    time.Now,
	}, nil
}

func (s *FacebookIA) item(p *models.Post) (Item, error) {
	link := s.cfg.BaseURL + p.Slug
	body := FirstText(p.BriefHTML)
	a := facebookArticle{
		URL:          link,
		Title:        p.Name,
		Body:         body,
		TrackingCode: template.HTML(s.cfg.TrackingCode),
	}
	if p.HeroImage != nil {
		a.Image = p.HeroImage.URLOriginal
	}
	var buf bytes.Buffer
	if err := s.tpl.Execute(&buf, a); err != nil {
		return Item{}, errors.Wrapf(err, "failed to render article %v", p.Slug)
	}
	return Item{
		Title:          CDATA(StripInvalidXMLChars(p.Name)),
		Link:           link,
		Description:    CDATA(StripInvalidXMLChars(body)),
		ContentEncoded: CDATA(StripInvalidXMLChars(buf.String())),
		GUID:           &GUIDElement{Value: GUID(link)},
		PubDate:        p.PublishTime.In(Taipei).Format(time.RFC1123Z),
	}, nil
}

func (s *FacebookIA) Build(posts []models.Post) (*RSS, error) {
	ch := newChannel(s.cfg.Feed)
	ch.LastBuildDate = s.now().In(Taipei).Format(time.RFC1123Z)
	for i := range posts {
		it, err := s.item(&posts[i])
		if err != nil {
			return nil, err
		}
		ch.Items = append(ch.Items, it)
	}
	return &RSS{
		Version:      "2.0",
		XMLNSContent: nsContent,
		Channel:      ch,
	}, nil
}

func (s *FacebookIA) Run(ctx context.Context) (int, error) {
	posts, err := s.src.FeedPosts(ctx, s.cfg.PostWhereFilter, s.number)
	if err != nil {
		return 0, err
	}
	log.Infof("got %d posts for facebook instant articles", len(posts))
	doc, err := s.Build(posts)
	if err != nil {
		return 0, err
	}
	data, err := Marshal(doc)
	if err != nil {
		return 0, err
	}
	err = s.up.Upload(ctx, &storage.Object{
		Bucket:       s.cfg.File.Bucket,
		Key:          s.cfg.File.Key(),
		Data:         data,
		ContentType:  "application/xml",
		CacheControl: storage.CacheControlPublic,
		Gzip:         true,
	})
	if err != nil {
		return 0, err
	}
	return len(posts), nil
}
