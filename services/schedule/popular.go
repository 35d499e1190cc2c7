package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mirror-media/mnews-cronjobs/models"
	"github.com/mirror-media/mnews-cronjobs/services/analytics"
	"github.com/mirror-media/mnews-cronjobs/services/storage"
)

const (
	dateLayout         = "2006-01-02"
	generateTimeLayout = "2006-01-02 15:04:05.000000"
)

type PopularConfig struct {
	AnalyticsID string `yaml:"analyticsID"`
	Report      struct {
		BucketName                 string                      `yaml:"bucketName"`
		FileName                   string                      `yaml:"fileName"`
		PagePathLevel1RegexFilter  []string                    `yaml:"pagePathLevel1RegexFilter"`
		AdditionalDimensionFilters []analytics.DimensionFilter `yaml:"additionalDimensionFilters"`
		PageSize                   int64                       `yaml:"pageSize"`
	} `yaml:"report"`
	FileHostDomainRule map[string]string `yaml:"fileHostDomainRule"`
	SlugBlacklist      []string          `yaml:"slugBlacklist"`
}

func DefaultPopularConfig() *PopularConfig {
	cfg := &PopularConfig{
		FileHostDomainRule: DefaultFileHostDomainRule(),
	}
	cfg.Report.FileName = "popularlist.json"
	cfg.Report.PagePathLevel1RegexFilter = []string{`^\/story\/|^\/projects\/`}
	cfg.Report.PageSize = 20
	return cfg
}

type PopularImage struct {
	URLMobileSized string `json:"urlMobileSized"`
	URLTinySized   string `json:"urlTinySized"`
}

type PopularPost struct {
	ID          string        `json:"id"`
	PublishTime time.Time     `json:"publishTime"`
	HeroImage   *PopularImage `json:"heroImage"`
	Slug        string        `json:"slug"`
	Name        string        `json:"name"`
}

type PopularReport struct {
	Report       []PopularPost `json:"report"`
	StartDate    string        `json:"start_date"`
	EndDate      string        `json:"end_date"`
	GenerateTime string        `json:"generate_time"`
}

type pageviewsReporter interface {
	Report(ctx context.Context, q *analytics.Query) ([]analytics.Row, error)
}

type slugStore interface {
	PostsBySlugs(ctx context.Context, slugs []string) ([]models.Post, error)
}

// Popular publishes the most viewed posts of the last days as json.
type Popular struct {
	cfg      *PopularConfig
	reporter pageviewsReporter
	store    slugStore
	up       storage.Uploader
	days     int
	now      func() time.Time
}

func NewPopular(cfg *PopularConfig, reporter pageviewsReporter, store slugStore, up storage.Uploader, days int) *Popular {
	if days < 0 {
		days = 1
	}
	return &Popular{
		cfg:      cfg,
		reporter: reporter,
		store:    store,
		up:       up,
		days:     days,
		now:      time.Now,
	}
}

// slugs keeps the pageview order, drops blacklisted and repeated slugs.
func (s *Popular) slugs(rows []analytics.Row) []string {
	black := map[string]bool{}
	for _, b := range s.cfg.SlugBlacklist {
		black[b] = true
	}
	seen := map[string]bool{}
	var res []string
	for _, r := range rows {
		if len(r.Dimensions) == 0 {
			continue
		}
		slug := strings.ReplaceAll(r.Dimensions[0], "/", "")
		if slug == "" || black[slug] || seen[slug] {
			continue
		}
		seen[slug] = true
		res = append(res, slug)
	}
	return res
}

func (s *Popular) posts(posts []models.Post, slugs []string) []PopularPost {
	bySlug := make(map[string]*models.Post, len(posts))
	for i := range posts {
		bySlug[posts[i].Slug] = &posts[i]
	}
	res := []PopularPost{}
	for _, sl := range slugs {
		p, ok := bySlug[sl]
		if !ok {
			continue
		}
		pp := PopularPost{
			ID:          p.ID,
			PublishTime: p.PublishTime,
			Slug:        p.Slug,
			Name:        p.Name,
		}
		if p.HeroImage != nil {
			pp.HeroImage = &PopularImage{
				URLMobileSized: RewriteHost(s.cfg.FileHostDomainRule, p.HeroImage.URLMobileSized),
				URLTinySized:   RewriteHost(s.cfg.FileHostDomainRule, p.HeroImage.URLTinySized),
			}
		}
		res = append(res, pp)
	}
	return res
}

func (s *Popular) Build(ctx context.Context) (*PopularReport, error) {
	now := s.now()
	start := now.AddDate(0, 0, -s.days).Format(dateLayout)
	end := now.Format(dateLayout)
	rows, err := s.reporter.Report(ctx, &analytics.Query{
		ViewID:            s.cfg.AnalyticsID,
		StartDate:         start,
		EndDate:           end,
		PagePathLevel1:    s.cfg.Report.PagePathLevel1RegexFilter,
		AdditionalFilters: s.cfg.Report.AdditionalDimensionFilters,
		PageSize:          s.cfg.Report.PageSize,
	})
	if err != nil {
		return nil, err
	}
	slugs := s.slugs(rows)
	posts, err := s.store.PostsBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	return &PopularReport{
		Report:       s.posts(posts, slugs),
		StartDate:    start,
		EndDate:      end,
		GenerateTime: now.Format(generateTimeLayout),
	}, nil
}

func (s *Popular) Run(ctx context.Context) (int, error) {
	report, err := s.Build(ctx)
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return 0, errors.Wrap(err, "failed to encode report")
	}
	log.Infof("popular report has %d posts", len(report.Report))
	err = s.up.Upload(ctx, &storage.Object{
		Bucket:       s.cfg.Report.BucketName,
		Key:          "json/" + s.cfg.Report.FileName,
		Data:         buf.Bytes(),
		ContentType:  storage.ContentTypeJSON,
		CacheControl: storage.CacheControlPublic,
		Gzip:         true,
	})
	if err != nil {
		return 0, err
	}
	return len(report.Report), nil
}
