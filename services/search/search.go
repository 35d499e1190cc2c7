package search

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/mirror-media/mnews-cronjobs/services/common"
	"github.com/mirror-media/mnews-cronjobs/services/config"
)

const (
	postsIndexFlag  = "search-posts-index"
	metaIndexFlag   = "search-meta-index"
	unitDaysFlag    = "search-unit-days"
	savedFieldsFlag = "search-saved-fields"

	publishedState  = "published"
	defaultLookBack = 5 * time.Minute
	updatedAtField  = "updatedAt"
	updatedAtLayout = time.RFC3339Nano
)

func RegisterFlags(f []cli.Flag) []cli.Flag {
	f = RegisterElasticFlags(f)
	return append(f,
		cli.StringFlag{
			Name:   postsIndexFlag,
			Usage:  "elasticsearch index of posts",
			EnvVar: "SEARCH_POSTS_INDEX",
		},
		cli.StringFlag{
			Name:   metaIndexFlag,
			Usage:  "elasticsearch index keeping the sync watermark",
			EnvVar: "SEARCH_META_INDEX",
		},
		cli.Float64Flag{
			Name:   unitDaysFlag,
			Usage:  "days covered by a single backfill batch",
			EnvVar: "SEARCH_UNIT_DAYS",
		},
		cli.StringSliceFlag{
			Name:   savedFieldsFlag,
			Usage:  "post fields stored in the index",
			EnvVar: "SEARCH_SAVED_FIELDS",
		},
	)
}

type Config struct {
	PostsIndex  string   `yaml:"postsIndex"`
	MetaIndex   string   `yaml:"metaIndex"`
	UnitDays    float64  `yaml:"unitDays"`
	SavedFields []string `yaml:"savedFields"`
}

func DefaultConfig() *Config {
	return &Config{
		PostsIndex: "tv-posts",
		MetaIndex:  "tv-posts-meta",
		UnitDays:   1,
		SavedFields: []string{
			"slug", "title", "subtitle", "publishTime", "categories", "writers",
			"photographers", "cameraOperators", "designers", "engineers", "vocals",
			"otherbyline", "heroVideo", "heroImage", "heroCaption", "style", "topics",
			"tags", "audio", "ogTitle", "ogDescription", "ogImage", "updatedAt",
		},
	}
}

// NewConfig reads the job yaml and applies flag overrides on top of it.
func NewConfig(c *cli.Context) (*Config, error) {
	cfg := DefaultConfig()
	if err := config.Load(c.String(common.ConfigFlag), cfg); err != nil {
		return nil, err
	}
	if v := c.String(postsIndexFlag); v != "" {
		cfg.PostsIndex = v
	}
	if v := c.String(metaIndexFlag); v != "" {
		cfg.MetaIndex = v
	}
	if v := c.Float64(unitDaysFlag); v > 0 {
		cfg.UnitDays = v
	}
	if v := c.StringSlice(savedFieldsFlag); len(v) > 0 {
		cfg.SavedFields = v
	}
	if cfg.UnitDays <= 0 {
		return nil, errors.Errorf("unit days must be positive, got %v", cfg.UnitDays)
	}
	return cfg, nil
}

// Index is the search backend keeping post documents and the sync watermark.
type Index interface {
	EnsureIndices(ctx context.Context) error
	// Watermark returns nil when no watermark was stored yet.
	Watermark(ctx context.Context) (*time.Time, error)
	SaveWatermark(ctx context.Context, t time.Time) error
	Upsert(ctx context.Context, id string, doc map[string]any) error
	Delete(ctx context.Context, id string) error
}

type Source interface {
	PostsUpdatedBetween(ctx context.Context, start time.Time, end *time.Time) ([]map[string]any, error)
}

type window struct {
	start time.Time
	end   time.Time
}

// windows splits days after start into batches of unit days, the last one
// covering whatever remains.
func windows(start time.Time, days float64, unit float64) []window {
	n := int(math.Ceil(days / unit))
	res := make([]window, 0, n)
	for i := 0; i < n; i++ {
		l := math.Min(days-float64(i)*unit, unit)
		s := start.Add(dayDuration(float64(i) * unit))
		res = append(res, window{start: s, end: s.Add(dayDuration(l))})
	}
	return res
}

func dayDuration(d float64) time.Duration {
	return time.Duration(d * float64(24*time.Hour))
}

type doc struct {
	id    string
	state string
	title string
	body  map[string]any
}

// richTextHTML extracts the html of a json encoded draft field.
func richTextHTML(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("unexpected rich text value %T", v)
	}
	var d struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return "", errors.Wrap(err, "failed to parse rich text")
	}
	return d.HTML, nil
}

// Syncer mirrors posts updated since the last run into the search index.
type Syncer struct {
	cfg *Config
	src Source
	idx Index
	now func() time.Time
}

func NewSyncer(cfg *Config, src Source, idx Index) *Syncer {
	return &Syncer{
		cfg: cfg,
		src: src,
		idx: idx,
		now: time.Now,
	}
}

func (s *Syncer) clean(post map[string]any) *doc {
	d := &doc{
		id:   fmt.Sprint(post["id"]),
		body: map[string]any{},
	}
	if v, ok := post["state"].(string); ok {
		d.state = v
	}
	if v, ok := post["title"].(string); ok {
		d.title = v
	}
	for _, f := range s.cfg.SavedFields {
		d.body[f] = post[f]
	}
	for _, f := range []string{"brief", "content"} {
		v, ok := post[f]
		if !ok || v == nil {
			continue
		}
		html, err := richTextHTML(v)
		if err != nil {
			log.WithError(err).WithField("id", d.id).Warnf("dropping %v", f)
			delete(d.body, f)
			continue
		}
		d.body[f] = html
	}
	return d
}

func (s *Syncer) apply(ctx context.Context, d *doc) error {
	if d.state == publishedState {
		if err := s.idx.Upsert(ctx, d.id, d.body); err != nil {
			return err
		}
		log.Infof("[insert/update] %v: %v", d.id, d.title)
		return nil
	}
	if err := s.idx.Delete(ctx, d.id); err != nil {
		return err
	}
	log.Infof("[delete] %v: %v", d.id, d.title)
	return nil
}

// latestUpdate returns the newest updatedAt of the batch.
func latestUpdate(posts []map[string]any) (*time.Time, error) {
	var res *time.Time
	for _, p := range posts {
		v, ok := p[updatedAtField].(string)
		if !ok {
			continue
		}
		t, err := time.Parse(updatedAtLayout, v)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse updatedAt %v", v)
		}
		if res == nil || t.After(*res) {
			res = &t
		}
	}
	return res, nil
}

func (s *Syncer) process(ctx context.Context, posts []map[string]any) error {
	for _, p := range posts {
		if err := s.apply(ctx, s.clean(p)); err != nil {
			return err
		}
	}
	if len(posts) == 0 {
		return nil
	}
	t, err := latestUpdate(posts)
	if err != nil {
		return err
	}
	if t == nil {
		return nil
	}
	return s.idx.SaveWatermark(ctx, *t)
}

func (s *Syncer) batch(ctx context.Context, start time.Time, end *time.Time) (int, error) {
	posts, err := s.src.PostsUpdatedBetween(ctx, start, end)
	if err != nil {
		return 0, err
	}
	if err := s.process(ctx, posts); err != nil {
		return 0, err
	}
	return len(posts), nil
}

// Run syncs posts updated after the stored watermark. With days > 0 it
// instead walks the last days in batches of unit days.
func (s *Syncer) Run(ctx context.Context, days float64) (int, error) {
	if err := s.idx.EnsureIndices(ctx); err != nil {
		return 0, err
	}
	now := s.now()
	if days > 0 {
		start := now.Add(-dayDuration(days))
		log.Infof("fetching posts updated in the last %v days", days)
		total := 0
		for _, w := range windows(start, days, s.cfg.UnitDays) {
			end := w.end
			n, err := s.batch(ctx, w.start, &end)
			if err != nil {
				return total, err
			}
			total += n
		}
		log.Infof("%d docs handled", total)
		return total, nil
	}
	start := now.Add(-defaultLookBack)
	wm, err := s.idx.Watermark(ctx)
	if err != nil {
		return 0, err
	}
	if wm != nil {
		start = *wm
	}
	log.Infof("updating docs modified after %v", start)
	n, err := s.batch(ctx, start, nil)
	if err != nil {
		return 0, err
	}
	log.Infof("%d docs handled", n)
	return n, nil
}
