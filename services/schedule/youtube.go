package schedule

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mirror-media/mnews-cronjobs/services/cms"
	"github.com/mirror-media/mnews-cronjobs/services/k3"
	"github.com/mirror-media/mnews-cronjobs/services/ytrelay"
)

const youtubeWatchURL = "https://www.youtube.com/watch?v="

type YoutubeConfig struct {
	YTRelayEndpoints struct {
		PlaylistItems string `yaml:"playlistItems"`
	} `yaml:"ytrelayEndpoints"`
	ConvertTextEndpoint string `yaml:"converTextToDraftApiEndpoint"`
}

func DefaultYoutubeConfig() *YoutubeConfig {
	cfg := &YoutubeConfig{
		ConvertTextEndpoint: "https://api.mirrormedia.mg/converttext",
	}
	cfg.YTRelayEndpoints.PlaylistItems = "http://yt-relay.default.svc.cluster.local/youtube/v3/playlistItems"
	return cfg
}

type playlistSource interface {
	PlaylistItems(ctx context.Context, playlistID string, max int) ([]ytrelay.PlaylistItem, error)
}

type textConverter interface {
	Convert(ctx context.Context, text string) (*k3.ConvertedText, error)
}

type videoStore interface {
	YoutubeVideoURLs(ctx context.Context, ids []string) ([]string, error)
	CreatePost(ctx context.Context, fields []cms.Field) (string, error)
}

// VideoID extracts the youtube video id from a watch or youtu.be url.
func VideoID(u string) string {
	p, err := url.Parse(u)
	if err != nil {
		return ""
	}
	if v := p.Query().Get("v"); v != "" {
		return v
	}
	if strings.EqualFold(p.Hostname(), "youtu.be") {
		return strings.Trim(p.Path, "/")
	}
	return ""
}

// YoutubeImporter creates draft video news posts for playlist videos missing from the CMS.
type YoutubeImporter struct {
	playlists playlistSource
	conv      textConverter
	store     videoStore
	number    int
}

func NewYoutubeImporter(playlists playlistSource, conv textConverter, store videoStore, number int) *YoutubeImporter {
	return &YoutubeImporter{
		playlists: playlists,
		conv:      conv,
		store:     store,
		number:    number,
	}
}

func (s *YoutubeImporter) existing(ctx context.Context, items []ytrelay.PlaylistItem) (map[string]bool, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.VideoID)
	}
	urls, err := s.store.YoutubeVideoURLs(ctx, ids)
	if err != nil {
		return nil, err
	}
	res := map[string]bool{}
	for _, u := range urls {
		if id := VideoID(u); id != "" {
			res[id] = true
		}
	}
	return res, nil
}

func (s *YoutubeImporter) create(ctx context.Context, it *ytrelay.PlaylistItem) error {
	brief, err := s.conv.Convert(ctx, it.Description)
	if err != nil {
		return errors.Wrapf(err, "failed to convert description of %v", it.VideoID)
	}
	fields := []cms.Field{
		{Name: "slug", Value: cms.String(it.VideoID)},
		{Name: "state", Value: "draft"},
		{Name: "name", Value: cms.String(it.Title)},
		{Name: "style", Value: "videoNews"},
		{Name: "brief", Value: cms.String(brief.Draft)},
		{Name: "briefHtml", Value: cms.String(brief.HTML)},
		{Name: "briefApiData", Value: cms.String(brief.APIData)},
		{Name: "source", Value: cms.String("yt")},
		{Name: "heroVideo", Value: cms.Object(cms.Field{Name: "create", Value: cms.Object(
			cms.Field{Name: "state", Value: "draft"},
			cms.Field{Name: "youtubeUrl", Value: cms.String(youtubeWatchURL + it.VideoID)},
			cms.Field{Name: "name", Value: cms.String(it.Title)},
		)})},
	}
	id, err := s.store.CreatePost(ctx, fields)
	if err != nil {
		return errors.Wrapf(err, "failed to create post for video %v", it.VideoID)
	}
	log.WithField("video", it.VideoID).WithField("id", id).Info("video post created")
	return nil
}

func (s *YoutubeImporter) importPlaylist(ctx context.Context, playlistID string) (int, error) {
	items, err := s.playlists.PlaylistItems(ctx, playlistID, s.number)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}
	existing, err := s.existing(ctx, items)
	if err != nil {
		return 0, err
	}
	created := 0
	for i := range items {
		if existing[items[i].VideoID] {
			log.WithField("video", items[i].VideoID).Info("video is in cms, skipping")
			continue
		}
		if err := s.create(ctx, &items[i]); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// Run imports every playlist in order and stops at the first failure.
func (s *YoutubeImporter) Run(ctx context.Context, playlistIDs []string) (int, error) {
	total := 0
	for _, id := range playlistIDs {
		n, err := s.importPlaylist(ctx, id)
		total += n
		if err != nil {
			return total, errors.Wrapf(err, "failed to import playlist %v", id)
		}
	}
	return total, nil
}
