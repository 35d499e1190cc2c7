package ytrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	playlistItemFields = "items(snippet/title,snippet/description,snippet/resourceId/videoId)"
	cacheTTL           = "600"
)

type PlaylistItem struct {
	VideoID     string
	Title       string
	Description string
}

// Api reads youtube data through the yt-relay caching proxy.
type Api struct {
	playlistItemsURL string
	cl               *http.Client
}

func New(playlistItemsURL string, cl *http.Client) *Api {
	return &Api{
		playlistItemsURL: playlistItemsURL,
		cl:               cl,
	}
}

func (s *Api) PlaylistItems(ctx context.Context, playlistID string, max int) ([]PlaylistItem, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("maxResults", fmt.Sprintf("%d", max))
	q.Set("playlistId", playlistID)
	q.Set("fields", playlistItemFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.playlistItemsURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Cache-Set-TTL", cacheTTL)
	res, err := s.cl.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "yt-relay request failed")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, errors.Errorf("yt-relay responded with status %d: %s", res.StatusCode, b)
	}
	var body struct {
		Items []struct {
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				ResourceID  struct {
					VideoID string `json:"videoId"`
				} `json:"resourceId"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "failed to decode playlist items")
	}
	items := make([]PlaylistItem, 0, len(body.Items))
	for _, it := range body.Items {
		items = append(items, PlaylistItem{
			VideoID:     it.Snippet.ResourceID.VideoID,
			Title:       it.Snippet.Title,
			Description: it.Snippet.Description,
		})
	}
	log.WithField("playlist", playlistID).Infof("got %d playlist items", len(items))
	return items, nil
}
