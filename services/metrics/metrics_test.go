package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateway struct {
	mu     sync.Mutex
	paths  []string
	bodies []string
}

func (s *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _ := io.ReadAll(r.Body)
	s.paths = append(s.paths, r.Method+" "+r.URL.Path)
	s.bodies = append(s.bodies, string(b))
	w.WriteHeader(http.StatusOK)
}

func TestPushSuccess(t *testing.T) {
	gw := &gateway{}
	srv := httptest.NewServer(gw)
	defer srv.Close()

	NewPusher(srv.URL, "feed-yahoo-rss").Push(2*time.Second, 30, nil)
	require.Len(t, gw.paths, 1)
	assert.Equal(t, "POST /metrics/job/cronjobs/job_name/feed-yahoo-rss", gw.paths[0])
	assert.Contains(t, gw.bodies[0], "cronjobs_job_items_total")
	assert.Contains(t, gw.bodies[0], "cronjobs_job_last_success_timestamp_seconds")
}

func TestPushFailureSkipsSuccessTimestamp(t *testing.T) {
	gw := &gateway{}
	srv := httptest.NewServer(gw)
	defer srv.Close()

	NewPusher(srv.URL, "search-es-feed").Push(time.Second, 0, errors.New("boom"))
	require.Len(t, gw.bodies, 1)
	assert.Contains(t, gw.bodies[0], "cronjobs_job_duration_seconds")
	assert.NotContains(t, gw.bodies[0], "cronjobs_job_last_success_timestamp_seconds")
}

func TestNilPusher(t *testing.T) {
	var p *Pusher
	assert.NotPanics(t, func() { p.Push(time.Second, 1, nil) })
}
