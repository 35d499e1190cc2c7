package ytrelay

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaylistItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "snippet", q.Get("part"))
		assert.Equal(t, "3", q.Get("maxResults"))
		assert.Equal(t, "PL1", q.Get("playlistId"))
		assert.Equal(t, playlistItemFields, q.Get("fields"))
		assert.Equal(t, "600", r.Header.Get("Cache-Set-TTL"))
		_, _ = w.Write([]byte(`{"items":[{"snippet":{"title":"t","description":"d","resourceId":{"videoId":"abc"}}}]}`))
	}))
	defer srv.Close()

	items, err := New(srv.URL, srv.Client()).PlaylistItems(t.Context(), "PL1", 3)
	require.NoError(t, err)
	assert.Equal(t, []PlaylistItem{{VideoID: "abc", Title: "t", Description: "d"}}, items)
}

func TestPlaylistItems_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	_, err := New(srv.URL, srv.Client()).PlaylistItems(t.Context(), "PL1", 3)
	assert.Error(t, err)
}
