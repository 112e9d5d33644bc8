package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

func newFakeYouTube(t *testing.T) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
			return
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "/channels"):
			if r.URL.Query().Get("id") != "UC123" {
				writeJSON(w, map[string]interface{}{"items": []interface{}{}})
				return
			}
			writeJSON(w, map[string]interface{}{
				"items": []interface{}{map[string]interface{}{
					"id":      "UC123",
					"snippet": map[string]interface{}{"title": "Some Channel"},
					"contentDetails": map[string]interface{}{
						"relatedPlaylists": map[string]interface{}{"uploads": "UU123"},
					},
				}},
			})
		case strings.HasSuffix(r.URL.Path, "/playlistItems"):
			assert.Equal(t, "UU123", r.URL.Query().Get("playlistId"))
			assert.Equal(t, "2", r.URL.Query().Get("maxResults"))

			video := func(id, title string) map[string]interface{} {
				return map[string]interface{}{"snippet": map[string]interface{}{
					"title":       title,
					"publishedAt": "2023-01-15T10:00:00Z",
					"resourceId":  map[string]interface{}{"kind": "youtube#video", "videoId": id},
				}}
			}
			if r.URL.Query().Get("pageToken") == "" {
				writeJSON(w, map[string]interface{}{
					"nextPageToken": "PAGE2",
					"items":         []interface{}{video("a", "First"), video("b", "Second")},
				})
				return
			}
			writeJSON(w, map[string]interface{}{
				"items": []interface{}{video("c", "Third"), map[string]interface{}{"snippet": map[string]interface{}{"title": "Deleted"}}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestListing(t *testing.T) *YouTubeListing {
	t.Helper()
	server := newFakeYouTube(t)

	listing, err := NewYouTubeListing(context.Background(), &domain.YouTubeConfig{
		Endpoint: server.URL + "/",
		PageSize: 2,
	}, server.Client(), nil)
	require.NoError(t, err)
	return listing
}

func TestYouTubeListing_LookupChannel(t *testing.T) {
	listing := newTestListing(t)

	info, err := listing.LookupChannel(context.Background(), "test-key", "UC123")
	require.NoError(t, err)
	assert.Equal(t, "UC123", info.ChannelID)
	assert.Equal(t, "Some Channel", info.Title)
	assert.Equal(t, "UU123", info.UploadsPlaylistID)
}

func TestYouTubeListing_LookupChannelNotFound(t *testing.T) {
	listing := newTestListing(t)

	_, err := listing.LookupChannel(context.Background(), "test-key", "UC404")
	assert.ErrorIs(t, err, domain.ErrChannelNotFound)
}

func TestYouTubeListing_BadKey(t *testing.T) {
	listing := newTestListing(t)

	_, err := listing.LookupChannel(context.Background(), "wrong", "UC123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestYouTubeListing_PlaylistPages(t *testing.T) {
	listing := newTestListing(t)
	ctx := context.Background()

	first, err := listing.PlaylistPage(ctx, "test-key", "UU123", "")
	require.NoError(t, err)
	assert.Equal(t, "PAGE2", first.NextPageToken)
	require.Len(t, first.Items, 2)
	assert.Equal(t, domain.PlaylistItem{VideoID: "a", Title: "First", PublishedAt: "2023-01-15T10:00:00Z"}, first.Items[0])

	second, err := listing.PlaylistPage(ctx, "test-key", "UU123", "PAGE2")
	require.NoError(t, err)
	assert.Empty(t, second.NextPageToken)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "c", second.Items[0].VideoID)
}

func TestNewYouTubeListing_ClampsPageSize(t *testing.T) {
	listing, err := NewYouTubeListing(context.Background(), &domain.YouTubeConfig{PageSize: 500}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(defaultPageSize), listing.pageSize)
}
