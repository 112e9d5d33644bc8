package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

// PlaylistResolver turns a channel URL into the ordered list of its uploads
type PlaylistResolver struct {
	api             domain.ListingAPI
	pageConcurrency int
	logger          *zap.Logger
}

// NewPlaylistResolver creates a new playlist resolver
func NewPlaylistResolver(api domain.ListingAPI, pageConcurrency int, logger *zap.Logger) *PlaylistResolver {
	if pageConcurrency < 1 {
		pageConcurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlaylistResolver{
		api:             api,
		pageConcurrency: pageConcurrency,
		logger:          logger,
	}
}

// ChannelIDFromURL extracts the id from a /channel/{id} URL
func ChannelIDFromURL(channelURL string) (string, error) {
	u, err := url.Parse(channelURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrChannelNotFound, channelURL)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "channel" && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrChannelNotFound, channelURL)
}

// Resolve lists every upload of the channel at channelURL. Videos keep the
// listing order across pages.
func (r *PlaylistResolver) Resolve(ctx context.Context, channelURL, apiKey string) (*domain.Manifest, error) {
	channelID, err := ChannelIDFromURL(channelURL)
	if err != nil {
		return nil, err
	}

	channel, err := r.api.LookupChannel(ctx, apiKey, channelID)
	if err != nil {
		return nil, err
	}
	if channel.UploadsPlaylistID == "" || channel.Title == "" {
		return nil, fmt.Errorf("%w: channel %s", domain.ErrUploadsPlaylistUnavailable, channelID)
	}

	first, err := r.api.PlaylistPage(ctx, apiKey, channel.UploadsPlaylistID, "")
	if err != nil {
		return nil, &domain.PageFetchError{PlaylistID: channel.UploadsPlaylistID, Cause: err}
	}

	tokens := r.collectTokens(ctx, apiKey, channel.UploadsPlaylistID, first.NextPageToken)

	// pages[0] is the first page; pages[i] belongs to tokens[i-1]
	pages := make([][]domain.PlaylistItem, len(tokens)+1)
	pages[0] = first.Items

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.pageConcurrency)
	for i, token := range tokens {
		slot, token := i+1, token
		g.Go(func() error {
			page, err := r.api.PlaylistPage(gctx, apiKey, channel.UploadsPlaylistID, token)
			if err != nil {
				perr := &domain.PageFetchError{PlaylistID: channel.UploadsPlaylistID, PageToken: token, Cause: err}
				r.logger.Warn("Skipping playlist page", zap.Error(perr))
				return nil
			}
			pages[slot] = page.Items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	manifest := &domain.Manifest{
		ChannelID:   channel.ChannelID,
		ChannelName: channel.Title,
		PlaylistID:  channel.UploadsPlaylistID,
	}
	if manifest.ChannelID == "" {
		manifest.ChannelID = channelID
	}
	for _, items := range pages {
		for _, item := range items {
			manifest.Videos = append(manifest.Videos,
				domain.NewVideoRef(item.VideoID, item.Title, parsePublishedAt(item.PublishedAt), channel.Title))
		}
	}

	r.logger.Info("Resolved channel",
		zap.String("channel_id", manifest.ChannelID),
		zap.String("channel", manifest.ChannelName),
		zap.Int("pages", len(pages)),
		zap.Int("videos", manifest.Len()))

	return manifest, nil
}

// collectTokens walks the nextPageToken chain starting at next. A failed
// fetch ends the walk with the tokens found so far.
func (r *PlaylistResolver) collectTokens(ctx context.Context, apiKey, playlistID, next string) []string {
	var tokens []string
	for next != "" {
		tokens = append(tokens, next)
		page, err := r.api.PlaylistPage(ctx, apiKey, playlistID, next)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				r.logger.Warn("Stopped walking playlist pages",
					zap.Error(&domain.PageFetchError{PlaylistID: playlistID, PageToken: next, Cause: err}),
					zap.Int("tokens", len(tokens)))
			}
			break
		}
		next = page.NextPageToken
	}
	return tokens
}

func parsePublishedAt(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
