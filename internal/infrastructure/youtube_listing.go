package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

// defaultPageSize is the largest page the Data API serves
const defaultPageSize = 50

// YouTubeListing implements domain.ListingAPI with the YouTube Data API v3.
// The API key is supplied per call so requests can carry their own.
type YouTubeListing struct {
	service  *youtube.Service
	pageSize int64
	logger   *zap.Logger
}

// NewYouTubeListing creates a listing client. A non-empty endpoint in
// config replaces the public API base URL.
func NewYouTubeListing(ctx context.Context, config *domain.YouTubeConfig, httpClient *http.Client, log *zap.Logger) (*YouTubeListing, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	opts := []option.ClientOption{
		option.WithoutAuthentication(),
		option.WithHTTPClient(httpClient),
	}
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}

	pageSize := config.PageSize
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}

	return &YouTubeListing{
		service:  service,
		pageSize: pageSize,
		logger:   log,
	}, nil
}

// LookupChannel returns the uploads playlist and title of a channel
func (l *YouTubeListing) LookupChannel(ctx context.Context, apiKey, channelID string) (*domain.ChannelInfo, error) {
	resp, err := l.service.Channels.List([]string{"snippet", "contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do(googleapi.QueryParameter("key", apiKey))
	if err != nil {
		return nil, fmt.Errorf("channel lookup failed: %w", describeAPIError(err))
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrChannelNotFound, channelID)
	}

	channel := resp.Items[0]
	info := &domain.ChannelInfo{ChannelID: channel.Id}
	if channel.Snippet != nil {
		info.Title = channel.Snippet.Title
	}
	if channel.ContentDetails != nil && channel.ContentDetails.RelatedPlaylists != nil {
		info.UploadsPlaylistID = channel.ContentDetails.RelatedPlaylists.Uploads
	}

	l.logger.Debug("Channel resolved",
		zap.String("channel_id", channelID),
		zap.String("title", info.Title),
		zap.String("uploads", info.UploadsPlaylistID))
	return info, nil
}

// PlaylistPage fetches one page of playlist items
func (l *YouTubeListing) PlaylistPage(ctx context.Context, apiKey, playlistID, pageToken string) (*domain.PlaylistPage, error) {
	call := l.service.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(l.pageSize)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Context(ctx).Do(googleapi.QueryParameter("key", apiKey))
	if err != nil {
		return nil, describeAPIError(err)
	}

	page := &domain.PlaylistPage{
		Items:         make([]domain.PlaylistItem, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.ResourceId == nil || item.Snippet.ResourceId.VideoId == "" {
			continue
		}
		page.Items = append(page.Items, domain.PlaylistItem{
			VideoID:     item.Snippet.ResourceId.VideoId,
			Title:       item.Snippet.Title,
			PublishedAt: item.Snippet.PublishedAt,
		})
	}
	return page, nil
}

// describeAPIError condenses a googleapi error to its status and message
func describeAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" && len(apiErr.Errors) > 0 {
			msg = apiErr.Errors[0].Message
		}
		return fmt.Errorf("youtube api status %d: %s: %w", apiErr.Code, msg, err)
	}
	return err
}
