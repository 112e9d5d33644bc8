package domain

import "context"

// ExtractOptions configures one invocation of the download engine
type ExtractOptions struct {
	Format           string
	OutputTemplate   string
	WriteDescription bool
	WriteThumbnail   bool
}

// Engine defines the media extraction capability.
type Engine interface {
	// Extract resolves url with the given options. When download is false
	// only metadata is fetched; otherwise the media file and the requested
	// sidecars are written according to OutputTemplate.
	Extract(ctx context.Context, url string, opts ExtractOptions, download bool) (*VideoInfo, error)
}

// ChannelInfo is the result of a channel lookup
type ChannelInfo struct {
	ChannelID         string
	Title             string
	UploadsPlaylistID string
}

// PlaylistPage is one page of a playlist listing
type PlaylistPage struct {
	Items         []PlaylistItem
	NextPageToken string
}

// PlaylistItem is one entry of a playlist page
type PlaylistItem struct {
	VideoID     string
	Title       string
	PublishedAt string // RFC 3339
}

// ListingAPI defines the remote metadata API used to enumerate a channel
type ListingAPI interface {
	// LookupChannel returns the channel's uploads playlist and display
	// name. A channel without results yields ErrChannelNotFound.
	LookupChannel(ctx context.Context, apiKey, channelID string) (*ChannelInfo, error)

	// PlaylistPage fetches one page of a playlist; an empty token fetches
	// the first page.
	PlaylistPage(ctx context.Context, apiKey, playlistID, pageToken string) (*PlaylistPage, error)
}

// ArchiveLedger records every processed channel video
type ArchiveLedger interface {
	Append(channelName, title, url string) error
}
