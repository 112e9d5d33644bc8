package domain

import (
	"net/url"
	"strings"
	"time"
)

// YouTubeWatchURL is the canonical prefix for single video URLs
const YouTubeWatchURL = "https://www.youtube.com/watch?v="

// VideoRef identifies one video to archive. Title and PublishedAt are known
// up front for videos discovered through a channel listing and are left
// empty for URLs supplied directly.
type VideoRef struct {
	ID          string    `json:"id,omitempty"`
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Channel     string    `json:"channel,omitempty"`
}

// NewVideoRef builds a reference for a video id found in a listing
func NewVideoRef(id, title string, publishedAt time.Time, channel string) VideoRef {
	return VideoRef{
		ID:          id,
		URL:         YouTubeWatchURL + id,
		Title:       title,
		PublishedAt: publishedAt,
		Channel:     channel,
	}
}

// VideoRefFromURL builds a reference for a directly supplied URL
func VideoRefFromURL(rawURL string) VideoRef {
	ref := VideoRef{URL: rawURL}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ref
	}
	if id := u.Query().Get("v"); id != "" {
		ref.ID = id
	} else if strings.EqualFold(u.Host, "youtu.be") {
		ref.ID = strings.Trim(u.Path, "/")
	}
	return ref
}

// HasMetadata reports whether the archive name can be computed without
// asking the download engine.
func (v VideoRef) HasMetadata() bool {
	return v.Title != "" && !v.PublishedAt.IsZero()
}

// FromChannel reports whether the reference came from a channel listing
func (v VideoRef) FromChannel() bool {
	return v.Channel != ""
}

// Manifest is the ordered video list of a channel's uploads
type Manifest struct {
	ChannelID   string     `json:"channel_id"`
	ChannelName string     `json:"channel_name"`
	PlaylistID  string     `json:"playlist_id"`
	Videos      []VideoRef `json:"videos"`
}

// Len returns the number of videos in the manifest
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Videos)
}

// VideoInfo is what the download engine reports about a video
type VideoInfo struct {
	Title      string
	UploadDate time.Time
	Ext        string
}

// ArchiveEntry lists the files produced by one successful acquisition.
// Thumbnail and description are optional.
type ArchiveEntry struct {
	MediaPath       string `json:"media_path"`
	ThumbnailPath   string `json:"thumbnail_path,omitempty"`
	DescriptionPath string `json:"description_path,omitempty"`
}

// AcquireStatus is the outcome of a successful acquisition
type AcquireStatus string

const (
	AcquireArchived        AcquireStatus = "archived"
	AcquireAlreadyArchived AcquireStatus = "already_archived"
)

// AcquireResult describes a successful acquisition
type AcquireResult struct {
	Ref      VideoRef
	Status   AcquireStatus
	Entry    *ArchiveEntry
	Tier     string
	Attempts int
}

// RunSummary aggregates the outcome of a channel run
type RunSummary struct {
	Total           int      `json:"total"`
	Archived        int      `json:"archived"`
	AlreadyArchived int      `json:"already_archived"`
	Failed          int      `json:"failed"`
	FailedURLs      []string `json:"failed_urls,omitempty"`
}
