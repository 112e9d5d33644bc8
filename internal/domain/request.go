package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the current status of an archive request
type RequestStatus string

const (
	StatusQueued    RequestStatus = "queued"
	StatusRunning   RequestStatus = "running"
	StatusCompleted RequestStatus = "completed"
	StatusFailed    RequestStatus = "failed"
	StatusCancelled RequestStatus = "cancelled"
)

// RequestKind says whether a request archives one video or a whole channel
type RequestKind string

const (
	KindVideo   RequestKind = "video"
	KindChannel RequestKind = "channel"
)

// Request is one top-level archive request submitted by the user
type Request struct {
	ID           string        `json:"id" gorm:"primaryKey"`
	URL          string        `json:"url" gorm:"not null;index"`
	Kind         RequestKind   `json:"kind" gorm:"not null"`
	APIKey       string        `json:"-"`
	Status       RequestStatus `json:"status" gorm:"not null;index"`
	Current      int           `json:"current"`
	Total        int           `json:"total"`
	Archived     int           `json:"archived"`
	Failed       int           `json:"failed"`
	ChannelName  string        `json:"channel_name,omitempty"`
	OutputDir    string        `json:"output_dir,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// NewRequest creates a new queued request
func NewRequest(rawURL string, kind RequestKind) *Request {
	return &Request{
		ID:        uuid.New().String(),
		URL:       rawURL,
		Kind:      kind,
		Status:    StatusQueued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// MarkRunning marks the request as running
func (r *Request) MarkRunning() {
	r.Status = StatusRunning
	now := time.Now()
	r.StartedAt = &now
	r.UpdatedAt = now
}

// SetProgress records "current/total" progress
func (r *Request) SetProgress(current, total int) {
	r.Current = current
	r.Total = total
	r.UpdatedAt = time.Now()
}

// MarkCompleted marks the request as completed
func (r *Request) MarkCompleted(outputDir string) {
	r.Status = StatusCompleted
	r.OutputDir = outputDir
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// MarkFailed marks the request as failed
func (r *Request) MarkFailed(err error) {
	r.Status = StatusFailed
	r.ErrorMessage = err.Error()
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// Reset puts a finished request back in the queue
func (r *Request) Reset() {
	r.Status = StatusQueued
	r.Current = 0
	r.Total = 0
	r.Archived = 0
	r.Failed = 0
	r.ErrorMessage = ""
	r.StartedAt = nil
	r.CompletedAt = nil
	r.UpdatedAt = time.Now()
}

// IsTerminal checks if the request is in a terminal state
func (r *Request) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed || r.Status == StatusCancelled
}

// IsActive checks if the request is queued or running
func (r *Request) IsActive() bool {
	return r.Status == StatusQueued || r.Status == StatusRunning
}

// DetectKind detects whether a URL points at a channel or a single video
func DetectKind(rawURL string) RequestKind {
	u, err := url.Parse(rawURL)
	if err == nil && strings.Contains(u.Path, "/channel/") {
		return KindChannel
	}
	return KindVideo
}

// ValidateKind checks if a request kind is valid
func ValidateKind(kind RequestKind) bool {
	return kind == KindVideo || kind == KindChannel
}

// ValidateURL checks that a URL is absolute http(s)
func ValidateURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}
