package domain

import (
	"fmt"
	"time"
)

// EventKind identifies the type of an archive event
type EventKind string

const (
	EventStarted    EventKind = "started"     // request picked up
	EventProgress   EventKind = "progress"    // one manifest item done
	EventItemFailed EventKind = "item_failed" // one video could not be archived
	EventFailed     EventKind = "failed"      // the request itself failed
	EventFinished   EventKind = "finished"    // always the last event of a request
)

// Event is published while a request is processed. Key is the URL the
// caller submitted.
type Event struct {
	Kind      EventKind `json:"kind"`
	Key       string    `json:"key"`
	RequestID string    `json:"request_id,omitempty"`
	Current   int       `json:"current,omitempty"`
	Total     int       `json:"total,omitempty"`
	VideoURL  string    `json:"video_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	Time      time.Time `json:"time"`
}

// Progress renders the "current/total" progress label
func (e Event) Progress() string {
	return fmt.Sprintf("%d/%d", e.Current, e.Total)
}

// EventSink receives archive events. Implementations must be safe for
// concurrent use.
type EventSink interface {
	Publish(event Event)
}

// EventSinkFunc adapts a function to EventSink
type EventSinkFunc func(Event)

// Publish calls f(event)
func (f EventSinkFunc) Publish(event Event) {
	f(event)
}

// NopSink discards every event
var NopSink EventSink = EventSinkFunc(func(Event) {})

// ProgressEvent builds a progress event
func ProgressEvent(key string, current, total int) Event {
	return Event{Kind: EventProgress, Key: key, Current: current, Total: total, Time: time.Now()}
}

// FinishedEvent builds the terminal event of a request
func FinishedEvent(key string) Event {
	return Event{Kind: EventFinished, Key: key, Time: time.Now()}
}

// ItemFailedEvent builds an event for a video that could not be archived
func ItemFailedEvent(key, videoURL string, err error) Event {
	return Event{Kind: EventItemFailed, Key: key, VideoURL: videoURL, Error: err.Error(), Time: time.Now()}
}

// FailedEvent builds an event for a request that failed as a whole
func FailedEvent(key string, err error) Event {
	return Event{Kind: EventFailed, Key: key, Error: err.Error(), Time: time.Now()}
}

// StartedEvent builds the first event of a request
func StartedEvent(key string) Event {
	return Event{Kind: EventStarted, Key: key, Time: time.Now()}
}
