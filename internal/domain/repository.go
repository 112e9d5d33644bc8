package domain

// RequestRepository defines the interface for request persistence
type RequestRepository interface {
	// Create creates a new request
	Create(request *Request) error

	// Update updates an existing request
	Update(request *Request) error

	// Delete deletes a request by ID
	Delete(id string) error

	// FindByID finds a request by ID; returns ErrRequestNotFound if missing
	FindByID(id string) (*Request, error)

	// FindActiveByURL returns the queued or running request for a URL, or nil
	FindActiveByURL(url string) (*Request, error)

	// FindPending finds all queued requests ordered by creation time
	FindPending() ([]*Request, error)

	// FindAll finds all requests with optional filters
	FindAll(filters map[string]interface{}) ([]*Request, error)

	// ResetOrphanedRunning re-queues requests left running by a previous process
	ResetOrphanedRunning() (int64, error)

	// GetStats returns request statistics
	GetStats() (*RequestStats, error)
}

// RequestStats represents request statistics
type RequestStats struct {
	Total     int64 `json:"total"`
	Queued    int64 `json:"queued"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
}
