package infrastructure

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ledgerHeader is written once when the ledger file is created
var ledgerHeader = []string{"Channel Name", "Video Title", "Video URL"}

// CSVLedger appends one row per processed channel video to a CSV file
type CSVLedger struct {
	path string
	mu   sync.Mutex
}

// NewCSVLedger creates a ledger writing to path
func NewCSVLedger(path string) *CSVLedger {
	return &CSVLedger{path: path}
}

// Path returns the ledger file path
func (l *CSVLedger) Path() string {
	return l.path
}

// Append records a processed video. Appends are serialized across
// goroutines.
func (l *CSVLedger) Append(channelName, title, url string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat ledger: %w", err)
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(ledgerHeader); err != nil {
			return fmt.Errorf("failed to write ledger header: %w", err)
		}
	}
	if err := w.Write([]string{channelName, title, url}); err != nil {
		return fmt.Errorf("failed to write ledger row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write ledger row: %w", err)
	}
	return nil
}
