package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

// scratchPrefix marks directories created from a sanitized URL
const scratchPrefix = "https"

// WorkspaceManager hands out scratch directories under a destination
// directory. At most one workspace per URL and destination is live at a
// time; a second caller blocks until the first releases it.
type WorkspaceManager struct {
	pollInterval time.Duration
	pollAttempts int
	logger       *zap.Logger

	mu     sync.Mutex
	leases map[string]*workspaceLease
}

type workspaceLease struct {
	sem  chan struct{}
	refs int
}

// Workspace is a leased scratch directory
type Workspace struct {
	Dir string

	manager *WorkspaceManager
	once    sync.Once
}

// NewWorkspaceManager creates a workspace manager. A directory left behind
// by an earlier process is polled every pollInterval, pollAttempts times,
// before it is removed.
func NewWorkspaceManager(pollInterval time.Duration, pollAttempts int, logger *zap.Logger) *WorkspaceManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceManager{
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
		logger:       logger,
		leases:       make(map[string]*workspaceLease),
	}
}

// Acquire leases the scratch directory for url under destDir and returns it
// created and empty. The caller must call Release.
func (m *WorkspaceManager) Acquire(ctx context.Context, destDir, url string) (*Workspace, error) {
	dir := filepath.Join(destDir, domain.ScratchName(url))

	m.mu.Lock()
	lease, ok := m.leases[dir]
	if !ok {
		lease = &workspaceLease{sem: make(chan struct{}, 1)}
		m.leases[dir] = lease
	}
	lease.refs++
	m.mu.Unlock()

	select {
	case lease.sem <- struct{}{}:
	case <-ctx.Done():
		m.unref(dir, lease)
		return nil, ctx.Err()
	}

	ws := &Workspace{Dir: dir, manager: m}
	if err := m.prepare(ctx, dir); err != nil {
		ws.Release()
		return nil, err
	}
	return ws, nil
}

// prepare waits for a leftover directory to go away, evicts it when the
// wait budget runs out, and creates a fresh one.
func (m *WorkspaceManager) prepare(ctx context.Context, dir string) error {
	for attempt := 0; exists(dir); attempt++ {
		if attempt >= m.pollAttempts {
			m.logger.Warn("Evicting stale scratch directory", zap.String("dir", dir))
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("failed to remove stale scratch directory: %w", err)
			}
			break
		}
		select {
		case <-time.After(m.pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return nil
}

// Release removes the scratch directory and frees the lease. It is safe to
// call more than once.
func (w *Workspace) Release() {
	w.once.Do(func() {
		if err := os.RemoveAll(w.Dir); err != nil {
			w.manager.logger.Warn("Failed to remove scratch directory",
				zap.String("dir", w.Dir), zap.Error(err))
		}

		w.manager.mu.Lock()
		lease := w.manager.leases[w.Dir]
		w.manager.mu.Unlock()
		if lease == nil {
			return
		}
		<-lease.sem
		w.manager.unref(w.Dir, lease)
	})
}

// Clear empties the scratch directory without releasing it
func (w *Workspace) Clear() error {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(w.Dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (m *WorkspaceManager) unref(dir string, lease *workspaceLease) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lease.refs--
	if lease.refs == 0 {
		delete(m.leases, dir)
	}
}

// IsLeased reports whether dir is the scratch directory of a live lease
func (m *WorkspaceManager) IsLeased(dir string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.leases[dir]
	return ok
}

// SweepStale removes scratch directories under destDir that no live
// acquisition owns. It returns the removed paths.
func (m *WorkspaceManager) SweepStale(destDir string) []string {
	var candidates []string
	err := filepath.WalkDir(destDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == destDir || !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), scratchPrefix) {
			candidates = append(candidates, path)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		m.logger.Warn("Failed to scan for stale scratch directories",
			zap.String("dir", destDir), zap.Error(err))
	}

	var removed []string
	for _, path := range candidates {
		// Hold the lock so no lease on this path starts while it is removed.
		m.mu.Lock()
		_, leased := m.leases[path]
		if !leased {
			if err := os.RemoveAll(path); err != nil {
				m.logger.Warn("Failed to remove stale scratch directory",
					zap.String("dir", path), zap.Error(err))
			} else {
				removed = append(removed, path)
			}
		}
		m.mu.Unlock()
	}

	for _, path := range removed {
		m.logger.Info("Removed stale scratch directory", zap.String("dir", path))
	}
	return removed
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
