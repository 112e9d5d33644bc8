package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

// filterColumns are the request columns FindAll accepts as filters
var filterColumns = map[string]bool{
	"status": true,
	"kind":   true,
	"url":    true,
}

// SQLiteRequestRepository implements RequestRepository using SQLite
type SQLiteRequestRepository struct {
	db *gorm.DB
}

// NewSQLiteRequestRepository opens (and migrates) the request database
func NewSQLiteRequestRepository(dbPath string) (*SQLiteRequestRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Request{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteRequestRepository{db: db}, nil
}

// Create creates a new request
func (r *SQLiteRequestRepository) Create(request *domain.Request) error {
	return r.db.Create(request).Error
}

// Update updates an existing request
func (r *SQLiteRequestRepository) Update(request *domain.Request) error {
	return r.db.Save(request).Error
}

// Delete deletes a request by ID
func (r *SQLiteRequestRepository) Delete(id string) error {
	result := r.db.Delete(&domain.Request{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRequestNotFound, id)
	}
	return nil
}

// FindByID finds a request by ID
func (r *SQLiteRequestRepository) FindByID(id string) (*domain.Request, error) {
	var request domain.Request
	err := r.db.First(&request, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRequestNotFound, id)
		}
		return nil, err
	}
	return &request, nil
}

// FindActiveByURL returns the newest queued or running request for url, or
// nil when there is none.
func (r *SQLiteRequestRepository) FindActiveByURL(url string) (*domain.Request, error) {
	var request domain.Request
	err := r.db.Where("url = ? AND status IN ?", url,
		[]domain.RequestStatus{domain.StatusQueued, domain.StatusRunning}).
		Order("created_at DESC").
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// FindPending finds all queued requests, oldest first
func (r *SQLiteRequestRepository) FindPending() ([]*domain.Request, error) {
	var requests []*domain.Request
	err := r.db.Where("status = ?", domain.StatusQueued).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

// FindAll finds all requests, newest first, with optional column filters
func (r *SQLiteRequestRepository) FindAll(filters map[string]interface{}) ([]*domain.Request, error) {
	var requests []*domain.Request
	query := r.db

	for key, value := range filters {
		if !filterColumns[key] {
			return nil, fmt.Errorf("%w: unknown filter %q", domain.ErrInvalidRequest, key)
		}
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}

	err := query.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// ResetOrphanedRunning re-queues requests left running by a previous process
func (r *SQLiteRequestRepository) ResetOrphanedRunning() (int64, error) {
	result := r.db.Model(&domain.Request{}).
		Where("status = ?", domain.StatusRunning).
		Updates(map[string]interface{}{
			"status":     domain.StatusQueued,
			"started_at": nil,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// GetStats returns request statistics
func (r *SQLiteRequestRepository) GetStats() (*domain.RequestStats, error) {
	stats := &domain.RequestStats{}

	if err := r.db.Model(&domain.Request{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.RequestStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.Request{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.StatusQueued:
			stats.Queued = sc.Count
		case domain.StatusRunning:
			stats.Running = sc.Count
		case domain.StatusCompleted:
			stats.Completed = sc.Count
		case domain.StatusFailed:
			stats.Failed = sc.Count
		case domain.StatusCancelled:
			stats.Cancelled = sc.Count
		}
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteRequestRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
