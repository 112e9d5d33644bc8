package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

var (
	thumbnailExts = []string{"webp", "jpg", "jpeg", "png"}
	mediaExts     = []string{"mp4", "mkv", "webm", "m4v", "mov"}
)

// descriptionExt is the extension the engine uses for description sidecars
const descriptionExt = "description"

// relocate moves the engine output from scratchDir into destDir under the
// archive naming scheme. The media file is required; sidecars are moved
// when present.
func relocate(scratchDir, destDir, title string, date time.Time, ext string, cfg *domain.DownloadConfig) (*domain.ArchiveEntry, error) {
	src, ext, err := findMedia(scratchDir, ext)
	if err != nil {
		return nil, err
	}

	entry := &domain.ArchiveEntry{
		MediaPath: filepath.Join(destDir, domain.FormatFilename(date, title, ext)),
	}
	if err := os.MkdirAll(filepath.Dir(entry.MediaPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := moveFile(src, entry.MediaPath); err != nil {
		return nil, err
	}

	for _, thumbExt := range thumbnailExts {
		thumb := filepath.Join(scratchDir, scratchStem+"."+thumbExt)
		if !exists(thumb) {
			continue
		}
		dest := filepath.Join(destDir, domain.FormatFilename(date, title, cfg.ThumbnailExt))
		if err := moveFile(thumb, dest); err != nil {
			return nil, err
		}
		entry.ThumbnailPath = dest
		break
	}

	if desc := filepath.Join(scratchDir, scratchStem+"."+descriptionExt); exists(desc) {
		dest := filepath.Join(destDir, domain.FormatFilename(date, title, cfg.DescriptionExt))
		if err := moveFile(desc, dest); err != nil {
			return nil, err
		}
		entry.DescriptionPath = dest
	}

	return entry, nil
}

// findMedia locates the media file in scratchDir, preferring ext
func findMedia(scratchDir, ext string) (string, string, error) {
	candidates := append([]string{ext}, mediaExts...)
	for _, candidate := range candidates {
		path := filepath.Join(scratchDir, scratchStem+"."+candidate)
		if exists(path) {
			return path, candidate, nil
		}
	}
	return "", "", fmt.Errorf("no media file in %s", scratchDir)
}

// moveFile renames src to dst, falling back to copy and delete across
// filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("failed to move file %s: %w", filepath.Base(src), err)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
