package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"eppdetect/internal/config"
	"eppdetect/internal/dto"
	"eppdetect/internal/logger"
	"eppdetect/internal/model"
	"eppdetect/internal/repository"
	"eppdetect/internal/service/media"

	"github.com/google/uuid"
)

const (
	// ProcessedPrefix starts every processed media file name.
	ProcessedPrefix = "processed_"
	// ThumbnailPrefix starts every thumbnail file name.
	ThumbnailPrefix = "thumb_"
)

// BufferService writes processed media to disk right away and buffers the
// analysis records, flushing them to the repository periodically or when the
// buffer is full.
type BufferService struct {
	imagesDir     string
	videosDir     string
	limit         int
	flushInterval time.Duration
	thumbSize     int

	pending []dto.PendingAnalysis
	mu      sync.Mutex

	logger       *logger.Logger
	analysisRepo repository.AnalysisRepository
}

// NewBufferService creates a BufferService. analysisRepo may be nil, in which
// case records are dropped on flush.
func NewBufferService(config *config.Config, logger *logger.Logger, analysisRepo repository.AnalysisRepository) *BufferService {
	limit := config.BufferLimit
	if limit < 1 {
		limit = 1
	}
	interval := time.Duration(config.FlushInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &BufferService{
		imagesDir:     config.ImageDirectory,
		videosDir:     config.VideoDirectory,
		limit:         limit,
		flushInterval: interval,
		thumbSize:     config.ThumbnailSize,
		pending:       make([]dto.PendingAnalysis, 0, limit),
		logger:        logger,
		analysisRepo:  analysisRepo,
	}
}

// Run flushes on every tick until ctx is done, then flushes once more.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush()
		case <-ctx.Done():
			s.Flush()
			return
		}
	}
}

// NewFileName returns processed_<uuid><ext>.
func NewFileName(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ProcessedPrefix + uuid.NewString() + ext
}

// ThumbnailName maps a processed image name to its thumbnail name.
func ThumbnailName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return ThumbnailPrefix + strings.TrimPrefix(base, ProcessedPrefix) + ".jpg"
}

// SaveImage writes a processed image and its thumbnail. A thumbnail failure
// is logged and an empty thumbnail name returned.
func (s *BufferService) SaveImage(data []byte, ext string) (filename, thumbnail string, err error) {
	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		return "", "", fmt.Errorf("error creating directory: %w", err)
	}

	filename = NewFileName(ext)
	if err := os.WriteFile(filepath.Join(s.imagesDir, filename), data, 0644); err != nil {
		return "", "", fmt.Errorf("error saving image %s: %w", filename, err)
	}

	if s.thumbSize > 0 {
		thumb, err := media.Thumbnail(data, s.thumbSize, "jpeg")
		if err != nil {
			s.logger.Warning("Could not create thumbnail for %s: %v", filename, err)
			return filename, "", nil
		}
		thumbnail = ThumbnailName(filename)
		if err := os.WriteFile(filepath.Join(s.imagesDir, thumbnail), thumb, 0644); err != nil {
			s.logger.Warning("Could not save thumbnail %s: %v", thumbnail, err)
			return filename, "", nil
		}
	}
	return filename, thumbnail, nil
}

// VideoPath returns a fresh path for a processed video.
func (s *BufferService) VideoPath(ext string) (filename, path string, err error) {
	if err := os.MkdirAll(s.videosDir, 0755); err != nil {
		return "", "", fmt.Errorf("error creating directory: %w", err)
	}
	filename = NewFileName(ext)
	return filename, filepath.Join(s.videosDir, filename), nil
}

// ImagePath resolves a stored image name inside the image directory. Names
// containing path elements are rejected.
func (s *BufferService) ImagePath(name string) (string, bool) {
	return safeJoin(s.imagesDir, name)
}

// VideoFilePath resolves a stored video name inside the video directory.
func (s *BufferService) VideoFilePath(name string) (string, bool) {
	return safeJoin(s.videosDir, name)
}

func safeJoin(dir, name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return filepath.Join(dir, name), true
}

// AddAnalysis buffers a record and flushes when the buffer is full.
func (s *BufferService) AddAnalysis(a dto.PendingAnalysis) {
	s.mu.Lock()
	s.pending = append(s.pending, a)
	full := len(s.pending) >= s.limit
	s.logger.Debug("Analysis buffer: %d/%d", len(s.pending), s.limit)
	s.mu.Unlock()

	if full {
		s.Flush()
	}
}

// Pending returns the number of buffered records.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush writes buffered records to the repository and empties the buffer.
// It returns the number of records stored.
func (s *BufferService) Flush() int {
	s.mu.Lock()
	batch := s.pending
	s.pending = make([]dto.PendingAnalysis, 0, s.limit)
	s.mu.Unlock()

	if len(batch) == 0 || s.analysisRepo == nil {
		return 0
	}

	saved := 0
	for _, p := range batch {
		analysis := model.NewAnalysis(p.Verdict, p.Filename, p.FilePath, p.FileSize, p.Timestamp)
		if _, err := s.analysisRepo.Insert(analysis, model.NewPersonResults(0, p.Verdict)); err != nil {
			s.logger.Error("Error saving analysis %s to database: %v", p.Filename, err)
			continue
		}
		saved++
	}

	s.logger.Info("Flushed %d analyses to database", saved)
	return saved
}

// RemoveImage deletes a processed image and its thumbnail from disk.
func (s *BufferService) RemoveImage(filename string) {
	for _, name := range []string{filename, ThumbnailName(filename)} {
		path, ok := s.ImagePath(name)
		if !ok {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Error("Failed to delete file %s: %v", path, err)
		}
	}
}

// ClearImages deletes every file in the image directory.
func (s *BufferService) ClearImages() error {
	files, err := os.ReadDir(s.imagesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("unable to read images directory: %w", err)
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.imagesDir, file.Name())); err != nil {
			s.logger.Error("Error deleting file %s: %v", file.Name(), err)
		}
	}
	return nil
}
