package repository

import (
	"eppdetect/internal/dto"
	"eppdetect/internal/model"
)

// AnalysisRepository stores image analyses and their per-person results.
type AnalysisRepository interface {
	// Create operations
	Insert(analysis *model.Analysis, persons []model.PersonResult) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Analysis, error)
	GetByFilename(filename string) (*model.Analysis, error)
	GetAll(filter *dto.AnalysisFilters) ([]model.Analysis, error)
	GetTotalCount(filter *dto.AnalysisFilters) (int, error)
	GetPersons(analysisID int64) ([]model.PersonResult, error)
	GetStats() (*model.AnalysisStats, error)
	GetDirectorySize() (int64, error)

	// Delete operations
	Delete(id int64) error
	DeleteAll() error
}

// VideoRepository stores video reports and their violation events.
type VideoRepository interface {
	// Save inserts the record when its ID is 0, otherwise updates the header.
	// The violations are appended in both cases.
	Save(video *model.VideoRecord, violations []model.ViolationEvent) (int64, error)

	GetByID(id int64) (*model.VideoRecord, error)
	GetAll(filter *dto.VideoFilters) ([]model.VideoRecord, error)
	GetTotalCount(filter *dto.VideoFilters) (int, error)
	GetViolations(videoID int64) ([]model.ViolationEvent, error)

	Delete(id int64) error
}
