package model

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrUnreadableMedia  = errors.New("unreadable media")
	ErrDetection        = errors.New("detection failed")
	ErrSourceOpen       = errors.New("cannot open frame source")
	ErrSinkCreate       = errors.New("cannot create output sink")
	ErrNoAnalysis       = errors.New("no analysis available")
	ErrEmptyMessage     = errors.New("empty message")
)

// Stage names used in StageError.
const (
	StageUpload  = "upload"
	StageDecode  = "decode"
	StageDetect  = "detect"
	StageOpen    = "open"
	StageOutput  = "output"
	StagePersist = "persist"
)

// StageError tells the caller which stage failed for which source.
type StageError struct {
	Stage  string
	Source string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Source, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with stage and source context.
func NewStageError(stage, source string, err error) *StageError {
	return &StageError{Stage: stage, Source: source, Err: err}
}
