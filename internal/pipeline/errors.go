package pipeline

import (
	"errors"
	"fmt"

	"github.com/jackzampolin/tableqa/internal/formats"
)

// Stage names one step of a run.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageNormalize Stage = "normalize"
	StageSerialize Stage = "serialize"
	StageQuery     Stage = "query"
)

// Sentinel errors, one per stage. A *StageError matches the sentinel of
// its stage with errors.Is.
var (
	ErrExtraction    = errors.New("extraction failed")
	ErrNormalization = errors.New("normalization failed")
	ErrSerialization = errors.New("serialization failed")
	ErrService       = errors.New("service request failed")
)

// StageError records where a run stopped.
type StageError struct {
	Stage  Stage
	Page   int            // 0 when not tied to a page
	Table  string         // table label, empty when not tied to a table
	Format formats.Format // empty outside serialize and query
	Err    error
}

func (e *StageError) Error() string {
	msg := string(e.Stage)
	if e.Table != "" {
		msg += " " + e.Table
	} else if e.Page > 0 {
		msg += fmt.Sprintf(" page %d", e.Page)
	}
	if e.Format != "" {
		msg += " " + string(e.Format)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Is matches the stage's sentinel.
func (e *StageError) Is(target error) bool {
	return target == sentinel(e.Stage)
}

func sentinel(s Stage) error {
	switch s {
	case StageExtract:
		return ErrExtraction
	case StageNormalize:
		return ErrNormalization
	case StageSerialize:
		return ErrSerialization
	case StageQuery:
		return ErrService
	default:
		return nil
	}
}
