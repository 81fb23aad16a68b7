package lookup

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the symbol is not in the database.
	ErrNotFound = errors.New("symbol not found")
	// ErrEngineUnavailable is returned when the query engine or the
	// database connection cannot be set up.
	ErrEngineUnavailable = errors.New("query engine unavailable")
)

// Connection stages reported in EngineError.
const (
	StageLoadEngine   = "load engine"
	StageLoadDatabase = "load database"
	StageOpenSession  = "open session"
	StageGlobalScope  = "global scope"
	StageFindChildren = "find children"
)

type EngineError struct {
	Stage string
	Path  string
	Err   error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrEngineUnavailable, e.Stage, e.Path, e.Err)
}

func (e *EngineError) Is(target error) bool {
	return target == ErrEngineUnavailable
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
