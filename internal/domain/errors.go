package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFrames is returned when a run is started with an empty dataset.
	ErrNoFrames = errors.New("no frames to process")

	// ErrInvalidDataset marks malformed input grids or time axes.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrNodeNotFound is returned when a graph or repository lookup misses.
	ErrNodeNotFound = errors.New("cloud element not found")
)

// Pipeline stage names carried by StageError.
const (
	StageLabeling       = "labeling"
	StageLinking        = "linking"
	StagePruning        = "pruning"
	StageTraversal      = "traversal"
	StageClassification = "classification"
	StageEnrichment     = "enrichment"
)

// StageError reports which pipeline stage failed and where.
type StageError struct {
	Stage string
	Frame int  // 1-based, 0 when not frame specific
	Node  CEID // zero when not node specific
	Err   error
}

func (e *StageError) Error() string {
	switch {
	case !e.Node.IsZero():
		return fmt.Sprintf("%s: node %s: %v", e.Stage, e.Node, e.Err)
	case e.Frame > 0:
		return fmt.Sprintf("%s: frame %d: %v", e.Stage, e.Frame, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
}

func (e *StageError) Unwrap() error { return e.Err }

// NodeNotFound wraps ErrNodeNotFound with the missing id.
func NodeNotFound(id CEID) error {
	return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
}
