package track

import (
	"fmt"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
)

// Repository owns every cloud element accepted during a run.
type Repository struct {
	elements map[domain.CEID]*domain.CloudElement
	frames   [][]*domain.CloudElement // index frame-1, sequence order
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{elements: make(map[domain.CEID]*domain.CloudElement)}
}

// AddFrame stores the elements of one frame. Frames must be added in order
// and every element must carry that frame's number.
func (r *Repository) AddFrame(frame int, elements []*domain.CloudElement) error {
	if frame != len(r.frames)+1 {
		return fmt.Errorf("add frame %d: expected frame %d", frame, len(r.frames)+1)
	}
	for _, ce := range elements {
		if ce.ID.Frame != frame {
			return fmt.Errorf("add frame %d: element %s belongs to another frame", frame, ce.ID)
		}
		if _, ok := r.elements[ce.ID]; ok {
			return fmt.Errorf("add frame %d: duplicate element %s", frame, ce.ID)
		}
		r.elements[ce.ID] = ce
	}
	r.frames = append(r.frames, elements)
	return nil
}

// Get returns the element with the given id.
func (r *Repository) Get(id domain.CEID) (*domain.CloudElement, error) {
	ce, ok := r.elements[id]
	if !ok {
		return nil, domain.NodeNotFound(id)
	}
	return ce, nil
}

// Frame returns the elements of a 1-based frame, or nil when out of range.
func (r *Repository) Frame(frame int) []*domain.CloudElement {
	if frame < 1 || frame > len(r.frames) {
		return nil
	}
	return r.frames[frame-1]
}

// Frames returns the number of frames added.
func (r *Repository) Frames() int { return len(r.frames) }

// Len returns the number of stored elements.
func (r *Repository) Len() int { return len(r.elements) }

// All returns every element in id order.
func (r *Repository) All() []*domain.CloudElement {
	out := make([]*domain.CloudElement, 0, len(r.elements))
	for _, frame := range r.frames {
		out = append(out, frame...)
	}
	return out
}
