package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxViewerNameLen = 36

var (
	ErrViewerNameEmpty   = errors.New("viewer name empty")
	ErrViewerNameTooLong = errors.New("viewer name too long")
)

type ViewerID string

// Viewer is the verified dashboard identity behind a connection. The token
// verification itself happens upstream; by the time a Viewer exists here the
// identity is trusted.
type Viewer struct {
	ID   ViewerID `json:"id"`
	Name string   `json:"name"`
}

// NewViewer is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewViewer(name string) (*Viewer, error) {
	if len(name) == 0 {
		return nil, ErrViewerNameEmpty
	}
	if len(name) > MaxViewerNameLen {
		return nil, ErrViewerNameTooLong
	}
	return &Viewer{ID: ViewerID(uuid.NewString()), Name: name}, nil
}
