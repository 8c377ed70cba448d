package core

import (
	"time"

	"github.com/ovrsee/spyglass/internal/domain"
)

// viewerSession implements ViewerSession by pairing meta + transport.
type viewerSession struct {
	meta        *domain.Viewer
	conn        SignalConnection
	connectedAt time.Time
}

func NewViewerSession(meta *domain.Viewer, conn SignalConnection) ViewerSession {
	return &viewerSession{meta: meta, conn: conn, connectedAt: time.Now()}
}

func (s *viewerSession) Meta() *domain.Viewer     { return s.meta }
func (s *viewerSession) Signal() SignalConnection { return s.conn }
func (s *viewerSession) ConnectedAt() time.Time   { return s.connectedAt }
