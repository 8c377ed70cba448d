package core

import (
	"time"

	"github.com/ovrsee/spyglass/internal/domain"
)

// Frame is a raw binary payload already marshaled for the wire.
type Frame []byte

// SessionID identifies one socket connection; assigned by the transport
// layer, opaque to everything below it.
type SessionID string

// SignalConnection abstracts the outbound half of a socket transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// ViewerSession binds a verified viewer identity and its transport
// endpoint. This is what a device room stores and fans out to.
type ViewerSession interface {
	Meta() *domain.Viewer
	Signal() SignalConnection
	ConnectedAt() time.Time
}

// PublishResult reports delivery stats/backpressure to the dispatcher.
type PublishResult struct {
	SentTo  int
	Dropped []SessionID
}

// RoomInfo is a read-only view of one device room for APIs.
type RoomInfo struct {
	DeviceID  domain.DeviceID `json:"deviceId"`
	Viewers   int             `json:"viewers"`
	LastEvent time.Time       `json:"lastEvent"`
}
