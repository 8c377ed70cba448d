package app

import (
	"github.com/ovrsee/spyglass/internal/core"
	"github.com/ovrsee/spyglass/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickViewer
)

// Policy decides what happens to a viewer whose send buffer rejected a
// frame during fan-out.
type Policy interface {
	OnBackpressure(deviceID domain.DeviceID, sid core.SessionID) BackpressureAction
}

// DropPolicy accepts the loss: media is best-effort, a stale frame is
// worth less than the next one.
type DropPolicy struct{}

func (DropPolicy) OnBackpressure(domain.DeviceID, core.SessionID) BackpressureAction {
	return DropFrame
}

// KickPolicy evicts the slow viewer from its room instead.
type KickPolicy struct{}

func (KickPolicy) OnBackpressure(domain.DeviceID, core.SessionID) BackpressureAction {
	return KickViewer
}
