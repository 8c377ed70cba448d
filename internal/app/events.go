package app

import (
	json "github.com/goccy/go-json"

	"github.com/ovrsee/spyglass/internal/core"
	"github.com/ovrsee/spyglass/internal/domain"
	"github.com/ovrsee/spyglass/internal/media"
)

// Event names shared by the inbound and outbound sides of the wire.
const (
	EventJoinDevice    = "joinDevice"
	EventLeaveDevice   = "leaveDevice"
	EventScreenCapture = "screenCapture"
	EventAudioCapture  = "audioCapture"
	EventLocation      = "location"
)

// mediaEvent is the outbound form of a normalized frame. Data marshals
// as base64, which is the JSON transport form of the canonical bytes.
type mediaEvent struct {
	Type     string          `json:"type"`
	DeviceID domain.DeviceID `json:"deviceId"`
	MIME     string          `json:"mime"`
	Data     []byte          `json:"data"`
}

func encodeMedia(event string, deviceID domain.DeviceID, f media.Frame) (core.Frame, error) {
	b, err := json.Marshal(mediaEvent{
		Type:     event,
		DeviceID: deviceID,
		MIME:     f.MIMEType,
		Data:     f.Bytes,
	})
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}

type locationEvent struct {
	Type string `json:"type"`
	domain.LocationEvent
}

// encodeLocation forwards the stored record verbatim, only adding the
// event name the dashboards dispatch on.
func encodeLocation(ev domain.LocationEvent) (core.Frame, error) {
	b, err := json.Marshal(locationEvent{Type: EventLocation, LocationEvent: ev})
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}
