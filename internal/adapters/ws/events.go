package ws

import (
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/ovrsee/spyglass/internal/app"
	"github.com/ovrsee/spyglass/internal/core"
	"github.com/ovrsee/spyglass/internal/domain"
)

// envelope is the inbound event frame. deviceId tags a capture payload
// with its originating device; mime overrides the per-event default.
type envelope struct {
	Type     string          `json:"type"`
	DeviceID domain.DeviceID `json:"deviceId,omitempty"`
	MIME     string          `json:"mime,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

func (ctl *Controller) handleEvent(sid core.SessionID, c *RelayConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("sid", string(sid)).Msg("bad json")
		return
	}

	switch env.Type {
	case app.EventJoinDevice:
		ctl.handleJoin(sid, c, env)
	case app.EventLeaveDevice:
		ctl.handleLeave(sid, c, env)
	case app.EventScreenCapture:
		ctl.handleCapture(sid, env, ctl.Dispatcher.Screen)
	case app.EventAudioCapture:
		ctl.handleCapture(sid, env, ctl.Dispatcher.Audio)
	case "ping":
		ctl.sendJSON(c, map[string]any{"type": "pong"})
	default:
		// Unknown events are ignored so older servers tolerate newer
		// clients.
		log.Debug().Str("module", "ws").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) handleJoin(sid core.SessionID, c *RelayConn, env envelope) {
	if err := ctl.Dispatcher.JoinDevice(sid, env.DeviceID); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("sid", string(sid)).Msg("join rejected")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_device"})
		return
	}
	ctl.sendJSON(c, struct {
		Type     string          `json:"type"`
		DeviceID domain.DeviceID `json:"deviceId"`
		Viewers  int             `json:"viewers"`
	}{
		Type:     "joined",
		DeviceID: env.DeviceID,
		Viewers:  len(ctl.Dispatcher.Rooms.MembersOf(env.DeviceID)),
	})
}

func (ctl *Controller) handleLeave(sid core.SessionID, c *RelayConn, env envelope) {
	if !ctl.Dispatcher.LeaveDevice(sid, env.DeviceID) {
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "not_joined"})
		return
	}
	ctl.sendJSON(c, struct {
		Type     string          `json:"type"`
		DeviceID domain.DeviceID `json:"deviceId"`
	}{Type: "left", DeviceID: env.DeviceID})
}

// handleCapture decodes the payload carried by a capture event and hands
// it to the dispatcher. Dispatch failures are drops by contract, never
// faults back to the connection.
func (ctl *Controller) handleCapture(sid core.SessionID, env envelope, relay func(core.SessionID, domain.DeviceID, any) error) {
	var payload any
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			log.Warn().Err(err).Str("module", "ws").Str("sid", string(sid)).Str("event", env.Type).Msg("bad capture data")
			return
		}
	}
	if env.MIME != "" {
		payload = map[string]any{"type": env.MIME, "data": payload}
	}
	if err := relay(sid, env.DeviceID, payload); err != nil {
		// Already logged at the dispatcher with the routing detail.
		return
	}
}

func (ctl *Controller) sendJSON(c *RelayConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
