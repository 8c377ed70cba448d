package app

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/ovrsee/spyglass/internal/core"
	"github.com/ovrsee/spyglass/internal/domain"
	"github.com/ovrsee/spyglass/internal/media"
)

// DefaultAudioMIME is assumed for audio chunks that carry no type of
// their own; devices in the field ship mp3 unless told otherwise.
const DefaultAudioMIME = "audio/mpeg"

var (
	// ErrMalformedPayload: shape unrecognized or decoding failed. The
	// event is dropped and logged, never surfaced to a connection.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrUnroutable: no device tag and the sender is not joined. The
	// event is dropped rather than broadcast globally.
	ErrUnroutable = errors.New("unroutable payload")

	ErrUnknownSession = errors.New("unknown session")
)

// Dispatcher routes inbound relay events: join/leave mutate room
// membership, media and location events fan out to the members of the
// originating device's room at the moment of dispatch. Best-effort,
// at-most-once, no replay for late joiners.
type Dispatcher struct {
	Sessions *Registry
	Rooms    *core.RoomRegistry
	Policy   Policy

	validate *validator.Validate
}

func NewDispatcher(sessions *Registry, rooms *core.RoomRegistry, policy Policy) *Dispatcher {
	return &Dispatcher{
		Sessions: sessions,
		Rooms:    rooms,
		Policy:   policy,
		validate: validator.New(),
	}
}

// JoinDevice subscribes the session to a device room. A session holds at
// most one room: joining a different device leaves the old room first,
// re-joining the current one is a no-op.
func (d *Dispatcher) JoinDevice(sid core.SessionID, deviceID domain.DeviceID) error {
	if err := deviceID.Validate(); err != nil {
		return err
	}
	sess, ok := d.Sessions.Get(sid)
	if !ok {
		return ErrUnknownSession
	}
	if cur, joined := d.Sessions.DeviceOf(sid); joined {
		if cur == deviceID {
			return nil
		}
		d.Rooms.Leave(cur, sid)
	}
	d.Rooms.Join(deviceID, sid, sess)
	d.Sessions.SetDevice(sid, deviceID)
	log.Info().Str("module", "app.dispatcher").Str("sid", string(sid)).Str("device", string(deviceID)).Msg("joined device")
	return nil
}

// LeaveDevice unsubscribes the session. A deviceID that does not match
// the currently held room is a no-op, reported as false so transports
// don't acknowledge an unsubscribe that never happened.
func (d *Dispatcher) LeaveDevice(sid core.SessionID, deviceID domain.DeviceID) bool {
	cur, joined := d.Sessions.DeviceOf(sid)
	if !joined || cur != deviceID {
		return false
	}
	d.Rooms.Leave(cur, sid)
	d.Sessions.ClearDevice(sid)
	log.Info().Str("module", "app.dispatcher").Str("sid", string(sid)).Str("device", string(deviceID)).Msg("left device")
	return true
}

// Disconnect purges the session from its room and discards it. Called by
// the transport adapter exactly once, when the socket goes away.
func (d *Dispatcher) Disconnect(sid core.SessionID) {
	d.Rooms.RemoveEverywhere(sid)
	d.Sessions.Unbind(sid)
	log.Info().Str("module", "app.dispatcher").Str("sid", string(sid)).Msg("disconnected")
}

// Screen relays one screen chunk. deviceID may be empty for untagged
// payloads from a joined sender.
func (d *Dispatcher) Screen(sid core.SessionID, deviceID domain.DeviceID, payload any) error {
	return d.relay(sid, EventScreenCapture, deviceID, payload, media.DefaultMIMEType)
}

// Audio relays one audio chunk, defaulting to audio/mpeg.
func (d *Dispatcher) Audio(sid core.SessionID, deviceID domain.DeviceID, payload any) error {
	return d.relay(sid, EventAudioCapture, deviceID, payload, DefaultAudioMIME)
}

func (d *Dispatcher) relay(sid core.SessionID, event string, deviceID domain.DeviceID, payload any, fallbackMIME string) error {
	target := deviceID
	if target == "" {
		joined, ok := d.Sessions.DeviceOf(sid)
		if !ok {
			log.Warn().Str("module", "app.dispatcher").Str("sid", string(sid)).Str("event", event).Msg("dropped unroutable payload")
			return ErrUnroutable
		}
		target = joined
	}

	frame, err := media.Normalize(payload, fallbackMIME)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.dispatcher").Str("sid", string(sid)).Str("event", event).Msg("dropped malformed payload")
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	data, err := encodeMedia(event, target, frame)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	// The sender is excluded when it happens to be a member of the
	// target room; an unjoined tagged sender has no self to exclude.
	res := d.Rooms.Publish(target, sid, data)
	d.applyPolicy(target, res)
	return nil
}

// Location forwards a stored location record to the device's viewers.
// Sourced from the persistence collaborator, not from a socket.
func (d *Dispatcher) Location(ev domain.LocationEvent) error {
	if err := d.validate.Struct(ev); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	data, err := encodeLocation(ev)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	res := d.Rooms.Publish(ev.DeviceID, "", data)
	d.applyPolicy(ev.DeviceID, res)
	return nil
}

func (d *Dispatcher) applyPolicy(deviceID domain.DeviceID, res core.PublishResult) {
	if d.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch d.Policy.OnBackpressure(deviceID, slow) {
		case KickViewer:
			d.Rooms.Leave(deviceID, slow)
			d.Sessions.ClearDevice(slow)
			// Tear down the connection pumps too; the transport defer
			// then runs the normal Disconnect path.
			d.Sessions.Cancel(slow)
			log.Warn().Str("module", "app.dispatcher").Str("sid", string(slow)).Str("device", string(deviceID)).Msg("kicked slow viewer")
		case DropFrame, NoAction:
		}
	}
}
