package core

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ovrsee/spyglass/internal/domain"
)

// MemberSnap pairs a session id with its session for fan-out iteration.
type MemberSnap struct {
	SID     SessionID
	Session ViewerSession
}

// RoomRegistry maps device identifiers to the set of sessions currently
// subscribed to that device. Rooms exist only as entries in this map:
// created lazily on first Join, removed when the last member leaves.
//
// Membership exclusivity (one room per session) is a session-level policy
// owned by the dispatcher; the registry itself only relies on it for the
// reverse index used by RemoveEverywhere.
type RoomRegistry struct {
	mu        sync.RWMutex
	rooms     map[domain.DeviceID]map[SessionID]ViewerSession
	byMember  map[SessionID]domain.DeviceID
	lastEvent map[domain.DeviceID]time.Time
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:     make(map[domain.DeviceID]map[SessionID]ViewerSession),
		byMember:  make(map[SessionID]domain.DeviceID),
		lastEvent: make(map[domain.DeviceID]time.Time),
	}
}

// Join adds the session to the room for deviceID, creating the room if
// absent. Callers that hold a different room must Leave it first.
func (r *RoomRegistry) Join(deviceID domain.DeviceID, sid SessionID, sess ViewerSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[deviceID]
	if !ok {
		room = make(map[SessionID]ViewerSession)
		r.rooms[deviceID] = room
	}
	room[sid] = sess
	r.byMember[sid] = deviceID
	log.Info().Str("module", "core.rooms").Str("sid", string(sid)).Str("device", string(deviceID)).Msg("member joined")
}

// Leave removes the session from the room for deviceID; a room with no
// members left is dropped entirely, no empty entries are retained.
func (r *RoomRegistry) Leave(deviceID domain.DeviceID, sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(deviceID, sid)
}

func (r *RoomRegistry) leaveLocked(deviceID domain.DeviceID, sid SessionID) {
	room, ok := r.rooms[deviceID]
	if !ok {
		return
	}
	if _, member := room[sid]; !member {
		return
	}
	delete(room, sid)
	delete(r.byMember, sid)
	if len(room) == 0 {
		delete(r.rooms, deviceID)
		delete(r.lastEvent, deviceID)
	}
	log.Info().Str("module", "core.rooms").Str("sid", string(sid)).Str("device", string(deviceID)).Msg("member left")
}

// RemoveEverywhere purges a session from whatever room it is in.
// Idempotent if the session is in no room. Used on disconnect.
func (r *RoomRegistry) RemoveEverywhere(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deviceID, ok := r.byMember[sid]
	if !ok {
		return
	}
	r.leaveLocked(deviceID, sid)
}

// MembersOf returns a snapshot of current members sorted by session id,
// so one fan-out pass iterates in a stable order.
func (r *RoomRegistry) MembersOf(deviceID domain.DeviceID) []MemberSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.membersLocked(deviceID)
}

func (r *RoomRegistry) membersLocked(deviceID domain.DeviceID) []MemberSnap {
	room := r.rooms[deviceID]
	out := make([]MemberSnap, 0, len(room))
	for sid, sess := range room {
		out = append(out, MemberSnap{SID: sid, Session: sess})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SID < out[j].SID })
	return out
}

// RoomOf reports which room the session is currently a member of.
func (r *RoomRegistry) RoomOf(sid SessionID) (domain.DeviceID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	deviceID, ok := r.byMember[sid]
	return deviceID, ok
}

// Publish delivers one frame to every current member of the room except
// from. Delivery is fire-and-forget per recipient: a full send buffer
// drops the frame for that member only and never stalls the others.
func (r *RoomRegistry) Publish(deviceID domain.DeviceID, from SessionID, data Frame) PublishResult {
	r.mu.Lock()
	members := r.membersLocked(deviceID)
	if len(members) > 0 {
		r.lastEvent[deviceID] = time.Now()
	}
	r.mu.Unlock()

	res := PublishResult{}
	for _, m := range members {
		if m.SID == from {
			continue
		}
		if err := m.Session.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m.SID)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.rooms").Str("device", string(deviceID)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("publish result")
	return res
}

// Rooms lists live device rooms for the presence API.
func (r *RoomRegistry) Rooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for deviceID, room := range r.rooms {
		out = append(out, RoomInfo{
			DeviceID:  deviceID,
			Viewers:   len(room),
			LastEvent: r.lastEvent[deviceID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}
