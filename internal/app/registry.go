package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ovrsee/spyglass/internal/core"
	"github.com/ovrsee/spyglass/internal/domain"
)

type sessionEntry struct {
	Device  domain.DeviceID // zero value means unjoined
	Session core.ViewerSession
	Cancel  context.CancelFunc
}

// Registry owns per-connection state: which device room each session
// holds while joined, and the viewer identities behind the sessions.
// Sessions are per socket; viewers are per client token and may stand
// behind several concurrent sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	viewers  map[string]*domain.Viewer
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		viewers:  make(map[string]*domain.Viewer),
	}
}

// GetOrCreateViewer resolves the viewer identity behind a client token.
// Identity verification happened upstream; an unknown token gets a guest
// entry.
func (r *Registry) GetOrCreateViewer(token string) *domain.Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.viewers[token]; ok {
		return v
	}
	v := &domain.Viewer{ID: domain.ViewerID(token), Name: "guest"}
	r.viewers[token] = v
	log.Info().Str("module", "app.registry").Str("viewer", token).Msg("created new viewer")
	return v
}

// Bind registers a freshly connected session and its cancel func.
func (r *Registry) Bind(sid core.SessionID, sess core.ViewerSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

func (r *Registry) Get(sid core.SessionID) (core.ViewerSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

// DeviceOf reports the device room the session currently holds, if any.
func (r *Registry) DeviceOf(sid core.SessionID) (domain.DeviceID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.Device == "" {
		return "", false
	}
	return e.Device, true
}

func (r *Registry) SetDevice(sid core.SessionID, deviceID domain.DeviceID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.Device = deviceID
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("device", string(deviceID)).Msg("updated device")
	return true
}

func (r *Registry) ClearDevice(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.Device = ""
	}
}

// Unbind discards the session. Viewer identities are token-scoped and
// survive their sockets. Called on disconnect.
func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

// Cancel fires the session's cancel func, tearing down its pumps.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
