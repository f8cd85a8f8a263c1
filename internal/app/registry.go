package app

import (
	"context"
	"sync"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Session core.MemberSession
	Cancel  context.CancelFunc
}

// Registry maps live connections to their session and browser identity.
// Room membership lives in core.RoomRegistry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	users    map[domain.UserID]*domain.User
	// refs counts bound sessions per user; a user goes with its last one.
	refs map[domain.UserID]int
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		users:    make(map[domain.UserID]*domain.User),
		refs:     make(map[domain.UserID]int),
	}
}

// GetOrCreateUser returns the identity for a client token; several tabs
// of one browser share it.
func (r *Registry) GetOrCreateUser(uid domain.UserID) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[uid]; ok {
		return u
	}
	u := domain.NewUser(uid)
	r.users[u.ID] = u
	log.Info().Str("module", "app.registry").Str("user", string(u.ID)).Msg("created new user")
	return u
}

func (r *Registry) UpdateUsername(sid core.SessionID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	if err := e.Session.User().SetUsername(name); err != nil {
		return err
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("username", name).Msg("updated username")
	return nil
}

func (r *Registry) Bind(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Session: sess, Cancel: cancel}
	if u := sess.User(); u != nil {
		// The user may have been evicted between lookup and bind.
		if _, ok := r.users[u.ID]; !ok {
			r.users[u.ID] = u
		}
		r.refs[u.ID]++
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

func (r *Registry) GetSession(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	delete(r.sessions, sid)
	if u := e.Session.User(); u != nil {
		r.refs[u.ID]--
		if r.refs[u.ID] <= 0 {
			delete(r.refs, u.ID)
			delete(r.users, u.ID)
			log.Debug().Str("module", "app.registry").Str("user", string(u.ID)).Msg("released user")
		}
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cancel stops the connection's pumps; the read pump then runs the
// regular disconnect path.
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

// UserOf returns a copy of the identity behind sid, taken under the lock
// that guards renames.
func (r *Registry) UserOf(sid core.SessionID) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.Session.User() == nil {
		return domain.User{}, false
	}
	return *e.Session.User(), true
}
