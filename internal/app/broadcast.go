package app

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrNoSession = errors.New("no such session")

// Router addresses events to a whole room, a room minus its sender, or a
// single connection. Each event is encoded once per call.
type Router struct {
	Rooms    *core.RoomRegistry
	Sessions *Registry
	Policy   Policy
}

func NewRouter(rooms *core.RoomRegistry, sessions *Registry, policy Policy) *Router {
	return &Router{Rooms: rooms, Sessions: sessions, Policy: policy}
}

func Encode(ev domain.Outbound) (core.Frame, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Type, err)
	}
	return b, nil
}

func (r *Router) ToRoom(room domain.RoomID, ev domain.Outbound) core.PublishResult {
	return r.ToRoomExcept(room, "", ev)
}

func (r *Router) ToRoomExcept(room domain.RoomID, except core.SessionID, ev domain.Outbound) core.PublishResult {
	frame, err := Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Msg("drop event")
		return core.PublishResult{}
	}
	targets := r.Rooms.Targets(room, except)
	res := core.PublishResult{}
	for _, t := range targets {
		if t.Session == nil || t.Session.Signal() == nil {
			continue
		}
		if err := t.Session.Signal().TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, t.SID)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.router").Str("room", string(room)).Str("type", ev.Type).
		Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	r.applyPolicy(string(room), res.Dropped)
	return res
}

func (r *Router) ToConn(sid core.SessionID, ev domain.Outbound) error {
	sess, ok := r.Sessions.GetSession(sid)
	if !ok || sess.Signal() == nil {
		return ErrNoSession
	}
	frame, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := sess.Signal().TrySend(frame); err != nil {
		r.applyPolicy("", []core.SessionID{sid})
		return err
	}
	return nil
}

func (r *Router) applyPolicy(room string, dropped []core.SessionID) {
	if r.Policy == nil {
		return
	}
	for _, sid := range dropped {
		switch r.Policy.OnBackPressure(room, sid) {
		case KickMember:
			log.Warn().Str("module", "app.router").Str("sid", string(sid)).Msg("slow consumer kicked")
			r.Sessions.Cancel(sid)
		case MarkSlow, DropFrame, NoAction:
		}
	}
}
