package orch

import (
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
)

// relayed maps inbound relay events to what the rest of the room receives.
var relayed = map[string]string{
	domain.EvSendChat:  domain.EvReceiveChat,
	domain.EvDraw:      domain.EvOnDraw,
	domain.EvStartDraw: domain.EvStartDraw,
}

// IsRelay reports whether typ is forwarded verbatim to the room.
func IsRelay(typ string) bool {
	_, ok := relayed[typ]
	return ok
}

// Relay forwards payload to the room minus the sender.
func (o *Orchestrator) Relay(sid core.SessionID, typ string, room domain.RoomID, payload any) error {
	out, ok := relayed[typ]
	if !ok {
		return ErrNotRelay
	}
	if err := o.member(sid, room); err != nil {
		return err
	}
	o.Router.ToRoomExcept(room, sid, domain.Event(out, payload))
	return nil
}

func (o *Orchestrator) Rename(sid core.SessionID, name string) error {
	if _, ok := o.Sessions.GetSession(sid); !ok {
		return ErrNoSession
	}
	return o.Sessions.UpdateUsername(sid, name)
}

func (o *Orchestrator) WhoAmI(sid core.SessionID) (domain.WhoAmIPayload, bool) {
	u, ok := o.Sessions.UserOf(sid)
	if !ok {
		return domain.WhoAmIPayload{}, false
	}
	out := domain.WhoAmIPayload{ConnectionID: string(sid), UserID: u.ID, Username: u.Username}
	if room, ok := o.Rooms.RoomOf(sid); ok {
		out.Room = room
		if w, ok := o.Rooms.Writer(room); ok {
			out.Writer = string(w)
		}
	}
	return out, true
}
