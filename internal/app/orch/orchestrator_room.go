package orch

import (
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) Join(sid core.SessionID, p domain.JoinRoomPayload) error {
	if !p.Room.Valid() {
		return ErrBadRoom
	}
	sess, ok := o.Sessions.GetSession(sid)
	if !ok {
		return ErrNoSession
	}
	if p.Name != "" {
		if err := o.Sessions.UpdateUsername(sid, p.Name); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("rename on join rejected")
		}
	}

	res := o.Rooms.JoinThen(p.Room, sid, domain.NewMember(p.UserID, sess.User()), sess, func(res core.JoinResult) {
		o.catchUp(sid, res)
	})
	if res.Previous != nil {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(res.Previous.Room)).
			Str("to_room", string(p.Room)).Msg("moved between rooms")
		o.announceDeparture(*res.Previous)
	}

	o.Router.ToRoomExcept(p.Room, sid, domain.Event(domain.EvUserJoined, p.UserID))
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(p.Room)).
		Int("peers", len(res.Existing)).Msg("joined room")
	return nil
}

// catchUp queues the joiner's view of the room. It runs under the room
// registry lock, so it only talks to the joiner's own connection.
func (o *Orchestrator) catchUp(sid core.SessionID, res core.JoinResult) {
	peers := make([]domain.PeerInfo, 0, len(res.Existing))
	for _, m := range res.Existing {
		peers = append(peers, domain.PeerInfo{ConnectionID: string(m.SID), PeerID: m.Peer})
	}
	o.reply(sid, domain.Event(domain.EvAllUsers, peers))
	if res.HasDocument {
		o.reply(sid, domain.Event(domain.EvReceiveMessage, domain.DocumentPayload{Message: res.Document}))
	}
	o.reply(sid, domain.Event(domain.EvUpdateWriter, string(res.Writer)))
}

// Leave drops sid from its room; the socket stays open.
func (o *Orchestrator) Leave(sid core.SessionID) {
	d, ok := o.Rooms.Leave(sid)
	if !ok {
		return
	}
	o.announceDeparture(d)
}

func (o *Orchestrator) announceDeparture(d core.Departure) {
	if d.Emptied {
		return
	}
	o.Router.ToRoom(d.Room, domain.Event(domain.EvUserDisconnected, d.Peer))
	if d.WasWriter {
		o.Writers.Released(d.Room)
	}
}

func (o *Orchestrator) reply(sid core.SessionID, ev domain.Outbound) {
	if err := o.Router.ToConn(sid, ev); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("type", ev.Type).Msg("reply not delivered")
	}
}

// Reply sends ev to sid alone.
func (o *Orchestrator) Reply(sid core.SessionID, ev domain.Outbound) {
	o.reply(sid, ev)
}

func (o *Orchestrator) ListRooms() []core.RoomInfo {
	return o.Rooms.List()
}
