package app

import (
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// WriterArbiter moves the per-room edit lock. Any member may take it at
// any time; the last request wins.
type WriterArbiter struct {
	Rooms  *core.RoomRegistry
	Router *Router
}

func NewWriterArbiter(rooms *core.RoomRegistry, router *Router) *WriterArbiter {
	return &WriterArbiter{Rooms: rooms, Router: router}
}

// Request hands the lock to sid and tells the whole room, requester included.
func (a *WriterArbiter) Request(room domain.RoomID, sid core.SessionID) bool {
	if !a.Rooms.SetWriter(room, sid) {
		log.Warn().Str("module", "app.arbiter").Str("room", string(room)).Str("sid", string(sid)).
			Msg("writer request from non-member ignored")
		return false
	}
	log.Info().Str("module", "app.arbiter").Str("room", string(room)).Str("sid", string(sid)).Msg("writer changed")
	a.Router.ToRoom(room, domain.Event(domain.EvUpdateWriter, string(sid)))
	return true
}

// Released announces an unclaimed lock after the writer left.
func (a *WriterArbiter) Released(room domain.RoomID) {
	if _, ok := a.Rooms.Writer(room); ok {
		return
	}
	a.Router.ToRoom(room, domain.Event(domain.EvUpdateWriter, ""))
}
