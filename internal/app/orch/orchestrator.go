package orch

import (
	"context"
	"errors"

	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrBadRoom    = errors.New("bad room id")
	ErrNotMember  = errors.New("not a member of room")
	ErrNoSession  = errors.New("unknown session")
	ErrNotRelay   = errors.New("event is not relayed")
	// ErrSaveFailed means the sender was already told with save_failed.
	ErrSaveFailed = errors.New("save failed")
)

// Runner executes code off the caller's goroutine.
type Runner interface {
	Submit(ctx context.Context, req domain.ExecRequest, done func(domain.ExecResult))
}

// History appends document snapshots.
type History interface {
	Save(ctx context.Context, room domain.RoomID, code, author string) (domain.Commit, error)
}

// Orchestrator applies connection events to the room state and tells the
// router who has to hear about it.
type Orchestrator struct {
	Sessions *app.Registry
	Rooms    *core.RoomRegistry
	Router   *app.Router
	Writers  *app.WriterArbiter
	Runner   Runner
	History  History
}

func New(sessions *app.Registry, rooms *core.RoomRegistry, policy app.Policy, runner Runner, history History) *Orchestrator {
	router := app.NewRouter(rooms, sessions, policy)
	return &Orchestrator{
		Sessions: sessions,
		Rooms:    rooms,
		Router:   router,
		Writers:  app.NewWriterArbiter(rooms, router),
		Runner:   runner,
		History:  history,
	}
}

// Connect registers a fresh connection and greets it with its id.
func (o *Orchestrator) Connect(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	o.Sessions.Bind(sid, sess, cancel)
	if err := o.Router.ToConn(sid, domain.Event(domain.EvConnected, domain.ConnectedPayload{ConnectionID: string(sid)})); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("greeting not delivered")
	}
}

// Disconnect is the single exit path of a connection.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	o.Leave(sid)
	o.Sessions.Unbind(sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("disconnected")
}

func (o *Orchestrator) member(sid core.SessionID, room domain.RoomID) error {
	if !o.Rooms.IsMember(room, sid) {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("event for foreign room ignored")
		return ErrNotMember
	}
	return nil
}
