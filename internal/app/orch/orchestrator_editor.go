package orch

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

const saveTimeout = 5 * time.Second

// Edit caches the new text and relays it to everyone else in the room.
// The writer lock is enforced by clients, so non-writer edits still pass.
func (o *Orchestrator) Edit(sid core.SessionID, p domain.SendMessagePayload) error {
	if err := o.member(sid, p.Room); err != nil {
		return err
	}
	o.Rooms.UpdateDocument(p.Room, p.Message)
	o.Router.ToRoomExcept(p.Room, sid, domain.Event(domain.EvReceiveMessage, domain.DocumentPayload{Message: p.Message}))
	return nil
}

func (o *Orchestrator) RequestWriter(sid core.SessionID, p domain.RoomPayload) error {
	if !o.Writers.Request(p.Room, sid) {
		return ErrNotMember
	}
	return nil
}

// Save appends a commit. The room hears about success, only the sender
// about failure.
func (o *Orchestrator) Save(ctx context.Context, sid core.SessionID, p domain.SaveCodePayload) error {
	if err := o.member(sid, p.Room); err != nil {
		return err
	}
	u, ok := o.Sessions.UserOf(sid)
	if !ok {
		return ErrNoSession
	}

	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	c, err := o.History.Save(ctx, p.Room, p.Code, u.Author())
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("room", string(p.Room)).Msg("save failed")
		o.reply(sid, domain.Event(domain.EvError, domain.ErrorPayload{Error: "save_failed"}))
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	log.Info().Str("module", "orch").Str("room", string(p.Room)).Uint("commit", c.ID).Msg("code saved")
	o.Router.ToRoom(p.Room, domain.Event(domain.EvCodeSaved, domain.CodeSavedPayload{Timestamp: c.Timestamp, ID: c.ID}))
	return nil
}

// Run hands the code to the runner and returns at once. The output goes to
// the whole room, whoever is still in it when the run ends.
func (o *Orchestrator) Run(ctx context.Context, sid core.SessionID, p domain.RunCodePayload) error {
	if err := o.member(sid, p.Room); err != nil {
		return err
	}
	req := domain.ExecRequest{Code: p.Code, Language: p.Language, Room: p.Room}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(p.Room)).
		Str("language", p.Language).Msg("run requested")

	o.Runner.Submit(ctx, req, func(res domain.ExecResult) {
		o.Router.ToRoom(req.Room, domain.Event(domain.EvReceiveOutput, res.Output))
	})
	return nil
}
