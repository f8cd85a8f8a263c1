package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/CodeRoom/internal/app/orch"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

// writePump owns all writes to the socket. When ctx ends it closes the
// socket, which unblocks the read pump and runs the disconnect path.
func (ctl *SignalWSController) writePump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("ping failed")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Orch.Disconnect(sid)
		ctl.limiter.Forget(sid)
		cancel()
		c.Close()
	}()

	pongWait := ctl.opts.pongWait()
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if !ctl.limiter.Allow(sid) {
			log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("rate limited")
			ctl.replyError(sid, "rate_limited")
			continue
		}
		ctl.dispatch(sid, data)
	}
}

// dispatch handles one frame. A panicking handler only loses that frame.
func (ctl *SignalWSController) dispatch(sid core.SessionID, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("module", "signal").Str("sid", string(sid)).Msg("handler panic")
		}
	}()

	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		ctl.replyError(sid, "bad_payload")
		return
	}

	switch env.Type {
	case domain.EvJoinRoom:
		ctl.handleJoin(sid, env.Data)
	case domain.EvLeaveRoom:
		ctl.handleLeave(sid)
	case domain.EvSendMessage:
		ctl.handleEdit(sid, env.Data)
	case domain.EvRequestWriter:
		ctl.handleRequestWriter(sid, env.Data)
	case domain.EvSaveCode:
		ctl.handleSave(sid, env.Data)
	case domain.EvRunCode:
		ctl.handleRun(sid, env.Data)
	case domain.EvSendChat:
		ctl.handleChat(sid, env.Data)
	case domain.EvDraw, domain.EvStartDraw:
		ctl.handleDraw(sid, env.Type, env.Data)
	case domain.EvRename:
		ctl.handleRename(sid, env.Data)
	case domain.EvWhoAmI:
		ctl.handleWhoAmI(sid)
	case domain.EvPing:
		ctl.handlePing(sid)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

// decode unmarshals a payload or answers bad_payload.
func decode[T any](ctl *SignalWSController, sid core.SessionID, typ string, data json.RawMessage) (T, bool) {
	var p T
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", typ).Msg("bad payload")
		ctl.replyError(sid, "bad_payload")
		return p, false
	}
	return p, true
}

func (ctl *SignalWSController) replyError(sid core.SessionID, code string) {
	ctl.Orch.Reply(sid, domain.Event(domain.EvError, domain.ErrorPayload{Error: code}))
}

// replyOrchError maps orchestrator errors to client error codes.
func (ctl *SignalWSController) replyOrchError(sid core.SessionID, err error) {
	switch {
	case err == nil, errors.Is(err, orch.ErrSaveFailed):
	case errors.Is(err, orch.ErrNotMember):
		ctl.replyError(sid, "not_in_room")
	case errors.Is(err, orch.ErrBadRoom):
		ctl.replyError(sid, "bad_room")
	case errors.Is(err, domain.ErrUsernameEmpty), errors.Is(err, domain.ErrUsernameTooLong):
		ctl.replyError(sid, "invalid_name")
	default:
		ctl.replyError(sid, "internal")
	}
}
