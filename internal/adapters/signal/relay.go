package signal

import (
	"encoding/json"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
)

// Relays forward the payload bytes as sent; decoding only checks the shape
// and finds the room.

func (ctl *SignalWSController) handleChat(sid core.SessionID, data json.RawMessage) {
	p, ok := decode[domain.ChatPayload](ctl, sid, domain.EvSendChat, data)
	if !ok {
		return
	}
	ctl.replyOrchError(sid, ctl.Orch.Relay(sid, domain.EvSendChat, p.Room, data))
}

func (ctl *SignalWSController) handleDraw(sid core.SessionID, typ string, data json.RawMessage) {
	p, ok := decode[domain.DrawPayload](ctl, sid, typ, data)
	if !ok {
		return
	}
	ctl.replyOrchError(sid, ctl.Orch.Relay(sid, typ, p.Room, data))
}
