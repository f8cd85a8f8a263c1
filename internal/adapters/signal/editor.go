package signal

import (
	"encoding/json"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
)

func (ctl *SignalWSController) handleEdit(sid core.SessionID, data json.RawMessage) {
	p, ok := decode[domain.SendMessagePayload](ctl, sid, domain.EvSendMessage, data)
	if !ok {
		return
	}
	ctl.replyOrchError(sid, ctl.Orch.Edit(sid, p))
}

func (ctl *SignalWSController) handleRequestWriter(sid core.SessionID, data json.RawMessage) {
	p, ok := decode[domain.RoomPayload](ctl, sid, domain.EvRequestWriter, data)
	if !ok {
		return
	}
	ctl.replyOrchError(sid, ctl.Orch.RequestWriter(sid, p))
}

func (ctl *SignalWSController) handleSave(sid core.SessionID, data json.RawMessage) {
	p, ok := decode[domain.SaveCodePayload](ctl, sid, domain.EvSaveCode, data)
	if !ok {
		return
	}
	ctl.replyOrchError(sid, ctl.Orch.Save(ctl.ctx, sid, p))
}
