package signal

import (
	"encoding/json"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleRename(sid core.SessionID, data json.RawMessage) {
	p, ok := decode[domain.RenamePayload](ctl, sid, domain.EvRename, data)
	if !ok {
		return
	}
	if err := ctl.Orch.Rename(sid, p.Name); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("rename rejected")
		ctl.replyOrchError(sid, err)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", p.Name).Msg("rename")
	ctl.handleWhoAmI(sid)
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID) {
	me, ok := ctl.Orch.WhoAmI(sid)
	if !ok {
		return
	}
	ctl.Orch.Reply(sid, domain.Event(domain.EvWhoAmI, me))
}
