package signal

import (
	"encoding/json"

	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
)

// handleRun returns as soon as the run is queued; the output arrives
// later as receive_output for the whole room.
func (ctl *SignalWSController) handleRun(sid core.SessionID, data json.RawMessage) {
	p, ok := decode[domain.RunCodePayload](ctl, sid, domain.EvRunCode, data)
	if !ok {
		return
	}
	ctl.replyOrchError(sid, ctl.Orch.Run(ctl.ctx, sid, p))
}
