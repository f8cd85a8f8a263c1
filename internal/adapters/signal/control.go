package signal

import (
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
)

func (ctl *SignalWSController) handlePing(sid core.SessionID) {
	ctl.Orch.Reply(sid, domain.Event(domain.EvPong, nil))
}
