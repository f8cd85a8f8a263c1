package core

import (
	"sort"

	"github.com/dkeye/CodeRoom/internal/domain"
)

type memberEntry struct {
	meta    *domain.Member
	session MemberSession
}

// roomImpl is the per-room state: members, cached document, writer.
// Guarded by RoomRegistry.mu; it never closes adapter-owned resources.
type roomImpl struct {
	room    *domain.Room
	members map[SessionID]*memberEntry
	doc     string
	hasDoc  bool
	writer  SessionID
}

func newRoom(id domain.RoomID) *roomImpl {
	return &roomImpl{
		room:    &domain.Room{ID: id},
		members: make(map[SessionID]*memberEntry),
	}
}

// add inserts a member. Only the first member of an empty room claims the
// writer lock; later joiners never change it.
func (r *roomImpl) add(sid SessionID, meta *domain.Member, ms MemberSession) {
	if len(r.members) == 0 {
		r.writer = sid
	}
	r.members[sid] = &memberEntry{meta: meta, session: ms}
}

// remove drops a member and keeps the writer invariant.
func (r *roomImpl) remove(sid SessionID) (Departure, bool) {
	e, ok := r.members[sid]
	if !ok {
		return Departure{}, false
	}
	delete(r.members, sid)
	d := Departure{Room: r.room.ID, Peer: e.meta.Peer}
	if r.writer == sid {
		r.writer = ""
		d.WasWriter = true
	}
	if len(r.members) == 0 {
		r.doc, r.hasDoc, r.writer = "", false, ""
		d.Emptied = true
	}
	return d, true
}

// sorted returns members in join order.
func (r *roomImpl) sorted() []SessionID {
	out := make([]SessionID, 0, len(r.members))
	for sid := range r.members {
		out = append(out, sid)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := r.members[out[i]].meta.JoinedAt, r.members[out[j]].meta.JoinedAt
		if a.Equal(b) {
			return out[i] < out[j]
		}
		return a.Before(b)
	})
	return out
}

func (r *roomImpl) snapshot(except SessionID) []MemberInfo {
	out := make([]MemberInfo, 0, len(r.members))
	for _, sid := range r.sorted() {
		if sid == except {
			continue
		}
		out = append(out, MemberInfo{SID: sid, Peer: r.members[sid].meta.Peer})
	}
	return out
}
