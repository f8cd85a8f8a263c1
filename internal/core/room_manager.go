package core

import (
	"sort"
	"sync"

	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomRegistry owns room membership, cached documents and writer state.
// A room exists only while it has members.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomImpl
	bySID map[SessionID]domain.RoomID
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[domain.RoomID]*roomImpl),
		bySID: make(map[SessionID]domain.RoomID),
	}
}

// Join registers sid in room. A connection already in another room is
// moved; the departure from the old room is reported in the result.
func (rr *RoomRegistry) Join(id domain.RoomID, sid SessionID, meta *domain.Member, ms MemberSession) JoinResult {
	return rr.JoinThen(id, sid, meta, ms, nil)
}

// JoinThen is Join with catchUp run before the registry lock is released.
// Document updates and fan-out target lists wait on the same lock, so
// frames queued by catchUp reach the joiner ahead of any later edit.
// catchUp must not call back into the registry.
func (rr *RoomRegistry) JoinThen(id domain.RoomID, sid SessionID, meta *domain.Member, ms MemberSession, catchUp func(JoinResult)) JoinResult {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	res := rr.joinLocked(id, sid, meta, ms)
	if catchUp != nil {
		catchUp(res)
	}
	return res
}

func (rr *RoomRegistry) joinLocked(id domain.RoomID, sid SessionID, meta *domain.Member, ms MemberSession) JoinResult {
	var res JoinResult
	if prev, ok := rr.bySID[sid]; ok {
		if prev == id {
			// Rejoin of the same room refreshes the peer id only.
			e := rr.rooms[id].members[sid]
			meta.JoinedAt = e.meta.JoinedAt
			e.meta, e.session = meta, ms
			return rr.resultLocked(id, sid, res)
		}
		if d, ok := rr.removeLocked(sid); ok {
			res.Previous = &d
		}
	}

	room, ok := rr.rooms[id]
	if !ok {
		room = newRoom(id)
		rr.rooms[id] = room
		log.Info().Str("module", "core.registry").Str("room", string(id)).Msg("room created")
	}
	room.add(sid, meta, ms)
	rr.bySID[sid] = id
	log.Info().Str("module", "core.registry").Str("room", string(id)).Str("sid", string(sid)).
		Int("members", len(room.members)).Msg("member joined")
	return rr.resultLocked(id, sid, res)
}

func (rr *RoomRegistry) resultLocked(id domain.RoomID, sid SessionID, res JoinResult) JoinResult {
	room := rr.rooms[id]
	res.Existing = room.snapshot(sid)
	res.Document, res.HasDocument = room.doc, room.hasDoc
	res.Writer = room.writer
	return res
}

// Leave removes sid from whichever room holds it.
func (rr *RoomRegistry) Leave(sid SessionID) (Departure, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.removeLocked(sid)
}

func (rr *RoomRegistry) removeLocked(sid SessionID) (Departure, bool) {
	id, ok := rr.bySID[sid]
	if !ok {
		return Departure{}, false
	}
	delete(rr.bySID, sid)
	room, ok := rr.rooms[id]
	if !ok {
		return Departure{}, false
	}
	d, ok := room.remove(sid)
	if !ok {
		return Departure{}, false
	}
	if d.Emptied {
		delete(rr.rooms, id)
		log.Info().Str("module", "core.registry").Str("room", string(id)).Msg("room closed (empty)")
	} else {
		log.Info().Str("module", "core.registry").Str("room", string(id)).Str("sid", string(sid)).
			Int("members", len(room.members)).Bool("was_writer", d.WasWriter).Msg("member left")
	}
	return d, true
}

// UpdateDocument overwrites the cached text. Rooms without members have
// nowhere to keep it, so it reports false for them.
func (rr *RoomRegistry) UpdateDocument(id domain.RoomID, text string) bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	room, ok := rr.rooms[id]
	if !ok {
		return false
	}
	room.doc, room.hasDoc = text, true
	return true
}

func (rr *RoomRegistry) Document(id domain.RoomID) (string, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	room, ok := rr.rooms[id]
	if !ok || !room.hasDoc {
		return "", false
	}
	return room.doc, true
}

// SetWriter hands the lock to sid without asking the current holder.
// It only refuses when sid is not a member of the room.
func (rr *RoomRegistry) SetWriter(id domain.RoomID, sid SessionID) bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	room, ok := rr.rooms[id]
	if !ok {
		return false
	}
	if _, ok := room.members[sid]; !ok {
		return false
	}
	room.writer = sid
	return true
}

func (rr *RoomRegistry) Writer(id domain.RoomID) (SessionID, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	room, ok := rr.rooms[id]
	if !ok || room.writer == "" {
		return "", false
	}
	return room.writer, true
}

func (rr *RoomRegistry) RoomOf(sid SessionID) (domain.RoomID, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	id, ok := rr.bySID[sid]
	return id, ok
}

// IsMember reports whether sid currently sits in room id.
func (rr *RoomRegistry) IsMember(id domain.RoomID, sid SessionID) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return rr.bySID[sid] == id && id != ""
}

func (rr *RoomRegistry) Members(id domain.RoomID) []MemberInfo {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	room, ok := rr.rooms[id]
	if !ok {
		return nil
	}
	return room.snapshot("")
}

// Targets returns the fan-out addresses of a room, optionally without one sid.
func (rr *RoomRegistry) Targets(id domain.RoomID, except SessionID) []Target {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	room, ok := rr.rooms[id]
	if !ok {
		return nil
	}
	out := make([]Target, 0, len(room.members))
	for _, sid := range room.sorted() {
		if sid == except {
			continue
		}
		out = append(out, Target{SID: sid, Session: room.members[sid].session})
	}
	return out
}

func (rr *RoomRegistry) MemberCount(id domain.RoomID) int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	if room, ok := rr.rooms[id]; ok {
		return len(room.members)
	}
	return 0
}

func (rr *RoomRegistry) List() []RoomInfo {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	out := make([]RoomInfo, 0, len(rr.rooms))
	for id, r := range rr.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: len(r.members), HasWriter: r.writer != ""})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
