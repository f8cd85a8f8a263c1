package core

import (
	"fmt"
	"testing"

	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func join(rr *RoomRegistry, room, sid, peer string) JoinResult {
	meta := domain.NewMember(domain.PeerID(peer), domain.NewUser(""))
	return rr.Join(domain.RoomID(room), SessionID(sid), meta, NewMemberSession(meta.User, nil))
}

func TestJoinEmptyRoomClaimsWriter(t *testing.T) {
	rr := NewRoomRegistry()

	res := join(rr, "r1", "A", "p1")
	if len(res.Existing) != 0 {
		t.Fatalf("expected no existing members, got %v", res.Existing)
	}
	if res.Writer != "A" {
		t.Errorf("expected writer A, got %q", res.Writer)
	}
	if res.HasDocument {
		t.Error("fresh room should have no document")
	}

	res = join(rr, "r1", "B", "p2")
	if len(res.Existing) != 1 || res.Existing[0].SID != "A" || res.Existing[0].Peer != "p1" {
		t.Fatalf("expected [A/p1], got %v", res.Existing)
	}
	if res.Writer != "A" {
		t.Errorf("writer should stay A, got %q", res.Writer)
	}
}

func TestLateJoinerReceivesDocument(t *testing.T) {
	rr := NewRoomRegistry()
	join(rr, "r1", "A", "p1")

	text := "print('hi')\n# ünïcode"
	if !rr.UpdateDocument("r1", text) {
		t.Fatal("update on populated room should succeed")
	}

	res := join(rr, "r1", "B", "p2")
	if !res.HasDocument || res.Document != text {
		t.Errorf("expected cached document %q, got %q (present=%v)", text, res.Document, res.HasDocument)
	}
}

func TestUpdateDocumentOnMissingRoom(t *testing.T) {
	rr := NewRoomRegistry()
	if rr.UpdateDocument("ghost", "x") {
		t.Error("update should fail for a room without members")
	}
	if _, ok := rr.Document("ghost"); ok {
		t.Error("no document expected")
	}
}

func TestLeaveClearsWriterWithoutReassign(t *testing.T) {
	rr := NewRoomRegistry()
	join(rr, "r1", "A", "p1")
	join(rr, "r1", "B", "p2")

	d, ok := rr.Leave("A")
	if !ok {
		t.Fatal("leave should find A")
	}
	if d.Room != "r1" || d.Peer != "p1" || !d.WasWriter || d.Emptied {
		t.Errorf("unexpected departure %+v", d)
	}
	if w, ok := rr.Writer("r1"); ok {
		t.Errorf("writer should be unclaimed, got %q", w)
	}
	if rr.MemberCount("r1") != 1 {
		t.Errorf("expected 1 member, got %d", rr.MemberCount("r1"))
	}

	if _, ok := rr.Leave("A"); ok {
		t.Error("second leave of A must report not-found")
	}
}

func TestJoinAfterWriterLeftDoesNotClaim(t *testing.T) {
	rr := NewRoomRegistry()
	join(rr, "r1", "A", "p1")
	join(rr, "r1", "B", "p2")
	rr.Leave("A")

	res := join(rr, "r1", "C", "p3")
	if res.Writer != "" {
		t.Errorf("joiner of a non-empty room must not claim the lock, got %q", res.Writer)
	}
	if w, ok := rr.Writer("r1"); ok {
		t.Errorf("lock should stay unclaimed, got %q", w)
	}
}

func TestJoinThenRunsCatchUpUnderLock(t *testing.T) {
	rr := NewRoomRegistry()
	join(rr, "r1", "A", "p1")
	rr.UpdateDocument("r1", "v1")

	meta := domain.NewMember("p2", domain.NewUser(""))
	var seen JoinResult
	res := rr.JoinThen("r1", "B", meta, NewMemberSession(meta.User, nil), func(r JoinResult) {
		if rr.mu.TryLock() {
			rr.mu.Unlock()
			t.Error("catch-up must run while the registry is locked")
		}
		seen = r
	})
	if seen.Document != "v1" || !seen.HasDocument || seen.Writer != res.Writer || len(seen.Existing) != 1 {
		t.Errorf("catch-up saw %+v, join returned %+v", seen, res)
	}
}

func TestLastLeaveDropsRoomState(t *testing.T) {
	rr := NewRoomRegistry()
	join(rr, "r1", "A", "p1")
	rr.UpdateDocument("r1", "code")

	d, ok := rr.Leave("A")
	if !ok || !d.Emptied {
		t.Fatalf("expected emptied departure, got %+v ok=%v", d, ok)
	}
	if _, ok := rr.Document("r1"); ok {
		t.Error("document should be dropped")
	}
	if len(rr.List()) != 0 {
		t.Errorf("expected no rooms, got %v", rr.List())
	}

	res := join(rr, "r1", "C", "p3")
	if res.HasDocument {
		t.Error("recreated room must start without a document")
	}
	if res.Writer != "C" {
		t.Errorf("expected C as writer of recreated room, got %q", res.Writer)
	}
}

func TestSetWriterRequiresMembership(t *testing.T) {
	rr := NewRoomRegistry()
	join(rr, "r1", "A", "p1")
	join(rr, "r1", "B", "p2")
	join(rr, "r2", "C", "p3")

	if !rr.SetWriter("r1", "B") {
		t.Fatal("B is a member of r1")
	}
	if w, _ := rr.Writer("r1"); w != "B" {
		t.Errorf("expected B, got %q", w)
	}
	if !rr.SetWriter("r1", "B") {
		t.Error("current writer may request again")
	}
	if rr.SetWriter("r1", "C") {
		t.Error("C is not in r1")
	}
	if w, _ := rr.Writer("r1"); w != "B" {
		t.Errorf("writer should stay B, got %q", w)
	}
}

func TestJoinAnotherRoomMovesMember(t *testing.T) {
	rr := NewRoomRegistry()
	join(rr, "r1", "A", "p1")
	join(rr, "r1", "B", "p2")

	res := join(rr, "r2", "A", "p1")
	if res.Previous == nil {
		t.Fatal("expected departure from r1")
	}
	if res.Previous.Room != "r1" || !res.Previous.WasWriter {
		t.Errorf("unexpected departure %+v", *res.Previous)
	}
	if id, _ := rr.RoomOf("A"); id != "r2" {
		t.Errorf("A should be in r2, got %q", id)
	}
	if rr.MemberCount("r1") != 1 || rr.MemberCount("r2") != 1 {
		t.Errorf("unexpected counts r1=%d r2=%d", rr.MemberCount("r1"), rr.MemberCount("r2"))
	}
}

func TestRejoinSameRoomKeepsState(t *testing.T) {
	rr := NewRoomRegistry()
	join(rr, "r1", "A", "p1")
	join(rr, "r1", "B", "p2")

	res := join(rr, "r1", "B", "p2-new")
	if res.Previous != nil {
		t.Error("same-room rejoin is not a departure")
	}
	if res.Writer != "A" {
		t.Errorf("writer should stay A, got %q", res.Writer)
	}
	members := rr.Members("r1")
	if len(members) != 2 || members[1].Peer != "p2-new" {
		t.Errorf("expected refreshed peer id, got %v", members)
	}
}

func TestTargetsExcludeSender(t *testing.T) {
	rr := NewRoomRegistry()
	join(rr, "r1", "A", "p1")
	join(rr, "r1", "B", "p2")
	join(rr, "r1", "C", "p3")

	got := rr.Targets("r1", "B")
	if len(got) != 2 || got[0].SID != "A" || got[1].SID != "C" {
		t.Errorf("expected [A C], got %v", got)
	}
	if len(rr.Targets("r1", "")) != 3 {
		t.Error("expected all three members")
	}
	if rr.Targets("nope", "") != nil {
		t.Error("unknown room has no targets")
	}
}

// checkInvariants verifies writer ⊆ members, index consistency and that
// no empty room survives.
func checkInvariants(rr *RoomRegistry) error {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	seen := 0
	for id, room := range rr.rooms {
		if len(room.members) == 0 {
			return fmt.Errorf("room %s is empty but present", id)
		}
		if room.writer != "" {
			if _, ok := room.members[room.writer]; !ok {
				return fmt.Errorf("room %s writer %s is not a member", id, room.writer)
			}
		}
		for sid := range room.members {
			if rr.bySID[sid] != id {
				return fmt.Errorf("index for %s points to %q, want %s", sid, rr.bySID[sid], id)
			}
			seen++
		}
	}
	if seen != len(rr.bySID) {
		return fmt.Errorf("index has %d entries, rooms hold %d members", len(rr.bySID), seen)
	}
	return nil
}

func TestRegistryInvariantsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	rooms := []string{"r1", "r2"}
	conns := []string{"A", "B", "C", "D", "E"}

	properties.Property("writer is unset or a joined member after any join/leave/claim sequence", prop.ForAll(
		func(ops []int) bool {
			rr := NewRoomRegistry()
			for _, n := range ops {
				sid := conns[(n/3)%len(conns)]
				room := rooms[(n/15)%len(rooms)]
				switch n % 3 {
				case 0:
					wasEmpty := rr.MemberCount(domain.RoomID(room)) == 0
					before, _ := rr.Writer(domain.RoomID(room))
					prevRoom, inRoom := rr.RoomOf(SessionID(sid))
					res := join(rr, room, sid, "peer-"+sid)
					if wasEmpty && res.Writer != SessionID(sid) {
						t.Logf("joiner of empty room %s is not writer", room)
						return false
					}
					if !wasEmpty && !(inRoom && prevRoom == domain.RoomID(room)) && res.Writer != before {
						t.Logf("join changed writer of %s from %s to %s", room, before, res.Writer)
						return false
					}
				case 1:
					rr.Leave(SessionID(sid))
				case 2:
					rr.SetWriter(domain.RoomID(room), SessionID(sid))
				}
				if err := checkInvariants(rr); err != nil {
					t.Log(err)
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 299)),
	))

	properties.TestingRun(t)
}
