package core

import "github.com/dkeye/CodeRoom/internal/domain"

// Frame is an encoded event ready for the wire.
type Frame []byte

// SessionID identifies one live connection. Minted by the gateway.
type SessionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds the browser identity and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	User() *domain.User
	Signal() SignalConnection
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []SessionID
}

// MemberInfo is a read-only view for APIs (no transport fields).
type MemberInfo struct {
	SID  SessionID
	Peer domain.PeerID
}

// Target is a member's address for fan-out.
type Target struct {
	SID     SessionID
	Session MemberSession
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
	HasWriter   bool          `json:"has_writer"`
}

// JoinResult is what a joiner needs to catch up with the room.
type JoinResult struct {
	Existing    []MemberInfo
	Document    string
	HasDocument bool
	Writer      SessionID
	// Previous is set when the connection was moved out of another room.
	Previous *Departure
}

// Departure describes a removed member.
type Departure struct {
	Room      domain.RoomID
	Peer      domain.PeerID
	WasWriter bool
	Emptied   bool
}
