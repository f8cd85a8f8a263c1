package domain

import "time"

// Member represents a connection's participation in a room.
// No transport or lifecycle logic here.
type Member struct {
	Peer     PeerID
	User     *User
	JoinedAt time.Time
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(peer PeerID, user *User) *Member {
	return &Member{Peer: peer, User: user, JoinedAt: time.Now()}
}
