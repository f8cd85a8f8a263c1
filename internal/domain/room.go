package domain

const MaxRoomIDLen = 128

type (
	RoomID string
	PeerID string
)

// Room is the read-only description of an active room.
type Room struct {
	ID RoomID `json:"id"`
}

func (id RoomID) Valid() bool {
	return id != "" && len(id) <= MaxRoomIDLen
}
