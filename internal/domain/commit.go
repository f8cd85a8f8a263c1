package domain

import "time"

// Commit is an immutable snapshot of a room's document.
type Commit struct {
	ID        uint      `json:"id"`
	Room      RoomID    `json:"room"`
	Code      string    `json:"code"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}
