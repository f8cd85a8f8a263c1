package domain

import (
	"encoding/json"
	"time"
)

// Client -> server event types.
const (
	EvJoinRoom      = "join_room"
	EvLeaveRoom     = "leave_room"
	EvSendMessage   = "send_message"
	EvSaveCode      = "save_code"
	EvRunCode       = "run_code"
	EvRequestWriter = "request_writer"
	EvSendChat      = "send_chat"
	EvDraw          = "draw"
	EvStartDraw     = "start_draw"
	EvRename        = "rename"
	EvWhoAmI        = "whoami"
	EvPing          = "ping"
)

// Server -> client event types.
const (
	EvConnected        = "connected"
	EvAllUsers         = "all_users"
	EvUserJoined       = "user_joined"
	EvUserDisconnected = "user_disconnected"
	EvReceiveMessage   = "receive_message"
	EvUpdateWriter     = "update_writer"
	EvReceiveOutput    = "receive_output"
	EvCodeSaved        = "code_saved"
	EvReceiveChat      = "receive_chat"
	EvOnDraw           = "on_draw"
	EvPong             = "pong"
	EvError            = "error"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Outbound is an event before encoding.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func Event(typ string, data any) Outbound {
	return Outbound{Type: typ, Data: data}
}

// Client -> server payloads

type JoinRoomPayload struct {
	Room   RoomID `json:"room"`
	UserID PeerID `json:"userId"`
	Name   string `json:"name,omitempty"`
}

type SendMessagePayload struct {
	Message string `json:"message"`
	Room    RoomID `json:"room"`
}

type SaveCodePayload struct {
	Room RoomID `json:"room"`
	Code string `json:"code"`
}

type RunCodePayload struct {
	Code     string `json:"code"`
	Room     RoomID `json:"room"`
	Language string `json:"language"`
}

type RoomPayload struct {
	Room RoomID `json:"room"`
}

type ChatPayload struct {
	Room    RoomID `json:"room"`
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

type DrawPayload struct {
	Room    RoomID  `json:"room"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

type RenamePayload struct {
	Name string `json:"name"`
}

// Server -> client payloads

type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

type PeerInfo struct {
	ConnectionID string `json:"connectionId"`
	PeerID       PeerID `json:"peerId"`
}

type DocumentPayload struct {
	Message string `json:"message"`
}

type CodeSavedPayload struct {
	Timestamp time.Time `json:"timestamp"`
	ID        uint      `json:"id"`
}

type WhoAmIPayload struct {
	ConnectionID string `json:"connectionId"`
	UserID       UserID `json:"userId"`
	Username     string `json:"username"`
	Room         RoomID `json:"room,omitempty"`
	Writer       string `json:"writer,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
