package signaling

import (
	"encoding/json"
)

// Event is the wire envelope for every in- and outbound signaling message.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Inbound event names. Casing is owned by the deployed web client.
const (
	EventCreateRoom   = "createRoom"
	EventJoinRoom     = "JoinRoom"
	EventGetRoomUsers = "getRoomUsers"
	EventSentMessage  = "sentMessage"
	EventDisconnect   = "disconnect"
)

// Outbound event names.
const (
	EventRoomCreated       = "RoomCreated"
	EventRoomJoined        = "RoomJoined"
	EventRoomCreationError = "RoomCreationError"
	EventRoomJoinError     = "RoomJoinError"
	EventUpdatedRoomUser   = "updatedRoomUser"
	EventReceiveMessage    = "receiveMessage"
	EventError             = "error"
)

// Profile carries the user-supplied fields of a member record.
type Profile struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Photo     string `json:"photo"`
	Timestamp string `json:"timestamp"`
}

type joinRoomPayload struct {
	RoomID   string  `json:"roomId"`
	UserData Profile `json:"userData"`
}

type getRoomUsersPayload struct {
	RoomID string `json:"roomId"`
}

type sentMessagePayload struct {
	Room          string `json:"room"`
	Message       string `json:"message"`
	SenderName    string `json:"senderName"`
	SenderEmail   string `json:"senderEmail"`
	ReceiverName  string `json:"receiverName"`
	ReceiverEmail string `json:"receiverEmail"`
	Photo         string `json:"photo"`
}

type roomCreatedPayload struct {
	RoomID    string `json:"roomId"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

type roomJoinedPayload struct {
	RoomID string `json:"roomId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type receiveMessagePayload struct {
	Sender     string `json:"sender"`
	SenderName string `json:"senderName"`
	Photo      string `json:"photo"`
	Message    string `json:"message"`
}

func newEvent(event string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{Event: event, Data: data}, nil
}

// roomIDFromData accepts both the bare-string form the original client sends
// for getRoomUsers and the object form newer clients use.
func roomIDFromData(data json.RawMessage) string {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err == nil {
		return roomID
	}
	var payload getRoomUsersPayload
	if err := json.Unmarshal(data, &payload); err == nil {
		return payload.RoomID
	}
	return ""
}
