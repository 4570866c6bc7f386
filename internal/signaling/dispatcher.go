package signaling

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/gs-shaykot/nex-server/internal/history"
	"github.com/gs-shaykot/nex-server/internal/provision"
	"github.com/gs-shaykot/nex-server/pkg/protocol"

	"github.com/google/uuid"
)

// HistoryRecorder is the fire-and-forget sink for relayed chat messages.
type HistoryRecorder interface {
	Record(msg *history.ChatMessage)
}

// Dispatcher applies inbound signaling events to the room state and fans the
// resulting events out to the affected connections.
//
// Membership-changing events (create, join, disconnect) serialize their
// mutate-and-broadcast sequence under one mutex so every client observes
// member-list snapshots in arrival order. Message relay only reads state and
// stays off that lock.
type Dispatcher struct {
	mu sync.Mutex

	rooms       *RoomService
	provisioner provision.Provisioner
	recorder    HistoryRecorder
	logger      *slog.Logger
}

func (d *Dispatcher) Connect(connID protocol.ConnectionID, w MessageWriter) {
	d.rooms.Connect(connID, w)
}

// Disconnect removes the connection everywhere and re-broadcasts the member
// list of every room it was part of. Safe to call more than once.
func (d *Dispatcher) Disconnect(connID protocol.ConnectionID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, roomID := range d.rooms.Disconnect(connID) {
		d.broadcast(roomID, EventUpdatedRoomUser, d.rooms.ListMembers(roomID))
	}
}

// HandleEvent routes one inbound event. Malformed input is answered on the
// offending connection only; it never tears down shared state.
func (d *Dispatcher) HandleEvent(ctx context.Context, connID protocol.ConnectionID, ev Event) {
	switch ev.Event {
	case EventCreateRoom:
		d.handleCreateRoom(ctx, connID, ev.Data)
	case EventJoinRoom:
		d.handleJoinRoom(ctx, connID, ev.Data)
	case EventGetRoomUsers:
		d.handleGetRoomUsers(connID, ev.Data)
	case EventSentMessage:
		d.handleSentMessage(connID, ev.Data)
	case EventDisconnect:
		d.Disconnect(connID)
	default:
		d.logger.Warn("unknown signaling event",
			slog.String("event", ev.Event),
			slog.String("connection_id", connID))
		d.sendTo(connID, EventError, errorPayload{Message: "wrong message event"})
	}
}

func (d *Dispatcher) handleCreateRoom(ctx context.Context, connID protocol.ConnectionID, data json.RawMessage) {
	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil || profile.Name == "" {
		d.sendTo(connID, EventRoomCreationError, errorPayload{Message: "invalid profile"})
		return
	}

	// Room state is touched only after the provisioner confirms.
	roomID, err := d.provisioner.ProvisionRoom(ctx, provision.RoomMetadata{
		Name:      profile.Name,
		Timestamp: profile.Timestamp,
	})
	if err != nil {
		d.logger.Error("room provision failed",
			slog.String("connection_id", connID),
			slog.String("error", err.Error()))
		d.sendTo(connID, EventRoomCreationError, errorPayload{Message: "unable to create room"})
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.rooms.CreateRoom(roomID, newMember(connID, profile))
	d.sendTo(connID, EventRoomCreated, roomCreatedPayload{
		RoomID:    roomID,
		Name:      profile.Name,
		Timestamp: profile.Timestamp,
	})
	d.logger.Info("room created",
		slog.String("room_id", roomID),
		slog.String("connection_id", connID))
}

func (d *Dispatcher) handleJoinRoom(ctx context.Context, connID protocol.ConnectionID, data json.RawMessage) {
	var payload joinRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.RoomID == "" {
		d.sendTo(connID, EventRoomJoinError, errorPayload{Message: "invalid join request"})
		return
	}

	exists, err := d.provisioner.ValidateRoom(ctx, payload.RoomID)
	if err != nil {
		d.logger.Error("room validation failed",
			slog.String("room_id", payload.RoomID),
			slog.String("error", err.Error()))
		d.sendTo(connID, EventRoomJoinError, errorPayload{Message: "unable to validate room"})
		return
	}
	if !exists {
		d.sendTo(connID, EventRoomJoinError, errorPayload{Message: "room not found"})
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.rooms.JoinRoom(payload.RoomID, newMember(connID, payload.UserData))
	d.sendTo(connID, EventRoomJoined, roomJoinedPayload{RoomID: payload.RoomID})
	d.broadcast(payload.RoomID, EventUpdatedRoomUser, d.rooms.ListMembers(payload.RoomID))
}

func (d *Dispatcher) handleGetRoomUsers(connID protocol.ConnectionID, data json.RawMessage) {
	roomID := roomIDFromData(data)
	d.sendTo(connID, EventUpdatedRoomUser, d.rooms.ListMembers(roomID))
}

func (d *Dispatcher) handleSentMessage(connID protocol.ConnectionID, data json.RawMessage) {
	var payload sentMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil ||
		payload.Room == "" || payload.Message == "" || payload.SenderName == "" {
		d.sendTo(connID, EventError, errorPayload{Message: "wrong data format"})
		return
	}

	// Delivery first; persistence never delays or fails the relay.
	d.broadcast(payload.Room, EventReceiveMessage, receiveMessagePayload{
		Sender:     connID,
		SenderName: payload.SenderName,
		Photo:      payload.Photo,
		Message:    payload.Message,
	})

	d.recorder.Record(&history.ChatMessage{
		ID:            uuid.NewString(),
		Room:          payload.Room,
		Message:       payload.Message,
		SenderName:    payload.SenderName,
		SenderEmail:   payload.SenderEmail,
		ReceiverName:  payload.ReceiverName,
		ReceiverEmail: payload.ReceiverEmail,
		Photo:         payload.Photo,
		Timestamp:     time.Now(),
	})
}

func (d *Dispatcher) sendTo(connID protocol.ConnectionID, event string, payload any) {
	w, exist := d.rooms.Writer(connID)
	if !exist {
		return
	}
	d.write(w, event, payload)
}

func (d *Dispatcher) broadcast(roomID protocol.RoomID, event string, payload any) {
	for _, w := range d.rooms.Writers(roomID) {
		d.write(w, event, payload)
	}
}

func (d *Dispatcher) write(w MessageWriter, event string, payload any) {
	ev, err := newEvent(event, payload)
	if err != nil {
		d.logger.Error("unable marshal event", slog.String("event", event))
		return
	}
	if err := w.WriteJSON(ev); err != nil {
		d.logger.Error("write failed",
			slog.String("event", event),
			slog.String("error", err.Error()))
	}
}

type NewDispatcher_Params struct {
	fx.In

	RoomService *RoomService
	Provisioner provision.Provisioner
	Recorder    *history.Recorder
	Logger      *slog.Logger
}

func NewDispatcher(params NewDispatcher_Params) *Dispatcher {
	return &Dispatcher{
		rooms:       params.RoomService,
		provisioner: params.Provisioner,
		recorder:    params.Recorder,
		logger:      params.Logger,
	}
}
