package signaling

import (
	"log/slog"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/gs-shaykot/nex-server/pkg/protocol"
)

// MessageWriter is the outbound half of a signaling connection. Writers must
// be safe for concurrent use; wsutils.ThreadSafeWriter satisfies this.
type MessageWriter interface {
	WriteJSON(val interface{}) error
}

// Member is a connection's presence record inside one room.
type Member struct {
	ConnectionID string    `json:"socketId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Photo        string    `json:"photo"`
	JoinedAt     time.Time `json:"joinedAt"`
}

func newMember(connID protocol.ConnectionID, profile Profile) Member {
	return Member{
		ConnectionID: connID,
		Name:         profile.Name,
		Email:        profile.Email,
		Photo:        profile.Photo,
		JoinedAt:     time.Now(),
	}
}

// RoomService owns the room directory and the connection registry. All
// read-modify-write sequences on a room's member list happen under one lock;
// room sizes are small so coarse serialization is fine.
type RoomService struct {
	sync.Mutex

	logger *slog.Logger
	rooms  map[protocol.RoomID][]Member
	conns  map[protocol.ConnectionID]MessageWriter
}

// Connect registers a live connection's writer.
func (s *RoomService) Connect(connID protocol.ConnectionID, w MessageWriter) {
	s.Lock()
	defer s.Unlock()
	s.conns[connID] = w
}

// Disconnect drops the connection from the registry and removes its member
// entry from every room. It returns the ids of the rooms that changed so the
// dispatcher can re-broadcast their member lists. Calling it again for the
// same id is a no-op.
func (s *RoomService) Disconnect(connID protocol.ConnectionID) []protocol.RoomID {
	s.Lock()
	defer s.Unlock()

	delete(s.conns, connID)

	var affected []protocol.RoomID
	for roomID, members := range s.rooms {
		filtered := filterMember(members, connID)
		if len(filtered) == len(members) {
			continue
		}
		affected = append(affected, roomID)
		s.setMembersLocked(roomID, filtered)
	}
	return affected
}

// CreateRoom sets the room's member list to the single creator, overwriting
// any previous room under that id. Callers generate low-collision ids.
func (s *RoomService) CreateRoom(roomID protocol.RoomID, member Member) {
	s.Lock()
	defer s.Unlock()
	s.rooms[roomID] = []Member{member}
}

// JoinRoom appends the member, creating the room implicitly when it does not
// exist. A connection already present in the room has its profile refreshed
// instead of being listed twice.
func (s *RoomService) JoinRoom(roomID protocol.RoomID, member Member) {
	s.Lock()
	defer s.Unlock()

	members := s.rooms[roomID]
	for i, existing := range members {
		if existing.ConnectionID == member.ConnectionID {
			members[i] = member
			return
		}
	}
	s.rooms[roomID] = append(members, member)
}

// ListMembers returns a copy of the room's member list in join order, or an
// empty slice for an unknown room. Never an error.
func (s *RoomService) ListMembers(roomID protocol.RoomID) []Member {
	s.Lock()
	defer s.Unlock()
	return s.listMembersLocked(roomID)
}

func (s *RoomService) listMembersLocked(roomID protocol.RoomID) []Member {
	members := s.rooms[roomID]
	result := make([]Member, len(members))
	copy(result, members)
	return result
}

// RemoveMember drops the connection's entry from the room. Idempotent.
func (s *RoomService) RemoveMember(roomID protocol.RoomID, connID protocol.ConnectionID) {
	s.Lock()
	defer s.Unlock()

	members, exist := s.rooms[roomID]
	if !exist {
		return
	}
	s.setMembersLocked(roomID, filterMember(members, connID))
}

// Writer resolves a single connection's writer.
func (s *RoomService) Writer(connID protocol.ConnectionID) (MessageWriter, bool) {
	s.Lock()
	defer s.Unlock()
	w, exist := s.conns[connID]
	return w, exist
}

// Writers resolves the room's current members to their live writers.
func (s *RoomService) Writers(roomID protocol.RoomID) []MessageWriter {
	s.Lock()
	defer s.Unlock()

	var writers []MessageWriter
	for _, member := range s.rooms[roomID] {
		if w, exist := s.conns[member.ConnectionID]; exist {
			writers = append(writers, w)
		}
	}
	return writers
}

// setMembersLocked stores the filtered list and reclaims the room entry once
// it empties, so abandoned rooms do not accumulate.
func (s *RoomService) setMembersLocked(roomID protocol.RoomID, members []Member) {
	if len(members) == 0 {
		delete(s.rooms, roomID)
		return
	}
	s.rooms[roomID] = members
}

func filterMember(members []Member, connID protocol.ConnectionID) []Member {
	filtered := members[:0:0]
	for _, member := range members {
		if member.ConnectionID != connID {
			filtered = append(filtered, member)
		}
	}
	return filtered
}

type NewRoomService_Params struct {
	fx.In

	Logger *slog.Logger
}

func NewRoomService(params NewRoomService_Params) *RoomService {
	return &RoomService{
		logger: params.Logger,
		rooms:  make(map[protocol.RoomID][]Member),
		conns:  make(map[protocol.ConnectionID]MessageWriter),
	}
}
