package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Store provides append and read access to the message history.
type Store struct {
	db *gorm.DB
}

type NewStore_Params struct {
	fx.In

	DB *gorm.DB
}

func NewStore(params NewStore_Params) *Store {
	return &Store{db: params.DB}
}

func (s *Store) Insert(ctx context.Context, msg *ChatMessage) error {
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ByRoom returns every message of a room in chronological order. An unknown
// room yields an empty slice.
func (s *Store) ByRoom(ctx context.Context, roomID string) ([]ChatMessage, error) {
	messages := make([]ChatMessage, 0)
	err := s.db.WithContext(ctx).
		Where("room = ?", roomID).
		Order("timestamp asc").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load room messages: %w", err)
	}
	return messages, nil
}

// Conversation groups one room's messages for a participant overview.
type Conversation struct {
	Room            string        `json:"room"`
	Messages        []ChatMessage `json:"messages"`
	LastMessageTime time.Time     `json:"lastMessageTime"`
}

// ConversationsByEmail collects every room the given email participated in,
// as sender or receiver, with the full message list per room. Conversations
// are ordered by their most recent message, newest first.
func (s *Store) ConversationsByEmail(ctx context.Context, email string) ([]Conversation, error) {
	var roomIDs []string
	err := s.db.WithContext(ctx).
		Model(&ChatMessage{}).
		Where("sender_email = ? OR receiver_email = ?", email, email).
		Distinct().
		Pluck("room", &roomIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find participant rooms: %w", err)
	}
	if len(roomIDs) == 0 {
		return []Conversation{}, nil
	}

	var messages []ChatMessage
	err = s.db.WithContext(ctx).
		Where("room IN ?", roomIDs).
		Order("timestamp asc").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}

	byRoom := make(map[string]*Conversation, len(roomIDs))
	for _, msg := range messages {
		conv, ok := byRoom[msg.Room]
		if !ok {
			conv = &Conversation{Room: msg.Room}
			byRoom[msg.Room] = conv
		}
		conv.Messages = append(conv.Messages, msg)
		if msg.Timestamp.After(conv.LastMessageTime) {
			conv.LastMessageTime = msg.Timestamp
		}
	}

	result := make([]Conversation, 0, len(byRoom))
	for _, conv := range byRoom {
		result = append(result, *conv)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastMessageTime.After(result[j].LastMessageTime)
	})
	return result, nil
}
