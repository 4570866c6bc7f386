package history

import (
	"time"
)

// ChatMessage is the durable record of one relayed chat message. The JSON
// shape must stay in sync with what the web client reads back from the
// history endpoints.
type ChatMessage struct {
	ID            string    `gorm:"primarykey;size:36" json:"id"`
	Room          string    `gorm:"size:64;index;not null" json:"room"`
	Message       string    `gorm:"size:4000;not null" json:"message"`
	SenderName    string    `gorm:"size:120" json:"senderName"`
	SenderEmail   string    `gorm:"size:254;index" json:"senderEmail"`
	ReceiverName  string    `gorm:"size:120" json:"receiverName"`
	ReceiverEmail string    `gorm:"size:254;index" json:"receiverEmail"`
	Photo         string    `gorm:"size:500" json:"photo"`
	Timestamp     time.Time `gorm:"index" json:"timestamp"`
}

func (ChatMessage) TableName() string {
	return "messages"
}
