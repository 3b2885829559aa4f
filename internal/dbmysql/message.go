package dbmysql

import (
	"time"
)

// Message is the durable direct-message record. The realtime layer never
// writes this table directly; every row goes through the chat service, and
// the socket push only ever carries rows the database already accepted.
type Message struct {
	MessageID  uint64    `gorm:"primaryKey;column:message_id;autoIncrement" json:"message_id"`
	SenderID   uint64    `gorm:"column:sender_id;not null;index:idx_pair" json:"sender_id"`
	ReceiverID uint64    `gorm:"column:receiver_id;not null;index:idx_pair" json:"receiver_id"`
	Text       string    `gorm:"column:text;type:text" json:"text"`
	MediaRef   string    `gorm:"column:media_ref;size:255" json:"media_ref,omitempty"`
	Read       bool      `gorm:"column:is_read;default:false;index" json:"read"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}
