package repository

import (
	"context"

	"gorm.io/gorm"

	"echochat/internal/dbmysql"
)

// ConversationSummary is the conversation-list projection: one row per
// partner with the latest message and how many of theirs are still unread.
type ConversationSummary struct {
	PartnerID   uint64           `json:"partner_id"`
	LastMessage *dbmysql.Message `json:"last_message"`
	UnreadCount int64            `json:"unread_count"`
}

type MessageRepository interface {
	Save(ctx context.Context, msg *dbmysql.Message) error
	ListBetween(ctx context.Context, userID, partnerID uint64) ([]*dbmysql.Message, error)
	MarkRead(ctx context.Context, readerID, partnerID uint64) error
	ListSummaries(ctx context.Context, userID uint64) ([]*ConversationSummary, error)
}

type messageRepo struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Save(ctx context.Context, msg *dbmysql.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListBetween returns the full history between two users, oldest first.
// Ties on created_at break on message_id so the order is stable.
func (r *messageRepo) ListBetween(ctx context.Context, userID, partnerID uint64) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, partnerID, partnerID, userID).
		Order("created_at ASC, message_id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *messageRepo) MarkRead(ctx context.Context, readerID, partnerID uint64) error {
	return r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", readerID, partnerID, false).
		Update("is_read", true).Error
}

// ListSummaries builds the conversation list from two grouped queries
// (latest message per partner, unread count per partner) so row counts stay
// proportional to the number of conversations, not the full history.
func (r *messageRepo) ListSummaries(ctx context.Context, userID uint64) ([]*ConversationSummary, error) {
	var latest []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Raw("SELECT m.* FROM `messages` m JOIN ("+
			"SELECT IF(sender_id = ?, receiver_id, sender_id) AS partner_id, MAX(message_id) AS max_id "+
			"FROM `messages` WHERE sender_id = ? OR receiver_id = ? GROUP BY partner_id"+
			") last ON m.message_id = last.max_id "+
			"ORDER BY m.created_at DESC, m.message_id DESC",
			userID, userID, userID).
		Scan(&latest).Error
	if err != nil {
		return nil, err
	}

	type unreadRow struct {
		SenderID uint64
		Unread   int64
	}
	var unread []unreadRow
	err = r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Select("sender_id, COUNT(*) AS unread").
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Group("sender_id").
		Scan(&unread).Error
	if err != nil {
		return nil, err
	}

	unreadByPartner := make(map[uint64]int64, len(unread))
	for _, row := range unread {
		unreadByPartner[row.SenderID] = row.Unread
	}

	summaries := make([]*ConversationSummary, 0, len(latest))
	for _, msg := range latest {
		partnerID := msg.SenderID
		if msg.SenderID == userID {
			partnerID = msg.ReceiverID
		}
		summaries = append(summaries, &ConversationSummary{
			PartnerID:   partnerID,
			LastMessage: msg,
			UnreadCount: unreadByPartner[partnerID],
		})
	}
	return summaries, nil
}
