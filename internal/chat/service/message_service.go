package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"echochat/internal/chat/repository"
	"echochat/internal/dbmysql"
)

const maxTextLength = 2000

// MessageService is the persistence collaborator of the realtime layer. The
// relay calls Write and pushes only what Write already accepted; the polling
// read paths go through the List methods.
type MessageService interface {
	Write(ctx context.Context, senderID, receiverID uint64, text, mediaRef string) (*dbmysql.Message, error)
	ListConversation(ctx context.Context, userID, partnerID uint64) ([]*dbmysql.Message, error)
	ListConversations(ctx context.Context, userID uint64) ([]*repository.ConversationSummary, error)
}

type messageService struct {
	repo repository.MessageRepository
	log  *logrus.Logger
}

// Constructor used in DI/wire
func NewMessageService(repo repository.MessageRepository, log *logrus.Logger) MessageService {
	return &messageService{repo: repo, log: log}
}

// Write validates and persists a direct message, returning the durable
// record with its database-assigned id and timestamp.
func (s *messageService) Write(ctx context.Context, senderID, receiverID uint64, text, mediaRef string) (*dbmysql.Message, error) {
	if senderID == 0 {
		return nil, errors.New("sender ID cannot be empty")
	}
	if receiverID == 0 {
		return nil, errors.New("receiver ID cannot be empty")
	}
	if senderID == receiverID {
		return nil, errors.New("cannot send a message to yourself")
	}
	if text == "" && mediaRef == "" {
		return nil, errors.New("message content cannot be empty")
	}
	if len(text) > maxTextLength {
		return nil, errors.New("message text is too long")
	}

	msg := &dbmysql.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		MediaRef:   mediaRef,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Save(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// ListConversation returns the full ordered history with a partner and
// marks the partner's messages read, so the conversation-list unread counts
// reflect what the reader has actually fetched.
func (s *messageService) ListConversation(ctx context.Context, userID, partnerID uint64) ([]*dbmysql.Message, error) {
	if userID == 0 || partnerID == 0 {
		return nil, errors.New("user ID and partner ID are required")
	}

	messages, err := s.repo.ListBetween(ctx, userID, partnerID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkRead(ctx, userID, partnerID); err != nil {
		// The history itself is good; stale unread counts fix themselves
		// on the next fetch.
		s.log.WithFields(logrus.Fields{
			"user_id":    userID,
			"partner_id": partnerID,
		}).WithError(err).Warn("failed to mark conversation read")
	}

	return messages, nil
}

func (s *messageService) ListConversations(ctx context.Context, userID uint64) ([]*repository.ConversationSummary, error) {
	if userID == 0 {
		return nil, errors.New("user ID is required")
	}

	return s.repo.ListSummaries(ctx, userID)
}
