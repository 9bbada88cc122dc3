package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatbook/internal/common"
	"github.com/dmitrijs2005/chatbook/internal/server/models"
	"github.com/dmitrijs2005/chatbook/internal/server/repositories/repomanager"
)

type MessageService struct {
	repos repomanager.RepositoryManager
}

func NewMessageService(m repomanager.RepositoryManager) *MessageService {
	return &MessageService{repos: m}
}

// Persist stores a message from sender to receiver with status sent.
// Either identity being unknown yields ErrorNotFound and nothing is stored;
// any other failure is wrapped in ErrPersistence.
func (s *MessageService) Persist(ctx context.Context, sender, receiver, content string) (*models.Message, error) {
	msg, err := s.repos.Messages().Create(ctx, &models.Message{
		Sender:   sender,
		Receiver: receiver,
		Content:  content,
		Status:   models.StatusSent,
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return msg, nil
}

// History returns the conversation between userA and userB, oldest first.
// Unknown identities produce an empty slice rather than an error.
func (s *MessageService) History(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	msgs, err := s.repos.Messages().Conversation(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("error loading conversation: %w", err)
	}
	return msgs, nil
}
