// Package services – MessageService
//
// This file implements direct messaging: send with optional attachment
// re-owning, bidirectional conversation retrieval, and read marking.
//
// markAsRead deliberately ignores calls from anyone but the receiver instead
// of failing, so the caller cannot probe who received a message by the shape of
// the error. That is looser than the Forbidden style used elsewhere; the
// tests pin the behavior down.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/notify"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// MessageService implements the direct-messaging engine.
type MessageService struct {
	DB       *gorm.DB
	Notifier notify.Notifier
}

// Send creates a message from senderID to receiverID and re-owns each
// referenced attachment to it (attachments are pre-uploaded and otherwise
// unowned). The receiver gets a NEW_MESSAGE notification after commit.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, content string, attachmentIDs []string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("message.sender_id", senderID),
			attribute.String("message.receiver_id", receiverID),
			attribute.Int("message.attachments", len(attachmentIDs)),
		),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" && len(attachmentIDs) == 0 {
		return nil, ErrEmptyContent
	}

	var (
		created     *domain.Message
		receiverKey string
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetUser(ctx, tx, senderID); err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}
		receiver, err := repo.GetUser(ctx, tx, receiverID)
		if err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}
		receiverKey = receiver.Email

		created, err = repo.CreateMessage(tx, senderID, receiverID, content)
		if err != nil {
			return err
		}
		if err := repo.ClaimAttachments(tx, attachmentIDs, created.ID); err != nil {
			return err
		}
		if len(attachmentIDs) > 0 {
			created.Attachments, err = repo.ListAttachments(tx, created.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.SendToUser(receiverKey, notify.TopicMessages, notify.Event{
		Type: notify.EventNewMessage,
		Payload: map[string]any{
			"message_id":   created.ID,
			"from_user_id": senderID,
		},
	})
	return created, nil
}

// Conversation returns every message between a and b, in either direction,
// ordered by send time ascending.
func (s *MessageService) Conversation(ctx context.Context, a, b string) ([]domain.Message, error) {
	for _, id := range []string{a, b} {
		if _, err := repo.GetUser(ctx, s.DB, id); err != nil {
			if isNotFound(err) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
	}
	return repo.ListConversation(ctx, s.DB, a, b)
}

// MarkRead marks a message read on behalf of callerID. A missing message is
// ErrMessageNotFound; a caller who is not the receiver is silently ignored.
func (s *MessageService) MarkRead(ctx context.Context, messageID, callerID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.GetMessage(tx, messageID)
		if err != nil {
			if isNotFound(err) {
				return ErrMessageNotFound
			}
			return err
		}
		if m.ReceiverID != callerID {
			return nil
		}
		return repo.MarkMessageRead(tx, messageID)
	})
}
