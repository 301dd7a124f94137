// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// and Attachment models.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateMessage inserts a new direct message row.
func CreateMessage(db *gorm.DB, senderID, receiverID, content string) (*domain.Message, error) {
	m := &domain.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		SentAt:     time.Now().UTC(),
	}
	if err := db.Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetMessage fetches a message by ID, or ErrNotFound if missing.
func GetMessage(db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkMessageRead flips is_read on a message row.
func MarkMessageRead(db *gorm.DB, id string) error {
	return db.Model(&domain.Message{}).Where("id = ?", id).Update("is_read", true).Error
}

// ListConversation returns every message exchanged between a and b in either
// direction, ordered (SentAt ASC, ID ASC) in one bidirectional query, not two
// per-direction lists.
func ListConversation(ctx context.Context, db *gorm.DB, a, b string) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("sent_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CreateAttachment inserts an unowned attachment row (pre-upload step,
// exercised by tests and the upload collaborator).
func CreateAttachment(ctx context.Context, db *gorm.DB, uploaderID, url string) (*domain.Attachment, error) {
	a := &domain.Attachment{
		ID:         uuid.NewString(),
		UploaderID: uploaderID,
		URL:        url,
		UsedFor:    domain.AttachmentUnused,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// ClaimAttachments re-owns the given attachment rows to messageID and tags
// them as message attachments. IDs that do not match any row are skipped.
func ClaimAttachments(db *gorm.DB, ids []string, messageID string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Model(&domain.Attachment{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"message_id": messageID,
			"used_for":   domain.AttachmentMessage,
		}).Error
}

// ListAttachments returns the attachments owned by a message.
func ListAttachments(db *gorm.DB, messageID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	err := db.Where("message_id = ?", messageID).Order("created_at asc").Find(&out).Error
	return out, err
}
