// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Comment model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateComment inserts a comment row, optionally parented.
func CreateComment(db *gorm.DB, postID, userID, content string, parentID *string) (*domain.Comment, error) {
	c := &domain.Comment{
		ID:              uuid.NewString(),
		PostID:          postID,
		UserID:          userID,
		Content:         content,
		ParentCommentID: parentID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetComment fetches a comment by ID, or ErrNotFound if missing.
func GetComment(db *gorm.DB, id string) (*domain.Comment, error) {
	var c domain.Comment
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCommentsByPost returns every comment of a post, roots and children
// alike, ordered (CreatedAt ASC, ID ASC) so siblings come out oldest first.
// Tree assembly happens in the service layer from this single scan.
func ListCommentsByPost(ctx context.Context, db *gorm.DB, postID string) ([]domain.Comment, error) {
	var out []domain.Comment
	err := db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
