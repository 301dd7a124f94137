// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Reaction
// model. These are intended to run inside the toggle transaction; the
// (post_id, user_id) unique index keeps concurrent toggles from producing a
// second row.
package repo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// GetReaction fetches the reaction of userID on postID, or ErrNotFound.
func GetReaction(db *gorm.DB, postID, userID string) (*domain.Reaction, error) {
	var r domain.Reaction
	err := db.Where("post_id = ? AND user_id = ?", postID, userID).First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReaction inserts a new reaction row.
func CreateReaction(db *gorm.DB, postID, userID string, kind domain.ReactionKind) (*domain.Reaction, error) {
	r := &domain.Reaction{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    userID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateReactionKind overwrites the kind of an existing reaction in place.
func UpdateReactionKind(db *gorm.DB, id string, kind domain.ReactionKind) error {
	res := db.Model(&domain.Reaction{}).Where("id = ?", id).Update("kind", kind)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteReaction removes a reaction row by ID.
func DeleteReaction(db *gorm.DB, id string) error {
	return db.Where("id = ?", id).Delete(&domain.Reaction{}).Error
}

// CountReactions returns the post's total reaction count, fresh from the
// table rather than any cached aggregate.
func CountReactions(db *gorm.DB, postID string) (int64, error) {
	var total int64
	err := db.Model(&domain.Reaction{}).Where("post_id = ?", postID).Count(&total).Error
	return total, err
}

// CountReactionsByKind returns per-kind counts for a post, zero-initialized
// over the closed kind set so every kind is present in the result.
func CountReactionsByKind(db *gorm.DB, postID string) (map[domain.ReactionKind]int64, error) {
	counts := make(map[domain.ReactionKind]int64, len(domain.ReactionKinds))
	for _, k := range domain.ReactionKinds {
		counts[k] = 0
	}

	var rows []struct {
		Kind domain.ReactionKind
		N    int64
	}
	err := db.Model(&domain.Reaction{}).
		Select("kind, COUNT(*) as n").
		Where("post_id = ?", postID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.Kind] = row.N
	}
	return counts, nil
}
