// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// FriendRequest and Friendship models.
//
// Friendship is a symmetric closure stored as two directed rows; the
// functions here operate on single directed edges and leave pairing to the
// service layer. Existence checks and inserts are meant to run inside one
// transaction together with the unique indexes declared on the models, so a
// racing duplicate surfaces as a constraint violation rather than a second
// row.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateFriendRequest inserts a PENDING request row for the ordered pair
// (senderID, receiverID). A duplicate ordered pair violates
// ux_friend_requests_pair and surfaces as the raw gorm error.
func CreateFriendRequest(db *gorm.DB, senderID, receiverID string) (*domain.FriendRequest, error) {
	fr := &domain.FriendRequest{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     domain.FriendRequestPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.Create(fr).Error; err != nil {
		return nil, err
	}
	return fr, nil
}

// GetFriendRequest fetches a request by ID, or ErrNotFound if missing.
func GetFriendRequest(ctx context.Context, db *gorm.DB, id string) (*domain.FriendRequest, error) {
	var fr domain.FriendRequest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&fr).Error; err != nil {
		return nil, err
	}
	return &fr, nil
}

// DeleteFriendRequest removes a request row. Cancellation is destructive,
// not a status transition.
func DeleteFriendRequest(db *gorm.DB, id string) error {
	return db.Where("id = ?", id).Delete(&domain.FriendRequest{}).Error
}

// UpdateFriendRequestStatus moves a request into a terminal state.
func UpdateFriendRequestStatus(db *gorm.DB, id string, status domain.FriendRequestStatus) error {
	res := db.Model(&domain.FriendRequest{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PendingRequestExists reports whether a PENDING request exists between a and
// b in either direction.
func PendingRequestExists(db *gorm.DB, a, b string) (bool, error) {
	var n int64
	err := db.Model(&domain.FriendRequest{}).
		Where("status = ?", domain.FriendRequestPending).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Count(&n).Error
	return n > 0, err
}

// RequestExists reports whether any row exists for the exact ordered pair
// (senderID, receiverID), regardless of status.
func RequestExists(db *gorm.DB, senderID, receiverID string) (bool, error) {
	var n int64
	err := db.Model(&domain.FriendRequest{}).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Count(&n).Error
	return n > 0, err
}

// ListPendingRequests returns the PENDING requests addressed to receiverID,
// oldest first.
func ListPendingRequests(ctx context.Context, db *gorm.DB, receiverID string) ([]domain.FriendRequest, error) {
	var out []domain.FriendRequest
	err := db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", receiverID, domain.FriendRequestPending).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// FriendshipExists reports whether the directed edge (userID → friendID) exists.
func FriendshipExists(db *gorm.DB, userID, friendID string) (bool, error) {
	var n int64
	err := db.Model(&domain.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&n).Error
	return n > 0, err
}

// CreateFriendshipIfAbsent inserts the directed edge (userID → friendID) if
// it is not already present. Absence of a conflict and presence of the row
// are both success; accept must be idempotent.
func CreateFriendshipIfAbsent(db *gorm.DB, userID, friendID string) error {
	exists, err := FriendshipExists(db, userID, friendID)
	if err != nil || exists {
		return err
	}
	f := &domain.Friendship{
		ID:        uuid.NewString(),
		UserID:    userID,
		FriendID:  friendID,
		CreatedAt: time.Now().UTC(),
	}
	return db.Create(f).Error
}

// DeleteFriendship removes the directed edge (userID → friendID) if present.
// Deleting a missing edge is not an error.
func DeleteFriendship(db *gorm.DB, userID, friendID string) error {
	return db.Where("user_id = ? AND friend_id = ?", userID, friendID).
		Delete(&domain.Friendship{}).Error
}

// ListFriendships returns the outgoing edges of userID, oldest first.
func ListFriendships(ctx context.Context, db *gorm.DB, userID string) ([]domain.Friendship, error) {
	var out []domain.Friendship
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
