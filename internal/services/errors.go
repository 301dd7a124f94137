// Package services implements the social-interaction engines: account
// security, friendship, reactions, comments, and messaging. This file
// centralizes the service-level error values so that they can be consistently
// returned by engine methods and checked by callers with errors.Is.
//
// These errors are expected, recoverable-by-caller conditions; none are
// fatal to the process. Translation into user-facing messages or HTTP status
// codes is performed at the handler layer.
package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/repo"
)

// Entity existence.
var (
	// ErrUserNotFound indicates a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrPostNotFound indicates a referenced post does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrRequestNotFound indicates the friend request does not exist.
	ErrRequestNotFound = errors.New("friend request not found")

	// ErrCommentNotFound indicates a referenced (parent) comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrMessageNotFound indicates the message does not exist.
	ErrMessageNotFound = errors.New("message not found")
)

// Uniqueness and business-rule conflicts.
var (
	// ErrUserExists is returned when the email or username is already taken.
	ErrUserExists = errors.New("email or username already in use")

	// ErrAlreadyFriends is returned when a request targets an existing friendship.
	ErrAlreadyFriends = errors.New("users are already friends")

	// ErrRequestAlreadyExists is returned when a pending request exists between
	// the pair in either direction, or any prior request row exists for the
	// exact ordered pair regardless of status.
	ErrRequestAlreadyExists = errors.New("friend request already exists")

	// ErrAlreadyReacted is returned when a concurrent toggle already recorded
	// a reaction for the same (post, user) pair. The caller may retry.
	ErrAlreadyReacted = errors.New("reaction already recorded")
)

// Authorization.
var (
	// ErrNotRequestSender is returned when someone other than the original
	// sender tries to cancel a friend request.
	ErrNotRequestSender = errors.New("only the sender can cancel this request")

	// ErrNotRequestReceiver is returned when someone other than the receiver
	// tries to respond to a friend request.
	ErrNotRequestReceiver = errors.New("only the receiver can respond to this request")
)

// State machine and input validation.
var (
	// ErrSelfFriendRequest is returned for a friend request to oneself.
	ErrSelfFriendRequest = errors.New("cannot send a friend request to yourself")

	// ErrRequestNotPending is returned when a cancel or respond targets a
	// request that already reached a terminal state.
	ErrRequestNotPending = errors.New("request is not pending")

	// ErrInvalidReactionKind is returned for a kind outside the closed set.
	ErrInvalidReactionKind = errors.New("invalid reaction kind")

	// ErrParentCommentMismatch is returned when a parent comment belongs to
	// a different post than the reply.
	ErrParentCommentMismatch = errors.New("parent comment belongs to a different post")

	// ErrEmptyContent is returned when a comment or message has no content.
	ErrEmptyContent = errors.New("content is empty")
)

// Authentication. Messages stay generic to avoid account enumeration.
var (
	// ErrInvalidCredentials covers unknown identifiers and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountLocked is returned while a temporary lockout is in effect.
	ErrAccountLocked = errors.New("account temporarily locked, try again later")

	// ErrInvalidResetCode is returned when a reset code is absent, wrong, or expired.
	ErrInvalidResetCode = errors.New("invalid or expired reset code")
)

// isNotFound treats repo-level not found sentinels as "not found" in a
// driver-agnostic way. It also checks gorm.ErrRecordNotFound for safety.
func isNotFound(err error) bool {
	if errors.Is(err, repo.ErrNotFound) {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
