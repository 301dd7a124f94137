// Package services – FriendService
//
// This file implements the friendship engine: the friend-request lifecycle
// (send, cancel, respond) and the symmetric friendship relation it produces.
// A friendship is two directed rows that must co-exist; accept and unfriend
// self-heal the pair. All mutations run inside one transaction so the
// invariant checks and the writes cannot interleave with a concurrent
// identical operation; the unique indexes on friend_requests and friendships
// close the remaining races at the storage layer.
//
// Resending after a rejection is blocked: any prior row for the exact ordered
// (sender, receiver) pair, whatever its status, conflicts. There is no reset
// path short of the receiver never having received a request from that sender.
package services

import (
	"context"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/notify"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// FriendService implements the friend-request lifecycle and the symmetric
// friendship closure.
type FriendService struct {
	DB       *gorm.DB
	Notifier notify.Notifier
}

// SendRequest creates a PENDING request from senderID to receiverID.
//
// Failure modes, in check order: self-request (ErrSelfFriendRequest),
// missing user (ErrUserNotFound), existing friendship in either direction
// (ErrAlreadyFriends), pending request in either direction or any prior row
// for the ordered pair (ErrRequestAlreadyExists). A constraint violation
// racing past the in-transaction checks maps to ErrRequestAlreadyExists too.
func (s *FriendService) SendRequest(ctx context.Context, senderID, receiverID string) (*domain.FriendRequest, error) {
	tr := otel.Tracer("services/FriendService")
	ctx, span := tr.Start(ctx, "SendRequest",
		trace.WithAttributes(
			attribute.String("friend.sender_id", senderID),
			attribute.String("friend.receiver_id", receiverID),
		),
	)
	defer span.End()

	if senderID == receiverID {
		return nil, ErrSelfFriendRequest
	}

	var created *domain.FriendRequest
	var receiverKey string
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

		friends, err := friendsEitherDirection(tx, senderID, receiverID)
		if err != nil {
			return err
		}
		if friends {
			return ErrAlreadyFriends
		}

		pending, err := repo.PendingRequestExists(tx, senderID, receiverID)
		if err != nil {
			return err
		}
		if pending {
			return ErrRequestAlreadyExists
		}

		prior, err := repo.RequestExists(tx, senderID, receiverID)
		if err != nil {
			return err
		}
		if prior {
			return ErrRequestAlreadyExists
		}

		fr, err := repo.CreateFriendRequest(tx, senderID, receiverID)
		if err != nil {
			if isDuplicate(err) {
				return ErrRequestAlreadyExists
			}
			return err
		}
		created = fr
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.SendToUser(receiverKey, notify.TopicNotifications, notify.Event{
		Type: notify.EventFriendRequest,
		Payload: map[string]any{
			"request_id":   created.ID,
			"from_user_id": senderID,
		},
	})
	return created, nil
}

// CancelRequest deletes a PENDING request. Only the original sender may
// cancel; cancellation removes the row rather than transitioning it, which
// is what reopens the path for a future request between the pair.
func (s *FriendService) CancelRequest(ctx context.Context, callerID, requestID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fr, err := repo.GetFriendRequest(ctx, tx, requestID)
		if err != nil {
			if isNotFound(err) {
				return ErrRequestNotFound
			}
			return err
		}
		if fr.SenderID != callerID {
			return ErrNotRequestSender
		}
		if fr.Status != domain.FriendRequestPending {
			return ErrRequestNotPending
		}
		return repo.DeleteFriendRequest(tx, requestID)
	})
}

// RespondRequest accepts or rejects a PENDING request. Only the receiver may
// respond. Accepting moves the request to ACCEPTED and idempotently ensures
// both directed friendship rows exist; rejecting moves it to REJECTED and
// creates nothing. Both terminal states are immutable afterwards.
func (s *FriendService) RespondRequest(ctx context.Context, callerID, requestID string, accept bool) error {
	var senderKey string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fr, err := repo.GetFriendRequest(ctx, tx, requestID)
		if err != nil {
			if isNotFound(err) {
				return ErrRequestNotFound
			}
			return err
		}
		if fr.ReceiverID != callerID {
			return ErrNotRequestReceiver
		}
		if fr.Status != domain.FriendRequestPending {
			return ErrRequestNotPending
		}

		if !accept {
			return repo.UpdateFriendRequestStatus(tx, requestID, domain.FriendRequestRejected)
		}

		if err := repo.UpdateFriendRequestStatus(tx, requestID, domain.FriendRequestAccepted); err != nil {
			return err
		}
		if err := repo.CreateFriendshipIfAbsent(tx, fr.SenderID, fr.ReceiverID); err != nil {
			return err
		}
		if err := repo.CreateFriendshipIfAbsent(tx, fr.ReceiverID, fr.SenderID); err != nil {
			return err
		}

		sender, err := repo.GetUser(ctx, tx, fr.SenderID)
		if err == nil {
			senderKey = sender.Email
		}
		return nil
	})
	if err != nil {
		return err
	}

	if accept && senderKey != "" {
		s.Notifier.SendToUser(senderKey, notify.TopicNotifications, notify.Event{
			Type: notify.EventFriendAccepted,
			Payload: map[string]any{
				"request_id": requestID,
				"by_user_id": callerID,
			},
		})
	}
	return nil
}

// Unfriend removes both directed rows of a friendship. Equal IDs are a no-op;
// absent rows are not an error, so repeating the call is harmless.
func (s *FriendService) Unfriend(ctx context.Context, userID, otherID string) error {
	if userID == otherID {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetUser(ctx, tx, userID); err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}
		if _, err := repo.GetUser(ctx, tx, otherID); err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}
		if err := repo.DeleteFriendship(tx, userID, otherID); err != nil {
			return err
		}
		return repo.DeleteFriendship(tx, otherID, userID)
	})
}

// ListFriends returns the outgoing friendship edges of userID.
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]domain.Friendship, error) {
	if _, err := repo.GetUser(ctx, s.DB, userID); err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return repo.ListFriendships(ctx, s.DB, userID)
}

// ListPendingRequests returns the PENDING requests addressed to userID.
func (s *FriendService) ListPendingRequests(ctx context.Context, userID string) ([]domain.FriendRequest, error) {
	if _, err := repo.GetUser(ctx, s.DB, userID); err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return repo.ListPendingRequests(ctx, s.DB, userID)
}

// AreFriends reports whether a friendship exists between a and b, checking
// both directions. With the pair invariant intact the directions agree; the
// either-direction check keeps the answer symmetric even mid-heal.
func (s *FriendService) AreFriends(ctx context.Context, a, b string) (bool, error) {
	return friendsEitherDirection(s.DB.WithContext(ctx), a, b)
}

func friendsEitherDirection(db *gorm.DB, a, b string) (bool, error) {
	ab, err := repo.FriendshipExists(db, a, b)
	if err != nil {
		return false, err
	}
	if ab {
		return true, nil
	}
	return repo.FriendshipExists(db, b, a)
}
