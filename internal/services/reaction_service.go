// Package services – ReactionService
//
// This file implements the idempotent reaction-toggle protocol. A user holds
// at most one reaction per post; toggling the same kind removes it, a
// different kind overwrites in place, and no prior reaction creates one. The
// whole decision runs in a transaction keyed by the (post_id, user_id) unique
// index, so two concurrent toggles can never produce two rows. Counts are
// always re-read after the mutation, never cached.
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

// ToggleResult reports the post-mutation state of the caller's reaction.
// Kind is nil exactly when the toggle removed the reaction.
type ToggleResult struct {
	Liked      bool                 `json:"liked"`
	Kind       *domain.ReactionKind `json:"kind,omitempty"`
	TotalCount int64                `json:"total_count"`
}

// ReactionService implements the per-user-per-post reaction toggle.
type ReactionService struct {
	DB       *gorm.DB
	Notifier notify.Notifier
}

// Toggle applies one press of the reaction button:
//
//	no reaction            → create with kind, Liked=true
//	same kind present      → delete, Liked=false, Kind=nil
//	different kind present → overwrite kind in place, Liked=true
//
// After the transaction commits, the post owner gets a POST_REACTION
// notification whenever a reaction is present and the reactor is not the
// owner, and every branch broadcasts the fresh total to the post's topic.
func (s *ReactionService) Toggle(ctx context.Context, postID, userID string, kind domain.ReactionKind) (*ToggleResult, error) {
	tr := otel.Tracer("services/ReactionService")
	ctx, span := tr.Start(ctx, "Toggle",
		trace.WithAttributes(
			attribute.String("post.id", postID),
			attribute.String("user.id", userID),
			attribute.String("reaction.kind", string(kind)),
		),
	)
	defer span.End()

	if !kind.Valid() {
		return nil, ErrInvalidReactionKind
	}

	var (
		result   ToggleResult
		ownerID  string
		ownerKey string
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := repo.GetPost(ctx, tx, postID)
		if err != nil {
			if isNotFound(err) {
				return ErrPostNotFound
			}
			return err
		}
		ownerID = post.UserID
		if _, err := repo.GetUser(ctx, tx, userID); err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}
		if owner, err := repo.GetUser(ctx, tx, post.UserID); err == nil {
			ownerKey = owner.Email
		}

		existing, err := repo.GetReaction(tx, postID, userID)
		switch {
		case err != nil && isNotFound(err):
			if _, err := repo.CreateReaction(tx, postID, userID, kind); err != nil {
				if isDuplicate(err) {
					return ErrAlreadyReacted
				}
				return err
			}
			k := kind
			result.Liked = true
			result.Kind = &k

		case err != nil:
			return err

		case existing.Kind == kind:
			if err := repo.DeleteReaction(tx, existing.ID); err != nil {
				return err
			}
			result.Liked = false
			result.Kind = nil

		default:
			if err := repo.UpdateReactionKind(tx, existing.ID, kind); err != nil {
				return err
			}
			k := kind
			result.Liked = true
			result.Kind = &k
		}

		total, err := repo.CountReactions(tx, postID)
		if err != nil {
			return err
		}
		result.TotalCount = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Liked && userID != ownerID && ownerKey != "" {
		s.Notifier.SendToUser(ownerKey, notify.TopicNotifications, notify.Event{
			Type: notify.EventPostReaction,
			Payload: map[string]any{
				"post_id":      postID,
				"from_user_id": userID,
				"reaction":     *result.Kind,
			},
		})
	}
	s.Notifier.Broadcast(notify.PostReactionsTopic(postID), notify.Event{
		Type: notify.EventPostReaction,
		Payload: map[string]any{
			"post_id":     postID,
			"total_count": result.TotalCount,
		},
	})
	return &result, nil
}

// Counts returns the post's per-kind reaction counts, zero-initialized over
// the closed kind set.
func (s *ReactionService) Counts(ctx context.Context, postID string) (map[domain.ReactionKind]int64, error) {
	db := s.DB.WithContext(ctx)
	if _, err := repo.GetPost(ctx, db, postID); err != nil {
		if isNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return repo.CountReactionsByKind(db, postID)
}
