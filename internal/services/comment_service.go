// Package services – CommentService
//
// This file implements threaded comments. Writes validate that the post
// exists and that a reply's parent belongs to the same post. Reads return the
// tree: one scan of the post's comments builds an arena keyed by ID plus a
// parent→children index, and the tree is materialized from the roots. No
// mutable child lists on the persisted model, so cycles cannot form through
// ownership.
package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/notify"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// CommentNode is one node of the materialized comment tree. Replies are
// ordered by creation time ascending, recursively.
type CommentNode struct {
	domain.Comment
	Replies []CommentNode `json:"replies"`
}

// CommentService implements comment creation and tree listing.
type CommentService struct {
	DB       *gorm.DB
	Notifier notify.Notifier
}

// Create persists a comment on postID, optionally as a reply to parentID.
// The parent must exist and belong to the same post. If the post owner is
// not the commenter, a COMMENT notification carrying the commenter's name
// and the comment text goes to the owner after commit.
func (s *CommentService) Create(ctx context.Context, postID, userID, content string, parentID *string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	var (
		created       *domain.Comment
		ownerID       string
		ownerKey      string
		commenterName string
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

		commenter, err := repo.GetUser(ctx, tx, userID)
		if err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}
		commenterName = commenter.Username

		if parentID != nil {
			parent, err := repo.GetComment(tx, *parentID)
			if err != nil {
				if isNotFound(err) {
					return ErrCommentNotFound
				}
				return err
			}
			if parent.PostID != postID {
				return ErrParentCommentMismatch
			}
		}

		if owner, err := repo.GetUser(ctx, tx, post.UserID); err == nil {
			ownerKey = owner.Email
		}

		created, err = repo.CreateComment(tx, postID, userID, content, parentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if userID != ownerID && ownerKey != "" {
		s.Notifier.SendToUser(ownerKey, notify.TopicNotifications, notify.Event{
			Type: notify.EventComment,
			Payload: map[string]any{
				"post_id":    postID,
				"comment_id": created.ID,
				"from_user":  commenterName,
				"content":    created.Content,
			},
		})
	}
	return created, nil
}

// ListTree returns the root comments of a post, oldest first, each
// recursively populated with its replies in the same order. Depth is
// unbounded but practically small.
func (s *CommentService) ListTree(ctx context.Context, postID string) ([]CommentNode, error) {
	db := s.DB.WithContext(ctx)
	if _, err := repo.GetPost(ctx, db, postID); err != nil {
		if isNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	comments, err := repo.ListCommentsByPost(ctx, db, postID)
	if err != nil {
		return nil, err
	}

	// The scan is already ordered, so the children index preserves sibling
	// order and the roots come out oldest first.
	children := make(map[string][]domain.Comment)
	var roots []domain.Comment
	for _, c := range comments {
		if c.ParentCommentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentCommentID] = append(children[*c.ParentCommentID], c)
	}

	out := make([]CommentNode, 0, len(roots))
	for _, r := range roots {
		out = append(out, materialize(r, children))
	}
	return out, nil
}

func materialize(c domain.Comment, children map[string][]domain.Comment) CommentNode {
	node := CommentNode{Comment: c, Replies: []CommentNode{}}
	for _, child := range children[c.ID] {
		node.Replies = append(node.Replies, materialize(child, children))
	}
	return node
}
