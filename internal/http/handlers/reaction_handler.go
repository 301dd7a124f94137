// Reaction HTTP handlers.
//
//   - POST /posts/{id}/reactions   (toggle the caller's reaction)
//   - GET  /posts/{id}/reactions   (per-kind counts)
//
// The toggle endpoint is state-dependent: the same request body can create,
// remove, or overwrite a reaction depending on what the caller already has on
// the post. The response reports the resulting state.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/services"
)

// ToggleReactionRequest is the JSON payload for toggling a reaction.
type ToggleReactionRequest struct {
	Kind string `json:"kind" binding:"required"`
}

// ToggleReaction applies the toggle rules for the caller on a post.
func (h *Handlers) ToggleReaction(c *gin.Context) {
	postID := c.Param("id")
	if _, err := uuid.Parse(postID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID")
		return
	}

	var req ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kind required")
		return
	}

	res, err := h.react.Toggle(c.Request.Context(), postID, userID(c), domain.ReactionKind(req.Kind))
	if err != nil {
		switch err {
		case services.ErrInvalidReactionKind:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown reaction kind")
		case services.ErrPostNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, res)
}

// ReactionCountsResponse carries per-kind totals for a post. Every kind is
// present, zero included.
type ReactionCountsResponse struct {
	PostID string                        `json:"post_id"`
	Counts map[domain.ReactionKind]int64 `json:"counts"`
}

// ReactionCounts returns the per-kind reaction totals for a post.
func (h *Handlers) ReactionCounts(c *gin.Context) {
	postID := c.Param("id")
	if _, err := uuid.Parse(postID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID")
		return
	}

	counts, err := h.react.Counts(c.Request.Context(), postID)
	if err != nil {
		switch err {
		case services.ErrPostNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, ReactionCountsResponse{PostID: postID, Counts: counts})
}
