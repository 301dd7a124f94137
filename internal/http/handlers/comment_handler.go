// Comment HTTP handlers.
//
//   - POST /posts/{id}/comments   (add a root comment or a reply)
//   - GET  /posts/{id}/comments   (full thread tree, oldest first)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-social-backend/internal/services"
)

// CreateCommentRequest is the JSON payload for commenting on a post. A
// non-nil ParentCommentID makes the comment a reply; the parent must belong
// to the same post.
type CreateCommentRequest struct {
	Content         string  `json:"content" binding:"required"`
	ParentCommentID *string `json:"parent_comment_id,omitempty"`
}

// CreateComment appends a comment (or reply) by the authenticated user.
func (h *Handlers) CreateComment(c *gin.Context) {
	postID := c.Param("id")
	if _, err := uuid.Parse(postID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID")
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	if req.ParentCommentID != nil {
		if _, err := uuid.Parse(*req.ParentCommentID); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "parent_comment_id must be a UUID")
			return
		}
	}

	cm, err := h.comments.Create(c.Request.Context(), postID, userID(c), req.Content, req.ParentCommentID)
	if err != nil {
		switch err {
		case services.ErrEmptyContent:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		case services.ErrPostNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		case services.ErrCommentNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "parent comment not found")
		case services.ErrParentCommentMismatch:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "parent comment belongs to a different post")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, cm)
}

// ListCommentsResponse carries a post's comment thread. Roots are ordered
// oldest first and each node nests its replies.
type ListCommentsResponse struct {
	PostID   string                 `json:"post_id"`
	Comments []services.CommentNode `json:"comments"`
}

// ListComments returns the full comment tree for a post.
func (h *Handlers) ListComments(c *gin.Context) {
	postID := c.Param("id")
	if _, err := uuid.Parse(postID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID")
		return
	}

	tree, err := h.comments.ListTree(c.Request.Context(), postID)
	if err != nil {
		switch err {
		case services.ErrPostNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, ListCommentsResponse{PostID: postID, Comments: tree})
}
