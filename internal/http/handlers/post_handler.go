// Post and attachment HTTP handlers.
//
// Posts and attachment records are plain CRUD with no business rules, so
// these endpoints call the repository directly:
//   - POST /posts             (publish a post)
//   - GET  /posts/{id}        (fetch a post)
//   - POST /attachments       (register an uploaded file for a later message)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-social-backend/internal/repo"
)

// CreatePostRequest is the JSON payload for publishing a post.
type CreatePostRequest struct {
	Content string `json:"content" binding:"required,min=1,max=10000"`
}

// CreatePost publishes a post owned by the authenticated user.
func (h *Handlers) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	p, err := repo.CreatePost(c.Request.Context(), h.db, userID(c), content)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusCreated, p)
}

// GetPost fetches a single post by id.
func (h *Handlers) GetPost(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post id must be a UUID")
		return
	}

	p, err := repo.GetPost(c.Request.Context(), h.db, id)
	if err != nil {
		if err == repo.ErrNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "post not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// CreateAttachmentRequest registers an already-uploaded file by URL so a
// follow-up message can claim it.
type CreateAttachmentRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// CreateAttachment records an attachment owned by the caller. It stays in the
// UNUSED state until a sent message claims it.
func (h *Handlers) CreateAttachment(c *gin.Context) {
	var req CreateAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "url required")
		return
	}

	a, err := repo.CreateAttachment(c.Request.Context(), h.db, userID(c), req.URL)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusCreated, a)
}
