// Direct-message HTTP handlers.
//
//   - POST /messages                         (send a message, optionally with attachments)
//   - GET  /messages/conversations/{userId}  (full two-way conversation, oldest first)
//   - POST /messages/{id}/read               (receiver marks a message read)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-social-backend/internal/services"
)

// SendMessageRequest is the JSON payload for sending a direct message.
// Content may be empty when at least one attachment id is supplied.
type SendMessageRequest struct {
	ReceiverID    string   `json:"receiver_id" binding:"required,uuid"`
	Content       string   `json:"content"`
	AttachmentIDs []string `json:"attachment_ids,omitempty"`
}

// SendMessage delivers a message from the caller to the receiver and claims
// any referenced attachments.
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "receiver_id must be a UUID")
		return
	}
	for _, id := range req.AttachmentIDs {
		if _, err := uuid.Parse(id); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "attachment ids must be UUIDs")
			return
		}
	}

	m, err := h.messages.Send(c.Request.Context(), userID(c), req.ReceiverID, req.Content, req.AttachmentIDs)
	if err != nil {
		switch err {
		case services.ErrEmptyContent:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content or attachments required")
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, m)
}

// Conversation returns the full two-way history between the caller and another
// user, oldest first.
func (h *Handlers) Conversation(c *gin.Context) {
	other := c.Param("userId")
	if _, err := uuid.Parse(other); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a UUID")
		return
	}

	items, err := h.messages.Conversation(c.Request.Context(), userID(c), other)
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, gin.H{"messages": items})
}

// MarkMessageRead flags a message as read. Only the receiver's call has any
// effect; anyone else's is silently ignored, so the endpoint always returns
// 204 for an existing message.
func (h *Handlers) MarkMessageRead(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message id must be a UUID")
		return
	}

	err := h.messages.MarkRead(c.Request.Context(), id, userID(c))
	if err != nil {
		switch err {
		case services.ErrMessageNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
