// Friend HTTP handlers.
//
// This file exposes the friend-request lifecycle:
//   - POST   /friends/requests                (send a request)
//   - GET    /friends/requests                (list pending incoming requests)
//   - DELETE /friends/requests/{id}           (sender cancels a pending request)
//   - POST   /friends/requests/{id}/accept    (receiver accepts)
//   - POST   /friends/requests/{id}/reject    (receiver rejects)
//   - GET    /friends                         (list established friendships)
//   - DELETE /friends/{userId}                (unfriend)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-social-backend/internal/services"
)

// SendFriendRequestRequest is the JSON payload for sending a friend request.
type SendFriendRequestRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required,uuid"`
}

// SendFriendRequest creates a pending request from the caller to the receiver.
func (h *Handlers) SendFriendRequest(c *gin.Context) {
	var req SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "receiver_id must be a UUID")
		return
	}

	fr, err := h.friends.SendRequest(c.Request.Context(), userID(c), req.ReceiverID)
	if err != nil {
		switch err {
		case services.ErrSelfFriendRequest:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot send a friend request to yourself")
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		case services.ErrAlreadyFriends:
			fail(c, http.StatusConflict, ErrCodeConflict, "already friends")
		case services.ErrRequestAlreadyExists:
			fail(c, http.StatusConflict, ErrCodeConflict, "a request between these users already exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, fr)
}

// ListPendingRequests returns the caller's pending incoming requests.
func (h *Handlers) ListPendingRequests(c *gin.Context) {
	items, err := h.friends.ListPendingRequests(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"requests": items})
}

// CancelFriendRequest lets the sender withdraw a still-pending request.
func (h *Handlers) CancelFriendRequest(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}

	err := h.friends.CancelRequest(c.Request.Context(), userID(c), id)
	if err != nil {
		switch err {
		case services.ErrRequestNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "friend request not found")
		case services.ErrNotRequestSender:
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the sender can cancel a request")
		case services.ErrRequestNotPending:
			fail(c, http.StatusConflict, ErrCodeConflict, "request is no longer pending")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// respondFriendRequest maps accept/reject onto the service call; the two
// routes share everything but the accept flag.
func (h *Handlers) respondFriendRequest(c *gin.Context, accept bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}

	err := h.friends.RespondRequest(c.Request.Context(), userID(c), id, accept)
	if err != nil {
		switch err {
		case services.ErrRequestNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "friend request not found")
		case services.ErrNotRequestReceiver:
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the receiver can respond to a request")
		case services.ErrRequestNotPending:
			fail(c, http.StatusConflict, ErrCodeConflict, "request is no longer pending")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// AcceptFriendRequest accepts a pending request addressed to the caller.
func (h *Handlers) AcceptFriendRequest(c *gin.Context) { h.respondFriendRequest(c, true) }

// RejectFriendRequest rejects a pending request addressed to the caller.
func (h *Handlers) RejectFriendRequest(c *gin.Context) { h.respondFriendRequest(c, false) }

// ListFriends returns the caller's established friendships.
func (h *Handlers) ListFriends(c *gin.Context) {
	items, err := h.friends.ListFriends(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"friends": items})
}

// Unfriend removes the friendship between the caller and another user. The
// operation is idempotent: removing a non-existent friendship succeeds.
func (h *Handlers) Unfriend(c *gin.Context) {
	other := c.Param("userId")
	if _, err := uuid.Parse(other); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a UUID")
		return
	}

	err := h.friends.Unfriend(c.Request.Context(), userID(c), other)
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
