// Handler wiring for the public API.
//
// Handlers are transport-thin: they validate and normalize inputs, call
// application services, and translate results into HTTP responses. Business
// rules live in the services package; handlers only map its sentinel errors
// onto status codes.
package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/notify"
	"github.com/tbourn/go-social-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AccountService defines registration, login, and password-reset operations
// consumed by HTTP handlers. Implementations must be safe for concurrent use
// and honor the provided context.
type AccountService interface {
	Register(ctx context.Context, email, username, password string) (*domain.User, error)
	Login(ctx context.Context, identifier, password string, client services.ClientContext) (*services.Session, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// FriendService defines the friend-request lifecycle operations.
type FriendService interface {
	SendRequest(ctx context.Context, senderID, receiverID string) (*domain.FriendRequest, error)
	CancelRequest(ctx context.Context, callerID, requestID string) error
	RespondRequest(ctx context.Context, callerID, requestID string, accept bool) error
	Unfriend(ctx context.Context, userID, otherID string) error
	ListFriends(ctx context.Context, userID string) ([]domain.Friendship, error)
	ListPendingRequests(ctx context.Context, userID string) ([]domain.FriendRequest, error)
}

// ReactionService defines the reaction toggle and aggregation operations.
type ReactionService interface {
	Toggle(ctx context.Context, postID, userID string, kind domain.ReactionKind) (*services.ToggleResult, error)
	Counts(ctx context.Context, postID string) (map[domain.ReactionKind]int64, error)
}

// CommentService defines threaded comment operations.
type CommentService interface {
	Create(ctx context.Context, postID, userID, content string, parentID *string) (*domain.Comment, error)
	ListTree(ctx context.Context, postID string) ([]services.CommentNode, error)
}

// MessageService defines direct-messaging operations.
type MessageService interface {
	Send(ctx context.Context, senderID, receiverID, content string, attachmentIDs []string) (*domain.Message, error)
	Conversation(ctx context.Context, a, b string) ([]domain.Message, error)
	MarkRead(ctx context.Context, messageID, callerID string) error
}

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic; the
// *gorm.DB is used directly only for the thin post and attachment endpoints
// that have no service of their own.
type Handlers struct {
	db       *gorm.DB
	accounts AccountService
	friends  FriendService
	react    ReactionService
	comments CommentService
	messages MessageService
	hub      *notify.Hub
}

// New constructs a Handlers instance bound to the given dependencies.
func New(db *gorm.DB, accounts AccountService, friends FriendService, react ReactionService, comments CommentService, messages MessageService, hub *notify.Hub) *Handlers {
	return &Handlers{
		db:       db,
		accounts: accounts,
		friends:  friends,
		react:    react,
		comments: comments,
		messages: messages,
		hub:      hub,
	}
}

// userID extracts the authenticated user id placed in the Gin context by the
// auth middleware. An empty result means the route was mounted without
// RequireAuth, which is a wiring bug; handlers treat it as unauthorized.
func userID(c *gin.Context) string {
	if v, ok := c.Get(middleware.CtxUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// userEmail extracts the authenticated user's email (the token subject).
// Notification queues are keyed by it.
func userEmail(c *gin.Context) string {
	if v, ok := c.Get(middleware.CtxUserEmail); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// clientContext captures the request metadata recorded per login attempt.
func clientContext(c *gin.Context) services.ClientContext {
	return services.ClientContext{
		IP:        c.ClientIP(),
		UserAgent: strings.TrimSpace(c.Request.UserAgent()),
	}
}
