// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// compression, authentication, and rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/auth"
	"github.com/tbourn/go-social-backend/internal/config"
	"github.com/tbourn/go-social-backend/internal/http/handlers"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/notify"
	"github.com/tbourn/go-social-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip (SSE and /metrics excluded)
//  8. CORS
//
// The credential endpoints additionally carry an IP-keyed token-bucket rate
// limiter; everything else behind /api requires a valid bearer token and is
// throttled per authenticated user.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, hub *notify.Hub, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	streamPath := cfg.APIBasePath + "/notifications/stream"

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{streamPath, "/metrics"})))

	// CORS posture: allow all when no allowlist is configured.
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← db/auth/hub
	tokens := &auth.JWTIssuer{Secret: []byte(cfg.Auth.JWTSecret)}
	accounts := services.NewAccountService(db, auth.BcryptHasher{}, tokens)
	accounts.MaxFailedAttempts = cfg.Auth.MaxFailedAttempts
	accounts.LockDuration = cfg.Auth.LockDuration
	accounts.ResetCodeTTL = cfg.Auth.ResetCodeTTL
	accounts.AccessTokenTTL = cfg.Auth.AccessTokenTTL

	friends := &services.FriendService{DB: db, Notifier: hub}
	reactions := &services.ReactionService{DB: db, Notifier: hub}
	comments := &services.CommentService{DB: db, Notifier: hub}
	messages := &services.MessageService{DB: db, Notifier: hub}

	h := handlers.New(db, accounts, friends, reactions, comments, messages, hub)

	api := groupWithPrefix(r, cfg.APIBasePath)

	// Credential endpoints: public, IP rate-limited.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	creds := api.Group("/auth", rl.Handler())
	{
		creds.POST("/register", h.Register)
		creds.POST("/login", h.Login)
		creds.POST("/password/forgot", h.ForgotPassword)
		creds.POST("/password/reset", h.ResetPassword)
	}

	// Everything else requires a valid bearer token and is throttled per user.
	// The user-or-IP key resolves after RequireAuth has set the identity.
	apiRl := middleware.NewRateLimiter(cfg.APIRateRPS, cfg.APIRateBurst, middleware.KeyByUserOrIP())
	authed := api.Group("", middleware.RequireAuth(tokens), apiRl.Handler())
	{
		authed.GET("/me", h.Me)

		// Posts
		authed.POST("/posts", h.CreatePost)
		authed.GET("/posts/:id", h.GetPost)

		// Reactions
		authed.POST("/posts/:id/reactions", h.ToggleReaction)
		authed.GET("/posts/:id/reactions", h.ReactionCounts)

		// Comments
		authed.POST("/posts/:id/comments", h.CreateComment)
		authed.GET("/posts/:id/comments", h.ListComments)

		// Friends
		authed.POST("/friends/requests", h.SendFriendRequest)
		authed.GET("/friends/requests", h.ListPendingRequests)
		authed.DELETE("/friends/requests/:id", h.CancelFriendRequest)
		authed.POST("/friends/requests/:id/accept", h.AcceptFriendRequest)
		authed.POST("/friends/requests/:id/reject", h.RejectFriendRequest)
		authed.GET("/friends", h.ListFriends)
		authed.DELETE("/friends/:userId", h.Unfriend)

		// Direct messages and attachments
		authed.POST("/messages", h.SendMessage)
		authed.GET("/messages/conversations/:userId", h.Conversation)
		authed.POST("/messages/:id/read", h.MarkMessageRead)
		authed.POST("/attachments", h.CreateAttachment)

		// Live notifications
		authed.GET("/notifications/stream", h.StreamNotifications)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
