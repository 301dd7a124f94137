// Account HTTP handlers.
//
// This file exposes the credential endpoints:
//   - POST /auth/register         (create an account)
//   - POST /auth/login            (verify credentials, issue a session token)
//   - POST /auth/password/forgot  (request a password-reset code)
//   - POST /auth/password/reset   (redeem a reset code)
//   - GET  /me                    (authenticated identity echo)
//
// Login failures are deliberately uniform: unknown identifiers and wrong
// passwords both yield 401 invalid_credentials so the endpoint does not leak
// which accounts exist. A locked account yields 423 account_locked.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/services"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the JSON payload for logging in. Identifier matches either
// the account email or the username.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// ForgotPasswordRequest asks for a reset code to be generated.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest redeems a previously issued reset code.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// UserResponse is the public projection of an account. Credential and
// security fields never leave the server.
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Username: u.Username}
}

//
// Handlers
//

// Register creates a new account.
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email, username and password required")
		return
	}

	u, err := h.accounts.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		switch err {
		case services.ErrUserExists:
			fail(c, http.StatusConflict, ErrCodeConflict, "email or username already taken")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusCreated, toUserResponse(u))
}

// LoginResponse is the JSON envelope for a successful login.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

// Login verifies credentials and returns a bearer token. The account lockout
// rules are enforced by the service; this handler only translates outcomes.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identifier and password required")
		return
	}

	sess, err := h.accounts.Login(c.Request.Context(), req.Identifier, req.Password, clientContext(c))
	if err != nil {
		switch err {
		case services.ErrAccountLocked:
			fail(c, http.StatusLocked, ErrCodeAccountLocked, "account temporarily locked, try again later")
		case services.ErrInvalidCredentials:
			fail(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid credentials")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, LoginResponse{
		AccessToken: sess.Token,
		TokenType:   sess.TokenType,
		ExpiresIn:   sess.ExpiresIn,
		User:        toUserResponse(sess.User),
	})
}

// ForgotPassword issues a reset code. The response is identical whether or
// not the email maps to an account, so the endpoint cannot be used to probe
// for registered addresses.
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email required")
		return
	}

	msg, err := h.accounts.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		if err == services.ErrUserNotFound {
			// Same body as the success path.
			ok(c, http.StatusOK, gin.H{"message": "if the account exists, a reset code has been sent"})
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	middleware.LoggerFrom(c).Info().Str("email", req.Email).Msg("password reset requested")
	_ = msg // delivered out of band; never included in the response
	ok(c, http.StatusOK, gin.H{"message": "if the account exists, a reset code has been sent"})
}

// ResetPassword redeems a reset code and installs a new credential.
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email, code and new_password required")
		return
	}

	err := h.accounts.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		switch err {
		case services.ErrUserNotFound, services.ErrInvalidResetCode:
			fail(c, http.StatusBadRequest, ErrCodeInvalidResetCode, "invalid or expired reset code")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, gin.H{"message": "password updated"})
}

// Me returns the authenticated caller's identity as seen by the token.
func (h *Handlers) Me(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	username, _ := c.Get(middleware.CtxUsername)
	ok(c, http.StatusOK, gin.H{
		"id":       uid,
		"email":    userEmail(c),
		"username": username,
	})
}
