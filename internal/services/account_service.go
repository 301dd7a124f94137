// Package services – AccountService
//
// This file implements the account security engine: registration, login with
// failed-attempt counting and temporary lockout, login-history auditing, and
// the password-reset code flow. Lockout expiry is lazy: no timer runs; the
// stored lockout end is compared against the clock at the next login attempt.
//
// Password hashing and token issuance are opaque capabilities injected via
// the auth package interfaces, so this engine never touches a crypto
// primitive directly.
package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-social-backend/internal/auth"
	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// ClientContext carries the opaque request metadata recorded per login attempt.
type ClientContext struct {
	IP        string
	UserAgent string
}

// Session is the result of a successful login. The token itself is opaque to
// this engine; ExpiresIn is seconds, mirroring the transport contract.
type Session struct {
	Token     string       `json:"access_token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int64        `json:"expires_in"`
	User      *domain.User `json:"user"`
}

// AccountService implements login verification, the lockout state machine,
// and password resets.
type AccountService struct {
	DB     *gorm.DB
	Hasher auth.Hasher
	Tokens auth.TokenIssuer

	// MaxFailedAttempts is the strike count that triggers a lockout.
	MaxFailedAttempts int
	// LockDuration is how long a triggered lockout lasts.
	LockDuration time.Duration
	// ResetCodeTTL is the validity window of a password-reset code.
	ResetCodeTTL time.Duration
	// AccessTokenTTL is the validity window of issued session tokens.
	AccessTokenTTL time.Duration

	// Now is the clock; tests override it to drive lockout expiry.
	Now func() time.Time
}

// NewAccountService constructs an AccountService with the documented defaults
// (5 strikes, 15 minute lockout, 15 minute reset codes, 24 hour sessions).
func NewAccountService(db *gorm.DB, hasher auth.Hasher, tokens auth.TokenIssuer) *AccountService {
	return &AccountService{
		DB:                db,
		Hasher:            hasher,
		Tokens:            tokens,
		MaxFailedAttempts: 5,
		LockDuration:      15 * time.Minute,
		ResetCodeTTL:      15 * time.Minute,
		AccessTokenTTL:    24 * time.Hour,
		Now:               time.Now,
	}
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates a new user with a hashed credential. Duplicate email or
// username yields ErrUserExists.
func (s *AccountService) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u, err := repo.CreateUser(ctx, s.DB, email, username, hash)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

// Login resolves identifier against email or username and runs the lockout
// state machine:
//
//	Unlocked --failed attempt--> Unlocked(count+1)
//	Unlocked(count reaches threshold) --> Locked(until now+LockDuration), count reset
//	Locked --window elapses--> Unlocked (evaluated lazily here, no timer)
//
// A locked account fails with ErrAccountLocked before credentials are even
// checked. Unknown identifiers and wrong passwords both fail with the generic
// ErrInvalidCredentials. Every attempt, including locked ones, appends one
// login-history row; that write runs detached and can never block or change
// the login decision.
func (s *AccountService) Login(ctx context.Context, identifier, password string, client ClientContext) (*Session, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Login",
		trace.WithAttributes(attribute.String("login.identifier", identifier)),
	)
	defer span.End()

	u, err := repo.GetUserByEmailOrUsername(ctx, s.DB, identifier)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if u.LockoutEndTime != nil && u.LockoutEndTime.After(now) {
		s.recordAttempt(u.Username, client, domain.LoginFailed)
		return nil, ErrAccountLocked
	}

	if !s.Hasher.Verify(password, u.Password) {
		if err := s.registerFailure(ctx, u.ID, now); err != nil {
			return nil, err
		}
		s.recordAttempt(u.Username, client, domain.LoginFailed)
		return nil, ErrInvalidCredentials
	}

	u.FailedLoginAttempts = 0
	u.LockoutEndTime = nil
	u.LastLogin = &now
	if err := repo.SaveUser(ctx, s.DB, u); err != nil {
		return nil, err
	}
	s.recordAttempt(u.Username, client, domain.LoginSuccess)

	token, err := s.Tokens.Issue(u.Email, u.ID, u.Username, s.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(s.AccessTokenTTL.Seconds()),
		User:      u,
	}, nil
}

// registerFailure bumps the strike counter inside one transaction; reaching
// the threshold arms the lockout and resets the counter to zero.
func (s *AccountService) registerFailure(ctx context.Context, userID string, now time.Time) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := repo.GetUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		u.FailedLoginAttempts++
		if u.FailedLoginAttempts >= s.MaxFailedAttempts {
			end := now.Add(s.LockDuration)
			u.LockoutEndTime = &end
			u.FailedLoginAttempts = 0
		}
		return repo.SaveUser(ctx, tx, u)
	})
}

// recordAttempt appends the audit row detached from the request: the login
// decision has already been made and an audit failure must not undo it.
func (s *AccountService) recordAttempt(username string, client ClientContext, status domain.LoginStatus) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.RecordLoginAttempt(ctx, s.DB, username, client.IP, client.UserAgent, status); err != nil {
			log.Warn().Err(err).Str("username", username).Msg("login history write failed")
		}
	}()
}

// RequestPasswordReset stores a fresh 6-digit code with an expiry and returns
// the message to transport to the user (transport itself is external).
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if isNotFound(err) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	code, err := generateResetCode()
	if err != nil {
		return "", err
	}
	expires := s.now().Add(s.ResetCodeTTL)
	u.ResetCode = &code
	u.ResetCodeExpiresAt = &expires
	if err := repo.SaveUser(ctx, s.DB, u); err != nil {
		return "", err
	}

	minutes := int(s.ResetCodeTTL.Minutes())
	return fmt.Sprintf("Password reset code: %s. It is valid for %d minutes.", code, minutes), nil
}

// ResetPassword verifies the stored code and swaps in the new credential,
// clearing the code and its expiry on success.
func (s *AccountService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}

	if u.ResetCode == nil || *u.ResetCode != code ||
		u.ResetCodeExpiresAt == nil || u.ResetCodeExpiresAt.Before(s.now()) {
		return ErrInvalidResetCode
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	u.ResetCode = nil
	u.ResetCodeExpiresAt = nil
	return repo.SaveUser(ctx, s.DB, u)
}

// generateResetCode draws a 6-digit numeric code from a cryptographically
// secure source.
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
