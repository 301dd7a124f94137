// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User and
// LoginHistory models.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported in db.go as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// CreateUser inserts a new user row. Email and username uniqueness is
// enforced by the DB indexes; a violation surfaces as the raw gorm error for
// the service layer to map.
func CreateUser(ctx context.Context, db *gorm.DB, email, username, passwordHash string) (*domain.User, error) {
	u := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  username,
		Password:  passwordHash,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user by ID, or ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by exact email, or ErrNotFound if missing.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmailOrUsername resolves a login identifier against either the
// email or the username column.
func GetUserByEmailOrUsername(ctx context.Context, db *gorm.DB, identifier string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("email = ? OR username = ?", identifier, identifier).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SaveUser persists every field of u, including cleared (nil) security state.
func SaveUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return db.WithContext(ctx).Save(u).Error
}

// RecordLoginAttempt appends one login-history row. Callers treat failures as
// non-fatal; an audit write must never decide a login.
func RecordLoginAttempt(ctx context.Context, db *gorm.DB, username, ip, userAgent string, status domain.LoginStatus) error {
	h := &domain.LoginHistory{
		ID:        uuid.NewString(),
		Username:  username,
		IPAddress: ip,
		UserAgent: userAgent,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(h).Error
}

// CreatePost inserts a minimal post row. Post authoring proper lives outside
// this core; reactions and comments need a referent to exist.
func CreatePost(ctx context.Context, db *gorm.DB, userID, content string) (*domain.Post, error) {
	p := &domain.Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPost fetches a post by ID, or ErrNotFound if missing.
func GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.Post, error) {
	var p domain.Post
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
