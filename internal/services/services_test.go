package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/notify"
	"github.com/tbourn/go-social-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:socialsvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:       uuid.NewString(),
		Email:    username + "@example.com",
		Username: username,
		Password: "x",
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func seedPost(t *testing.T, db *gorm.DB, ownerID string) *domain.Post {
	t.Helper()
	p := &domain.Post{
		ID:      uuid.NewString(),
		UserID:  ownerID,
		Content: "hello world",
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return p
}

// sentEvent is one captured SendToUser call.
type sentEvent struct {
	UserKey string
	Topic   string
	Event   notify.Event
}

// recordingNotifier captures fan-out calls so tests can assert on them
// without a live hub.
type recordingNotifier struct {
	mu         sync.Mutex
	sent       []sentEvent
	broadcasts []notify.Event
}

func (r *recordingNotifier) SendToUser(userKey, topic string, ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.Topic = topic
	r.sent = append(r.sent, sentEvent{UserKey: userKey, Topic: topic, Event: ev})
}

func (r *recordingNotifier) Broadcast(topic string, ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.Topic = topic
	r.broadcasts = append(r.broadcasts, ev)
}

func (r *recordingNotifier) sentTo(userKey, eventType string) []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentEvent
	for _, s := range r.sent {
		if s.UserKey == userKey && s.Event.Type == eventType {
			out = append(out, s)
		}
	}
	return out
}

func ctxb() context.Context { return context.Background() }
