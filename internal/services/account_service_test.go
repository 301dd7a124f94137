package services

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/tbourn/go-social-backend/internal/auth"
	"github.com/tbourn/go-social-backend/internal/domain"
)

func newAccountService(t *testing.T) *AccountService {
	t.Helper()
	svc := NewAccountService(newTestDB(t), auth.BcryptHasher{Cost: 4}, auth.JWTIssuer{Secret: []byte("test")})
	return svc
}

func register(t *testing.T, svc *AccountService, username, password string) *domain.User {
	t.Helper()
	u, err := svc.Register(ctxb(), username+"@example.com", username, password)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newAccountService(t)
	register(t, svc, "alice", "pw")

	if _, err := svc.Register(ctxb(), "alice@example.com", "alice2", "pw"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := svc.Register(ctxb(), "other@example.com", "alice", "pw"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate username, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	svc := newAccountService(t)
	register(t, svc, "alice", "s3cret")

	// By email and by username alike.
	for _, ident := range []string{"alice@example.com", "alice"} {
		sess, err := svc.Login(ctxb(), ident, "s3cret", ClientContext{IP: "127.0.0.1", UserAgent: "test"})
		if err != nil {
			t.Fatalf("login as %q: %v", ident, err)
		}
		if sess.Token == "" || sess.TokenType != "Bearer" {
			t.Fatalf("bad session: %+v", sess)
		}
		if sess.ExpiresIn != int64((24 * time.Hour).Seconds()) {
			t.Fatalf("expires_in = %d", sess.ExpiresIn)
		}
		if sess.User.LastLogin == nil {
			t.Fatal("LastLogin not stamped")
		}
	}
}

func TestLogin_UnknownIdentifier(t *testing.T) {
	svc := newAccountService(t)
	if _, err := svc.Login(ctxb(), "ghost", "pw", ClientContext{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_WrongPasswordIncrementsCounter(t *testing.T) {
	svc := newAccountService(t)
	u := register(t, svc, "alice", "s3cret")

	if _, err := svc.Login(ctxb(), "alice", "wrong", ClientContext{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	var got domain.User
	if err := svc.DB.First(&got, "id = ?", u.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.FailedLoginAttempts != 1 {
		t.Fatalf("failed attempts = %d, want 1", got.FailedLoginAttempts)
	}
	if got.LockoutEndTime != nil {
		t.Fatal("lockout must not be armed below the threshold")
	}
}

// Three strikes with maxFailedAttempts=3 lock the account; even the correct
// password fails while the window is open; after it elapses the same
// credentials succeed and the counter is back to zero.
func TestLogin_LockoutLifecycle(t *testing.T) {
	svc := newAccountService(t)
	svc.MaxFailedAttempts = 3
	now := time.Now()
	svc.Now = func() time.Time { return now }
	u := register(t, svc, "alice", "s3cret")

	for i := 0; i < 3; i++ {
		if _, err := svc.Login(ctxb(), "alice", "wrong", ClientContext{}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	var locked domain.User
	if err := svc.DB.First(&locked, "id = ?", u.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if locked.LockoutEndTime == nil {
		t.Fatal("lockout not armed after threshold")
	}
	if locked.FailedLoginAttempts != 0 {
		t.Fatalf("counter = %d, want reset to 0 on lock", locked.FailedLoginAttempts)
	}

	// Correct password, but still inside the window.
	if _, err := svc.Login(ctxb(), "alice", "s3cret", ClientContext{}); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}

	// Lazy expiry: advance the clock past the window, no timer involved.
	now = now.Add(svc.LockDuration + time.Minute)
	sess, err := svc.Login(ctxb(), "alice", "s3cret", ClientContext{})
	if err != nil {
		t.Fatalf("login after lockout elapsed: %v", err)
	}
	if sess.User.FailedLoginAttempts != 0 {
		t.Fatalf("counter = %d after success, want 0", sess.User.FailedLoginAttempts)
	}
	if sess.User.LockoutEndTime != nil {
		t.Fatal("lockout not cleared after successful login")
	}
}

func TestLogin_RecordsHistory(t *testing.T) {
	svc := newAccountService(t)
	register(t, svc, "alice", "s3cret")

	if _, err := svc.Login(ctxb(), "alice", "wrong", ClientContext{IP: "10.0.0.1", UserAgent: "ua"}); err == nil {
		t.Fatal("expected failure")
	}
	if _, err := svc.Login(ctxb(), "alice", "s3cret", ClientContext{IP: "10.0.0.1", UserAgent: "ua"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	// History writes are detached from the login decision; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		var rows []domain.LoginHistory
		if err := svc.DB.Where("username = ?", "alice").Find(&rows).Error; err != nil {
			t.Fatalf("load history: %v", err)
		}
		var success, failed int
		for _, r := range rows {
			switch r.Status {
			case domain.LoginSuccess:
				success++
			case domain.LoginFailed:
				failed++
			}
			if r.IPAddress != "10.0.0.1" || r.UserAgent != "ua" {
				t.Fatalf("history row missing client context: %+v", r)
			}
		}
		if success == 1 && failed == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("history rows = %d success / %d failed, want 1/1", success, failed)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRequestPasswordReset_NotFound(t *testing.T) {
	svc := newAccountService(t)
	if _, err := svc.RequestPasswordReset(ctxb(), "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc := newAccountService(t)
	u := register(t, svc, "alice", "old-pw")

	msg, err := svc.RequestPasswordReset(ctxb(), "alice@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	code := regexp.MustCompile(`\d{6}`).FindString(msg)
	if code == "" {
		t.Fatalf("no 6-digit code in message %q", msg)
	}

	if err := svc.ResetPassword(ctxb(), "alice@example.com", "000000", "new-pw"); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("wrong code: expected ErrInvalidResetCode, got %v", err)
	}

	if err := svc.ResetPassword(ctxb(), "alice@example.com", code, "new-pw"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	var got domain.User
	if err := svc.DB.First(&got, "id = ?", u.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.ResetCode != nil || got.ResetCodeExpiresAt != nil {
		t.Fatal("reset code not cleared")
	}

	if _, err := svc.Login(ctxb(), "alice", "old-pw", ClientContext{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should no longer work, got %v", err)
	}
	if _, err := svc.Login(ctxb(), "alice", "new-pw", ClientContext{}); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
}

func TestResetPassword_ExpiredCode(t *testing.T) {
	svc := newAccountService(t)
	now := time.Now()
	svc.Now = func() time.Time { return now }
	register(t, svc, "alice", "pw")

	msg, err := svc.RequestPasswordReset(ctxb(), "alice@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	code := regexp.MustCompile(`\d{6}`).FindString(msg)

	now = now.Add(svc.ResetCodeTTL + time.Minute)
	if err := svc.ResetPassword(ctxb(), "alice@example.com", code, "new-pw"); !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("expected ErrInvalidResetCode for expired code, got %v", err)
	}
}
