package handlers

import (
	"net/http"
	"strings"
	"testing"
)

func TestRegister_CreatesAccount(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "correct-horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d, body %s", w.Code, w.Body.String())
	}
	var u UserResponse
	decode(t, w, &u)
	if u.ID == "" || u.Email != "ada@example.com" || u.Username != "ada" {
		t.Fatalf("unexpected user: %+v", u)
	}
	// Security fields must never appear in the response.
	for _, leak := range []string{"password", "failed_login", "reset_code"} {
		if strings.Contains(w.Body.String(), leak) {
			t.Fatalf("response leaks %q: %s", leak, w.Body.String())
		}
	}
}

func TestRegister_Validation(t *testing.T) {
	e := newTestEnv(t)

	cases := []struct {
		name string
		body RegisterRequest
	}{
		{"missing email", RegisterRequest{Username: "ada", Password: "correct-horse"}},
		{"bad email", RegisterRequest{Email: "nope", Username: "ada", Password: "correct-horse"}},
		{"short password", RegisterRequest{Email: "a@example.com", Username: "ada", Password: "short"}},
		{"short username", RegisterRequest{Email: "a@example.com", Username: "ab", Password: "correct-horse"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/auth/register", "", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("register = %d, want 400", w.Code)
			}
		})
	}
}

func TestRegister_DuplicateConflicts(t *testing.T) {
	e := newTestEnv(t)

	body := RegisterRequest{Email: "ada@example.com", Username: "ada", Password: "correct-horse"}
	if w := e.do(t, http.MethodPost, "/auth/register", "", body); w.Code != http.StatusCreated {
		t.Fatalf("first register = %d", w.Code)
	}
	w := e.do(t, http.MethodPost, "/auth/register", "", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register = %d, want 409", w.Code)
	}
	var er ErrorResponse
	decode(t, w, &er)
	if er.Code != ErrCodeConflict {
		t.Fatalf("code = %q", er.Code)
	}
}

func TestLogin_IssuesUsableToken(t *testing.T) {
	e := newTestEnv(t)

	reg := RegisterRequest{Email: "ada@example.com", Username: "ada", Password: "correct-horse"}
	if w := e.do(t, http.MethodPost, "/auth/register", "", reg); w.Code != http.StatusCreated {
		t.Fatalf("register = %d", w.Code)
	}

	w := e.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Identifier: "ada", Password: "correct-horse"})
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d, body %s", w.Code, w.Body.String())
	}
	var lr LoginResponse
	decode(t, w, &lr)
	if lr.AccessToken == "" || lr.TokenType != "Bearer" || lr.ExpiresIn != 86400 {
		t.Fatalf("unexpected session: %+v", lr)
	}

	// The issued token must pass the auth middleware.
	w2 := e.do(t, http.MethodGet, "/me", lr.AccessToken, nil)
	if w2.Code != http.StatusOK {
		t.Fatalf("GET /me with issued token = %d", w2.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newTestEnv(t)

	reg := RegisterRequest{Email: "ada@example.com", Username: "ada", Password: "correct-horse"}
	if w := e.do(t, http.MethodPost, "/auth/register", "", reg); w.Code != http.StatusCreated {
		t.Fatalf("register = %d", w.Code)
	}

	w := e.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Identifier: "ada", Password: "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login = %d, want 401", w.Code)
	}
	var er ErrorResponse
	decode(t, w, &er)
	if er.Code != ErrCodeInvalidCredentials {
		t.Fatalf("code = %q", er.Code)
	}
}

func TestLogin_LockedAccountGets423(t *testing.T) {
	e := newTestEnv(t)

	reg := RegisterRequest{Email: "ada@example.com", Username: "ada", Password: "correct-horse"}
	if w := e.do(t, http.MethodPost, "/auth/register", "", reg); w.Code != http.StatusCreated {
		t.Fatalf("register = %d", w.Code)
	}

	// Five wrong passwords arm the lockout at the default threshold.
	for i := 0; i < 5; i++ {
		if w := e.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Identifier: "ada", Password: "wrong"}); w.Code != http.StatusUnauthorized {
			t.Fatalf("strike %d = %d, want 401", i+1, w.Code)
		}
	}

	// Even the correct password is refused while locked.
	w := e.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Identifier: "ada", Password: "correct-horse"})
	if w.Code != http.StatusLocked {
		t.Fatalf("login while locked = %d, want 423", w.Code)
	}
	var er ErrorResponse
	decode(t, w, &er)
	if er.Code != ErrCodeAccountLocked {
		t.Fatalf("code = %q", er.Code)
	}
}

func TestForgotPassword_UniformResponse(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "ada")

	known := e.do(t, http.MethodPost, "/auth/password/forgot", "", ForgotPasswordRequest{Email: "ada@example.com"})
	unknown := e.do(t, http.MethodPost, "/auth/password/forgot", "", ForgotPasswordRequest{Email: "ghost@example.com"})

	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("codes = %d/%d, want 200/200", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Fatalf("responses differ between known and unknown accounts:\n%s\n%s",
			known.Body.String(), unknown.Body.String())
	}
}

func TestResetPassword_InvalidCode(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "ada")

	w := e.do(t, http.MethodPost, "/auth/password/reset", "", ResetPasswordRequest{
		Email:       "ada@example.com",
		Code:        "000000",
		NewPassword: "a-new-password",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("reset = %d, want 400", w.Code)
	}
	var er ErrorResponse
	decode(t, w, &er)
	if er.Code != ErrCodeInvalidResetCode {
		t.Fatalf("code = %q", er.Code)
	}
}
