package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/notify"
)

func TestCreatePost_AndGet(t *testing.T) {
	e := newTestEnv(t)
	ada, adaTok := e.seedUser(t, "ada")

	w := e.do(t, http.MethodPost, "/posts", adaTok, CreatePostRequest{Content: "first!"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", w.Code, w.Body.String())
	}
	var p domain.Post
	decode(t, w, &p)
	if p.UserID != ada.ID || p.Content != "first!" {
		t.Fatalf("unexpected post: %+v", p)
	}

	w = e.do(t, http.MethodGet, "/posts/"+p.ID, adaTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	var got domain.Post
	decode(t, w, &got)
	if got.ID != p.ID {
		t.Fatalf("got = %+v", got)
	}
}

func TestCreatePost_Validation(t *testing.T) {
	e := newTestEnv(t)
	_, adaTok := e.seedUser(t, "ada")

	if w := e.do(t, http.MethodPost, "/posts", adaTok, CreatePostRequest{Content: ""}); w.Code != http.StatusBadRequest {
		t.Fatalf("empty content = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/posts", adaTok, CreatePostRequest{Content: "   "}); w.Code != http.StatusBadRequest {
		t.Fatalf("blank content = %d, want 400", w.Code)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	e := newTestEnv(t)
	_, adaTok := e.seedUser(t, "ada")

	if w := e.do(t, http.MethodGet, "/posts/"+uuid.NewString(), adaTok, nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing post = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/posts/not-a-uuid", adaTok, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id = %d, want 400", w.Code)
	}
}

func TestWriteSSE_Frame(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ev := notify.Event{Type: notify.EventComment, Topic: notify.TopicNotifications, Payload: map[string]any{"comment_id": "c1"}}
	if !writeSSE(c.Writer, ev) {
		t.Fatalf("writeSSE reported a dead connection")
	}

	out := w.Body.String()
	if !strings.HasPrefix(out, "event: COMMENT\n") {
		t.Fatalf("missing event line: %q", out)
	}
	if !strings.Contains(out, `"comment_id":"c1"`) || !strings.HasSuffix(out, "\n\n") {
		t.Fatalf("malformed frame: %q", out)
	}
}

func TestStreamPostIDs_Parses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func(query string) (*gin.Context, *httptest.ResponseRecorder) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/notifications/stream"+query, nil)
		return c, w
	}

	a, b := uuid.NewString(), uuid.NewString()

	c, _ := newCtx("?posts=" + a + "," + b)
	ids, ok := streamPostIDs(c)
	if !ok || len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Fatalf("ids = %v, ok = %v", ids, ok)
	}

	c, _ = newCtx("")
	if ids, ok := streamPostIDs(c); !ok || ids != nil {
		t.Fatalf("empty parameter should yield no topics, got %v", ids)
	}

	c, w := newCtx("?posts=not-a-uuid")
	if _, ok := streamPostIDs(c); ok {
		t.Fatalf("expected rejection of malformed id")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}

	many := make([]string, 0, maxStreamPosts+1)
	for i := 0; i < maxStreamPosts+1; i++ {
		many = append(many, uuid.NewString())
	}
	c, w = newCtx("?posts=" + strings.Join(many, ","))
	if _, ok := streamPostIDs(c); ok {
		t.Fatalf("expected rejection above the topic cap")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
