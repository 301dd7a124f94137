package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/tbourn/go-social-backend/internal/domain"
)

func TestSendMessage_AndConversation(t *testing.T) {
	e := newTestEnv(t)
	_, adaTok := e.seedUser(t, "ada")
	bob, bobTok := e.seedUser(t, "bob")

	w := e.do(t, http.MethodPost, "/messages", adaTok, SendMessageRequest{ReceiverID: bob.ID, Content: "hey bob"})
	if w.Code != http.StatusCreated {
		t.Fatalf("send = %d, body %s", w.Code, w.Body.String())
	}
	var m domain.Message
	decode(t, w, &m)
	if m.ReceiverID != bob.ID || m.Content != "hey bob" || m.IsRead {
		t.Fatalf("unexpected message: %+v", m)
	}

	// The receiver sees the same conversation.
	aID := m.SenderID
	w = e.do(t, http.MethodGet, "/messages/conversations/"+aID, bobTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("conversation = %d", w.Code)
	}
	var conv struct {
		Messages []domain.Message `json:"messages"`
	}
	decode(t, w, &conv)
	if len(conv.Messages) != 1 || conv.Messages[0].ID != m.ID {
		t.Fatalf("unexpected conversation: %+v", conv.Messages)
	}
}

func TestSendMessage_WithAttachments(t *testing.T) {
	e := newTestEnv(t)
	_, adaTok := e.seedUser(t, "ada")
	bob, _ := e.seedUser(t, "bob")

	w := e.do(t, http.MethodPost, "/attachments", adaTok, CreateAttachmentRequest{URL: "https://cdn.example.com/cat.png"})
	if w.Code != http.StatusCreated {
		t.Fatalf("attachment = %d, body %s", w.Code, w.Body.String())
	}
	var a domain.Attachment
	decode(t, w, &a)
	if a.ID == "" || a.MessageID != nil {
		t.Fatalf("unexpected attachment: %+v", a)
	}

	// Attachments alone are enough; content may be empty.
	w = e.do(t, http.MethodPost, "/messages", adaTok, SendMessageRequest{ReceiverID: bob.ID, AttachmentIDs: []string{a.ID}})
	if w.Code != http.StatusCreated {
		t.Fatalf("send with attachment = %d, body %s", w.Code, w.Body.String())
	}
	var m domain.Message
	decode(t, w, &m)
	if len(m.Attachments) != 1 || m.Attachments[0].ID != a.ID {
		t.Fatalf("attachment not claimed: %+v", m)
	}
}

func TestSendMessage_Errors(t *testing.T) {
	e := newTestEnv(t)
	_, adaTok := e.seedUser(t, "ada")
	bob, _ := e.seedUser(t, "bob")

	// No content, no attachments
	if w := e.do(t, http.MethodPost, "/messages", adaTok, SendMessageRequest{ReceiverID: bob.ID}); w.Code != http.StatusBadRequest {
		t.Fatalf("empty message = %d, want 400", w.Code)
	}
	// Unknown receiver
	if w := e.do(t, http.MethodPost, "/messages", adaTok, SendMessageRequest{ReceiverID: uuid.NewString(), Content: "hi"}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown receiver = %d, want 404", w.Code)
	}
	// Malformed attachment id
	if w := e.do(t, http.MethodPost, "/messages", adaTok, SendMessageRequest{ReceiverID: bob.ID, Content: "hi", AttachmentIDs: []string{"nope"}}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad attachment id = %d, want 400", w.Code)
	}
}

func TestMarkMessageRead_ReceiverOnly(t *testing.T) {
	e := newTestEnv(t)
	_, adaTok := e.seedUser(t, "ada")
	bob, bobTok := e.seedUser(t, "bob")

	w := e.do(t, http.MethodPost, "/messages", adaTok, SendMessageRequest{ReceiverID: bob.ID, Content: "hey"})
	if w.Code != http.StatusCreated {
		t.Fatalf("send = %d", w.Code)
	}
	var m domain.Message
	decode(t, w, &m)

	// The sender's attempt is silently ignored.
	if w := e.do(t, http.MethodPost, "/messages/"+m.ID+"/read", adaTok, nil); w.Code != http.StatusNoContent {
		t.Fatalf("sender mark read = %d, want 204", w.Code)
	}
	var after domain.Message
	if err := e.db.First(&after, "id = ?", m.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.IsRead {
		t.Fatalf("sender's call must not mark the message read")
	}

	// The receiver's sticks.
	if w := e.do(t, http.MethodPost, "/messages/"+m.ID+"/read", bobTok, nil); w.Code != http.StatusNoContent {
		t.Fatalf("receiver mark read = %d, want 204", w.Code)
	}
	if err := e.db.First(&after, "id = ?", m.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !after.IsRead {
		t.Fatalf("receiver's call must mark the message read")
	}

	// Unknown message
	if w := e.do(t, http.MethodPost, "/messages/"+uuid.NewString()+"/read", bobTok, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown message = %d, want 404", w.Code)
	}
}
