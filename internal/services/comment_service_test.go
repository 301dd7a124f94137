package services

import (
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-social-backend/internal/notify"
)

func newCommentService(t *testing.T) (*CommentService, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	return &CommentService{DB: newTestDB(t), Notifier: n}, n
}

func TestCreateComment_Validation(t *testing.T) {
	svc, _ := newCommentService(t)
	owner := seedUser(t, svc.DB, "owner")
	post := seedPost(t, svc.DB, owner.ID)

	if _, err := svc.Create(ctxb(), "missing", owner.ID, "hi", nil); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if _, err := svc.Create(ctxb(), post.ID, "missing", "hi", nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Create(ctxb(), post.ID, owner.ID, "   ", nil); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}

	missing := "missing-parent"
	if _, err := svc.Create(ctxb(), post.ID, owner.ID, "hi", &missing); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got %v", err)
	}
}

func TestCreateComment_ParentOnDifferentPost(t *testing.T) {
	svc, _ := newCommentService(t)
	owner := seedUser(t, svc.DB, "owner")
	postA := seedPost(t, svc.DB, owner.ID)
	postB := seedPost(t, svc.DB, owner.ID)

	parent, err := svc.Create(ctxb(), postA.ID, owner.ID, "root on A", nil)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	if _, err := svc.Create(ctxb(), postB.ID, owner.ID, "reply on B", &parent.ID); !errors.Is(err, ErrParentCommentMismatch) {
		t.Fatalf("expected ErrParentCommentMismatch, got %v", err)
	}
}

func TestCreateComment_NotifiesOwner(t *testing.T) {
	svc, n := newCommentService(t)
	owner := seedUser(t, svc.DB, "owner")
	commenter := seedUser(t, svc.DB, "carol")
	post := seedPost(t, svc.DB, owner.ID)

	c, err := svc.Create(ctxb(), post.ID, commenter.ID, "nice post", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got := n.sentTo(owner.Email, notify.EventComment)
	if len(got) != 1 {
		t.Fatalf("owner notifications = %d, want 1", len(got))
	}
	payload, ok := got[0].Event.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type %T", got[0].Event.Payload)
	}
	if payload["from_user"] != "carol" || payload["content"] != "nice post" || payload["comment_id"] != c.ID {
		t.Fatalf("payload = %+v", payload)
	}

	// Self-comment stays silent.
	if _, err := svc.Create(ctxb(), post.ID, owner.ID, "my own post", nil); err != nil {
		t.Fatalf("self comment: %v", err)
	}
	if got := n.sentTo(owner.Email, notify.EventComment); len(got) != 1 {
		t.Fatalf("owner notified of their own comment (%d events)", len(got))
	}
}

func TestListTree_RootAndReply(t *testing.T) {
	svc, _ := newCommentService(t)
	owner := seedUser(t, svc.DB, "owner")
	post := seedPost(t, svc.DB, owner.ID)

	c1, err := svc.Create(ctxb(), post.ID, owner.ID, "root", nil)
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	r1, err := svc.Create(ctxb(), post.ID, owner.ID, "reply", &c1.ID)
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}

	tree, err := svc.ListTree(ctxb(), post.ID)
	if err != nil {
		t.Fatalf("listTree: %v", err)
	}
	if len(tree) != 1 {
		t.Fatalf("roots = %d, want 1", len(tree))
	}
	if tree[0].ID != c1.ID {
		t.Fatalf("root id = %s, want %s", tree[0].ID, c1.ID)
	}
	if len(tree[0].Replies) != 1 || tree[0].Replies[0].ID != r1.ID {
		t.Fatalf("replies = %+v, want exactly %s", tree[0].Replies, r1.ID)
	}
}

func TestListTree_OrderedAscending(t *testing.T) {
	svc, _ := newCommentService(t)
	owner := seedUser(t, svc.DB, "owner")
	post := seedPost(t, svc.DB, owner.ID)

	first, _ := svc.Create(ctxb(), post.ID, owner.ID, "first", nil)
	time.Sleep(5 * time.Millisecond)
	second, _ := svc.Create(ctxb(), post.ID, owner.ID, "second", nil)
	time.Sleep(5 * time.Millisecond)
	replyA, _ := svc.Create(ctxb(), post.ID, owner.ID, "reply a", &first.ID)
	time.Sleep(5 * time.Millisecond)
	replyB, _ := svc.Create(ctxb(), post.ID, owner.ID, "reply b", &first.ID)

	tree, err := svc.ListTree(ctxb(), post.ID)
	if err != nil {
		t.Fatalf("listTree: %v", err)
	}
	if len(tree) != 2 || tree[0].ID != first.ID || tree[1].ID != second.ID {
		t.Fatalf("root order wrong: %+v", tree)
	}
	replies := tree[0].Replies
	if len(replies) != 2 || replies[0].ID != replyA.ID || replies[1].ID != replyB.ID {
		t.Fatalf("reply order wrong: %+v", replies)
	}
	if len(tree[1].Replies) != 0 {
		t.Fatalf("second root should have no replies: %+v", tree[1].Replies)
	}
}

func TestListTree_NestedDepth(t *testing.T) {
	svc, _ := newCommentService(t)
	owner := seedUser(t, svc.DB, "owner")
	post := seedPost(t, svc.DB, owner.ID)

	root, _ := svc.Create(ctxb(), post.ID, owner.ID, "root", nil)
	child, _ := svc.Create(ctxb(), post.ID, owner.ID, "child", &root.ID)
	grand, _ := svc.Create(ctxb(), post.ID, owner.ID, "grandchild", &child.ID)

	tree, err := svc.ListTree(ctxb(), post.ID)
	if err != nil {
		t.Fatalf("listTree: %v", err)
	}
	if len(tree) != 1 || len(tree[0].Replies) != 1 || len(tree[0].Replies[0].Replies) != 1 {
		t.Fatalf("tree shape wrong: %+v", tree)
	}
	if tree[0].Replies[0].Replies[0].ID != grand.ID {
		t.Fatal("grandchild not under child")
	}
}

func TestListTree_PostMissing(t *testing.T) {
	svc, _ := newCommentService(t)
	if _, err := svc.ListTree(ctxb(), "missing"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}
