package domain

import "testing"

func TestTableNames(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"User", User{}.TableName(), "users"},
		{"Post", Post{}.TableName(), "posts"},
		{"FriendRequest", FriendRequest{}.TableName(), "friend_requests"},
		{"Friendship", Friendship{}.TableName(), "friendships"},
		{"Reaction", Reaction{}.TableName(), "reactions"},
		{"Comment", Comment{}.TableName(), "comments"},
		{"Message", Message{}.TableName(), "messages"},
		{"Attachment", Attachment{}.TableName(), "attachments"},
		{"LoginHistory", LoginHistory{}.TableName(), "login_history"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s.TableName() = %q, want %q", c.name, c.got, c.want)
		}
	}
}

func TestReactionKind_Valid(t *testing.T) {
	for _, k := range ReactionKinds {
		if !k.Valid() {
			t.Errorf("kind %q should be valid", k)
		}
	}
	for _, k := range []ReactionKind{"", "like", "DISLIKE", "LOVE "} {
		if k.Valid() {
			t.Errorf("kind %q should be invalid", k)
		}
	}
}

func TestReactionKinds_Closed(t *testing.T) {
	if len(ReactionKinds) != 6 {
		t.Fatalf("expected 6 reaction kinds, got %d", len(ReactionKinds))
	}
	seen := map[ReactionKind]bool{}
	for _, k := range ReactionKinds {
		if seen[k] {
			t.Fatalf("duplicate kind %q", k)
		}
		seen[k] = true
	}
}
