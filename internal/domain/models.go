// Package domain defines the persistence models for users, posts, friend
// relations, reactions, comments, and direct messages. These types are mapped
// with GORM and form the core data layer of the social backend.
package domain

import (
	"time"
)

// FriendRequestStatus is the lifecycle state of a friend request. PENDING is
// the only state from which transitions (or deletion, for cancel) are allowed;
// ACCEPTED and REJECTED are terminal.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "PENDING"
	FriendRequestAccepted FriendRequestStatus = "ACCEPTED"
	FriendRequestRejected FriendRequestStatus = "REJECTED"
)

// ReactionKind is one of the fixed set of emotional responses to a post.
type ReactionKind string

const (
	ReactionLike  ReactionKind = "LIKE"
	ReactionLove  ReactionKind = "LOVE"
	ReactionHaha  ReactionKind = "HAHA"
	ReactionWow   ReactionKind = "WOW"
	ReactionSad   ReactionKind = "SAD"
	ReactionAngry ReactionKind = "ANGRY"
)

// ReactionKinds enumerates every valid kind, in a stable order. Aggregate
// count maps are zero-initialized over this slice so that absent kinds report
// zero rather than being missing.
var ReactionKinds = []ReactionKind{
	ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry,
}

// Valid reports whether k is a member of the closed reaction set.
func (k ReactionKind) Valid() bool {
	switch k {
	case ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry:
		return true
	}
	return false
}

// LoginStatus is the outcome recorded per login attempt.
type LoginStatus string

const (
	LoginSuccess LoginStatus = "SUCCESS"
	LoginFailed  LoginStatus = "FAILED"
)

// User is the identity record plus its account-security sub-state. The
// identity store is the single owner of user truth; other entities reference
// users by ID only.
//
// Security sub-state:
//   - FailedLoginAttempts: consecutive failed logins since the last success.
//   - LockoutEndTime: when set and in the future, the account is temporarily
//     locked. Expiry is evaluated lazily at the next login attempt.
//   - ResetCode / ResetCodeExpiresAt: outstanding password-reset code, if any.
type User struct {
	ID                  string     `json:"id"         gorm:"type:char(36);primaryKey"`
	Email               string     `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Username            string     `json:"username"   gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	Password            string     `json:"-"          gorm:"type:varchar(255);not null"`
	AvatarURL           string     `json:"avatar_url" gorm:"type:varchar(512)"`
	Bio                 string     `json:"bio"        gorm:"type:text"`
	FailedLoginAttempts int        `json:"-"          gorm:"not null;default:0"`
	LockoutEndTime      *time.Time `json:"-"`
	ResetCode           *string    `json:"-"          gorm:"type:varchar(16)"`
	ResetCodeExpiresAt  *time.Time `json:"-"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Post is the minimal referent for reactions and comments. Feed assembly and
// post CRUD live outside this core; the row exists so ownership checks and
// counts have something to hang off.
type Post struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index:idx_user_posts"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string { return "posts" }

// FriendRequest records one user asking another for friendship.
//
// The unique index over (sender_id, receiver_id) does double duty: it closes
// the race between two concurrent identical requests, and it enforces the
// rule that any prior row for the exact ordered pair, whatever its status,
// blocks a new request. The reverse direction and the pending-in-either-
// direction rule are checked inside the sending transaction.
type FriendRequest struct {
	ID         string              `json:"id"          gorm:"type:char(36);primaryKey"`
	SenderID   string              `json:"sender_id"   gorm:"type:char(36);not null;uniqueIndex:ux_friend_requests_pair,priority:1"`
	ReceiverID string              `json:"receiver_id" gorm:"type:char(36);not null;uniqueIndex:ux_friend_requests_pair,priority:2;index:idx_requests_receiver"`
	Status     FriendRequestStatus `json:"status"      gorm:"type:varchar(16);not null;check:status IN ('PENDING','ACCEPTED','REJECTED')"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// TableName returns the database table name for FriendRequest.
func (FriendRequest) TableName() string { return "friend_requests" }

// Friendship is one directed edge of a symmetric relation. An accepted
// friendship is stored as two rows, (a,b) and (b,a); both must exist or
// neither. The engine self-heals the pair on accept and unfriend.
type Friendship struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"   gorm:"type:char(36);not null;uniqueIndex:ux_friendships_edge,priority:1"`
	FriendID  string    `json:"friend_id" gorm:"type:char(36);not null;uniqueIndex:ux_friendships_edge,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Friendship.
func (Friendship) TableName() string { return "friendships" }

// Reaction is a user's single emotional response to a post. The unique index
// over (post_id, user_id) guarantees at most one row per pair even under
// concurrent toggles; a different kind overwrites in place rather than
// inserting a second row.
type Reaction struct {
	ID        string       `json:"id"      gorm:"type:char(36);primaryKey"`
	PostID    string       `json:"post_id" gorm:"type:char(36);not null;uniqueIndex:ux_reactions_post_user,priority:1"`
	UserID    string       `json:"user_id" gorm:"type:char(36);not null;uniqueIndex:ux_reactions_post_user,priority:2"`
	Kind      ReactionKind `json:"kind"    gorm:"type:varchar(8);not null"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	// Post is the reacted-to post. Reactions are cascade-deleted with it.
	Post Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Reaction.
func (Reaction) TableName() string { return "reactions" }

// Comment is a node in a post's comment tree. Roots have no parent; children
// carry their parent's ID and must belong to the same post as the parent.
type Comment struct {
	ID              string    `json:"id"       gorm:"type:char(36);primaryKey"`
	PostID          string    `json:"post_id"  gorm:"type:char(36);not null;index:idx_post_comments,priority:1"`
	UserID          string    `json:"user_id"  gorm:"type:char(36);not null"`
	Content         string    `json:"content"  gorm:"type:text;not null"`
	ParentCommentID *string   `json:"parent_comment_id,omitempty" gorm:"type:char(36);index"`
	CreatedAt       time.Time `json:"created_at" gorm:"index:idx_post_comments,priority:2"`

	// Post is the commented post. Comments are cascade-deleted with it.
	Post Post `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// Message is a direct message between two users.
type Message struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	SenderID   string    `json:"sender_id"   gorm:"type:char(36);not null;index:idx_messages_sender"`
	ReceiverID string    `json:"receiver_id" gorm:"type:char(36);not null;index:idx_messages_receiver"`
	Content    string    `json:"content"     gorm:"type:text;not null"`
	IsRead     bool      `json:"is_read"     gorm:"not null;default:false"`
	SentAt     time.Time `json:"sent_at"     gorm:"index"`

	// Attachments are pre-uploaded files re-owned by this message on send.
	Attachments []Attachment `json:"attachments,omitempty" gorm:"foreignKey:MessageID;references:ID"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// AttachmentUsage tags what an uploaded file is attached to.
type AttachmentUsage string

const (
	AttachmentUnused  AttachmentUsage = "UNUSED"
	AttachmentMessage AttachmentUsage = "MESSAGE"
)

// Attachment is an uploaded file. Upload itself happens elsewhere; this core
// only re-tags unowned attachments onto a message at send time.
type Attachment struct {
	ID         string          `json:"id"          gorm:"type:char(36);primaryKey"`
	UploaderID string          `json:"uploader_id" gorm:"type:char(36);not null;index"`
	URL        string          `json:"url"         gorm:"type:varchar(512);not null"`
	MessageID  *string         `json:"message_id,omitempty" gorm:"type:char(36);index"`
	UsedFor    AttachmentUsage `json:"used_for"    gorm:"type:varchar(16);not null;default:'UNUSED'"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TableName returns the database table name for Attachment.
func (Attachment) TableName() string { return "attachments" }

// LoginHistory is one row per login attempt, success or failure. IP and
// user-agent are stored as opaque strings.
type LoginHistory struct {
	ID        string      `json:"id"         gorm:"type:char(36);primaryKey"`
	Username  string      `json:"username"   gorm:"type:varchar(64);not null;index"`
	IPAddress string      `json:"ip_address" gorm:"type:varchar(64)"`
	UserAgent string      `json:"user_agent" gorm:"type:varchar(512)"`
	Status    LoginStatus `json:"status"     gorm:"type:varchar(8);not null;check:status IN ('SUCCESS','FAILED')"`
	CreatedAt time.Time   `json:"created_at"`
}

// TableName returns the database table name for LoginHistory.
func (LoginHistory) TableName() string { return "login_history" }
