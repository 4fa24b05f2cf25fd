// Package domain defines the persistence models for chat history, votes and
// quota bookkeeping. These types are mapped with GORM and shared by the
// repository, quota and service layers.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Message roles accepted by the messages table.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Vote types accepted by the vote API.
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Chat represents a conversation owned by a user.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the chat owner; indexed for history listing.
//   - Title: human-readable chat title (auto-generated from the first prompt).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type Chat struct {
	ID        string         `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"   gorm:"type:varchar(64);not null;index:idx_user_chats"`
	Title     string         `json:"title"     gorm:"type:varchar(255);not null;default:'New chat'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"         gorm:"index"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// Message is a single utterance within a chat, authored by the user or the
// assistant.
type Message struct {
	ID        string         `json:"id"        gorm:"type:char(36);primaryKey"`
	ChatID    string         `json:"chat_id"   gorm:"type:char(36);not null;index:idx_chat_msgs,priority:1"`
	Role      string         `json:"role"      gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content   string         `json:"content"   gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_chat_msgs,priority:2"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"         gorm:"index"`

	// Chat is the parent conversation. Messages are cascade-deleted
	// if their chat is removed.
	Chat Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Vote is an up/down reaction on a chat message, keyed by (ChatID, MessageID).
//
// Count records how many times the pair was first voted on; changing the
// vote type later updates Type in place and leaves Count untouched.
// ChatID and MessageID are not foreign keys: votes may reference chats that
// live in an external store.
type Vote struct {
	ChatID    string    `json:"chatId"    gorm:"type:varchar(64);primaryKey"`
	MessageID string    `json:"messageId" gorm:"type:varchar(64);primaryKey"`
	Type      string    `json:"type"      gorm:"type:varchar(8);not null;check:type IN ('up','down')"`
	Count     int       `json:"count"     gorm:"not null;default:1"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the database table name for Vote.
func (Vote) TableName() string { return "votes" }

// Key returns the composite "chatId:messageId" identifier of the vote.
func (v Vote) Key() string { return VoteKey(v.ChatID, v.MessageID) }

// VoteKey builds the composite identifier used to address a vote.
func VoteKey(chatID, messageID string) string { return chatID + ":" + messageID }

// ValidVoteType reports whether t is one of the accepted vote types.
func ValidVoteType(t string) bool { return t == VoteUp || t == VoteDown }
