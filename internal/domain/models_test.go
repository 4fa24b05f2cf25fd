package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Chat{}).TableName():        "chats",
		(Message{}).TableName():     "messages",
		(Vote{}).TableName():        "votes",
		(UsageRecord{}).TableName(): "usage_records",
		(UsageEvent{}).TableName():  "usage_events",
		(Idempotency{}).TableName(): "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestVoteKeyAndType(t *testing.T) {
	v := Vote{ChatID: "c1", MessageID: "m1"}
	if v.Key() != "c1:m1" {
		t.Fatalf("Key() = %q", v.Key())
	}
	if VoteKey("a", "b") != "a:b" {
		t.Fatalf("VoteKey mismatch")
	}
	for _, ok := range []string{"up", "down"} {
		if !ValidVoteType(ok) {
			t.Fatalf("ValidVoteType(%q) = false", ok)
		}
	}
	for _, bad := range []string{"", "UP", "sideways"} {
		if ValidVoteType(bad) {
			t.Fatalf("ValidVoteType(%q) = true", bad)
		}
	}
}

func TestMigrations_Indexes_AndCascades(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Chat{}, &Message{}, &Vote{}, &UsageRecord{}, &UsageEvent{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, tbl := range []any{&Chat{}, &Message{}, &Vote{}, &UsageRecord{}, &UsageEvent{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&Chat{}, "idx_user_chats") {
		t.Fatalf("expected index idx_user_chats on chats")
	}
	if !m.HasIndex(&Message{}, "idx_chat_msgs") {
		t.Fatalf("expected index idx_chat_msgs on messages")
	}
	if !m.HasIndex(&UsageEvent{}, "idx_usage_scope_created") {
		t.Fatalf("expected index idx_usage_scope_created on usage_events")
	}

	now := time.Now().UTC()
	ch := &Chat{ID: "c1", UserID: "u1", Title: "T", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(ch).Error; err != nil {
		t.Fatalf("insert chat: %v", err)
	}
	msg := &Message{ID: "m1", ChatID: "c1", Role: RoleUser, Content: "hello", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(msg).Error; err != nil {
		t.Fatalf("insert message: %v", err)
	}

	// role check constraint
	bad := &Message{ID: "m2", ChatID: "c1", Role: "system", Content: "x"}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected role check constraint to reject %q", bad.Role)
	}

	// CASCADE: deleting the chat removes its messages
	if err := db.Unscoped().Delete(&Chat{}, "id = ?", "c1").Error; err != nil {
		t.Fatalf("delete chat: %v", err)
	}
	var cnt int64
	if err := db.Model(&Message{}).Where("chat_id = ?", "c1").Count(&cnt).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected messages to cascade-delete, got %d", cnt)
	}
}

func TestVote_CompositeKeyAndTypeCheck(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Vote{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	if err := db.Create(&Vote{ChatID: "c1", MessageID: "m1", Type: VoteUp, Count: 1}).Error; err != nil {
		t.Fatalf("insert vote: %v", err)
	}
	if err := db.Create(&Vote{ChatID: "c1", MessageID: "m1", Type: VoteDown, Count: 1}).Error; err == nil {
		t.Fatalf("expected primary key violation for duplicate (chat_id, message_id)")
	}
	if err := db.Create(&Vote{ChatID: "c1", MessageID: "m2", Type: "meh", Count: 1}).Error; err == nil {
		t.Fatalf("expected check constraint to reject vote type")
	}
}

func TestUsageRecord_SentinelRowRoundTrip(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&UsageRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	ends := time.Now().Add(time.Hour).UnixMilli()
	rec := &UsageRecord{UserID: QuotaSentinel, RecordID: QuotaRecordID, Tokens: 42, WindowEndsAt: ends}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got UsageRecord
	if err := db.First(&got, "user_id = ? AND record_id = ?", QuotaSentinel, QuotaRecordID).Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Tokens != 42 || got.WindowEndsAt != ends {
		t.Fatalf("unexpected row: %+v", got)
	}
}
