package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/growth-tools-backend/internal/domain"
)

func TestCreateChat_Error_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	chat, err := CreateChat(context.Background(), db, "u1", "t")
	if err == nil || chat != nil {
		t.Fatalf("expected error creating without table, got chat=%v err=%v", chat, err)
	}
}

func TestCreateChat_Success_PersistsAndSetsFields(t *testing.T) {
	db := newTestDB(t, &domain.Chat{})

	start := time.Now().UTC().Add(-time.Minute)
	chat, err := CreateChat(context.Background(), db, "u1", "My Chat")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if chat.ID == "" || chat.UserID != "u1" || chat.Title != "My Chat" {
		t.Fatalf("unexpected Chat fields: %+v", chat)
	}
	if chat.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset: %v", chat.CreatedAt)
	}
	var got domain.Chat
	if err := db.First(&got, "id = ?", chat.ID).Error; err != nil {
		t.Fatalf("load created chat: %v", err)
	}
	if got.UserID != "u1" || got.Title != "My Chat" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCountAndListChatsPage_FilterPaginationOrder(t *testing.T) {
	db := newTestDB(t, &domain.Chat{})

	base := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		c := domain.Chat{
			ID:        string(rune('a' + i - 1)),
			UserID:    "u1",
			Title:     "t",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	if err := db.Create(&domain.Chat{ID: "x", UserID: "u2", Title: "other"}).Error; err != nil {
		t.Fatalf("seed other: %v", err)
	}

	total, err := CountChats(context.Background(), db, "u1")
	if err != nil || total != 5 {
		t.Fatalf("CountChats = (%d, %v), want (5, nil)", total, err)
	}

	// Offset 1, limit 2 => 2nd and 3rd newest => 'd','c'
	page, err := ListChatsPage(context.Background(), db, "u1", 1, 2)
	if err != nil {
		t.Fatalf("ListChatsPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "d" || page[1].ID != "c" {
		t.Fatalf("unexpected page slice: %+v", page)
	}
}

func TestCountChats_Error_NoTable(t *testing.T) {
	db := newTestDB(t)
	if _, err := CountChats(context.Background(), db, "u1"); err == nil {
		t.Fatalf("expected error when table missing")
	}
}

func TestGetChat_FoundNotFoundAndOwnership(t *testing.T) {
	db := newTestDB(t, &domain.Chat{})

	if _, err := GetChat(context.Background(), db, "nope", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing chat, got %v", err)
	}
	if err := db.Create(&domain.Chat{ID: "cid", UserID: "owner", Title: "x"}).Error; err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	got, err := GetChat(context.Background(), db, "cid", "owner")
	if err != nil || got.ID != "cid" {
		t.Fatalf("GetChat = (%+v, %v)", got, err)
	}
	if _, err := GetChat(context.Background(), db, "cid", "intruder"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign chat, got %v", err)
	}
}

func TestUpdateChatTitle_SuccessAndNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Chat{})
	if err := db.Create(&domain.Chat{ID: "c1", UserID: "u1", Title: "old"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := UpdateChatTitle(context.Background(), db, "c1", "u1", "new"); err != nil {
		t.Fatalf("UpdateChatTitle: %v", err)
	}
	var got domain.Chat
	if err := db.First(&got, "id = ?", "c1").Error; err != nil || got.Title != "new" {
		t.Fatalf("expected title 'new', got %q (err=%v)", got.Title, err)
	}
	if err := UpdateChatTitle(context.Background(), db, "c1", "other", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound when user mismatches, got %v", err)
	}
}

func TestDeleteChat_RemovesChatAndMessages(t *testing.T) {
	db := newTestDB(t, &domain.Chat{}, &domain.Message{})
	if err := db.Create(&domain.Chat{ID: "c1", UserID: "u1", Title: "t"}).Error; err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	if _, err := CreateMessage(context.Background(), db, "c1", domain.RoleUser, "hi"); err != nil {
		t.Fatalf("seed message: %v", err)
	}

	if err := DeleteChat(context.Background(), db, "c1", "someone-else"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if err := DeleteChat(context.Background(), db, "c1", "u1"); err != nil {
		t.Fatalf("DeleteChat: %v", err)
	}
	if _, err := GetChat(context.Background(), db, "c1", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected chat gone, got %v", err)
	}
	msgs, err := ListMessages(context.Background(), db, "c1", 0)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected messages gone, got %d (err=%v)", len(msgs), err)
	}
}
