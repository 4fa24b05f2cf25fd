package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/growth-tools-backend/internal/domain"
)

func TestCreateMessage_AndListOrder(t *testing.T) {
	db := newTestDB(t, &domain.Chat{}, &domain.Message{})
	if err := db.Create(&domain.Chat{ID: "c1", UserID: "u1", Title: "t"}).Error; err != nil {
		t.Fatalf("seed chat: %v", err)
	}

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	seed := []domain.Message{
		{ID: "b", ChatID: "c1", Role: domain.RoleAssistant, Content: "second", CreatedAt: base.Add(time.Second)},
		{ID: "a", ChatID: "c1", Role: domain.RoleUser, Content: "first", CreatedAt: base},
		{ID: "c", ChatID: "c1", Role: domain.RoleUser, Content: "third", CreatedAt: base.Add(time.Second)},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed %s: %v", seed[i].ID, err)
		}
	}

	all, err := ListMessages(context.Background(), db, "c1", 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[1].ID != "b" || all[2].ID != "c" {
		t.Fatalf("unexpected order: %+v", all)
	}

	limited, err := ListMessages(context.Background(), db, "c1", 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("limit not applied: %d (err=%v)", len(limited), err)
	}

	n, err := CountUserMessages(context.Background(), db, "c1")
	if err != nil || n != 2 {
		t.Fatalf("CountUserMessages = (%d, %v), want (2, nil)", n, err)
	}

	m, err := CreateMessage(context.Background(), db, "c1", domain.RoleAssistant, "hello")
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if m.ID == "" || m.ChatID != "c1" || m.Content != "hello" || m.CreatedAt.IsZero() {
		t.Fatalf("unexpected message: %+v", m)
	}
}

func TestCreateMessage_Error_NoTable(t *testing.T) {
	db := newTestDB(t)
	if _, err := CreateMessage(context.Background(), db, "c1", domain.RoleUser, "x"); err == nil {
		t.Fatalf("expected error when table is missing")
	}
}
