package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tbourn/growth-tools-backend/internal/domain"
	"github.com/tbourn/growth-tools-backend/internal/services"
)

func TestVoteHandlers_MemoryStore(t *testing.T) {
	svc := services.NewVoteService(services.NewMemoryVoteStore())
	r := newRouter(New(Deps{Votes: svc}))

	// empty chat lists as []
	w := doJSON(t, r, http.MethodGet, "/api/vote?chatId=c1", nil, nil)
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPatch, "/api/vote", VoteRequest{ChatID: "c1", MessageID: "m1", Type: "up"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var v domain.Vote
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v.Type != "up" || v.Count != 1 {
		t.Fatalf("first vote: %+v", v)
	}

	// flip keeps the count
	w = doJSON(t, r, http.MethodPatch, "/api/vote", VoteRequest{ChatID: "c1", MessageID: "m1", Type: "down"}, nil)
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	if v.Type != "down" || v.Count != 1 {
		t.Fatalf("flipped vote: %+v", v)
	}

	w = doJSON(t, r, http.MethodGet, "/api/vote?chatId=c1", nil, nil)
	var list []domain.Vote
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].MessageID != "m1" || list[0].Type != "down" {
		t.Fatalf("list: %+v", list)
	}
}

func TestVoteHandlers_Validation(t *testing.T) {
	svc := services.NewVoteService(services.NewMemoryVoteStore())
	r := newRouter(New(Deps{Votes: svc}))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"list without chatId", http.MethodGet, "/api/vote", nil},
		{"missing chatId", http.MethodPatch, "/api/vote", VoteRequest{MessageID: "m", Type: "up"}},
		{"missing messageId", http.MethodPatch, "/api/vote", VoteRequest{ChatID: "c", Type: "up"}},
		{"bad type", http.MethodPatch, "/api/vote", VoteRequest{ChatID: "c", MessageID: "m", Type: "meh"}},
		{"not json", http.MethodPatch, "/api/vote", "nope"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, tc.method, tc.path, tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			if er := decodeError(t, w); er.Code != ErrCodeBadRequest {
				t.Fatalf("code=%q", er.Code)
			}
		})
	}
}
