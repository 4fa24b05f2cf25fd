package handlers

import (
	"encoding/json"
	"net/http"
	"reflect"
	"testing"

	"github.com/tbourn/growth-tools-backend/internal/domain"
	"github.com/tbourn/growth-tools-backend/internal/quota"
)

func TestGetUsage(t *testing.T) {
	u := &stubUsage{
		result: quota.Result{Success: true, Limit: 1000, Used: 250, Remaining: 750},
		recent: []domain.UsageEvent{
			{ID: "e1", Kind: domain.ChargeSpeech, Tokens: 200},
			{ID: "e2", Kind: domain.ChargeTranscription, Tokens: 50},
		},
	}
	r := newRouter(New(Deps{Usage: u}))

	w := doJSON(t, r, http.MethodGet, "/api/usage?recent=1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp UsageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Limit != 1000 || resp.Used != 250 || resp.Remaining != 750 {
		t.Fatalf("result=%+v", resp.Result)
	}
	if len(resp.Recent) != 1 || resp.Recent[0].ID != "e1" {
		t.Fatalf("recent=%+v", resp.Recent)
	}
}

func TestResetRateLimit(t *testing.T) {
	u := &stubUsage{purged: 3}
	r := newRouter(New(Deps{Usage: u}))

	w := doJSON(t, r, http.MethodPost, "/api/dev/reset-rate-limit", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp ResetResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Deleted != 3 {
		t.Fatalf("resp=%+v", resp)
	}
	if want := []string{"reset", "purge"}; !reflect.DeepEqual(u.calls, want) {
		t.Fatalf("calls=%v want %v", u.calls, want)
	}
}

func TestResetRateLimit_OutsideDevelopment(t *testing.T) {
	u := &stubUsage{resetErr: quota.ErrResetUnavailable}
	r := newRouter(New(Deps{Usage: u}))

	w := doJSON(t, r, http.MethodPost, "/api/dev/reset-rate-limit", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if len(u.calls) != 1 {
		t.Fatalf("purge must not run after a refused reset: %v", u.calls)
	}
}
