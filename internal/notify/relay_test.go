package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRelaySendToUser(t *testing.T) {
	var gotAuth string
	var gotReq relayRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode relay request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Result{Success: 2, Deactivated: 1})
	}))
	defer srv.Close()

	n := NewRelayNotifier(srv.URL, "secret")
	res, err := n.SendToUser(context.Background(), "u1", Notification{Title: "알림", Body: "약 드실 시간이에요"})
	if err != nil {
		t.Fatalf("SendToUser() error = %v", err)
	}
	if res.Success != 2 || res.Deactivated != 1 {
		t.Fatalf("result = %+v", res)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotReq.UserID != "u1" || gotReq.Body != "약 드실 시간이에요" {
		t.Fatalf("relay request = %+v", gotReq)
	}
}

func TestRelayNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewRelayNotifier(srv.URL, "")
	if _, err := n.SendToUser(context.Background(), "u1", Notification{}); err == nil {
		t.Fatalf("SendToUser() error = nil, want non-nil")
	}
}

func TestRelayEmptyBodyCountsAsDelivered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewRelayNotifier(srv.URL, "")
	res, err := n.SendToUser(context.Background(), "u1", Notification{})
	if err != nil {
		t.Fatalf("SendToUser() error = %v", err)
	}
	if res.Success != 1 {
		t.Fatalf("Success = %d, want 1", res.Success)
	}
}
