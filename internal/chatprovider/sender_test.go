package chatprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSender_Send_Success(t *testing.T) {
	var gotBody outboundMessage
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "my-token")
	if err := s.Send(context.Background(), "+15551234567", "hello there"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if gotAuth != "Bearer my-token" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer my-token")
	}
	if gotBody.To != "+15551234567" || gotBody.Text.Body != "hello there" {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestSender_Send_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "tok")
	if err := s.Send(context.Background(), "+15551234567", "hi"); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}
