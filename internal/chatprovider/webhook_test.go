package chatprovider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeResolver struct {
	id  uuid.UUID
	err error
}

func (f *fakeResolver) ResolveHandle(_ context.Context, _ string) (uuid.UUID, error) {
	return f.id, f.err
}

type fakeInbound struct {
	called bool
	gotID  uuid.UUID
	err    error
}

func (f *fakeInbound) HandleInbound(_ context.Context, userID uuid.UUID) error {
	f.called = true
	f.gotID = userID
	return f.err
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestHandleVerification(t *testing.T) {
	h := NewHandler("", "my-token", &fakeResolver{}, &fakeInbound{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/webhook/chat?hub.mode=subscribe&hub.verify_token=my-token&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.handleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "12345" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "12345")
	}
}

func TestHandleVerification_WrongToken(t *testing.T) {
	h := NewHandler("", "my-token", &fakeResolver{}, &fakeInbound{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/webhook/chat?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	h.handleWebhook(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

const samplePayload = `{"entry":[{"changes":[{"value":{"messages":[{"from":"+15551234567"}]}}]}]}`

func TestHandleEvent_ValidSignatureDispatches(t *testing.T) {
	secret := "topsecret"
	userID := uuid.New()
	resolver := &fakeResolver{id: userID}
	inbound := &fakeInbound{}
	h := NewHandler(secret, "tok", resolver, inbound, zap.NewNop())

	body := []byte(samplePayload)
	req := httptest.NewRequest(http.MethodPost, "/webhook/chat", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", sign(secret, body))
	rec := httptest.NewRecorder()
	h.handleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !inbound.called {
		t.Fatal("expected HandleInbound to be called")
	}
	if inbound.gotID != userID {
		t.Errorf("gotID = %v, want %v", inbound.gotID, userID)
	}
}

func TestHandleEvent_BadSignatureReturns401(t *testing.T) {
	resolver := &fakeResolver{id: uuid.New()}
	inbound := &fakeInbound{}
	h := NewHandler("topsecret", "tok", resolver, inbound, zap.NewNop())

	body := []byte(samplePayload)
	req := httptest.NewRequest(http.MethodPost, "/webhook/chat", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	rec := httptest.NewRecorder()
	h.handleWebhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 on signature mismatch", rec.Code)
	}
	if inbound.called {
		t.Error("HandleInbound must not be called when the signature fails to verify")
	}
}

func TestHandleEvent_ResolveHandleErrorDoesNotCallInbound(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("db down")}
	inbound := &fakeInbound{}
	h := NewHandler("", "tok", resolver, inbound, zap.NewNop())

	body := []byte(samplePayload)
	req := httptest.NewRequest(http.MethodPost, "/webhook/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.handleWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if inbound.called {
		t.Error("HandleInbound must not be called when handle resolution fails")
	}
}

func TestVerifySignature_EmptySecretAlwaysPasses(t *testing.T) {
	h := NewHandler("", "tok", &fakeResolver{}, &fakeInbound{}, zap.NewNop())
	if !h.verifySignature("", []byte("anything")) {
		t.Error("an empty appSecret should disable signature verification")
	}
}
