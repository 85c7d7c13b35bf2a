package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signSvix(secret, svixID, svixTimestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%s.%s.%s", svixID, svixTimestamp, string(body))))
	return "v1," + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyClerkSignature_Valid(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")

	body := []byte(`{"type":"user.created","data":{"id":"user_abc"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	req.Header.Set("svix-id", "msg_123")
	req.Header.Set("svix-timestamp", "1724500000")
	req.Header.Set("svix-signature", signSvix("whsec_test", "msg_123", "1724500000", body))

	assert.True(t, verifyClerkSignature(req, body))
}

func TestVerifyClerkSignature_WrongSecret(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")

	body := []byte(`{"type":"user.created"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	req.Header.Set("svix-id", "msg_123")
	req.Header.Set("svix-timestamp", "1724500000")
	req.Header.Set("svix-signature", signSvix("whsec_other", "msg_123", "1724500000", body))

	assert.False(t, verifyClerkSignature(req, body))
}

func TestVerifyClerkSignature_TamperedBody(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")

	body := []byte(`{"type":"user.created"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	req.Header.Set("svix-id", "msg_123")
	req.Header.Set("svix-timestamp", "1724500000")
	req.Header.Set("svix-signature", signSvix("whsec_test", "msg_123", "1724500000", []byte(`{"type":"user.deleted"}`)))

	assert.False(t, verifyClerkSignature(req, body))
}

func TestVerifyClerkSignature_MissingHeaders(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")

	body := []byte(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))

	assert.False(t, verifyClerkSignature(req, body))
}

func TestVerifyClerkSignature_SkipsWhenSecretUnset(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "")

	body := []byte(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))

	assert.True(t, verifyClerkSignature(req, body))
}

func TestHandleClerkWebhook_RejectsInvalidSignature(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")

	handler := NewWebhookHandler(nil)
	body := []byte(`{"type":"user.created","data":{"id":"user_abc"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	req.Header.Set("svix-id", "msg_123")
	req.Header.Set("svix-timestamp", "1724500000")
	req.Header.Set("svix-signature", "v1,deadbeef")
	rr := httptest.NewRecorder()

	handler.HandleClerkWebhook(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandleClerkWebhook_UnhandledEventType(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "")

	handler := NewWebhookHandler(nil)
	body := []byte(`{"type":"session.created","data":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	handler.HandleClerkWebhook(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "success")
}

func TestHandleClerkWebhook_MalformedJSON(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "")

	handler := NewWebhookHandler(nil)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader([]byte(`{not json`)))
	rr := httptest.NewRecorder()

	handler.HandleClerkWebhook(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
