package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/arcticalls/arcticalls/internal/call"
)

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestVoiceWebhookOutboundDial(t *testing.T) {
	deps, _ := setupTestDeps(t)
	handler := NewWebhookHandler(deps)

	req := postForm("/webhooks/voice", url.Values{
		"To":      {"07700 900123"},
		"From":    {"+447700900200"},
		"CallSid": {"CA111"},
	})
	rr := httptest.NewRecorder()
	handler.Voice(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/xml" {
		t.Errorf("content type = %q, want application/xml", ct)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<Number>+447700900123</Number>") {
		t.Errorf("expected normalized dial target, got %q", body)
	}
	if !strings.Contains(body, `callerId="+447700900100"`) {
		t.Errorf("expected account number caller ID, got %q", body)
	}
}

func TestVoiceWebhookAcceptsQueryParams(t *testing.T) {
	deps, _ := setupTestDeps(t)
	handler := NewWebhookHandler(deps)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/voice?To=%2B447700900123&From=%2B447700900200", nil)
	rr := httptest.NewRecorder()
	handler.Voice(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "<Number>+447700900123</Number>") {
		t.Errorf("expected dial target from query params, got %q", rr.Body.String())
	}
}

func TestVoiceWebhookInboundRingsClient(t *testing.T) {
	deps, _ := setupTestDeps(t)
	handler := NewWebhookHandler(deps)

	req := postForm("/webhooks/voice", url.Values{
		"To":      {"+447700900100"}, // the account number
		"From":    {"+447700900999"},
		"CallSid": {"CAinbound"},
	})
	rr := httptest.NewRecorder()
	handler.Voice(rr, req)

	body := rr.Body.String()
	if !strings.Contains(body, "<Client>arcticalls-agent</Client>") {
		t.Errorf("expected client ring, got %q", body)
	}
	if !strings.Contains(body, "<Number>+447700900200</Number>") {
		t.Errorf("expected forward leg, got %q", body)
	}

	// The inbound leg is surfaced to the session for accept/reject
	snap := deps.Session.Snapshot()
	if snap.State != call.StateIncoming {
		t.Errorf("session state = %q, want incoming", snap.State)
	}
	if snap.RemoteNumber != "+447700900999" {
		t.Errorf("remote number = %q, want caller", snap.RemoteNumber)
	}
}

func TestVoiceWebhookRejectsUndialable(t *testing.T) {
	deps, _ := setupTestDeps(t)
	handler := NewWebhookHandler(deps)

	req := postForm("/webhooks/voice", url.Values{
		"To":   {"123"},
		"From": {"+447700900200"},
	})
	rr := httptest.NewRecorder()
	handler.Voice(rr, req)

	body := rr.Body.String()
	if strings.Contains(body, "<Dial") {
		t.Errorf("undialable number must not produce a Dial, got %q", body)
	}
	if !strings.Contains(body, "<Say>") || !strings.Contains(body, "<Hangup/>") {
		t.Errorf("expected spoken rejection, got %q", body)
	}
}

func TestVoiceStatusDrivesSession(t *testing.T) {
	deps, device := setupTestDeps(t)
	handler := NewWebhookHandler(deps)

	if err := deps.Session.Place(context.Background(), "+447700900123"); err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	sid := device.lastLeg.id

	post := func(status string) {
		t.Helper()
		rr := httptest.NewRecorder()
		handler.VoiceStatus(rr, postForm("/webhooks/voice/status", url.Values{
			"CallSid":    {sid},
			"CallStatus": {status},
		}))
		if rr.Code != http.StatusOK {
			t.Fatalf("status callback %q: code = %d, want 200", status, rr.Code)
		}
	}

	post("ringing")
	if got := deps.Session.Snapshot().State; got != call.StateRinging {
		t.Fatalf("after ringing: state = %q", got)
	}

	post("in-progress")
	if got := deps.Session.Snapshot().State; got != call.StateActive {
		t.Fatalf("after in-progress: state = %q", got)
	}

	post("completed")
	if got := deps.Session.Snapshot().State; got != call.StateIdle {
		t.Fatalf("after completed: state = %q", got)
	}

	count, err := deps.DB.Recents.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("history records = %d, want 1", count)
	}
}

func TestVoiceStatusBusyEndsAsMissed(t *testing.T) {
	deps, _ := setupTestDeps(t)
	handler := NewWebhookHandler(deps)

	if err := deps.Session.Place(context.Background(), "+447700900123"); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	rr := httptest.NewRecorder()
	handler.VoiceStatus(rr, postForm("/webhooks/voice/status", url.Values{
		"CallSid":    {"CA1"},
		"CallStatus": {"busy"},
	}))

	records, err := deps.DB.Recents.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Status != "missed" {
		t.Errorf("status = %q, want missed", records[0].Status)
	}
}

func TestVoiceWebhookSignatureEnforced(t *testing.T) {
	deps, _ := setupTestDeps(t)
	deps.Config.TwilioAuthToken = "auth-token"
	handler := NewWebhookHandler(deps)

	req := postForm("/webhooks/voice", url.Values{
		"To":   {"+447700900123"},
		"From": {"+447700900200"},
	})
	rr := httptest.NewRecorder()
	handler.Voice(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("unsigned webhook: status = %d, want 403", rr.Code)
	}
}
