package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"salespilot/internal/engine"
	"salespilot/internal/models"
	"salespilot/internal/ratelimit"
)

type fakeProcessor struct {
	result       *engine.TurnResult
	err          error
	lastInbound  *models.InboundMessage
	operatorErr  error
	operatorText string
}

func (f *fakeProcessor) HandleInbound(_ context.Context, ev models.InboundMessage) (*engine.TurnResult, error) {
	f.lastInbound = &ev
	return f.result, f.err
}

func (f *fakeProcessor) HandleOperatorReply(_ context.Context, _ uuid.UUID, _, text string) error {
	f.operatorText = text
	return f.operatorErr
}

func newWebhookApp(p *fakeProcessor) *fiber.App {
	app := fiber.New()
	h := NewWebhookHandler(p, nil)
	app.Post("/webhook/message", h.Message)
	app.Post("/webhook/operator", h.OperatorReply)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	return res
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestWebhookMessage_Success(t *testing.T) {
	convID := uuid.New()
	p := &fakeProcessor{result: &engine.TurnResult{
		ConversationID: convID,
		Reply:          "Hola, ¿en qué te ayudo?",
		Replied:        true,
	}}
	app := newWebhookApp(p)

	res := postJSON(t, app, "/webhook/message", map[string]any{
		"tenant_id": uuid.New().String(),
		"phone":     "+5215551234567",
		"text":      "hola",
	})

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	body := decodeBody(t, res)
	data := body["data"].(map[string]any)
	if data["replied"] != true {
		t.Errorf("replied = %v, want true", data["replied"])
	}
	if data["conversation_id"] != convID.String() {
		t.Errorf("conversation_id = %v, want %s", data["conversation_id"], convID)
	}
	if p.lastInbound == nil || p.lastInbound.Text != "hola" {
		t.Errorf("processor received %+v", p.lastInbound)
	}
}

func TestWebhookMessage_MalformedEventDropped(t *testing.T) {
	p := &fakeProcessor{}
	app := newWebhookApp(p)

	req := httptest.NewRequest(http.MethodPost, "/webhook/message", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d (malformed events are dropped, not retried)", res.StatusCode, http.StatusOK)
	}
	body := decodeBody(t, res)
	data := body["data"].(map[string]any)
	if data["dropped"] != true {
		t.Errorf("dropped = %v, want true", data["dropped"])
	}
	if p.lastInbound != nil {
		t.Error("processor invoked for a malformed event")
	}
}

func TestWebhookMessage_IncompleteEventDropped(t *testing.T) {
	p := &fakeProcessor{}
	app := newWebhookApp(p)

	res := postJSON(t, app, "/webhook/message", map[string]any{
		"tenant_id": "not-a-uuid",
		"phone":     "+5215551234567",
		"text":      "hola",
	})

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if p.lastInbound != nil {
		t.Error("processor invoked for an incomplete event")
	}
}

func TestWebhookMessage_RateLimited(t *testing.T) {
	p := &fakeProcessor{result: &engine.TurnResult{
		Silenced:  engine.CauseRateLimited,
		RateLimit: &ratelimit.Result{Allowed: false, Reason: ratelimit.ReasonMinuteLimit},
	}}
	app := newWebhookApp(p)

	res := postJSON(t, app, "/webhook/message", map[string]any{
		"tenant_id": uuid.New().String(),
		"phone":     "+5215551234567",
		"text":      "hola",
	})

	if res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusTooManyRequests)
	}
	body := decodeBody(t, res)
	if body["reason"] != "minute_limit" {
		t.Errorf("reason = %v, want minute_limit", body["reason"])
	}
}

func TestWebhookMessage_ProcessorError(t *testing.T) {
	p := &fakeProcessor{err: errors.New("db down")}
	app := newWebhookApp(p)

	res := postJSON(t, app, "/webhook/message", map[string]any{
		"tenant_id": uuid.New().String(),
		"phone":     "+5215551234567",
		"text":      "hola",
	})

	if res.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", res.StatusCode, http.StatusInternalServerError)
	}
}

func TestWebhookOperatorReply(t *testing.T) {
	p := &fakeProcessor{}
	app := newWebhookApp(p)

	res := postJSON(t, app, "/webhook/operator", map[string]any{
		"conversation_id": uuid.New().String(),
		"actor":           "operator@example.com",
		"text":            "le atiendo yo",
	})

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if p.operatorText != "le atiendo yo" {
		t.Errorf("operator text = %q", p.operatorText)
	}
}

func TestWebhookOperatorReply_MissingText(t *testing.T) {
	p := &fakeProcessor{}
	app := newWebhookApp(p)

	res := postJSON(t, app, "/webhook/operator", map[string]any{
		"conversation_id": uuid.New().String(),
		"actor":           "operator@example.com",
	})

	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}
