package engine_test

import (
	"context"
	"testing"
	"time"

	"salespilot/internal/control"
	"salespilot/internal/engine"
	"salespilot/internal/llm"
	"salespilot/internal/models"
	"salespilot/internal/progress"
	"salespilot/internal/ratelimit"
	"salespilot/internal/statestore"
	"salespilot/internal/summary"
	"salespilot/internal/testutil"
)

type staticGenerator struct{ reply string }

func (g staticGenerator) Chat(_ context.Context, _ string, _ []llm.Message) (string, error) {
	return g.reply, nil
}

// TestFullTurnAgainstDatabase drives a real turn through the engine with
// the durable store backing everything except the model.
func TestFullTurnAgainstDatabase(t *testing.T) {
	database, cleanup := testutil.TestDB(t)
	defer cleanup()

	ctx := context.Background()
	tenantID := testutil.CreateTestTenant(t, database, "Tienda Integración")

	fast := statestore.NewMemory()
	bridge := statestore.NewBridge(fast, database, 200*time.Millisecond, time.Minute, nil)
	controller := control.New(bridge, time.Hour, 72*time.Hour, nil)
	limiter := ratelimit.New(fast, ratelimit.Config{
		ActorPerMinute:  8,
		ActorPerHour:    40,
		GlobalPerMinute: 120,
		CheckTimeout:    200 * time.Millisecond,
	}, nil)
	tracker, err := progress.NewTracker(nil)
	if err != nil {
		t.Fatalf("NewTracker() error = %v", err)
	}
	summarizer := summary.New(nil, database, "unused", nil)

	eng := engine.New(database, controller, limiter, tracker, summarizer,
		staticGenerator{reply: "Con gusto. ¿Qué producto buscas?"},
		engine.Config{Model: "test-model", MaxSentences: 3}, nil)

	ev := models.InboundMessage{
		TenantID:  tenantID,
		Phone:     "+5215559876543",
		Text:      "hola, vi su anuncio",
		Timestamp: time.Now(),
	}

	res, err := eng.HandleInbound(ctx, ev)
	if err != nil {
		t.Fatalf("HandleInbound() error = %v", err)
	}
	if !res.Replied {
		t.Fatalf("Replied = false, Silenced = %q", res.Silenced)
	}

	history, err := database.GetHistory(ctx, res.ConversationID)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want user turn + assistant turn", len(history))
	}
	if history[0].Role != models.RoleUser || history[1].Role != models.RoleAssistant {
		t.Errorf("history roles = %q, %q", history[0].Role, history[1].Role)
	}

	// Operator takeover silences the next turn.
	if err := controller.Pause(ctx, res.ConversationID, "operator"); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	res2, err := eng.HandleInbound(ctx, ev)
	if err != nil {
		t.Fatalf("HandleInbound() after pause error = %v", err)
	}
	if res2.Silenced != engine.CausePaused {
		t.Errorf("Silenced = %q after operator takeover, want %q", res2.Silenced, engine.CausePaused)
	}

	// The pause survives losing the fast store entirely.
	fast.Expire("pause:" + res.ConversationID.String())
	res3, err := eng.HandleInbound(ctx, ev)
	if err != nil {
		t.Fatalf("HandleInbound() after fast-store loss error = %v", err)
	}
	if res3.Silenced != engine.CausePaused {
		t.Errorf("Silenced = %q after fast-store loss, want %q (durable fallback)", res3.Silenced, engine.CausePaused)
	}
}
