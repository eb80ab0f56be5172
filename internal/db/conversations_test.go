package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"salespilot/internal/models"
)

func TestGetOrCreateConversation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	tenantID := createTestTenant(t, db)

	conv, err := db.GetOrCreateConversation(ctx, tenantID, "+5215551234567", "Ana")
	if err != nil {
		t.Fatalf("GetOrCreateConversation() error = %v", err)
	}
	if conv.ContactPhone != "+5215551234567" {
		t.Errorf("ContactPhone = %q", conv.ContactPhone)
	}

	again, err := db.GetOrCreateConversation(ctx, tenantID, "+5215551234567", "")
	if err != nil {
		t.Fatalf("GetOrCreateConversation() second call error = %v", err)
	}
	if again.ID != conv.ID {
		t.Errorf("second call created a new conversation: %s vs %s", again.ID, conv.ID)
	}
}

func TestGetConversation_Missing(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := db.GetConversation(context.Background(), uuid.New())
	if !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("GetConversation() error = %v, want ErrConversationNotFound", err)
	}
}

func TestMessageHistoryOrdering(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	tenantID := createTestTenant(t, db)

	conv, err := db.GetOrCreateConversation(ctx, tenantID, "+5215551234567", "")
	if err != nil {
		t.Fatalf("GetOrCreateConversation() error = %v", err)
	}

	turns := []struct{ role, content string }{
		{models.RoleUser, "hola"},
		{models.RoleAssistant, "buen día, ¿en qué te ayudo?"},
		{models.RoleUser, "quiero una cotización"},
	}
	for _, turn := range turns {
		msg := &models.Message{ConversationID: conv.ID, Role: turn.role, Content: turn.content}
		if err := db.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage(%q) error = %v", turn.content, err)
		}
		if msg.ID == uuid.Nil {
			t.Error("AppendMessage() did not populate the message ID")
		}
	}

	history, err := db.GetHistory(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(history) != len(turns) {
		t.Fatalf("history length = %d, want %d", len(history), len(turns))
	}
	for i, turn := range turns {
		if history[i].Content != turn.content {
			t.Errorf("history[%d] = %q, want %q", i, history[i].Content, turn.content)
		}
	}
}

func TestConversationStateRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	tenantID := createTestTenant(t, db)

	conv, err := db.GetOrCreateConversation(ctx, tenantID, "+5215551234567", "")
	if err != nil {
		t.Fatalf("GetOrCreateConversation() error = %v", err)
	}

	_, err = db.GetConversationState(ctx, conv.ID)
	if !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("GetConversationState() error = %v, want ErrStateNotFound", err)
	}

	state := &models.ConversationState{
		Version:              models.StateVersion,
		Phase:                "descubrimiento",
		TopicsCovered:        []string{"precios"},
		ObjectionsRaised:     []string{},
		ObjectionsResolved:   []string{},
		InterestLevel:        models.InterestMedium,
		Summary:              "Cliente pregunta por precios.",
		MessageCountAtUpdate: 3,
	}
	if err := db.SetConversationState(ctx, conv.ID, state); err != nil {
		t.Fatalf("SetConversationState() error = %v", err)
	}

	got, err := db.GetConversationState(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversationState() error = %v", err)
	}
	if got.Phase != "descubrimiento" || got.InterestLevel != models.InterestMedium {
		t.Errorf("state = %+v", got)
	}
	if got.MessageCountAtUpdate != 3 {
		t.Errorf("MessageCountAtUpdate = %d, want 3", got.MessageCountAtUpdate)
	}
}
