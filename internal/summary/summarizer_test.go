package summary

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"salespilot/internal/db"
	"salespilot/internal/llm"
	"salespilot/internal/models"
)

type fakeModel struct {
	response   []byte
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeModel) ChatJSON(_ context.Context, _ string, messages []llm.Message, _ string, _ json.RawMessage) ([]byte, error) {
	f.calls++
	if len(messages) > 0 {
		f.lastPrompt = messages[0].Content
	}
	return f.response, f.err
}

type fakeStore struct {
	state *models.ConversationState
	sets  int
}

func (f *fakeStore) GetConversationState(_ context.Context, _ uuid.UUID) (*models.ConversationState, error) {
	if f.state == nil {
		return nil, db.ErrStateNotFound
	}
	return f.state, nil
}

func (f *fakeStore) SetConversationState(_ context.Context, _ uuid.UUID, state *models.ConversationState) error {
	f.state = state
	f.sets++
	return nil
}

func validStateJSON() []byte {
	return []byte(`{
		"phase": "descubrimiento",
		"topics_covered": ["precios"],
		"objections_raised": ["es caro"],
		"objections_resolved": [],
		"interest_level": "medium",
		"next_action": "pedir correo",
		"summary": "Cliente pregunta por precios."
	}`)
}

func historyWithUserTurns(n int) []models.Message {
	var history []models.Message
	for i := 0; i < n; i++ {
		history = append(history,
			models.Message{Role: models.RoleUser, Content: "mensaje"},
			models.Message{Role: models.RoleAssistant, Content: "respuesta"},
		)
	}
	return history
}

func TestMaybeRefresh_TooEarlyForFirstSummary(t *testing.T) {
	model := &fakeModel{response: validStateJSON()}
	store := &fakeStore{}
	s := New(model, store, "test-model", nil)

	state := s.MaybeRefresh(context.Background(), uuid.New(), historyWithUserTurns(2))
	if state != nil {
		t.Errorf("MaybeRefresh() = %+v before the first-summary threshold, want nil", state)
	}
	if model.calls != 0 {
		t.Errorf("model called %d times, want 0", model.calls)
	}
}

func TestMaybeRefresh_FirstSummaryAtThreshold(t *testing.T) {
	model := &fakeModel{response: validStateJSON()}
	store := &fakeStore{}
	s := New(model, store, "test-model", nil)

	state := s.MaybeRefresh(context.Background(), uuid.New(), historyWithUserTurns(firstAfterUserTurns))
	if state == nil {
		t.Fatal("MaybeRefresh() = nil at the first-summary threshold")
	}
	if state.MessageCountAtUpdate != firstAfterUserTurns {
		t.Errorf("MessageCountAtUpdate = %d, want %d", state.MessageCountAtUpdate, firstAfterUserTurns)
	}
	if state.Version != models.StateVersion {
		t.Errorf("Version = %d, want %d", state.Version, models.StateVersion)
	}
	if store.sets != 1 {
		t.Errorf("store writes = %d, want 1", store.sets)
	}
}

func TestMaybeRefresh_DeltaBelowRefreshIntervalKeepsState(t *testing.T) {
	model := &fakeModel{response: validStateJSON()}
	prev := &models.ConversationState{
		Version:              models.StateVersion,
		Phase:                "descubrimiento",
		InterestLevel:        models.InterestLow,
		MessageCountAtUpdate: 3,
	}
	store := &fakeStore{state: prev}
	s := New(model, store, "test-model", nil)

	state := s.MaybeRefresh(context.Background(), uuid.New(), historyWithUserTurns(3+refreshEvery-1))
	if state != prev {
		t.Error("MaybeRefresh() regenerated state below the refresh interval")
	}
	if model.calls != 0 {
		t.Errorf("model called %d times, want 0", model.calls)
	}
}

func TestMaybeRefresh_DeltaAtRefreshIntervalRegenerates(t *testing.T) {
	model := &fakeModel{response: validStateJSON()}
	prev := &models.ConversationState{
		Version:              models.StateVersion,
		Phase:                "descubrimiento",
		InterestLevel:        models.InterestLow,
		MessageCountAtUpdate: 3,
	}
	store := &fakeStore{state: prev}
	s := New(model, store, "test-model", nil)

	state := s.MaybeRefresh(context.Background(), uuid.New(), historyWithUserTurns(3+refreshEvery))
	if state == prev || state == nil {
		t.Fatal("MaybeRefresh() did not regenerate at the refresh interval")
	}
	if state.MessageCountAtUpdate != 3+refreshEvery {
		t.Errorf("MessageCountAtUpdate = %d, want %d", state.MessageCountAtUpdate, 3+refreshEvery)
	}
	if !strings.Contains(model.lastPrompt, "Estado anterior") {
		t.Error("refresh prompt missing the previous state block")
	}
	if !strings.Contains(model.lastPrompt, "Conserva los hechos") {
		t.Error("refresh prompt missing the fact-conservation instruction")
	}
}

func TestMaybeRefresh_ModelFailureKeepsPreviousState(t *testing.T) {
	model := &fakeModel{err: errors.New("model down")}
	prev := &models.ConversationState{
		Version:              models.StateVersion,
		Phase:                "presentación",
		InterestLevel:        models.InterestHigh,
		MessageCountAtUpdate: 3,
	}
	store := &fakeStore{state: prev}
	s := New(model, store, "test-model", nil)

	state := s.MaybeRefresh(context.Background(), uuid.New(), historyWithUserTurns(3+refreshEvery))
	if state != prev {
		t.Error("MaybeRefresh() did not keep the previous state on model failure")
	}
	if store.sets != 0 {
		t.Errorf("store writes = %d on model failure, want 0", store.sets)
	}
}

func TestMaybeRefresh_InvalidModelOutputKeepsPreviousState(t *testing.T) {
	model := &fakeModel{response: []byte("not json")}
	prev := &models.ConversationState{
		Version:              models.StateVersion,
		Phase:                "descubrimiento",
		InterestLevel:        models.InterestLow,
		MessageCountAtUpdate: 3,
	}
	store := &fakeStore{state: prev}
	s := New(model, store, "test-model", nil)

	state := s.MaybeRefresh(context.Background(), uuid.New(), historyWithUserTurns(3+refreshEvery))
	if state != prev {
		t.Error("MaybeRefresh() did not keep the previous state on undecodable output")
	}
}

func TestFormatForPrompt(t *testing.T) {
	state := &models.ConversationState{
		Phase:              "negociación",
		InterestLevel:      models.InterestHigh,
		TopicsCovered:      []string{"precios", "integraciones"},
		ObjectionsRaised:   []string{"es caro", "falta soporte"},
		ObjectionsResolved: []string{"Es caro"},
		Summary:            "Cliente listo para cotizar.",
		NextAction:         "enviar cotización",
	}

	out := FormatForPrompt(state)
	if !strings.Contains(out, "Fase: negociación") {
		t.Errorf("missing phase: %q", out)
	}
	if !strings.Contains(out, "Objeciones pendientes: falta soporte") {
		t.Errorf("resolved objection not subtracted from pending: %q", out)
	}
	if strings.Contains(out, "Objeciones pendientes: es caro") {
		t.Errorf("resolved objection listed as pending: %q", out)
	}
}

func TestFormatForPrompt_NilState(t *testing.T) {
	if out := FormatForPrompt(nil); out != "" {
		t.Errorf("FormatForPrompt(nil) = %q, want empty", out)
	}
}
