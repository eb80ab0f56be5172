// Package progress scans conversation history for repeated unanswered
// questions and stalled phases, and emits remediation instructions for
// the next generation call. Its output is advisory text only; it never
// produces a reply itself.
package progress

import (
	"strings"

	"salespilot/internal/config"
)

const (
	// stallWindow is how many trailing assistant turns are inspected for
	// repetition.
	stallWindow = 4
	// stallTruncate bounds the content prefix compared for repetition.
	stallTruncate = 48
	// advanceTurnCount is the absolute turn count that forces a pivot.
	advanceTurnCount = 8
	// progressTurnCount is when the standing progress instruction kicks in.
	progressTurnCount = 4
)

const advanceInstruction = "La conversación no avanza. Deja de repetir preguntas, " +
	"resume lo acordado y propone un siguiente paso concreto."

const progressInstruction = "Haz avanzar la conversación: conecta con lo ya dicho y " +
	"acércate al cierre sin repetir preguntas ya respondidas."

// Turn is one visible conversation turn.
type Turn struct {
	Role    string
	Content string
}

// Analysis is the tracker output for one pass.
type Analysis struct {
	AskCounts           map[string]int
	ShouldPivot         bool
	PivotInstruction    string
	ProgressInstruction string
	StalledTurns        int
}

// Tracker evaluates the registered ask categories over turn history.
type Tracker struct {
	categories []Category
}

// NewTracker builds a tracker from the built-in pattern table plus any
// YAML-configured categories.
func NewTracker(custom []config.AskCategoryConfig) (*Tracker, error) {
	cats, err := BuildCategories(custom)
	if err != nil {
		return nil, err
	}
	return &Tracker{categories: cats}, nil
}

// Analyze recomputes the ask counters from the full visible history plus
// the current inbound message, detects stall, and selects remediation
// instructions. turnCount is the number of assistant turns so far; seed
// optionally pre-loads counters carried from a previous pass.
func (t *Tracker) Analyze(history []Turn, current string, turnCount int, seed map[string]int) Analysis {
	counts := make(map[string]int, len(t.categories))
	for k, v := range seed {
		counts[k] = v
	}

	turns := history
	if current != "" {
		turns = append(append([]Turn(nil), history...), Turn{Role: "user", Content: current})
	}

	for i, turn := range turns {
		if turn.Role != "assistant" {
			continue
		}
		for _, cat := range t.categories {
			if !isAsk(cat, turn.Content) {
				continue
			}
			if i+1 < len(turns) && turns[i+1].Role == "user" && cat.Answer.MatchString(turns[i+1].Content) {
				counts[cat.Name] = 0
			} else {
				counts[cat.Name]++
			}
		}
	}

	stalled := stalledTurns(turns)

	var instructions []string
	for _, cat := range t.categories {
		switch n := counts[cat.Name]; {
		case n >= 3:
			instructions = append(instructions, cat.Tier3)
		case n == 2:
			instructions = append(instructions, cat.Tier2)
		}
	}

	if stalled >= stallWindow || turnCount >= advanceTurnCount {
		instructions = append(instructions, advanceInstruction)
	}

	analysis := Analysis{
		AskCounts:        counts,
		ShouldPivot:      len(instructions) > 0,
		PivotInstruction: strings.Join(instructions, " "),
		StalledTurns:     stalled,
	}
	if turnCount >= progressTurnCount {
		analysis.ProgressInstruction = progressInstruction
	}
	return analysis
}

// isAsk reports whether an assistant turn is asking this category's
// question. The turn must actually be a question.
func isAsk(cat Category, content string) bool {
	return strings.Contains(content, "?") && cat.Ask.MatchString(content)
}

// stalledTurns inspects the trailing assistant turns: if at most half of
// them are distinct (by truncated content) the phase is stalled, and the
// window size is reported. Otherwise zero.
func stalledTurns(turns []Turn) int {
	var window []string
	for i := len(turns) - 1; i >= 0 && len(window) < stallWindow; i-- {
		if turns[i].Role == "assistant" {
			window = append(window, normalize(turns[i].Content))
		}
	}
	if len(window) < stallWindow {
		return 0
	}

	distinct := make(map[string]struct{}, len(window))
	for _, w := range window {
		distinct[w] = struct{}{}
	}
	if len(distinct) <= len(window)/2 {
		return len(window)
	}
	return 0
}

func normalize(content string) string {
	s := strings.ToLower(strings.TrimSpace(content))
	if len(s) > stallTruncate {
		s = s[:stallTruncate]
	}
	return s
}
