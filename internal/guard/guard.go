// Package guard applies deterministic post-generation shaping to agent
// output: markdown cleanup, sentence budget, question budget.
package guard

import (
	"regexp"
	"strings"
)

// DefaultMaxSentences bounds agent replies unless overridden.
const DefaultMaxSentences = 3

// Guard reasons.
const (
	ReasonMarkdownStripped   = "markdown_stripped"
	ReasonSentencesTrimmed   = "sentences_trimmed"
	ReasonQuestionsCollapsed = "questions_collapsed"
)

// Result is the shaped output. WasGuarded is true when any step changed
// the text; Reasons lists which.
type Result struct {
	Text       string
	WasGuarded bool
	Reasons    []string
}

var (
	boldRe    = regexp.MustCompile(`\*{1,2}([^*]+)\*{1,2}`)
	italicRe  = regexp.MustCompile(`_{1,2}([^_]+)_{1,2}`)
	headingRe = regexp.MustCompile(`(?m)^#{1,6}\s*`)
)

// Shape trims a generated reply to at most maxSentences sentences and one
// question. It is a pure function: same input, same output. Output is
// never empty for non-empty input — if trimming would empty the string
// the original trimmed input is returned unguarded.
func Shape(text string, maxSentences int) Result {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}

	original := strings.TrimSpace(text)
	if original == "" {
		return Result{Text: original}
	}

	res := Result{Text: original}

	stripped := stripMarkdown(original)
	if stripped != original {
		res.Text = stripped
		res.WasGuarded = true
		res.Reasons = append(res.Reasons, ReasonMarkdownStripped)
	}

	sentences := splitSentences(res.Text)
	trimmed := false

	if len(sentences) > maxSentences {
		sentences = trimSentences(sentences, maxSentences)
		trimmed = true
		res.WasGuarded = true
		res.Reasons = append(res.Reasons, ReasonSentencesTrimmed)
	}

	if questionMarks(sentences) > 1 {
		sentences = collapseQuestions(sentences)
		trimmed = true
		res.WasGuarded = true
		res.Reasons = append(res.Reasons, ReasonQuestionsCollapsed)
	}

	if trimmed {
		shaped := strings.TrimSpace(strings.Join(sentences, " "))
		if shaped == "" {
			// Never return an empty reply for non-empty input.
			return Result{Text: original}
		}
		res.Text = shaped
	}
	return res
}

func stripMarkdown(s string) string {
	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	s = headingRe.ReplaceAllString(s, "")
	return s
}

// splitSentences segments on sentence-final punctuation followed by
// whitespace.
func splitSentences(s string) []string {
	var sentences []string
	var b strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			atEnd := i == len(runes)-1
			followedBySpace := !atEnd && (runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t')
			if atEnd || followedBySpace {
				if sent := strings.TrimSpace(b.String()); sent != "" {
					sentences = append(sentences, sent)
				}
				b.Reset()
			}
		}
	}
	if rest := strings.TrimSpace(b.String()); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// trimSentences keeps the first two sentences plus the single latest
// question beyond them, or simply the first maxSentences when no such
// question exists.
func trimSentences(sentences []string, maxSentences int) []string {
	lastQ := -1
	for i := len(sentences) - 1; i > 1; i-- {
		if isQuestion(sentences[i]) {
			lastQ = i
			break
		}
	}

	if lastQ >= 0 {
		return []string{sentences[0], sentences[1], sentences[lastQ]}
	}
	return sentences[:maxSentences]
}

// collapseQuestions keeps the first two non-question sentences plus the
// single last question.
func collapseQuestions(sentences []string) []string {
	var nonQ []string
	lastQ := ""
	for _, s := range sentences {
		if isQuestion(s) {
			lastQ = s
		} else if len(nonQ) < 2 {
			nonQ = append(nonQ, s)
		}
	}
	if lastQ != "" {
		nonQ = append(nonQ, lastQ)
	}
	return nonQ
}

func questionMarks(sentences []string) int {
	n := 0
	for _, s := range sentences {
		n += strings.Count(s, "?")
	}
	return n
}

func isQuestion(s string) bool {
	return strings.HasSuffix(s, "?")
}
