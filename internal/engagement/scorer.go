// Package engagement scores inbound messages for response-worthiness.
// The score is advisory: it feeds the parser's fallback path but never
// gates retrieval or inference.
package engagement

import (
	"strings"

	"github.com/lainlives/lainllm-go/internal/models"
)

// interestKeywords is the fixed topic vocabulary the character engages
// with. Matching is case-insensitive substring; each distinct keyword
// counts once, with no cap on the total.
var interestKeywords = []string{
	"wired", "network", "protocol", "consciousness", "identity",
	"exist", "real", "data", "connection", "alone", "crypto",
	"decentralized", "ai", "machine", "system", "blockchain",
	"icp", "internet computer", "web3",
}

// longAbsenceSeconds is the gap after which a returning sender earns an
// attention bonus (24 hours).
const longAbsenceSeconds = 86400

// Scorer computes engagement scores for a named character.
type Scorer struct {
	name string
}

// NewScorer creates a scorer for the given character name. The name is
// matched case-insensitively, with or without a mention marker.
func NewScorer(name string) *Scorer {
	return &Scorer{name: strings.ToLower(name)}
}

// Score computes the engagement score for a message. history may be nil
// when nothing is known about the sender. Pure and deterministic; the
// result is never negative.
func (s *Scorer) Score(text string, history *models.SenderHistory) int {
	score := 0
	lower := strings.ToLower(text)
	wordCount := len(strings.Fields(text))

	// Message quality
	if wordCount > 10 {
		score += 2
	}
	if strings.Contains(text, "?") {
		score++
	}
	if s.name != "" && strings.Contains(lower, s.name) {
		score += 5
	}

	// Topic interest
	for _, kw := range interestKeywords {
		if strings.Contains(lower, kw) {
			score += 2
		}
	}

	// Sender familiarity
	if history != nil {
		if history.MessageCount < 5 {
			score += 3
		}
		if history.SecondsSinceLast > longAbsenceSeconds {
			score += 2
		}
	}

	// Penalties
	if len(text) > 10 && isShouting(text) {
		score -= 5
	}
	if wordCount < 3 {
		score -= 3
	}

	if score < 0 {
		return 0
	}
	return score
}

// isShouting reports whether the text is entirely uppercase. Text with no
// letters at all does not count as shouting.
func isShouting(text string) bool {
	hasLetter := false
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}
