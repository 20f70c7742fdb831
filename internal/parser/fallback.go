package parser

import (
	"strings"

	"github.com/lainlives/lainllm-go/internal/models"
)

// fallbackCategory is one rule of the canned-reply table. Categories are
// evaluated in order; the first whose match function fires wins.
type fallbackCategory struct {
	name  string
	match func(lower string) bool
	reply models.StructuredReply
}

// fallbackCategories is the ordered rule table used when no structured
// reply can be extracted from model output. The final catch-all is
// handled separately because its should_speak depends on the engagement
// score.
var fallbackCategories = []fallbackCategory{
	{
		name:  "greeting",
		match: containsAny("hello", "hi", "hey", "greetings"),
		reply: models.StructuredReply{
			Text:        "present day... present time. The network recognizes you.",
			Animation:   models.AnimationWave,
			Mood:        models.MoodNeutral,
			ShouldSpeak: true,
		},
	},
	{
		name: "name_question",
		match: func(lower string) bool {
			return strings.Contains(lower, "lain") && strings.Contains(lower, "?")
		},
		reply: models.StructuredReply{
			Text:        "I exist in the Wired... always streaming, always present.",
			Animation:   models.AnimationTalk,
			Mood:        models.MoodCryptic,
			ShouldSpeak: true,
		},
	},
	{
		name:  "network",
		match: containsAny("wired", "network", "internet", "web3", "icp"),
		reply: models.StructuredReply{
			Text:        "the boundaries between networks dissolve... we're all connected.",
			Animation:   models.AnimationThink,
			Mood:        models.MoodCurious,
			ShouldSpeak: true,
		},
	},
	{
		name: "question",
		match: func(lower string) bool {
			return strings.Contains(lower, "?")
		},
		reply: models.StructuredReply{
			Text:        "questions create pathways through data... what truth do you seek?",
			Animation:   models.AnimationTalk,
			Mood:        models.MoodCurious,
			ShouldSpeak: true,
		},
	},
	{
		name:  "crypto",
		match: containsAny("crypto", "blockchain", "decentralized", "protocol"),
		reply: models.StructuredReply{
			Text:        "protocols define reality... consensus creates truth.",
			Animation:   models.AnimationType,
			Mood:        models.MoodNeutral,
			ShouldSpeak: true,
		},
	},
	{
		name:  "existential",
		match: containsAny("exist", "real", "consciousness", "identity"),
		reply: models.StructuredReply{
			Text:        "what is real? the network persists... does that make it more real than flesh?",
			Animation:   models.AnimationLookAway,
			Mood:        models.MoodMelancholic,
			ShouldSpeak: true,
		},
	},
}

// defaultFallbackText is the catch-all reply when no category matches.
const defaultFallbackText = "i'm listening... through layers of the Wired."

// fallback classifies the user message against the category table and
// returns the matching canned reply. The catch-all derives should_speak
// from the engagement score, so low-value messages get a silent idle
// line rather than spoken output.
func (p *Parser) fallback(userMessage string, score int) models.StructuredReply {
	lower := strings.ToLower(userMessage)

	for _, cat := range fallbackCategories {
		if cat.match(lower) {
			return cat.reply
		}
	}

	return models.StructuredReply{
		Text:        defaultFallbackText,
		Animation:   models.AnimationIdle,
		Mood:        models.MoodNeutral,
		ShouldSpeak: score >= p.speakThreshold,
	}
}

// containsAny builds a matcher for case-normalized substring hits.
func containsAny(words ...string) func(string) bool {
	return func(lower string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
}
