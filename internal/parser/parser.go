// Package parser extracts a structured reply from raw model output.
//
// The model is asked for JSON but does not reliably produce it, so
// parsing runs as an explicit state machine:
//
//	RAW -> JSON_EXTRACTED -> VALIDATED
//	RAW -> FALLBACK_RULES -> VALIDATED
//
// The terminal state is always VALIDATED: a reply is produced for every
// input, including an empty one.
package parser

import (
	"encoding/json"
	"strings"

	"github.com/lainlives/lainllm-go/internal/models"
)

// State identifies a stage of the parse.
type State string

const (
	StateRaw           State = "raw"
	StateJSONExtracted State = "json_extracted"
	StateFallbackRules State = "fallback_rules"
	StateValidated     State = "validated"
)

// Result carries the validated reply plus the path that produced it, so
// degradation is observable in tests and logs.
type Result struct {
	Reply models.StructuredReply
	Path  State // StateJSONExtracted or StateFallbackRules
}

// replyPayload is the wire shape the model is instructed to emit.
// ShouldSpeak is a pointer so a declared false survives decoding.
type replyPayload struct {
	Text        string `json:"text"`
	Animation   string `json:"animation"`
	Mood        string `json:"mood"`
	ShouldSpeak *bool  `json:"should_speak"`
}

// Parser validates model output for a fixed speak threshold.
type Parser struct {
	speakThreshold int
}

// New creates a parser. speakThreshold is the engagement score at or
// above which the fallback path marks a reply as spoken.
func New(speakThreshold int) *Parser {
	return &Parser{speakThreshold: speakThreshold}
}

// Parse turns raw model output into a validated reply. userMessage is
// the original inbound text; the fallback rules classify it, not the
// model output. score is the engagement score of the message.
func (p *Parser) Parse(raw, userMessage string, score int) Result {
	if payload, ok := decodePayload(raw); ok {
		return Result{Reply: p.validate(payload), Path: StateJSONExtracted}
	}
	return Result{
		Reply: p.fallback(userMessage, score),
		Path:  StateFallbackRules,
	}
}

// decodePayload attempts a strict JSON decode, then a decode of the
// first brace-delimited substring. A payload without text is unusable
// and treated as a failure.
func decodePayload(raw string) (replyPayload, bool) {
	raw = strings.TrimSpace(raw)

	var payload replyPayload
	if err := json.Unmarshal([]byte(raw), &payload); err == nil && payload.Text != "" {
		return payload, true
	}

	if sub, ok := braceSubstring(raw); ok {
		if err := json.Unmarshal([]byte(sub), &payload); err == nil && payload.Text != "" {
			return payload, true
		}
	}

	return replyPayload{}, false
}

// braceSubstring returns the first {...} substring of s, matching nested
// braces within it.
func braceSubstring(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// validate clamps enum fields and fills defaults. Text is taken
// verbatim; a missing should_speak on the JSON path defaults to true,
// since the model chose to answer.
func (p *Parser) validate(payload replyPayload) models.StructuredReply {
	reply := models.StructuredReply{
		Text:        payload.Text,
		Animation:   models.ClampAnimation(payload.Animation),
		Mood:        models.ClampMood(payload.Mood),
		ShouldSpeak: true,
	}
	if payload.ShouldSpeak != nil {
		reply.ShouldSpeak = *payload.ShouldSpeak
	}
	return reply
}
