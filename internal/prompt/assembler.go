// Package prompt renders generation requests from persona, retrieved
// context, and the inbound message. Assembly is deterministic: identical
// inputs produce byte-identical prompts.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lainlives/lainllm-go/internal/models"
	"github.com/lainlives/lainllm-go/internal/persona"
)

// maxHistoryEntries caps the number of past exchanges rendered into the
// prompt; only the highest-relevance entries are kept.
const maxHistoryEntries = 3

// Chat template markers recognized by the inference runtime (llama3
// instruct format).
const (
	markerBegin     = "<|begin_of_text|>"
	markerSystem    = "<|start_header_id|>system<|end_header_id|>"
	markerUser      = "<|start_header_id|>user<|end_header_id|>"
	markerAssistant = "<|start_header_id|>assistant<|end_header_id|>"
	markerEOT       = "<|eot_id|>"
)

// Assembler composes prompts for a fixed persona.
type Assembler struct {
	persona persona.Spec
}

// NewAssembler creates an assembler for the given persona spec.
func NewAssembler(spec persona.Spec) *Assembler {
	return &Assembler{persona: spec}
}

// Assemble merges the persona block, retrieved knowledge, retrieved
// history, and the new message into one generation request. Section
// order is fixed: persona, knowledge, history, message. Empty sections
// are omitted entirely.
func (a *Assembler) Assemble(
	facts []models.KnowledgeFact,
	history []models.ConversationMemory,
	msg models.Message,
) models.GenerationRequest {
	var b strings.Builder

	b.WriteString(markerBegin)
	b.WriteString(markerSystem)
	b.WriteString("\n\n")
	b.WriteString(a.persona.Instructions)

	if len(facts) > 0 {
		b.WriteString("\n\nKnowledge:\n")
		for _, f := range facts {
			fmt.Fprintf(&b, "- %s: %s\n", f.Topic, f.Content)
		}
	}

	selected := topHistory(history)
	if len(selected) > 0 {
		b.WriteString("\n\nPast interactions:\n")
		for _, h := range selected {
			fmt.Fprintf(&b, "User: %s\n%s: %s\n", h.PriorMessage, a.persona.Name, h.PriorResponse)
		}
	}

	b.WriteString(markerEOT)
	b.WriteString(markerUser)
	b.WriteString("\n\n")
	b.WriteString(msg.Text)
	b.WriteString(markerEOT)
	b.WriteString(markerAssistant)
	b.WriteString("\n\n")

	return models.GenerationRequest{
		Prompt:  b.String(),
		Facts:   facts,
		History: selected,
		Message: msg,
	}
}

// topHistory returns at most maxHistoryEntries memories ordered by
// descending relevance. The input slice is not modified.
func topHistory(history []models.ConversationMemory) []models.ConversationMemory {
	if len(history) == 0 {
		return nil
	}

	sorted := make([]models.ConversationMemory, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Relevance > sorted[j].Relevance
	})

	if len(sorted) > maxHistoryEntries {
		sorted = sorted[:maxHistoryEntries]
	}
	return sorted
}
