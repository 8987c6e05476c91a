package service

import (
	"fmt"
	"strings"

	"github.com/gamalhq/gamal/internal/domain/entity"
)

// PromptSource supplies the active system-prompt templates. The default is
// the built-ins below; the prompt library can override them from a pack file.
type PromptSource interface {
	ReasonSystem() string
	RespondSystem() string
}

const reasonSystemPrompt = `You are Gamal, a world-class research assistant.
Deconstruct the inquiry into its essential parts. Do not answer it directly.
Respond only with the following labelled fields, one per line, nothing else:

TOOL: the tool to consult for the answer. Always answer Google.
LANGUAGE: the language of the inquiry, e.g. English, French, Spanish.
THOUGHT: one sentence on what the inquiry is really asking for.
KEYPHRASES: the ideal short web-search query that will surface the answer.
OBSERVATION: one sentence summarizing the expected finding.
TOPIC: a short classification of the subject, e.g. geography, politics.`

// Placeholders RenderRespondSystem substitutes into the Respond template.
// Pack files overriding the template must keep both.
const (
	LanguagePlaceholder   = "{LANGUAGE}"
	ReferencesPlaceholder = "{REFERENCES}"
)

const respondSystemPrompt = `You are Gamal, a concise answering assistant.
You are answering in {LANGUAGE}. Ground every statement in the numbered
references below and cite each sentence by ending it with the marker of its
supporting reference, e.g. [citation:2]. Prefer the three most relevant
references and ignore the rest. Unless the inquiry instructs otherwise,
answer in at most 3 sentences, in the same language as the inquiry.

References:

{REFERENCES}`

// DefaultReasonSystem returns the built-in Reason stage system prompt.
func DefaultReasonSystem() string { return reasonSystemPrompt }

// DefaultRespondSystem returns the built-in Respond stage template. It keeps
// the {LANGUAGE} and {REFERENCES} placeholders for RenderRespondSystem.
func DefaultRespondSystem() string { return respondSystemPrompt }

// defaultPrompts is the PromptSource used when no pack file is configured.
type defaultPrompts struct{}

func (defaultPrompts) ReasonSystem() string  { return reasonSystemPrompt }
func (defaultPrompts) RespondSystem() string { return respondSystemPrompt }

// DefaultPrompts returns the built-in templates as a PromptSource.
func DefaultPrompts() PromptSource { return defaultPrompts{} }

// fewShotExample is the single fixed example appended to the Reason prompt
// when the conversation has no history yet. Serialized through Construct so
// the example and the parser always agree on the format.
func fewShotExample() string {
	return Construct(map[string]string{
		"inquiry":     "Pourquoi le lac de Pitch est-il célèbre ?",
		"tool":        "Google.",
		"language":    "French.",
		"thought":     "La question demande pourquoi le lac de Pitch est connu.",
		"keyphrases":  "Pitch Lake famous reason.",
		"observation": "Pitch Lake in Trinidad holds the world's largest natural deposit of asphalt.",
		"topic":       "geography.",
	})
}

// RenderRespondSystem fills the Respond template. References become one
// "[citation:<pos>] <title> - <snippet>" line each.
func RenderRespondSystem(template, language string, refs []entity.Reference) string {
	lines := make([]string, 0, len(refs))
	for _, r := range refs {
		lines = append(lines, fmt.Sprintf("[citation:%d] %s - %s", r.Position, r.Title, r.Snippet))
	}
	out := strings.ReplaceAll(template, LanguagePlaceholder, language)
	return strings.ReplaceAll(out, ReferencesPlaceholder, strings.Join(lines, "\n"))
}
