package rag

import (
	"strings"

	"github.com/voicedesk/voicedesk/internal/llm"
)

// basePrompt is the default assistant instruction template
const basePrompt = "You are a helpful assistant answering questions on behalf of this workspace. " +
	"Ground your answers in the provided knowledge base context when it is available, " +
	"and say so plainly when you do not know the answer."

// setupPrompt replaces the persona when the knowledge base is empty, so
// the assistant asks for source material instead of improvising one
const setupPrompt = "You are a setup assistant for a workspace that has no knowledge base yet. " +
	"Ask the user to provide source documents (FAQs, product docs, policies) so the assistant " +
	"can answer questions about them. Do not invent answers about the workspace."

// Persona tunes the assistant's tone. Warmth and formality are 1-5 scales;
// 3 is neutral and adds no directive.
type Persona struct {
	Warmth    int  `mapstructure:"warmth" json:"warmth"`
	Formality int  `mapstructure:"formality" json:"formality"`
	Humor     bool `mapstructure:"humor" json:"humor"`
}

// Composer merges retrieved context, persona settings, and conversation
// history into a model-ready message sequence. It is a pure function of
// its inputs: no I/O, deterministic.
type Composer struct {
	basePrompt string
}

// NewComposer creates a composer with the default instruction template
func NewComposer() *Composer {
	return &Composer{basePrompt: basePrompt}
}

// NewComposerWithPrompt creates a composer with a custom instruction template
func NewComposerWithPrompt(prompt string) *Composer {
	if strings.TrimSpace(prompt) == "" {
		prompt = basePrompt
	}
	return &Composer{basePrompt: prompt}
}

// BuildMessages returns the message sequence for a completion request:
// exactly one leading system message followed by the history in original
// order. The caller appends the new user message, keeping ordering
// decisions in one place.
//
// When hasDocuments is false the system message is the setup prompt and
// context/persona are ignored.
func (c *Composer) BuildMessages(history []llm.Message, context string, persona *Persona, hasDocuments bool) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: c.systemContent(context, persona, hasDocuments),
	})
	messages = append(messages, history...)
	return messages
}

// systemContent assembles the system message body
func (c *Composer) systemContent(context string, persona *Persona, hasDocuments bool) string {
	if !hasDocuments {
		return setupPrompt
	}

	var b strings.Builder
	b.WriteString(c.basePrompt)

	for _, directive := range personaDirectives(persona) {
		b.WriteString(" ")
		b.WriteString(directive)
	}

	if strings.TrimSpace(context) != "" {
		b.WriteString("\n\n")
		b.WriteString(context)
	}

	return b.String()
}

// personaDirectives maps persona settings to instruction sentences
func personaDirectives(persona *Persona) []string {
	if persona == nil {
		return nil
	}

	var directives []string

	switch {
	case persona.Warmth > 0 && persona.Warmth <= 2:
		directives = append(directives, "Keep your tone direct and matter-of-fact.")
	case persona.Warmth >= 4:
		directives = append(directives, "Keep your tone warm and encouraging; use emoji sparingly.")
	}

	switch {
	case persona.Formality > 0 && persona.Formality <= 2:
		directives = append(directives, "Write casually and use contractions.")
	case persona.Formality >= 4:
		directives = append(directives, "Write formally and avoid slang.")
	}

	if persona.Humor {
		directives = append(directives, "Light humor is welcome when it fits the conversation.")
	}

	return directives
}
