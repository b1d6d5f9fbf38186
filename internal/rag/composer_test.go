package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/voicedesk/internal/llm"
)

func TestBuildMessagesShape(t *testing.T) {
	composer := NewComposer()
	history := []llm.Message{
		{Role: llm.RoleUser, Content: "earlier question"},
		{Role: llm.RoleAssistant, Content: "earlier answer"},
	}

	messages := composer.BuildMessages(history, "", nil, true)

	require.Len(t, messages, 3)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)
	assert.Equal(t, history[0], messages[1])
	assert.Equal(t, history[1], messages[2])
}

func TestBuildMessagesContext(t *testing.T) {
	composer := NewComposer()

	t.Run("context appended when present", func(t *testing.T) {
		messages := composer.BuildMessages(nil, "Relevant knowledge base context:\n\nsome facts", nil, true)
		assert.Contains(t, messages[0].Content, "some facts")
	})

	t.Run("no context section when empty", func(t *testing.T) {
		messages := composer.BuildMessages(nil, "", nil, true)
		assert.Equal(t, basePrompt, messages[0].Content)
	})
}

func TestBuildMessagesColdStart(t *testing.T) {
	composer := NewComposer()

	messages := composer.BuildMessages(nil, "ignored context", &Persona{Warmth: 5}, false)

	require.Len(t, messages, 1)
	assert.Equal(t, setupPrompt, messages[0].Content)
	assert.NotContains(t, messages[0].Content, "ignored context")
}

func TestPersonaDirectives(t *testing.T) {
	composer := NewComposer()

	tests := []struct {
		name     string
		persona  Persona
		want     string
		excluded string
	}{
		{"low warmth", Persona{Warmth: 1}, "direct and matter-of-fact", "emoji"},
		{"high warmth", Persona{Warmth: 5}, "warm and encouraging", "matter-of-fact"},
		{"low formality", Persona{Formality: 2}, "casually", "avoid slang"},
		{"high formality", Persona{Formality: 4}, "formally", "contractions"},
		{"humor on", Persona{Humor: true}, "humor", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := composer.BuildMessages(nil, "", &tt.persona, true)
			assert.Contains(t, messages[0].Content, tt.want)
			if tt.excluded != "" {
				assert.NotContains(t, messages[0].Content, tt.excluded)
			}
		})
	}

	t.Run("neutral persona adds nothing", func(t *testing.T) {
		neutral := composer.BuildMessages(nil, "", &Persona{Warmth: 3, Formality: 3}, true)
		assert.Equal(t, basePrompt, neutral[0].Content)
	})
}

func TestBuildMessagesDeterminism(t *testing.T) {
	composer := NewComposer()
	history := []llm.Message{{Role: llm.RoleUser, Content: "hi"}}
	persona := &Persona{Warmth: 5, Formality: 1, Humor: true}

	first := composer.BuildMessages(history, "ctx", persona, true)
	second := composer.BuildMessages(history, "ctx", persona, true)

	assert.Equal(t, first, second)
}
