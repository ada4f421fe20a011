package chatbot

import (
	"context"
	"log"
	"strings"
)

// Responder answers analytics questions in natural language.
type Responder interface {
	Respond(ctx context.Context, query string) (string, error)
}

// New picks the LLM agent when an OpenAI key is configured and the
// rule-based fallback otherwise.
func New(openAIKey string, tools *Tools) (Responder, error) {
	if strings.TrimSpace(openAIKey) == "" {
		log.Printf("chatbot running without llm, using rule-based responder")
		return NewFallback(tools), nil
	}
	return NewAgent(openAIKey, tools)
}
