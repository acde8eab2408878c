package openai

import (
	"strings"
	"testing"
)

func TestBuildPromptIncludesAttachments(t *testing.T) {
	messages := BuildPrompt("write a report on supply chains", []string{"attachment one text", "", "attachment two text"})
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	user := messages[2].Content
	if !strings.Contains(user, "write a report on supply chains") {
		t.Fatalf("user prompt missing instruction: %q", user)
	}
	if !strings.Contains(user, "attachment one text") || !strings.Contains(user, "attachment two text") {
		t.Fatalf("user prompt missing attachment text: %q", user)
	}
	if strings.Contains(user, "Attachment 2:\n\n") {
		t.Fatalf("blank attachment should be skipped: %q", user)
	}
}

func TestBuildFixPromptEchoesRaw(t *testing.T) {
	messages := buildFixPrompt([]byte(`{"topic": "broken`))
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[0].Content != systemPromptFixJSON {
		t.Fatalf("unexpected system prompt: %q", messages[0].Content)
	}
	if !strings.Contains(messages[2].Content, `{"topic": "broken`) {
		t.Fatalf("fix prompt missing raw payload: %q", messages[2].Content)
	}
}
