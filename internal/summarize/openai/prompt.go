package openai

import (
	"fmt"
	"strings"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const (
	systemPrompt = "You are an order intake engine for an academic writing service. " +
		"Respond with JSON only. No markdown. Never omit keys. " +
		"Use null for any field you cannot determine from the brief."

	systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."

	schemaPrompt = `Extract the following fields from the client brief and return them as a single JSON object:
{
  "topic": string or null,
  "wordCount": integer or null,
  "referencingStyle": string or null (e.g. "APA", "Harvard", "MLA", "Chicago"),
  "writingStyle": string or null (e.g. "Essay", "Report", "Dissertation"),
  "category": string or null (subject area),
  "level": string or null (e.g. "Undergraduate", "Masters", "PhD"),
  "software": array of strings (required tools, empty array if none),
  "summaryText": string (2-4 sentence summary of what the client wants)
}
Never invent values. If the brief does not state a field, use null.`
)

// BuildPrompt creates the chat messages for a summarization request.
func BuildPrompt(instruction string, attachmentTexts []string) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "developer", Content: schemaPrompt},
		{Role: "user", Content: buildUserPrompt(instruction, attachmentTexts)},
	}
}

func buildFixPrompt(raw []byte) []Message {
	return []Message{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "developer", Content: schemaPrompt},
		{Role: "user", Content: fmt.Sprintf("Fix this JSON to match the schema exactly. Output JSON only:\n%s", string(raw))},
	}
}

func buildUserPrompt(instruction string, attachmentTexts []string) string {
	var b strings.Builder
	b.WriteString("Client Brief:\n")
	b.WriteString(instruction)
	for i, text := range attachmentTexts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n\nAttachment %d:\n%s", i+1, text)
	}
	return b.String()
}
