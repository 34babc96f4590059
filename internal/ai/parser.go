package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	thinkTagRegex  = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFenceRegex = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// StripThinkTags removes reasoning-model think blocks from a reply.
func StripThinkTags(text string) string {
	return strings.TrimSpace(thinkTagRegex.ReplaceAllString(text, ""))
}

// ParseDecisions extracts decisions from a chat reply. It accepts a JSON
// array, a single object, a fenced code block or JSON buried in prose.
func ParseDecisions(text string) ([]AIDecision, error) {
	cleaned := StripThinkTags(text)
	if m := codeFenceRegex.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
	}
	if cleaned == "" || cleaned == "[]" {
		return nil, nil
	}

	candidates := []string{
		cleaned,
		between(cleaned, "[", "]"),
		between(cleaned, "{", "}"),
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if decisions, ok := decode(c); ok {
			return decisions, nil
		}
	}

	return nil, fmt.Errorf("failed to parse AI response as JSON: %.200s", cleaned)
}

func decode(text string) ([]AIDecision, bool) {
	var list []AIDecision
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return list, true
	}
	var single AIDecision
	if err := json.Unmarshal([]byte(text), &single); err == nil {
		return []AIDecision{single}, true
	}
	return nil, false
}

// between returns the widest substring opening with open and closing with close.
func between(text, open, close string) string {
	start := strings.Index(text, open)
	end := strings.LastIndex(text, close)
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+len(close)]
}
