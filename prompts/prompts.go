package prompts

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed templates/*
var templatesFS embed.FS

// Kind selects the system prompt family for a turn.
type Kind string

const (
	KindAsk       Kind = "ask"
	KindSummarize Kind = "summarize"
	KindTranslate Kind = "translate"
	KindChat      Kind = "chat"
)

// System returns the system prompt for a turn, selected by kind, whether
// associative content is attached, and UI language. Languages other than
// Chinese fall back to English; kinds without an associative variant fall
// back to their base prompt.
func System(kind Kind, associative bool, lang string) (string, error) {
	suffix := langSuffix(lang)

	if associative {
		prompt, err := load(fmt.Sprintf("templates/%s_associate_%s.md", kind, suffix))
		if err == nil {
			return prompt, nil
		}
	}

	return load(fmt.Sprintf("templates/%s_%s.md", kind, suffix))
}

// KeywordExtraction returns the fixed system prompt instructing the model to
// emit 3-5 comma-separated generalized English search keywords.
func KeywordExtraction() (string, error) {
	return load("templates/keywords_system.md")
}

func load(name string) (string, error) {
	content, err := templatesFS.ReadFile(name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}

func langSuffix(lang string) string {
	if strings.HasPrefix(strings.ToLower(lang), "zh") {
		return "zh"
	}
	return "en"
}
