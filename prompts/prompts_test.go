package prompts

import (
	"strings"
	"testing"
)

func TestSystemPromptSelection(t *testing.T) {
	tests := []struct {
		name        string
		kind        Kind
		associative bool
		lang        string
		contains    string
	}{
		{"ask english", KindAsk, false, "en-US", "answer my question in clear and accurate English"},
		{"ask chinese", KindAsk, false, "zh-CN", "使用中文回答我的问题"},
		{"ask associative", KindAsk, true, "en-US", "associative search"},
		{"summarize english", KindSummarize, false, "en-US", "summarize the key points"},
		{"summarize associative", KindSummarize, true, "en-US", "summarize the main paper and related articles separately"},
		{"translate english", KindTranslate, false, "en-US", "translate the provided paper content"},
		{"translate chinese", KindTranslate, false, "zh-CN", "翻译为准确、流畅的中文"},
		{"chat english", KindChat, false, "en-US", "answer my question"},
		{"unknown lang falls back to english", KindAsk, false, "fr-FR", "English"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := System(tt.kind, tt.associative, tt.lang)
			if err != nil {
				t.Fatalf("Failed to load system prompt: %v", err)
			}
			if prompt == "" {
				t.Fatal("System prompt should not be empty")
			}
			if !strings.Contains(prompt, tt.contains) {
				t.Errorf("Prompt should contain '%s', got: %s", tt.contains, prompt)
			}
		})
	}
}

func TestSystemPromptAssociativeFallback(t *testing.T) {
	// Translate has no associative variant; it must fall back to the base prompt.
	withAssoc, err := System(KindTranslate, true, "en-US")
	if err != nil {
		t.Fatalf("Failed to load prompt: %v", err)
	}
	base, err := System(KindTranslate, false, "en-US")
	if err != nil {
		t.Fatalf("Failed to load prompt: %v", err)
	}
	if withAssoc != base {
		t.Error("Associative translate should fall back to the base translate prompt")
	}
}

func TestKeywordExtractionPrompt(t *testing.T) {
	prompt, err := KeywordExtraction()
	if err != nil {
		t.Fatalf("Failed to load keyword prompt: %v", err)
	}

	expected := []string{
		"3 to 5 generalized English keywords",
		"separated by commas",
		"literature search",
	}
	for _, want := range expected {
		if !strings.Contains(prompt, want) {
			t.Errorf("Keyword prompt should contain '%s'", want)
		}
	}
}
