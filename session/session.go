package session

import (
	"strconv"
	"strings"

	"github.com/paperchat/paperchat/llm"
)

// ContextMode selects which representation of the source document is attached
// on the first turn of a session.
type ContextMode int

const (
	// ModeFullText attaches the cleaned document text inline.
	ModeFullText ContextMode = iota
	// ModeFilePayload attaches the document as a file content part.
	ModeFilePayload
)

func (m ContextMode) String() string {
	switch m {
	case ModeFullText:
		return "fullText"
	case ModeFilePayload:
		return "filePayload"
	default:
		return "unknown"
	}
}

// Session is the per-document conversation state. Only the turn orchestrator
// mutates it; every other component treats sessions as read-only.
type Session struct {
	History       []llm.Message
	LastResponse  string
	MultiTurn     bool
	FirstTurnSent bool
	Mode          ContextMode
}

// EnsureSystemPrompt inserts the system prompt as the first history entry if
// the history is empty. The first entry of a non-empty history is always the
// system prompt.
func (s *Session) EnsureSystemPrompt(prompt string) {
	if len(s.History) == 0 {
		s.History = append(s.History, llm.TextMessage("system", prompt))
	}
}

func (s *Session) AddUserMessage(content string) {
	s.History = append(s.History, llm.TextMessage("user", content))
}

func (s *Session) AddUserParts(parts ...llm.ContentPart) {
	s.History = append(s.History, llm.PartsMessage("user", parts...))
}

func (s *Session) AddAssistantMessage(content string) {
	s.History = append(s.History, llm.TextMessage("assistant", content))
}

// ContainsDocumentText reports whether any user turn in the history already
// carries the given document text. Used to detect edits to the document area
// after the first-turn context was attached: if the current text is no longer
// contained in history, the context must be re-attached.
func (s *Session) ContainsDocumentText(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, msg := range s.History {
		if msg.Role == "user" && strings.Contains(msg.TextContent(), text) {
			return true
		}
	}
	return false
}

// DocumentIdentity coerces a host item id to the opaque string key used across
// all per-document state.
func DocumentIdentity(id int64) string {
	if id <= 0 {
		return "unknown"
	}
	return strconv.FormatInt(id, 10)
}
