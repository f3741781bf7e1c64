package engine

import (
	"context"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"go.uber.org/zap"

	"github.com/paperchat/paperchat/associative"
	"github.com/paperchat/paperchat/llm"
	"github.com/paperchat/paperchat/prompts"
	"github.com/paperchat/paperchat/session"
)

// Config holds the collaborators and settings of the turn orchestrator.
type Config struct {
	// Credentials are validated before any network call.
	APIKey  string
	BaseURL string
	Model   string

	Client llm.LLMClient
	// MultiDocClient serves multi-document turns; falls back to Client.
	MultiDocClient llm.LLMClient

	Sessions  *session.Store
	Retriever *associative.Retriever

	// Language selects the system prompt language ("en-US", "zh-CN", ...).
	Language string

	// CleanText normalizes extracted document text before it is attached.
	// Nil leaves the text untouched.
	CleanText func(string) string
}

// Engine coordinates a single user turn: validate, optionally fetch
// associative context, assemble the message list against the session's
// history, stream the completion, and commit the result. Only the engine
// mutates session state.
type Engine struct {
	config Config
}

func New(config Config) *Engine {
	return &Engine{config: config}
}

// Document is one source document attached to a turn.
type Document struct {
	ID       string
	Text     string // cleaned or raw extracted text
	FileName string
	FileData []byte // raw bytes for file-payload mode
	FileID   string // pre-uploaded file reference, wins over FileData
}

// TurnRequest describes one user action.
type TurnRequest struct {
	Kind        prompts.Kind
	SessionKey  string
	Documents   []Document
	Question    string
	Abstract    string
	Associative bool
	MultiTurn   bool
	Mode        session.ContextMode
}

// RunTurn executes one turn. Streaming deltas and lifecycle events go to
// reporter; the assembled result is returned on natural completion. A failed
// or abandoned turn commits nothing to the session.
func (e *Engine) RunTurn(ctx context.Context, reporter ProgressReporter, req *TurnRequest) (*TurnResult, error) {
	startTime := time.Now()

	reporter.Send(NewProgressUpdate(StageValidating, "validating request"))

	docText := e.documentText(req)

	if err := e.validate(req, docText); err != nil {
		reporter.Send(NewStreamError(err.Error(), errorCode(err)))
		return nil, err
	}

	s := e.config.Sessions.Get(req.SessionKey)
	s.MultiTurn = req.MultiTurn
	s.Mode = req.Mode

	userText := e.turnText(req, docText)

	if req.Associative {
		userText = e.appendAssociativeContent(ctx, reporter, req, userText)
	}

	systemPrompt, err := prompts.System(req.Kind, req.Associative, e.config.Language)
	if err != nil {
		reporter.Send(NewStreamError(err.Error(), "prompt_loading_failed"))
		return nil, err
	}

	messages, rollback := e.buildMessages(s, req, systemPrompt, userText, docText)

	reporter.Send(NewProgressUpdate(StageStreaming, "waiting for model response"))

	answer, err := e.clientFor(req).StreamComplete(ctx, messages, func(chunk string) error {
		return reporter.Send(NewAnswerChunk(chunk))
	})
	if err != nil {
		// Nothing is committed on failure or abandonment: the user turn added
		// above is rolled back so a retry re-attaches context cleanly.
		rollback()
		logger.Error("completion failed", zap.String("sessionKey", req.SessionKey), zap.Error(err))
		reporter.Send(NewStreamError(err.Error(), "completion_failed"))
		return nil, err
	}

	s.LastResponse = answer
	if req.MultiTurn {
		s.AddAssistantMessage(answer)
	}

	result := &TurnResult{
		Answer:         answer,
		ProcessingTime: time.Since(startTime).Milliseconds(),
	}
	reporter.Send(NewStreamComplete(result))
	return result, nil
}

// documentText concatenates and normalizes the attached documents' text.
func (e *Engine) documentText(req *TurnRequest) string {
	var texts []string
	for _, doc := range req.Documents {
		text := strings.TrimSpace(doc.Text)
		if text == "" {
			continue
		}
		if e.config.CleanText != nil {
			text = e.config.CleanText(text)
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, "\n\n")
}

// turnText is the instruction portion of the outgoing user turn.
func (e *Engine) turnText(req *TurnRequest, docText string) string {
	switch req.Kind {
	case prompts.KindSummarize, prompts.KindTranslate:
		return ""
	default:
		return strings.TrimSpace(req.Question)
	}
}

// appendAssociativeContent runs the retrieval pipeline and appends its result
// to the outgoing text. Retrieval failure is reported inline and never aborts
// the base turn.
func (e *Engine) appendAssociativeContent(ctx context.Context, reporter ProgressReporter, req *TurnRequest, userText string) string {
	if e.config.Retriever == nil {
		return userText
	}
	if strings.TrimSpace(req.Abstract) == "" {
		reporter.Send(NewStreamError("abstract is empty, skipping associative search", "associative_skipped"))
		return userText
	}

	reporter.Send(NewProgressUpdate(StageFetchingContext, "fetching associative content"))

	docID := "unknown"
	if len(req.Documents) > 0 {
		docID = req.Documents[0].ID
	}

	content, err := async.Await(e.config.Retriever.Retrieve(ctx, docID, req.Abstract))
	if err != nil {
		logger.Error("associative retrieval failed", zap.String("docID", docID), zap.Error(err))
		reporter.Send(NewStreamError("failed to fetch associative content: "+err.Error(), "associative_failed"))
		return userText
	}

	if userText == "" {
		return content
	}
	return userText + "\n" + content
}

// buildMessages assembles the outgoing message list, applying the first-turn
// context rule: the bulk payload (full text or file) travels only once per
// session, unless the document text was edited since it was attached. The
// returned rollback restores the session if the turn fails.
func (e *Engine) buildMessages(s *session.Session, req *TurnRequest, systemPrompt, userText, docText string) ([]llm.Message, func()) {
	if !req.MultiTurn {
		return []llm.Message{
			llm.TextMessage("system", systemPrompt),
			e.contextMessage(req, userText, docText),
		}, func() {}
	}

	historyLen := len(s.History)
	firstTurnSent := s.FirstTurnSent
	rollback := func() {
		s.History = s.History[:historyLen]
		s.FirstTurnSent = firstTurnSent
	}

	s.EnsureSystemPrompt(systemPrompt)

	attachContext := !s.FirstTurnSent
	if s.FirstTurnSent && req.Mode == session.ModeFullText && docText != "" && !s.ContainsDocumentText(docText) {
		// Document area edited since the context was attached: the model
		// would otherwise answer against stale content.
		attachContext = true
	}

	if attachContext {
		msg := e.contextMessage(req, userText, docText)
		s.History = append(s.History, msg)
		s.FirstTurnSent = true
	} else {
		s.AddUserMessage(e.followUpText(req, userText))
	}

	messages := make([]llm.Message, len(s.History))
	copy(messages, s.History)
	return messages, rollback
}

// contextMessage builds the user turn that carries the document payload.
func (e *Engine) contextMessage(req *TurnRequest, userText, docText string) llm.Message {
	if req.Mode == session.ModeFilePayload {
		var parts []llm.ContentPart
		for _, doc := range req.Documents {
			switch {
			case doc.FileID != "":
				parts = append(parts, llm.FileIDPart(doc.FileID))
			case doc.FileData != nil:
				parts = append(parts, llm.FileDataPart(doc.FileName, llm.PDFDataURL(doc.FileData)))
			}
		}
		parts = append(parts, llm.TextPart(e.followUpText(req, userText)))
		return llm.PartsMessage("user", parts...)
	}

	content := docText
	if userText != "" {
		content += "\n" + userText
	}
	return llm.TextMessage("user", content)
}

// followUpText is the instruction sent when the context is already in
// history, or alongside a file payload.
func (e *Engine) followUpText(req *TurnRequest, userText string) string {
	if userText != "" {
		return userText
	}
	switch req.Kind {
	case prompts.KindSummarize:
		return "Please summarize the paper content discussed above."
	case prompts.KindTranslate:
		return "Please translate the paper content discussed above."
	default:
		return userText
	}
}

func (e *Engine) clientFor(req *TurnRequest) llm.LLMClient {
	if len(req.Documents) > 1 && e.config.MultiDocClient != nil {
		return e.config.MultiDocClient
	}
	return e.config.Client
}

func (e *Engine) validate(req *TurnRequest, docText string) error {
	if e.config.APIKey == "" || e.config.BaseURL == "" {
		return &ConfigError{Msg: "API key or base URL is not set. Please configure them in the settings."}
	}
	if strings.TrimSpace(e.config.Model) == "" {
		return &ConfigError{Msg: "Model is not set. Please enter the model name in settings."}
	}

	hasContext := docText != "" || hasFilePayload(req)

	switch req.Kind {
	case prompts.KindAsk:
		if !hasContext {
			return &ValidationError{Msg: "Document content cannot be empty. Please insert or extract document content first."}
		}
		if strings.TrimSpace(req.Question) == "" {
			return &ValidationError{Msg: "Please enter your question."}
		}
	case prompts.KindSummarize:
		if !hasContext {
			return &ValidationError{Msg: "Please enter some text to summarize."}
		}
	case prompts.KindTranslate:
		if !hasContext {
			return &ValidationError{Msg: "Please enter some text to translate."}
		}
	case prompts.KindChat:
		if strings.TrimSpace(req.Question) == "" {
			return &ValidationError{Msg: "Please enter your question."}
		}
	}

	return nil
}

func hasFilePayload(req *TurnRequest) bool {
	if req.Mode != session.ModeFilePayload {
		return false
	}
	for _, doc := range req.Documents {
		if doc.FileID != "" || doc.FileData != nil {
			return true
		}
	}
	return false
}

func errorCode(err error) string {
	switch err.(type) {
	case *ConfigError:
		return "config_missing"
	case *ValidationError:
		return "validation_failed"
	default:
		return "turn_failed"
	}
}

// ConfigError means required credentials or the model name are missing. It is
// never retried; the user is pointed at the settings.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// ValidationError means a required input was empty. No network call is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
