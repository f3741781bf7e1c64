package engine

import "time"

// Stage identifies where a turn currently is in its lifecycle.
type Stage int

const (
	StageValidating Stage = iota
	StageFetchingContext
	StageStreaming
)

func (s Stage) String() string {
	switch s {
	case StageValidating:
		return "validating"
	case StageFetchingContext:
		return "fetching_context"
	case StageStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// StreamChunk is one semantic event emitted during a turn. Exactly one field
// is set. The hosting UI maps AnswerDelta chunks to incremental text updates
// and Progress/Complete/Error chunks to its busy/idle state.
type StreamChunk struct {
	Progress *ProgressUpdate
	Answer   *AnswerDelta
	Error    *StreamError
	Complete *TurnResult
}

type ProgressUpdate struct {
	Stage     Stage
	Timestamp int64
	Message   string
}

type AnswerDelta struct {
	Content string
}

type StreamError struct {
	ErrorMessage string
	ErrorCode    string
}

// TurnResult is the terminal payload of a successful turn. An empty Answer
// means the stream completed at HTTP level but the model produced no content.
type TurnResult struct {
	Answer         string
	ProcessingTime int64
}

// ProgressReporter receives the semantic events of a running turn.
type ProgressReporter interface {
	Send(event *StreamChunk) error
}

// NoOpProgressReporter implements ProgressReporter with no-op operations
type NoOpProgressReporter struct{}

func (r *NoOpProgressReporter) Send(event *StreamChunk) error {
	return nil
}

// Helper functions for creating progress events
func NewProgressUpdate(stage Stage, message string) *StreamChunk {
	return &StreamChunk{
		Progress: &ProgressUpdate{
			Stage:     stage,
			Timestamp: time.Now().UnixMilli(),
			Message:   message,
		},
	}
}

func NewAnswerChunk(content string) *StreamChunk {
	return &StreamChunk{Answer: &AnswerDelta{Content: content}}
}

func NewStreamError(message, code string) *StreamChunk {
	return &StreamChunk{
		Error: &StreamError{
			ErrorMessage: message,
			ErrorCode:    code,
		},
	}
}

func NewStreamComplete(result *TurnResult) *StreamChunk {
	return &StreamChunk{Complete: result}
}
