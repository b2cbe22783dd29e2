package domain

import "time"

// MessageKind tags a chat turn as a user question or a backend answer
type MessageKind string

const (
	KindQuestion MessageKind = "question"
	KindAnswer   MessageKind = "answer"
)

// Message is one turn in the chat history
type Message struct {
	Kind MessageKind `json:"type"`
	Text string      `json:"text"`
}

// Question builds a question message
func Question(text string) Message {
	return Message{Kind: KindQuestion, Text: text}
}

// Answer builds an answer message
func Answer(text string) Message {
	return Message{Kind: KindAnswer, Text: text}
}

// ChatState is a point-in-time copy of a chat workspace.
// An empty SessionID or Error means the value is absent.
type ChatState struct {
	Messages  []Message `json:"messages"`
	SessionID string    `json:"session_id,omitempty"`
	IsLoading bool      `json:"is_loading"`
	Error     string    `json:"error,omitempty"`
}

// HasSession reports whether a document session has been established
func (s ChatState) HasSession() bool {
	return s.SessionID != ""
}

// Outcome is the uniform result reported to callers of an upload
type Outcome struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// AskRequest is the request to ask a question in a workspace
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse reports whether the question was accepted and the resulting state
type AskResponse struct {
	Accepted bool      `json:"accepted"`
	State    ChatState `json:"state"`
}

// SummarizationRequest toggles backend summarization for a workspace
type SummarizationRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// WorkspaceResponse is returned when a workspace is created
type WorkspaceResponse struct {
	ID                  string    `json:"id"`
	EnableSummarization bool      `json:"enable_summarization"`
	State               ChatState `json:"state"`
}

// TranscriptEntry is an archived message
type TranscriptEntry struct {
	ID          string      `json:"id"`
	WorkspaceID string      `json:"workspace_id"`
	SessionID   string      `json:"session_id"`
	Kind        MessageKind `json:"type"`
	Text        string      `json:"text"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Stats represents archive statistics
type Stats struct {
	TotalSessions  int `json:"total_sessions"`
	TotalQuestions int `json:"total_questions"`
	TotalAnswers   int `json:"total_answers"`
}
