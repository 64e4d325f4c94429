package model

// Conversation is a single user/bot exchange returned by the conversation
// retrieval capability.
type Conversation struct {
	ID          string `json:"id" yaml:"id"`
	UserMessage string `json:"user_message" yaml:"userMessage"`
	BotResponse string `json:"bot_response" yaml:"botResponse"`
	Timestamp   string `json:"timestamp" yaml:"timestamp"`
}

// Evaluation is the quality verdict for one conversation. A degraded
// evaluation could not be obtained; it has no score and is excluded from
// the average.
type Evaluation struct {
	ConversationID string `json:"conversationId" yaml:"conversationId"`
	Score          int    `json:"score,omitempty" yaml:"score,omitempty"`
	Comment        string `json:"comment,omitempty" yaml:"comment,omitempty"`
	Degraded       bool   `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	Error          string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ChangeRequest identifies a submitted change request (pull request).
type ChangeRequest struct {
	URL    string `json:"change_request_url" yaml:"url"`
	Number int    `json:"change_request_number" yaml:"number"`
}
