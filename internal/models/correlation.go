package models

// PromptRef is the opaque transport handle of the most recently sent
// interactive prompt for a request: enough to edit or supersede it later.
type PromptRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

func (p *PromptRef) Valid() bool {
	return p != nil && p.ChatID != 0 && p.MessageID != 0
}
