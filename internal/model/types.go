package model

import "strings"

// Message is one cached upstream message.
type Message struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// RawMessage is the upstream wire shape. Fields are pointers so a missing
// key can be told apart from an empty string.
type RawMessage struct {
	ID        *string `json:"id"`
	UserID    *string `json:"user_id"`
	UserName  *string `json:"user_name"`
	Timestamp *string `json:"timestamp"`
	Message   *string `json:"message"`
}

// NewMessage materializes a Message from one upstream item. Every field must
// be present and non-null; the id must also be non-blank. On failure no
// partial value is returned.
func NewMessage(raw RawMessage) (Message, error) {
	if raw.ID == nil || strings.TrimSpace(*raw.ID) == "" {
		return Message{}, NewValidationError("id", "missing in upstream item")
	}
	for _, f := range []struct {
		name string
		val  *string
	}{
		{"user_id", raw.UserID},
		{"user_name", raw.UserName},
		{"timestamp", raw.Timestamp},
		{"message", raw.Message},
	} {
		if f.val == nil {
			return Message{}, NewValidationError(f.name, "missing in upstream item "+*raw.ID)
		}
	}
	return Message{
		ID:        *raw.ID,
		UserID:    *raw.UserID,
		UserName:  *raw.UserName,
		Timestamp: *raw.Timestamp,
		Message:   *raw.Message,
	}, nil
}
