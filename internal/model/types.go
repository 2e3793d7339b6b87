package model

import "time"

// Role identifies the author of a message within a conversation turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is a single utterance inside a conversation record.
// JSON field names match the stored wire format.
type Message struct {
	Role Role   `json:"role" bson:"role"`
	Text string `json:"message" bson:"message"`
}

// ConversationRecord is one user/bot exchange with a timestamp.
// Records are immutable once built; the fast tier and the durable store each
// hold independent copies.
type ConversationRecord struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	Timestamp float64   `json:"timestamp" bson:"timestamp"`
	Turns     []Message `json:"chat_content" bson:"chat_content"`
}

// NewConversationRecord builds a record for one exchange, stamped with the
// current time.
func NewConversationRecord(userID, userText, botText string) ConversationRecord {
	return ConversationRecord{
		UserID:    userID,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
		Turns: []Message{
			{Role: RoleUser, Text: userText},
			{Role: RoleBot, Text: botText},
		},
	}
}

// DocumentHit is a retrieval result from the search index.
type DocumentHit struct {
	Content  string  `json:"content"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}
