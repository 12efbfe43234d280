package models

import "strings"

// Role identifies who produced a turn.
type Role string

const (
	RoleExaminer Role = "examiner"
	RoleStudent  Role = "student"
)

// Normalize maps accepted aliases onto the canonical roles. Older clients
// label examiner turns "ai".
func (r Role) Normalize() (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(string(r)))) {
	case RoleExaminer, "ai":
		return RoleExaminer, true
	case RoleStudent:
		return RoleStudent, true
	default:
		return r, false
	}
}

// Turn is one utterance of the examination as held by the client.
type Turn struct {
	Role      Role   `json:"role" bson:"role"`
	Content   string `json:"content" bson:"content"`
	Timestamp string `json:"timestamp" bson:"timestamp"`
}

// ConversationRequest is one round of the voice pipeline. The client carries
// the whole history and the step counter; nothing is kept between requests.
type ConversationRequest struct {
	Audio   string `json:"audio"`
	Format  string `json:"format,omitempty"`
	History []Turn `json:"history"`
	Step    int    `json:"step"`
}

type ConversationResponse struct {
	TranscribedText string `json:"transcribed_text"`
	ReplyText       string `json:"reply_text"`
	ReplyAudio      []byte `json:"reply_audio"`
	NextStep        int    `json:"next_step"`
	IsComplete      bool   `json:"is_complete"`
}

// TextTurnRequest drives the state machine without the audio stages.
type TextTurnRequest struct {
	Text    string `json:"text"`
	History []Turn `json:"history"`
	Step    int    `json:"step"`
}

type TextTurnResponse struct {
	Response   string `json:"response"`
	NextStep   int    `json:"next_step"`
	IsComplete bool   `json:"is_complete"`
}
