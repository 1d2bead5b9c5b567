package models

// Turn captures one exchange entry inside a chat session history.

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// TimestampLayout is the format used for every timestamp written to the
// sheet store, in local server time.
const TimestampLayout = "2006-01-02 15:04:05"
