package memory

// Role tags a conversational message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged entry of the model context window.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
