// Package memory holds the ordered conversation context fed to each model call.
package memory

import "sync"

// DefaultSystemMessage is used until the session picks a language.
const DefaultSystemMessage = "You are Zoya, a helpful AI assistant. Respond concisely and clearly in English."

// Conversation is an ordered list of messages with exactly one system message.
//
// There is no eviction: every appended turn stays until Reset. Callers that run
// long sessions should watch Len.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
}

// NewConversation creates a conversation seeded with systemMessage, or with
// DefaultSystemMessage when it is empty.
func NewConversation(systemMessage string) *Conversation {
	if systemMessage == "" {
		systemMessage = DefaultSystemMessage
	}
	return &Conversation{
		messages: []Message{{Role: RoleSystem, Content: systemMessage}},
	}
}

// Append adds a message at the end.
func (c *Conversation) Append(role Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{Role: role, Content: content})
}

// SetSystemMessage replaces the system message in place, or inserts one at the
// front when none exists. Stray duplicates are dropped.
func (c *Conversation) SetSystemMessage(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	replaced := false
	out := c.messages[:0]
	for _, m := range c.messages {
		if m.Role != RoleSystem {
			out = append(out, m)
			continue
		}
		if replaced {
			continue
		}
		m.Content = content
		out = append(out, m)
		replaced = true
	}
	c.messages = out
	if !replaced {
		c.messages = append([]Message{{Role: RoleSystem, Content: content}}, c.messages...)
	}
}

// SystemMessage returns the current system instruction.
func (c *Conversation) SystemMessage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.systemLocked()
}

// Snapshot returns a copy of all messages in insertion order.
func (c *Conversation) Snapshot() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Reset discards every user and assistant turn, keeping the system message.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	system := c.systemLocked()
	if system == "" {
		system = DefaultSystemMessage
	}
	c.messages = []Message{{Role: RoleSystem, Content: system}}
}

// Len reports the number of messages, system message included.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

func (c *Conversation) systemLocked() string {
	for _, m := range c.messages {
		if m.Role == RoleSystem {
			return m.Content
		}
	}
	return ""
}
