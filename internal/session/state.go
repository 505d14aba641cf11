package session

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Assistant message kinds.
const (
	KindAnswer = "answer"
	KindError  = "error"
	KindEmpty  = "empty"
)

type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Kind      string    `json:"kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// State is everything one dashboard session carries between requests.
type State struct {
	ID              string        `json:"id"`
	ThreadID        string        `json:"thread_id,omitempty"`
	Messages        []ChatMessage `json:"messages"`
	CacheGeneration int64         `json:"cache_generation"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Clone returns a copy whose transcript can be appended to without touching s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = append([]ChatMessage(nil), s.Messages...)
	return &out
}

// ClearConversation drops the transcript and the agent thread.
func (s *State) ClearConversation() {
	s.Messages = []ChatMessage{}
	s.ThreadID = ""
}
