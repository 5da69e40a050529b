package claudeweb

// Organization is a Claude.ai organization the session key has access to.
type Organization struct {
	ID   string `json:"uuid"`
	Name string `json:"name"`
}

// Project is a project scoped to an organization.
type Project struct {
	ID          string `json:"uuid"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ArchivedAt  string `json:"archived_at,omitempty"`
}

// Chat is a conversation thread scoped to an organization and, optionally,
// a project.
type Chat struct {
	ID        string `json:"uuid"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// CompletionEvent is one SSE frame of a streamed completion. Depending on
// the upstream variant the assistant text arrives in either Completion or
// Content; Error carries an in-stream failure.
type CompletionEvent struct {
	Completion string      `json:"completion,omitempty"`
	Content    string      `json:"content,omitempty"`
	Error      *EventError `json:"error,omitempty"`
}

// EventError is the error payload embedded in a completion event.
type EventError struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// Text returns the assistant text carried by the event, whichever field the
// upstream used.
func (e CompletionEvent) Text() string {
	if e.Completion != "" {
		return e.Completion
	}
	return e.Content
}
