package translate

import "encoding/json"

// ChatMessage is a single OpenAI-style conversation message as received
// from the client. Content is always plain text; structured content parts
// are not part of this API surface.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolDeclaration describes a callable tool the client makes available to
// the model for one request.
type ToolDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

// ToolParameters is the JSON-schema-shaped parameter declaration of a tool.
type ToolParameters struct {
	Properties map[string]ToolProperty `json:"properties"`
	Required   []string                `json:"required"`
}

// ToolProperty declares a single named tool parameter.
type ToolProperty struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// FunctionCall is a tool invocation extracted from a completion. Arguments
// holds the parsed JSON object from the fenced block.
type FunctionCall struct {
	Name      string
	Arguments map[string]any
}

// Response is the OpenAI-compatible chat.completion object returned to
// clients.
type Response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is a single completion alternative. This bridge always returns
// exactly one.
type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// ResponseMessage is the assistant message inside a choice. FunctionCall is
// present only when a function-call block was extracted from the completion.
type ResponseMessage struct {
	Role         string                `json:"role"`
	Content      string                `json:"content"`
	FunctionCall *ResponseFunctionCall `json:"function_call,omitempty"`
}

// ResponseFunctionCall mirrors OpenAI's wire format: Arguments is the
// JSON-serialized arguments object, not the object itself.
type ResponseFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage reports token counts. The provider does not report usage, so every
// count is the sentinel TokenCountUnknown.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TokenCountUnknown is the sentinel used for all usage counts; the Claude.ai
// web API gives no token accounting.
const TokenCountUnknown = -1

// marshalArguments serializes a parsed arguments object back to its JSON
// form for the response. A nil map serializes as "{}".
func marshalArguments(args map[string]any) string {
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		// Values originate from json.Unmarshal, so this cannot fail in
		// practice; keep the response well-formed regardless.
		return "{}"
	}
	return string(data)
}
