package translate

import "time"

// Clock supplies the response timestamp; injectable so tests can pin it.
type Clock func() time.Time

// ToResponse converts a raw provider completion into an OpenAI-style
// chat.completion response.
//
// When the completion embeds a function-call block, the block is stripped
// from the returned content and surfaced as message.function_call with its
// arguments re-serialized to JSON; otherwise the completion text is returned
// verbatim. The finish reason is always "stop" (the provider gives no other
// termination signal) and usage counts are always the unknown sentinel.
func ToResponse(chatID, model, completion string, now Clock) *Response {
	if now == nil {
		now = time.Now
	}

	msg := ResponseMessage{
		Role:    "assistant",
		Content: completion,
	}
	if call := ExtractFunctionCall(completion); call != nil {
		msg.Content = StripFunctionCallBlock(completion)
		msg.FunctionCall = &ResponseFunctionCall{
			Name:      call.Name,
			Arguments: marshalArguments(call.Arguments),
		}
	}

	return &Response{
		ID:      "chatcmpl-" + chatID,
		Object:  "chat.completion",
		Created: now().Unix(),
		Model:   model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      msg,
				FinishReason: "stop",
			},
		},
		Usage: Usage{
			PromptTokens:     TokenCountUnknown,
			CompletionTokens: TokenCountUnknown,
			TotalTokens:      TokenCountUnknown,
		},
	}
}
