package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/clsync/claude-bridge/internal/claudeweb"
	"github.com/clsync/claude-bridge/internal/translate"
)

// chatIDHeader pins a request to an existing conversation.
const chatIDHeader = "X-Claude-Chat-Id"

// defaultMaxTokens is accepted for OpenAI compatibility but not enforced;
// the upstream has no token ceiling parameter.
const defaultMaxTokens = 1000

// chatCompletionRequest is the OpenAI-style request body. Tools may arrive
// in the current wrapped form or the legacy flat functions form.
type chatCompletionRequest struct {
	Model     string                      `json:"model"`
	Messages  []translate.ChatMessage     `json:"messages"`
	MaxTokens int                         `json:"max_tokens"`
	Tools     []toolEntry                 `json:"tools"`
	Functions []translate.ToolDeclaration `json:"functions"`
}

// toolEntry is one element of the tools array: {"type":"function",
// "function":{...}}, with the declaration fields also accepted inline.
type toolEntry struct {
	Type     string                     `json:"type"`
	Function *translate.ToolDeclaration `json:"function"`
	translate.ToolDeclaration
}

// declarations flattens both accepted tool shapes into declarations.
func (r *chatCompletionRequest) declarations() []translate.ToolDeclaration {
	tools := make([]translate.ToolDeclaration, 0, len(r.Tools)+len(r.Functions))
	for _, entry := range r.Tools {
		if entry.Function != nil {
			tools = append(tools, *entry.Function)
		} else if entry.Name != "" {
			tools = append(tools, entry.ToolDeclaration)
		}
	}
	tools = append(tools, r.Functions...)
	return tools
}

// handleChatCompletions implements POST /v1/chat/completions: translate the
// message list into one prompt, resolve or create a chat, drain the
// upstream completion stream, and answer in OpenAI's response schema.
func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		writeError(ctx, w, http.StatusUnsupportedMediaType,
			"Unsupported Media Type: Content-Type must be application/json")
		return
	}

	var req chatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid JSON data")
		return
	}

	model := req.Model
	if model == "" {
		model = s.defaultModel()
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	settings, err := s.store.Settings(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "Unexpected error: "+err.Error())
		return
	}
	if settings.ActiveOrganizationID == "" {
		writeError(ctx, w, http.StatusBadRequest, "No active organization set")
		return
	}

	messages := req.Messages
	if preamble := translate.ToolsPreamble(req.declarations()); preamble != "" {
		messages = append([]translate.ChatMessage{{Role: "system", Content: preamble}}, messages...)
	}
	prompt := translate.BuildPrompt(messages)

	chatID := r.Header.Get(chatIDHeader)
	if chatID == "" {
		chat, err := s.createChat(ctx, settings.ActiveOrganizationID, settings.ActiveProjectID)
		if err != nil {
			writeProviderError(ctx, w, err)
			return
		}
		chatID = chat.ID
	} else {
		slog.InfoContext(ctx, "reusing chat from request header", "chat_id", chatID)
	}

	slog.DebugContext(ctx, "sending prompt",
		"organization_id", settings.ActiveOrganizationID,
		"chat_id", chatID,
		"model", model,
		"max_tokens", maxTokens, // accepted but not forwarded upstream
		"prompt_bytes", len(prompt),
	)

	stream, err := s.provider.SendMessage(ctx, settings.ActiveOrganizationID, chatID, prompt)
	if err != nil {
		writeProviderError(ctx, w, err)
		return
	}

	// Drain the stream eagerly; the response is buffered, not streamed.
	var completion strings.Builder
	for event, err := range stream {
		if err != nil {
			writeProviderError(ctx, w, err)
			return
		}
		if event.Error != nil {
			writeProviderError(ctx, w, &claudeweb.APIError{
				Message: fmt.Sprintf("Error in Claude.ai response: %s", event.Error.Message),
			})
			return
		}
		completion.WriteString(event.Text())
	}

	writeJSON(ctx, w, translate.ToResponse(chatID, model, completion.String(), s.clock), http.StatusOK)
}

// createChat starts a new conversation in the active organization, scoped
// to the active project when one is set.
func (s *Server) createChat(ctx context.Context, orgID, projectID string) (*claudeweb.Chat, error) {
	name := fmt.Sprintf("claude-bridge - %s", s.clock().Format("15:04:05"))
	chat, err := s.provider.CreateChat(ctx, orgID, projectID, name)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "created chat", "chat_id", chat.ID, "name", name)
	return chat, nil
}
