// Package translate converts between the OpenAI chat-completions shapes and
// the single-prompt conversation model of the Claude.ai web API.
//
// Translation is a pure function of its inputs (plus wall-clock time for the
// response timestamp): an ordered message list becomes one role-labeled
// prompt string, and a raw completion becomes an OpenAI-style response,
// including best-effort extraction of an embedded function-call block.
package translate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// RoleLabels maps the recognized OpenAI message roles to the provider-native
// prompt labels. Messages with any other role are silently dropped from the
// prompt; this bridge passes conversations through, it does not validate
// them.
var RoleLabels = map[string]string{
	"system":    "System",
	"user":      "Human",
	"assistant": "Assistant",
}

// promptSeparator joins prompt segments with a blank line.
const promptSeparator = "\n\n"

// BuildPrompt flattens an ordered message list into a single prompt string.
// Each recognized message contributes one "<Label>: <content>" segment in
// input order; unrecognized roles contribute nothing and raise no error.
func BuildPrompt(messages []ChatMessage) string {
	segments := make([]string, 0, len(messages))
	for _, msg := range messages {
		label, ok := RoleLabels[msg.Role]
		if !ok {
			continue
		}
		segments = append(segments, label+": "+msg.Content)
	}
	return strings.Join(segments, promptSeparator)
}

// functionCallInstruction is appended to the tools preamble. It tells the
// model how to emit a function call; the model is asked, not guaranteed, to
// follow it, which is why extraction on the way back is best-effort.
const functionCallInstruction = "To call a function, respond with a fenced code block tagged `function` " +
	"containing a JSON object with a string field \"name\" and an object field \"arguments\", " +
	"followed by any free text:\n\n" +
	"```function\n{\"name\": \"<function name>\", \"arguments\": {<arguments>}}\n```"

// ToolsPreamble renders the declared tools as a human-readable instruction
// block, ending with the fixed function-call protocol description. It
// returns the empty string when no tools are declared. A non-empty preamble
// is meant to be injected as a leading system message ahead of all
// caller-supplied messages.
func ToolsPreamble(tools []ToolDeclaration) string {
	if len(tools) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("You have access to the following functions:\n")
	for _, tool := range tools {
		fmt.Fprintf(&b, "\nFunction: %s\n", tool.Name)
		if tool.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", tool.Description)
		}

		required := make(map[string]bool, len(tool.Parameters.Required))
		for _, name := range tool.Parameters.Required {
			required[name] = true
		}

		names := make([]string, 0, len(tool.Parameters.Properties))
		for name := range tool.Parameters.Properties {
			names = append(names, name)
		}
		sort.Strings(names)

		if len(names) > 0 {
			b.WriteString("Parameters:\n")
		}
		for _, name := range names {
			prop := tool.Parameters.Properties[name]
			typ := prop.Type
			if typ == "" {
				typ = "string"
			}
			fmt.Fprintf(&b, "  - %s (%s, required=%t): %s\n", name, typ, required[name], prop.Description)
		}
	}
	b.WriteString("\n")
	b.WriteString(functionCallInstruction)
	return b.String()
}

// functionBlockRE matches the first fenced block tagged "function". Both
// fences must be lines of their own; the interior match is non-greedy so a
// completion that contains further fences does not swallow them.
var functionBlockRE = regexp.MustCompile("(?ms)^```function\n(.*?)\n```$")

// ExtractFunctionCall searches text for a fenced function-call block and
// parses its interior as JSON. Absence of a block, or malformed JSON inside
// one, returns nil; an LLM is only asked to follow the format, so a failed
// parse is a normal outcome, not an error.
func ExtractFunctionCall(text string) *FunctionCall {
	m := functionBlockRE.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var payload struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(m[1]), &payload); err != nil {
		return nil
	}

	call := &FunctionCall{Name: payload.Name, Arguments: payload.Arguments}
	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}
	return call
}

// StripFunctionCallBlock removes the matched fenced block, fences included,
// and trims surrounding whitespace. Only the first block is removed, the
// same one ExtractFunctionCall inspects. Text without a block is returned
// unchanged apart from trimming.
func StripFunctionCallBlock(text string) string {
	loc := functionBlockRE.FindStringIndex(text)
	if loc == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
}
