package server

import "net/http"

// model is one entry of the /v1/models listing.
type model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// modelList is the OpenAI-style list wrapper.
type modelList struct {
	Object string  `json:"object"`
	Data   []model `json:"data"`
}

// availableModels is the static catalog. The Claude.ai web API has no model
// listing endpoint, so we serve fixed metadata to let OpenAI clients pick a
// model.
var availableModels = modelList{
	Object: "list",
	Data: []model{
		{ID: "claude-3.5-sonnet", Object: "model", Created: 1686935002, OwnedBy: "anthropic"},
		{ID: "claude-2", Object: "model", Created: 1686935002, OwnedBy: "anthropic"},
	},
}

// handleModels implements GET /v1/models.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, availableModels, http.StatusOK)
}
