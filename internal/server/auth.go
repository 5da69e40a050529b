package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/clsync/claude-bridge/internal/claudeweb"
	"github.com/clsync/claude-bridge/internal/session"
)

// loginResponse is the success payload of /login and /check_login.
type loginResponse struct {
	Status             string `json:"status,omitempty"`
	Message            string `json:"message,omitempty"`
	OrganizationsCount int    `json:"organizations_count"`
	ActiveOrganization string `json:"active_organization"`
}

// sessionKeyFromRequest extracts the session key from the login request:
// form field, JSON body, or header, in that order.
func sessionKeyFromRequest(r *http.Request, field string) string {
	if key := r.PostFormValue(field); key != "" {
		return key
	}
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body[field] != "" {
		return body[field]
	}
	return r.Header.Get("X-Session-Key")
}

// handleLogin implements POST /login: store the submitted session key with
// the default expiry, verify it by listing organizations, and activate the
// first organization. A key the upstream rejects answers 401.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := sessionKeyFromRequest(r, "session_key")
	if key == "" {
		writeError(ctx, w, http.StatusBadRequest, "No session key provided")
		return
	}

	creds := &session.Credentials{
		SessionKey: key,
		ExpiresAt:  s.clock().Add(session.DefaultExpiry),
	}
	if err := s.store.SetCredentials(ctx, creds); err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "Failed to save session key")
		return
	}

	orgs, err := s.provider.ListOrganizations(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusUnauthorized, "Login failed: "+err.Error())
		return
	}
	if len(orgs) == 0 {
		writeError(ctx, w, http.StatusUnauthorized, "Login failed: Unable to retrieve organizations")
		return
	}

	active := orgs[0]
	if err := s.activateOrganization(r, active); err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "Unexpected error during login: "+err.Error())
		return
	}

	slog.InfoContext(ctx, "login successful",
		"organizations", len(orgs),
		"active_organization_id", active.ID,
	)
	writeJSON(ctx, w, loginResponse{
		Message:            "Successfully logged in to Claude.ai",
		OrganizationsCount: len(orgs),
		ActiveOrganization: active.Name,
	}, http.StatusOK)
}

// handleCheckLogin implements GET /check_login: report whether a valid key
// is stored and which organization is active, repairing a missing or stale
// active-organization setting from the live list.
func (s *Server) handleCheckLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creds, err := s.store.Credentials(ctx)
	if err != nil {
		writeJSON(ctx, w, map[string]string{"status": "Error", "message": err.Error()}, http.StatusInternalServerError)
		return
	}
	if creds == nil {
		writeJSON(ctx, w, map[string]string{"status": "Not logged in"}, http.StatusUnauthorized)
		return
	}

	orgs, err := s.provider.ListOrganizations(ctx)
	if err != nil {
		writeJSON(ctx, w, map[string]string{"status": "Error", "message": err.Error()}, http.StatusInternalServerError)
		return
	}
	if len(orgs) == 0 {
		writeJSON(ctx, w, map[string]string{
			"status":  "Error",
			"message": "Unable to verify login status",
		}, http.StatusInternalServerError)
		return
	}

	settings, err := s.store.Settings(ctx)
	if err != nil {
		writeJSON(ctx, w, map[string]string{"status": "Error", "message": err.Error()}, http.StatusInternalServerError)
		return
	}

	active := orgs[0]
	for _, org := range orgs {
		if org.ID == settings.ActiveOrganizationID {
			active = org
			break
		}
	}
	if active.ID != settings.ActiveOrganizationID {
		if err := s.activateOrganization(r, active); err != nil {
			writeJSON(ctx, w, map[string]string{"status": "Error", "message": err.Error()}, http.StatusInternalServerError)
			return
		}
	}

	writeJSON(ctx, w, loginResponse{
		Status:             "Logged in",
		OrganizationsCount: len(orgs),
		ActiveOrganization: active.Name,
	}, http.StatusOK)
}

// handleConfigUpdate implements POST /config, the manual cookie-entry path:
// the key is stored with the default expiry but never verified upstream.
func (s *Server) handleConfigUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cookie := sessionKeyFromRequest(r, "cookie")
	if cookie == "" {
		writeError(ctx, w, http.StatusBadRequest, "No cookie provided")
		return
	}

	creds := &session.Credentials{
		SessionKey: cookie,
		ExpiresAt:  s.clock().Add(session.DefaultExpiry),
	}
	if err := s.store.SetCredentials(ctx, creds); err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "Failed to save cookie")
		return
	}

	slog.InfoContext(ctx, "session cookie updated")
	writeJSON(ctx, w, map[string]string{"message": "Cookie updated successfully"}, http.StatusOK)
}

// activateOrganization records org as the active organization, keeping the
// rest of the settings intact.
func (s *Server) activateOrganization(r *http.Request, org claudeweb.Organization) error {
	ctx := r.Context()

	settings, err := s.store.Settings(ctx)
	if err != nil {
		return err
	}
	settings.ActiveOrganizationID = org.ID
	if err := s.store.SetSettings(ctx, settings); err != nil {
		return err
	}

	slog.InfoContext(ctx, "set active organization", "id", org.ID, "name", org.Name)
	return nil
}
