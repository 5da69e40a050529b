package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/clsync/claude-bridge/internal/claudeweb"
)

const (
	defaultProjectName        = "Default Project"
	defaultProjectDescription = "Default project created automatically by claude-bridge"
)

// handleListOrganizations implements GET /list_organizations, a straight
// pass-through.
func (s *Server) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgs, err := s.provider.ListOrganizations(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "Error listing organizations: "+err.Error())
		return
	}
	writeJSON(ctx, w, orgs, http.StatusOK)
}

// handleListProjects implements GET /list_projects. The stored session key
// is re-verified against the live organization list first; an empty (or
// missing, upstream 404) project list auto-creates a default project.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := s.store.Settings(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "Unexpected error listing projects: "+err.Error())
		return
	}
	if settings.ActiveOrganizationID == "" {
		writeError(ctx, w, http.StatusBadRequest, "No active organization set")
		return
	}

	if _, err := s.provider.ListOrganizations(ctx); err != nil {
		writeError(ctx, w, http.StatusUnauthorized, "Failed to verify session key: "+err.Error())
		return
	}

	projects, err := s.provider.ListProjects(ctx, settings.ActiveOrganizationID)
	if err != nil {
		var apiErr *claudeweb.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			slog.WarnContext(ctx, "no projects endpoint data, creating default project",
				"organization_id", settings.ActiveOrganizationID)
			projects = nil
		} else {
			writeError(ctx, w, http.StatusInternalServerError, "Error listing projects: "+err.Error())
			return
		}
	}

	if len(projects) == 0 {
		project, err := s.createDefaultProject(ctx, settings.ActiveOrganizationID)
		if err != nil {
			writeError(ctx, w, http.StatusInternalServerError, "Error listing projects: "+err.Error())
			return
		}
		projects = []claudeweb.Project{*project}
	}

	writeJSON(ctx, w, projects, http.StatusOK)
}

// handleListChats implements GET /list_chats; an organization with no chats
// gets a default one so the listing is never empty.
func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := s.store.Settings(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "Error listing chats: "+err.Error())
		return
	}
	if settings.ActiveOrganizationID == "" {
		writeError(ctx, w, http.StatusBadRequest, "No active organization set")
		return
	}

	chats, err := s.provider.ListChats(ctx, settings.ActiveOrganizationID)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "Error listing chats: "+err.Error())
		return
	}

	if len(chats) == 0 {
		slog.InfoContext(ctx, "no chats found, creating one")
		if _, err := s.createChat(ctx, settings.ActiveOrganizationID, ""); err != nil {
			writeError(ctx, w, http.StatusInternalServerError, "Error listing chats: "+err.Error())
			return
		}
		chats, err = s.provider.ListChats(ctx, settings.ActiveOrganizationID)
		if err != nil {
			writeError(ctx, w, http.StatusInternalServerError, "Error listing chats: "+err.Error())
			return
		}
	}

	writeJSON(ctx, w, chats, http.StatusOK)
}

// createDefaultProject provisions the fallback project for organizations
// without one.
func (s *Server) createDefaultProject(ctx context.Context, orgID string) (*claudeweb.Project, error) {
	project, err := s.provider.CreateProject(ctx, orgID, defaultProjectName, defaultProjectDescription)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "created default project", "project_id", project.ID)
	return project, nil
}
