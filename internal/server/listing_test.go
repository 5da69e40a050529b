package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clsync/claude-bridge/internal/claudeweb"
	"github.com/clsync/claude-bridge/internal/session"
)

func getPath(handler http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestModels_StaticCatalog(t *testing.T) {
	handler, store := newTestServer(t, &fakeProvider{})
	loggedIn(t, store)

	rec := getPath(handler, "/v1/models")

	require.Equal(t, http.StatusOK, rec.Code)

	var list modelList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, "list", list.Object)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "claude-3.5-sonnet", list.Data[0].ID)
	assert.Equal(t, "claude-2", list.Data[1].ID)
	for _, m := range list.Data {
		assert.Equal(t, "model", m.Object)
		assert.Equal(t, "anthropic", m.OwnedBy)
		assert.EqualValues(t, 1686935002, m.Created)
	}
}

func TestListOrganizations(t *testing.T) {
	provider := &fakeProvider{orgs: []claudeweb.Organization{{ID: "org-1", Name: "Org"}}}
	handler, store := newTestServer(t, provider)
	loggedIn(t, store)

	rec := getPath(handler, "/list_organizations")

	require.Equal(t, http.StatusOK, rec.Code)

	var orgs []claudeweb.Organization
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orgs))
	require.Len(t, orgs, 1)
	assert.Equal(t, "org-1", orgs[0].ID)
}

func TestListOrganizations_ProviderFailure(t *testing.T) {
	provider := &fakeProvider{orgsErr: &claudeweb.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}}
	handler, store := newTestServer(t, provider)
	loggedIn(t, store)

	rec := getPath(handler, "/list_organizations")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error listing organizations")
}

func TestListProjects(t *testing.T) {
	provider := &fakeProvider{
		orgs:     []claudeweb.Organization{{ID: "org-1", Name: "Org"}},
		projects: []claudeweb.Project{{ID: "proj-1", Name: "Existing"}},
	}
	handler, store := newTestServer(t, provider)
	loggedIn(t, store)

	rec := getPath(handler, "/list_projects")

	require.Equal(t, http.StatusOK, rec.Code)

	var projects []claudeweb.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "proj-1", projects[0].ID)
	assert.Empty(t, provider.createdProjects)
}

func TestListProjects_InvalidKey(t *testing.T) {
	provider := &fakeProvider{
		orgsErr: &claudeweb.APIError{StatusCode: http.StatusForbidden, Message: "Received a 403 Forbidden error."},
	}
	handler, store := newTestServer(t, provider)
	loggedIn(t, store)

	rec := getPath(handler, "/list_projects")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to verify session key")
}

func TestListProjects_CreatesDefaultWhenEmpty(t *testing.T) {
	provider := &fakeProvider{orgs: []claudeweb.Organization{{ID: "org-1", Name: "Org"}}}
	handler, store := newTestServer(t, provider)
	loggedIn(t, store)

	rec := getPath(handler, "/list_projects")

	require.Equal(t, http.StatusOK, rec.Code)

	var projects []claudeweb.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, defaultProjectName, projects[0].Name)
	assert.Equal(t, []string{defaultProjectName}, provider.createdProjects)
}

func TestListProjects_TreatsUpstream404AsEmpty(t *testing.T) {
	provider := &fakeProvider{
		orgs:        []claudeweb.Organization{{ID: "org-1", Name: "Org"}},
		projectsErr: &claudeweb.APIError{StatusCode: http.StatusNotFound, Message: "not found"},
	}
	handler, store := newTestServer(t, provider)
	loggedIn(t, store)

	rec := getPath(handler, "/list_projects")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{defaultProjectName}, provider.createdProjects)
}

func TestListProjects_NoActiveOrganization(t *testing.T) {
	handler, store := newTestServer(t, &fakeProvider{})
	loggedIn(t, store)
	require.NoError(t, store.SetSettings(t.Context(), session.Settings{}))

	rec := getPath(handler, "/list_projects")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No active organization set")
}

func TestListChats(t *testing.T) {
	provider := &fakeProvider{chats: []claudeweb.Chat{{ID: "chat-9", Name: "Existing"}}}
	handler, store := newTestServer(t, provider)
	loggedIn(t, store)

	rec := getPath(handler, "/list_chats")

	require.Equal(t, http.StatusOK, rec.Code)

	var chats []claudeweb.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chats))
	require.Len(t, chats, 1)
	assert.Equal(t, "chat-9", chats[0].ID)
	assert.Empty(t, provider.createdChats)
}

func TestListChats_CreatesOneWhenEmpty(t *testing.T) {
	provider := &fakeProvider{}
	handler, store := newTestServer(t, provider)
	loggedIn(t, store)

	rec := getPath(handler, "/list_chats")

	require.Equal(t, http.StatusOK, rec.Code)

	var chats []claudeweb.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chats))
	require.Len(t, chats, 1)
	require.Len(t, provider.createdChats, 1)
}
