package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clsync/claude-bridge/internal/claudeweb"
	"github.com/clsync/claude-bridge/internal/session"
)

func postForm(handler http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLogin_Success(t *testing.T) {
	provider := &fakeProvider{
		orgs: []claudeweb.Organization{
			{ID: "org-1", Name: "First Org"},
			{ID: "org-2", Name: "Second Org"},
		},
	}
	handler, store := newTestServer(t, provider)

	rec := postForm(handler, "/login", url.Values{"session_key": {"sk-new"}})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Successfully logged in to Claude.ai", resp.Message)
	assert.Equal(t, 2, resp.OrganizationsCount)
	assert.Equal(t, "First Org", resp.ActiveOrganization)

	creds, err := store.Credentials(t.Context())
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "sk-new", creds.SessionKey)
	assert.True(t, creds.ExpiresAt.After(time.Now()))

	settings, err := store.Settings(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "org-1", settings.ActiveOrganizationID)
}

func TestLogin_JSONBody(t *testing.T) {
	provider := &fakeProvider{orgs: []claudeweb.Organization{{ID: "org-1", Name: "Org"}}}
	handler, store := newTestServer(t, provider)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"session_key":"sk-json"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	creds, err := store.Credentials(t.Context())
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "sk-json", creds.SessionKey)
}

func TestLogin_MissingKey(t *testing.T) {
	handler, _ := newTestServer(t, &fakeProvider{})

	rec := postForm(handler, "/login", url.Values{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No session key provided")
}

func TestLogin_RejectedKey(t *testing.T) {
	provider := &fakeProvider{
		orgsErr: &claudeweb.APIError{StatusCode: http.StatusForbidden, Message: "Received a 403 Forbidden error."},
	}
	handler, _ := newTestServer(t, provider)

	rec := postForm(handler, "/login", url.Values{"session_key": {"sk-bad"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login failed")
}

func TestLogin_NoOrganizations(t *testing.T) {
	handler, _ := newTestServer(t, &fakeProvider{})

	rec := postForm(handler, "/login", url.Values{"session_key": {"sk-empty"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unable to retrieve organizations")
}

func TestCheckLogin_NotLoggedIn(t *testing.T) {
	handler, _ := newTestServer(t, &fakeProvider{})

	req := httptest.NewRequest(http.MethodGet, "/check_login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not logged in")
}

func TestCheckLogin_LoggedIn(t *testing.T) {
	provider := &fakeProvider{orgs: []claudeweb.Organization{{ID: "org-1", Name: "My Org"}}}
	handler, store := newTestServer(t, provider)
	loggedIn(t, store)

	req := httptest.NewRequest(http.MethodGet, "/check_login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Logged in", resp.Status)
	assert.Equal(t, 1, resp.OrganizationsCount)
	assert.Equal(t, "My Org", resp.ActiveOrganization)
}

func TestCheckLogin_RepairsStaleActiveOrganization(t *testing.T) {
	provider := &fakeProvider{orgs: []claudeweb.Organization{{ID: "org-new", Name: "New Org"}}}
	handler, store := newTestServer(t, provider)
	require.NoError(t, store.SetCredentials(t.Context(), &session.Credentials{
		SessionKey: "sk-test",
		ExpiresAt:  time.Now().Add(time.Hour),
	}))
	require.NoError(t, store.SetSettings(t.Context(), session.Settings{
		ActiveOrganizationID: "org-gone",
	}))

	req := httptest.NewRequest(http.MethodGet, "/check_login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	settings, err := store.Settings(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "org-new", settings.ActiveOrganizationID)
}

func TestConfigUpdate_StoresCookieWithoutVerification(t *testing.T) {
	provider := &fakeProvider{orgsErr: &claudeweb.APIError{StatusCode: http.StatusForbidden, Message: "nope"}}
	handler, store := newTestServer(t, provider)

	rec := postForm(handler, "/config", url.Values{"cookie": {"sk-manual"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cookie updated successfully")

	creds, err := store.Credentials(t.Context())
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "sk-manual", creds.SessionKey)
}

func TestConfigUpdate_MissingCookie(t *testing.T) {
	handler, _ := newTestServer(t, &fakeProvider{})

	rec := postForm(handler, "/config", url.Values{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No cookie provided")
}
