package server

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clsync/claude-bridge/internal/claudeweb"
	"github.com/clsync/claude-bridge/internal/config"
	"github.com/clsync/claude-bridge/internal/session"
)

// fakeProvider is a scriptable ConversationProvider test double.
type fakeProvider struct {
	orgs    []claudeweb.Organization
	orgsErr error

	projects    []claudeweb.Project
	projectsErr error

	chats    []claudeweb.Chat
	chatsErr error

	events  []claudeweb.CompletionEvent
	sendErr error

	createdChats    []string
	createdProjects []string
	lastPrompt      string
	lastChatID      string
}

var _ ConversationProvider = (*fakeProvider)(nil)

func (p *fakeProvider) ListOrganizations(ctx context.Context) ([]claudeweb.Organization, error) {
	return p.orgs, p.orgsErr
}

func (p *fakeProvider) ListProjects(ctx context.Context, orgID string) ([]claudeweb.Project, error) {
	return p.projects, p.projectsErr
}

func (p *fakeProvider) CreateProject(ctx context.Context, orgID, name, description string) (*claudeweb.Project, error) {
	p.createdProjects = append(p.createdProjects, name)
	project := claudeweb.Project{ID: fmt.Sprintf("proj-%d", len(p.createdProjects)), Name: name, Description: description}
	p.projects = append(p.projects, project)
	return &project, nil
}

func (p *fakeProvider) ListChats(ctx context.Context, orgID string) ([]claudeweb.Chat, error) {
	return p.chats, p.chatsErr
}

func (p *fakeProvider) CreateChat(ctx context.Context, orgID, projectID, name string) (*claudeweb.Chat, error) {
	p.createdChats = append(p.createdChats, name)
	chat := claudeweb.Chat{ID: fmt.Sprintf("chat-%d", len(p.createdChats)), Name: name}
	p.chats = append(p.chats, chat)
	return &chat, nil
}

func (p *fakeProvider) SendMessage(ctx context.Context, orgID, chatID, prompt string) (iter.Seq2[claudeweb.CompletionEvent, error], error) {
	p.lastChatID = chatID
	p.lastPrompt = prompt
	if p.sendErr != nil {
		return nil, p.sendErr
	}
	events := p.events
	return func(yield func(claudeweb.CompletionEvent, error) bool) {
		for _, event := range events {
			if !yield(event, nil) {
				return
			}
		}
	}, nil
}

type alwaysReady struct{}

func (alwaysReady) IsReady() bool { return true }

// loggedIn seeds the store with a valid key and an active organization.
func loggedIn(t *testing.T, store session.Store) {
	t.Helper()
	require.NoError(t, store.SetCredentials(t.Context(), &session.Credentials{
		SessionKey: "sk-test",
		ExpiresAt:  time.Now().Add(time.Hour),
	}))
	require.NoError(t, store.SetSettings(t.Context(), session.Settings{
		ActiveOrganizationID: "org-1",
	}))
}

// newTestServer builds a Server with a file store in a temp dir and the
// given provider double, returning both.
func newTestServer(t *testing.T, provider ConversationProvider) (http.Handler, session.Store) {
	t.Helper()

	store, err := session.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Listen:          "127.0.0.1:0",
			MaxRequestBytes: 1 << 20,
		},
		Provider: config.ProviderConfig{
			BaseURL:      "http://upstream.invalid",
			DefaultModel: "claude-3.5-sonnet",
		},
	}

	srv, err := New(cfg, provider, store, alwaysReady{})
	require.NoError(t, err)

	return srv.Handler(), store
}
