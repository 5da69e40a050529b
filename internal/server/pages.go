package server

import (
	"log/slog"
	"net/http"
)

// Minimal browser pages for the login flow; everything else speaks JSON.

const indexPage = `<!DOCTYPE html>
<html>
<head><title>claude-bridge</title></head>
<body>
  <h1>claude-bridge</h1>
  <a href="/login">Login to Claude.ai</a><br>
  <a href="/check_login">Check Login Status</a><br>
  <h2>Listings</h2>
  <button onclick="location.href='/list_chats'">List Chats</button>
  <button onclick="location.href='/list_projects'">List Projects</button>
  <button onclick="location.href='/list_organizations'">List Organizations</button>
</body>
</html>
`

const loginPage = `<!DOCTYPE html>
<html>
<head><title>Login to Claude.ai</title></head>
<body>
  <h1>Login to Claude.ai</h1>
  <form method="POST">
    <label for="session_key">Enter your Claude.ai session key:</label><br>
    <input type="password" id="session_key" name="session_key" required><br><br>
    <input type="submit" value="Login">
  </form>
</body>
</html>
`

const configPage = `<!DOCTYPE html>
<html>
<head><title>claude-bridge Configuration</title></head>
<body>
  <h1>claude-bridge Configuration</h1>
  <form method="POST">
    <label for="cookie">Enter new Claude.ai cookie:</label><br>
    <input type="text" id="cookie" name="cookie" size="50"><br>
    <input type="submit" value="Update Cookie">
  </form>
</body>
</html>
`

func writeHTML(w http.ResponseWriter, r *http.Request, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(page)); err != nil {
		slog.ErrorContext(r.Context(), "failed to write page", "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, r, indexPage)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, r, loginPage)
}

func (s *Server) handleConfigForm(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, r, configPage)
}
