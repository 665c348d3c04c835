package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/espresso-self/internal/auth"
	"github.com/sakif/espresso-self/internal/service"
	"github.com/sakif/espresso-self/internal/session"
)

const stateCookie = "oauth_state"

// AuthHandler serves registration, password login, logout and the optional
// GitHub sign-in.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLoginPage / HandleRegisterPage → the two forms
//   - HandleRegister       → POST /submitForm
//   - HandleLogin          → POST /body_home_user
//   - HandleLogout         → POST /logout
//   - HandleGitHubLogin    → redirect to GitHub's authorization page
//   - HandleGitHubCallback → exchange the code, start a session
type AuthHandler struct {
	auth     *service.AuthService
	sessions *session.Manager
	github   *auth.GitHubProvider // nil when GitHub sign-in isn't configured
	render   *Renderer
	logger   *slog.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	sessions *session.Manager,
	github *auth.GitHubProvider,
	render *Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		sessions: sessions,
		github:   github,
		render:   render,
		logger:   logger,
	}
}

type loginPage struct {
	GitHub bool
}

// HandleLoginPage renders the login form.
//
// HTTP: GET /login
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, PageLogin, View{
		Title: title("Login"),
		Page:  loginPage{GitHub: h.github != nil},
	})
}

// HandleRegisterPage renders the sign-up form.
//
// HTTP: GET /register
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, PageRegister, View{Title: title("Register")})
}

// HandleRegister creates an account and sends the visitor to the login page.
// A rejected registration answers 500 with the reason as plain text.
//
// HTTP: POST /submitForm
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form")
		return
	}

	_, err := h.auth.Register(r.Context(), service.Registration{
		Username: r.PostForm.Get("inputUsername"),
		Email:    r.PostForm.Get("inputEmail"),
		Password: r.PostForm.Get("inputPassword"),
		Confirm:  r.PostForm.Get("verify"),
	})
	if err != nil {
		writeError(w, r, h.logger, err, loginURL)
		return
	}

	redirect(w, r, loginURL)
}

// HandleLogin checks the credentials and starts a session.
//
// HTTP: POST /body_home_user
//
// An unknown username or a wrong password both land back on /login with no
// message, and no session is created.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, loginURL)
		return
	}

	user, err := h.auth.Login(r.Context(), r.PostForm.Get("user"), r.PostForm.Get("pass"))
	if err != nil {
		writeError(w, r, h.logger, err, loginURL)
		return
	}

	if _, err := h.sessions.Start(r.Context(), w, user.Username); err != nil {
		writeError(w, r, h.logger, err, loginURL)
		return
	}

	redirect(w, r, "/body_home_user")
}

// HandleLogout ends the session and returns to the public home page.
//
// HTTP: POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(w, r); err != nil {
		// The cookie is already expired; a leftover record just times out.
		h.logger.Warn("logout: deleting session failed", slog.String("error", err.Error()))
	}
	redirect(w, r, homeURL)
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state value goes into a short-lived cookie and into the
// authorization URL. The callback only proceeds when the two match.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the GitHub sign-in.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub profile
//  3. Find or create the matching account
//  4. Start a session and go to the logged-in home page
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		writeText(w, http.StatusBadRequest, "invalid OAuth state")
		return
	}
	if r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeText(w, http.StatusBadRequest, "invalid OAuth state")
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		redirect(w, r, loginURL)
		return
	}

	// --- Step 2: Exchange code for a GitHub profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		writeText(w, http.StatusBadRequest, "missing OAuth code")
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeText(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	// --- Step 3: Find or create the account ---
	user, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, r, h.logger, err, loginURL)
		return
	}

	// --- Step 4: Start the session ---
	if _, err := h.sessions.Start(r.Context(), w, user.Username); err != nil {
		writeError(w, r, h.logger, err, loginURL)
		return
	}

	h.logger.Info("user authenticated via GitHub", slog.String("username", user.Username))
	redirect(w, r, "/body_home_user")
}
