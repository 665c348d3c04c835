package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/espresso-self/internal/service"
)

// ProfileHandler serves profile pages and profile editing.
type ProfileHandler struct {
	catalog  *service.CatalogService
	profiles *service.ProfileService
	render   *Renderer
	logger   *slog.Logger
}

func NewProfileHandler(
	catalog *service.CatalogService,
	profiles *service.ProfileService,
	render *Renderer,
	logger *slog.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		catalog:  catalog,
		profiles: profiles,
		render:   render,
		logger:   logger,
	}
}

// targetUser is ?username=, defaulting to the logged-in user.
func targetUser(r *http.Request) string {
	if u := r.URL.Query().Get("username"); u != "" {
		return u
	}
	return actor(r)
}

// HandleProfile shows a user and their reviews. The page is rendered as the
// viewer's own, someone else's, or an anonymous view.
//
// HTTP: GET /profile_user?username=ana
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	username := targetUser(r)
	if username == "" {
		redirect(w, r, loginURL)
		return
	}

	page, err := h.catalog.Profile(r.Context(), username, actor(r))
	if err != nil {
		writeError(w, r, h.logger, err, homeURL)
		return
	}

	h.render.Render(w, http.StatusOK, PageProfile, View{
		Title:  title(page.User.Username),
		Viewer: page.Viewer,
		Page:   page,
	})
}

// HandleEditProfile renders the edit form for the logged-in user's profile.
//
// HTTP: GET /edit_profile?username=ana
func (h *ProfileHandler) HandleEditProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.GetForEdit(r.Context(), actor(r), targetUser(r))
	if err != nil {
		writeError(w, r, h.logger, err, homeURL)
		return
	}

	h.render.Render(w, http.StatusOK, PageEditProfile, View{
		Title:  title("Edit Profile"),
		Viewer: user,
		Page:   user,
	})
}

// HandleSubmitEditUser saves the profile form and returns to the profile.
//
// HTTP: POST /submitEditUser (username, input_desc, input_password, confirm_password)
//
// A new password that doesn't match its confirmation is ignored; the
// description is saved either way.
func (h *ProfileHandler) HandleSubmitEditUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form")
		return
	}

	username := r.PostForm.Get("username")
	if username == "" {
		username = actor(r)
	}

	err := h.profiles.EditProfile(r.Context(), actor(r), username, service.ProfileEdit{
		Description: r.PostForm.Get("input_desc"),
		Password:    r.PostForm.Get("input_password"),
		Confirm:     r.PostForm.Get("confirm_password"),
	})
	if err != nil {
		writeError(w, r, h.logger, err, loginURL)
		return
	}

	redirect(w, r, profileURL(username))
}
