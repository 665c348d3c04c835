package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sakif/espresso-self/internal/service"
)

// CafeHandler serves the café listing, café detail pages and both search
// forms.
//
// PUBLIC AND LOGGED-IN VARIANTS:
// Every page exists twice, e.g. /cafe1 and /cafe1_user. The public variant
// always renders the anonymous view, even for a visitor with a session; the
// "_user" variant sits behind session.Require and shows voting, editing and
// owner controls. Each method takes loggedIn and returns the handler for
// that variant.
type CafeHandler struct {
	catalog *service.CatalogService
	render  *Renderer
	logger  *slog.Logger
}

func NewCafeHandler(catalog *service.CatalogService, render *Renderer, logger *slog.Logger) *CafeHandler {
	return &CafeHandler{
		catalog: catalog,
		render:  render,
		logger:  logger,
	}
}

func viewer(r *http.Request, loggedIn bool) string {
	if !loggedIn {
		return ""
	}
	return actor(r)
}

// HandleHome lists every café.
//
// HTTP: GET /, GET /body_home_nouser (public)
// HTTP: GET /body_home_user           (logged in)
func (h *CafeHandler) HandleHome(loggedIn bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.home(w, r, "", viewer(r, loggedIn))
	}
}

// HandleSearch lists the cafés whose name or description matches ?searchInput=.
//
// HTTP: GET /search_cafe, GET /search_cafe_user
func (h *CafeHandler) HandleSearch(loggedIn bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.home(w, r, r.URL.Query().Get("searchInput"), viewer(r, loggedIn))
	}
}

func (h *CafeHandler) home(w http.ResponseWriter, r *http.Request, filter, username string) {
	page, err := h.catalog.Home(r.Context(), filter, username)
	if err != nil {
		writeError(w, r, h.logger, err, homeURL)
		return
	}
	h.render.Render(w, http.StatusOK, PageHome, View{
		Title:  title("Home"),
		Viewer: page.Viewer,
		Page:   page,
	})
}

// HandleSearchSubmit turns the search form into a GET of the results page.
//
// HTTP: POST /search_cafe      → 303 /search_cafe?searchInput=...
// HTTP: POST /search_cafe_user → 303 /search_cafe_user?searchInput=...
func (h *CafeHandler) HandleSearchSubmit(loggedIn bool) http.HandlerFunc {
	target := "/search_cafe"
	if loggedIn {
		target = "/search_cafe_user"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirect(w, r, target)
			return
		}
		q := url.Values{"searchInput": {r.PostForm.Get("searchInput")}}
		redirect(w, r, target+"?"+q.Encode())
	}
}

// HandleCafe shows one café and its reviews, filtered by ?searchInputReview=.
// An unknown café goes back to the home page.
//
// HTTP: GET /cafe1?cafe_id=1, GET /cafe1_user?cafe_id=1
func (h *CafeHandler) HandleCafe(loggedIn bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cafeID, err := cafeIDParam(r)
		if err != nil {
			writeError(w, r, h.logger, err, homeURL)
			return
		}

		filter := r.URL.Query().Get("searchInputReview")
		page, err := h.catalog.CafeDetail(r.Context(), cafeID, filter, viewer(r, loggedIn))
		if err != nil {
			writeError(w, r, h.logger, err, homeURL)
			return
		}

		h.render.Render(w, http.StatusOK, PageCafe, View{
			Title:  title(page.Cafe.Name),
			Viewer: page.Viewer,
			Page:   page,
		})
	}
}

// HandleSearchReview redirects the review search form to the café page.
//
// HTTP: POST /search_review?cafe_id=1, POST /search_review_user?cafe_id=1
func (h *CafeHandler) HandleSearchReview(loggedIn bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cafeID, err := cafeIDParam(r)
		if err != nil {
			writeError(w, r, h.logger, err, homeURL)
			return
		}
		if err := r.ParseForm(); err != nil {
			redirect(w, r, cafeURL(cafeID, loggedIn, ""))
			return
		}
		redirect(w, r, cafeURL(cafeID, loggedIn, r.PostForm.Get("searchInputReview")))
	}
}
