// Package handler contains the HTTP route handlers of the café site.
//
// HANDLER RESPONSIBILITIES:
//  1. Parse the request (query string, form body, session)
//  2. Call one service method
//  3. Render a page or redirect
//
// Handlers hold no business rules. Who may do what is decided by the
// services; handlers only translate their errors into HTTP (see response.go).
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/service"
)

// Page names. Each one is parsed together with the shared layout.
const (
	PageHome        = "home"
	PageCafe        = "cafe"
	PageProfile     = "profile"
	PageLogin       = "login"
	PageRegister    = "register"
	PageReviewForm  = "review_form"
	PageEditProfile = "edit_profile"
)

var pages = []string{
	PageHome, PageCafe, PageProfile, PageLogin, PageRegister, PageReviewForm, PageEditProfile,
}

// View is what every template receives. Page holds the page-specific data.
type View struct {
	Title  string
	Viewer *model.User
	Page   any
}

// Renderer holds one parsed template set per page.
//
// WHY ONE SET PER PAGE?
// Every page defines a "content" block. Parsed into a single set, the last
// definition would win, so each page is parsed alongside its own copy of
// the layout instead.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

var funcs = template.FuncMap{
	"voted": func(u *model.User, reviewID string) bool { return u.HasVoted(reviewID) },
	"ratings": func() []int {
		out := make([]int, 0, service.MaxRating)
		for n := service.MinRating; n <= service.MaxRating; n++ {
			out = append(out, n)
		}
		return out
	},
	// Profile pictures are either a bundled asset or an absolute URL (GitHub avatars).
	"avatar": func(pic string) string {
		if strings.HasPrefix(pic, "http://") || strings.HasPrefix(pic, "https://") {
			return pic
		}
		return "/static/" + pic
	},
}

// NewRenderer parses every page from fsys, which must contain
// templates/layout.html and templates/<page>.html.
func NewRenderer(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{
		pages:  make(map[string]*template.Template, len(pages)),
		logger: logger,
	}
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("handler: parsing page %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render writes page with status. The page is executed into a buffer first
// so a template error can still turn into a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, v View) {
	tmpl, ok := r.pages[page]
	if !ok {
		r.logger.Error("unknown page", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		r.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// title builds the browser tab title, e.g. "Bean Town - Espresso Self!".
func title(prefix string) string {
	return prefix + " - Espresso Self!"
}
