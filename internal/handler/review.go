package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/service"
)

// ReviewHandler serves writing, editing, deleting, voting on and answering
// reviews. All of its routes require a session.
type ReviewHandler struct {
	reviews *service.ReviewService
	catalog *service.CatalogService
	render  *Renderer
	logger  *slog.Logger
}

func NewReviewHandler(
	reviews *service.ReviewService,
	catalog *service.CatalogService,
	render *Renderer,
	logger *slog.Logger,
) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		catalog: catalog,
		render:  render,
		logger:  logger,
	}
}

// reviewForm backs review_form.html for both adding and editing.
type reviewForm struct {
	CafeName string
	Rating   int
	Comment  string
	Editing  bool
	ReviewID string
}

// HandleAddReview renders an empty review form for ?cafe_id=.
//
// HTTP: GET /add_review?cafe_id=1
func (h *ReviewHandler) HandleAddReview(w http.ResponseWriter, r *http.Request) {
	cafeID, err := cafeIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err, homeURL)
		return
	}

	cafe, err := h.catalog.Cafe(r.Context(), cafeID)
	if err != nil {
		writeError(w, r, h.logger, err, homeURL)
		return
	}

	h.render.Render(w, http.StatusOK, PageReviewForm, View{
		Title:  title("Create Review"),
		Viewer: h.viewer(r),
		Page:   reviewForm{CafeName: cafe.Name, Rating: service.MaxRating},
	})
}

// HandleEditReview renders the form pre-filled with the author's review.
//
// HTTP: GET /edit_review?id=xxx
func (h *ReviewHandler) HandleEditReview(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	review, err := h.reviews.GetForEdit(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, h.logger, err, homeURL)
		return
	}

	h.render.Render(w, http.StatusOK, PageReviewForm, View{
		Title:  title("Edit Review"),
		Viewer: h.viewer(r),
		Page: reviewForm{
			CafeName: review.Cafe,
			Rating:   review.Rating,
			Comment:  review.Comment,
			Editing:  true,
			ReviewID: review.ID,
		},
	})
}

// HandleSubmitReview posts a review as the logged-in user.
//
// HTTP: POST /submitReview (cafe_name, input_rating, input_review_body)
func (h *ReviewHandler) HandleSubmitReview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form")
		return
	}

	rating, err := service.ParseRating(r.PostForm.Get("input_rating"))
	if err != nil {
		writeError(w, r, h.logger, err, homeURL)
		return
	}

	review, err := h.reviews.Submit(r.Context(), actor(r),
		r.PostForm.Get("cafe_name"), rating, r.PostForm.Get("input_review_body"))
	if err != nil {
		writeError(w, r, h.logger, err, homeURL)
		return
	}

	redirect(w, r, cafeURL(review.CafeID, true, ""))
}

// HandleSubmitEditedReview saves an edit to the author's own review.
//
// HTTP: POST /submitEditedReview?id=xxx (input_rating, input_review_body)
func (h *ReviewHandler) HandleSubmitEditedReview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form")
		return
	}

	rating, err := service.ParseRating(r.PostForm.Get("input_rating"))
	if err != nil {
		writeError(w, r, h.logger, err, homeURL)
		return
	}

	review, err := h.reviews.Edit(r.Context(), actor(r), r.URL.Query().Get("id"),
		rating, r.PostForm.Get("input_review_body"))
	if err != nil {
		writeError(w, r, h.logger, err, homeURL)
		return
	}

	redirect(w, r, cafeURL(review.CafeID, true, ""))
}

// HandleDelete removes the author's own review and shows their profile.
//
// HTTP: POST /delete/{id}
func (h *ReviewHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.reviews.Delete(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err, profileURL(actor(r)))
		return
	}

	redirect(w, r, profileURL(deleted.Username))
}

// HandleHelpful records the logged-in user's vote on a review.
//
// HTTP: POST /helpful?id=xxx&change=up|down[&username=...]
//
// change=down counts as unhelpful, anything else as helpful. The voter is
// always the session user; a username parameter naming anyone else is
// refused. A repeat vote is silently ignored.
func (h *ReviewHandler) HandleHelpful(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	voter := actor(r)
	if u := q.Get("username"); u != "" && u != voter {
		writeError(w, r, h.logger, apperror.Forbidden("you can only vote as yourself"), homeURL)
		return
	}

	review, counted, err := h.reviews.Vote(r.Context(), voter, q.Get("id"), q.Get("change") != "down")
	if err != nil {
		writeError(w, r, h.logger, err, homeURL)
		return
	}
	if !counted {
		h.logger.Debug("repeat vote ignored",
			slog.String("voter", voter),
			slog.String("reviewID", review.ID),
		)
	}

	redirect(w, r, cafeURL(review.CafeID, true, ""))
}

// HandleRespond sets the café owner's response on a review.
//
// HTTP: POST /submitResponse?review_id=xxx (input_owner_response)
func (h *ReviewHandler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form")
		return
	}

	review, err := h.reviews.Respond(r.Context(), actor(r),
		r.URL.Query().Get("review_id"), r.PostForm.Get("input_owner_response"))
	if err != nil {
		writeError(w, r, h.logger, err, homeURL)
		return
	}

	redirect(w, r, cafeURL(review.CafeID, true, ""))
}

// viewer loads the logged-in user for the page header. A failure only
// costs the header, so it's logged and the page still renders.
func (h *ReviewHandler) viewer(r *http.Request) *model.User {
	u, err := h.catalog.Viewer(r.Context(), actor(r))
	if err != nil {
		h.logger.Warn("loading viewer failed", slog.String("error", err.Error()))
		return nil
	}
	return u
}
