package api

import (
	"net/http"

	"github.com/rs/zerolog/hlog"

	respond "github.com/SHUB2205/Aurora-technical-assessment/internal/api/respond"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/api/validate"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/model"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/search"
)

// Searcher answers paginated queries; *search.Engine implements it.
type Searcher interface {
	Search(q search.Query) (*search.Result, error)
}

// SearchHandler handles GET /search.
type SearchHandler struct {
	engine     Searcher
	retryAfter string
}

// NewSearchHandler creates a search handler. retryAfter is sent with 503
// responses while the corpus is not ready.
func NewSearchHandler(engine Searcher, retryAfter string) *SearchHandler {
	return &SearchHandler{engine: engine, retryAfter: retryAfter}
}

// HandleSearch handles GET /search?query=&page=&page_size=
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	params, err := validate.SearchQuery(r.URL.Query())
	if err != nil {
		respond.WriteBadRequest(w, r, err.Error())
		return
	}

	res, err := h.engine.Search(search.Query{
		Text:     params.Query,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
	switch {
	case err == nil:
		respond.WriteJSON(w, r, http.StatusOK, res)
	case model.IsNotReadyError(err):
		respond.WriteServiceUnavailable(w, r, "Cache is being loaded. Please try again in a moment.", h.retryAfter)
	case model.IsInvalidQueryError(err):
		respond.WriteBadRequest(w, r, err.Error())
	default:
		hlog.FromRequest(r).Error().Stack().Err(err).Msg("search failed")
		respond.WriteInternalError(w, r, "search failed")
	}
}
