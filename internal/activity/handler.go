package activity

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mutua/takabill/pkg/middleware"
	"github.com/mutua/takabill/pkg/response"
)

// Handler exposes the audit trail read side
type Handler struct {
	repo *Repository
}

// NewHandler creates a new activity handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes returns the router for activity endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	return r
}

// List handles GET /activity
// @Summary      List audit-trail entries
// @Tags         activity
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(50)
// @Success      200 {object} response.APIResponse{data=[]Entry}
// @Router       /activity [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	entries, total, err := h.repo.ListByTenant(r.Context(), tenantID, perPage, (page-1)*perPage)
	if err != nil {
		response.InternalError(w, "Failed to list activity")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, entries, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}
