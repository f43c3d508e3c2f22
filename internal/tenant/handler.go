package tenant

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mutua/takabill/pkg/response"
)

// CreateTenantRequest represents the request body for onboarding a tenant
type CreateTenantRequest struct {
	Name      string `json:"name" validate:"required"`
	Shortcode string `json:"shortcode" validate:"required"`
	SenderID  string `json:"sender_id,omitempty"`
}

// Handler exposes the platform-level tenant admin endpoints. These are not
// tenant-scoped: they onboard and list the organizations themselves.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new tenant handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes returns the router for tenant endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)

	return r
}

// Create handles POST /tenants
// @Summary      Onboard a tenant
// @Description  Registers a tenant organization with its paybill shortcode and SMS sender name
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        request body CreateTenantRequest true "Tenant onboarding request"
// @Success      201 {object} response.APIResponse{data=Tenant}
// @Failure      400 {object} response.APIResponse
// @Router       /tenants [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" || req.Shortcode == "" {
		response.BadRequest(w, "Name and shortcode are required")
		return
	}

	t, err := h.repo.Create(r.Context(), req.Name, req.Shortcode, req.SenderID)
	if err != nil {
		response.InternalError(w, "Failed to create tenant")
		return
	}

	response.JSON(w, http.StatusCreated, t)
}

// List handles GET /tenants
// @Summary      List tenants
// @Tags         tenants
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]Tenant}
// @Router       /tenants [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.repo.List(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to list tenants")
		return
	}

	response.JSON(w, http.StatusOK, tenants)
}
