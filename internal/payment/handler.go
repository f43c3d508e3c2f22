package payment

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mutua/takabill/pkg/middleware"
	"github.com/mutua/takabill/pkg/response"
)

// Handler handles read-side HTTP requests for payments. Recording a payment
// goes through the settlement endpoints, which settle it in the same call.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new payment handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes returns the router for payment endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.GetByID)
	r.Get("/customer/{customerID}", h.ListByCustomer)
	r.Get("/unmatched", h.ListUnmatched)

	return r
}

// GetByID handles GET /payments/{id}
// @Summary      Get payment by ID
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} response.APIResponse{data=PaymentResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /payments/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid payment ID")
		return
	}

	p, err := h.repo.GetByID(r.Context(), tenantID, id)
	if err != nil {
		response.InternalError(w, "Failed to get payment")
		return
	}
	if p == nil {
		response.NotFound(w, "payment not found")
		return
	}

	response.JSON(w, http.StatusOK, p.ToResponse())
}

// ListByCustomer handles GET /payments/customer/{customerID}
// @Summary      List a customer's payments
// @Tags         payments
// @Produce      json
// @Param        customerID path int true "Customer ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]PaymentResponse}
// @Router       /payments/customer/{customerID} [get]
func (h *Handler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid customer ID")
		return
	}

	page, perPage := pagination(r)
	payments, total, err := h.repo.ListByCustomer(r.Context(), tenantID, customerID, perPage, (page-1)*perPage)
	if err != nil {
		response.InternalError(w, "Failed to list payments")
		return
	}

	h.writeList(w, payments, page, perPage, total)
}

// ListUnmatched handles GET /payments/unmatched
// @Summary      List payments without a matched customer
// @Description  Mobile-money payments whose bill reference matched no customer, awaiting manual reconciliation
// @Tags         payments
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]PaymentResponse}
// @Router       /payments/unmatched [get]
func (h *Handler) ListUnmatched(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	page, perPage := pagination(r)
	payments, total, err := h.repo.ListUnmatched(r.Context(), tenantID, perPage, (page-1)*perPage)
	if err != nil {
		response.InternalError(w, "Failed to list unmatched payments")
		return
	}

	h.writeList(w, payments, page, perPage, total)
}

func (h *Handler) writeList(w http.ResponseWriter, payments []*Payment, page, perPage, total int) {
	responses := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = p.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, responses, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
