package invoice

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mutua/takabill/pkg/middleware"
	"github.com/mutua/takabill/pkg/response"
)

// Handler errors
var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvoiceNotOpen  = errors.New("invoice is not open")
)

// Handler handles HTTP requests for invoice operations
type Handler struct {
	repo      *Repository
	generator *Generator
}

// NewHandler creates a new invoice handler
func NewHandler(repo *Repository, generator *Generator) *Handler {
	return &Handler{repo: repo, generator: generator}
}

// Routes returns the router for invoice endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/cancel", h.Cancel)
	r.Get("/customer/{customerID}", h.ListByCustomer)
	r.Post("/generate", h.Generate)

	return r
}

// GetByID handles GET /invoices/{id}
// @Summary      Get invoice by ID
// @Tags         invoices
// @Produce      json
// @Param        id path int true "Invoice ID"
// @Success      200 {object} response.APIResponse{data=InvoiceResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /invoices/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid invoice ID")
		return
	}

	inv, err := h.repo.GetByID(r.Context(), tenantID, id)
	if err != nil {
		response.InternalError(w, "Failed to get invoice")
		return
	}
	if inv == nil {
		response.NotFound(w, ErrInvoiceNotFound.Error())
		return
	}

	response.JSON(w, http.StatusOK, inv.ToResponse())
}

// ListByCustomer handles GET /invoices/customer/{customerID}
// @Summary      List a customer's invoices
// @Tags         invoices
// @Produce      json
// @Param        customerID path int true "Customer ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]InvoiceResponse}
// @Router       /invoices/customer/{customerID} [get]
func (h *Handler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid customer ID")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	invoices, total, err := h.repo.ListByCustomer(r.Context(), tenantID, customerID, perPage, (page-1)*perPage)
	if err != nil {
		response.InternalError(w, "Failed to list invoices")
		return
	}

	responses := make([]*InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		responses[i] = inv.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, responses, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// Cancel handles POST /invoices/{id}/cancel
// @Summary      Cancel an open invoice
// @Description  Marks an UNPAID or PPAID invoice CANCELLED; cancellation is terminal
// @Tags         invoices
// @Produce      json
// @Param        id path int true "Invoice ID"
// @Success      200 {object} response.APIResponse{data=InvoiceResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /invoices/{id}/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid invoice ID")
		return
	}

	inv, err := h.repo.Cancel(r.Context(), tenantID, id)
	if err != nil {
		response.InternalError(w, "Failed to cancel invoice")
		return
	}
	if inv == nil {
		// Either the invoice does not exist or it is already PAID/CANCELLED
		existing, lookupErr := h.repo.GetByID(r.Context(), tenantID, id)
		if lookupErr == nil && existing != nil {
			response.Conflict(w, ErrInvoiceNotOpen.Error())
			return
		}
		response.NotFound(w, ErrInvoiceNotFound.Error())
		return
	}

	response.JSON(w, http.StatusOK, inv.ToResponse())
}

// Generate handles POST /invoices/generate
// @Summary      Generate invoices for a billing period
// @Description  Creates monthly invoices for active customers without one for the period; safe to re-run
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body GenerateRequest true "Generation request"
// @Success      200 {object} response.APIResponse{data=GenerateResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /invoices/generate [post]
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	created, err := h.generator.GenerateForPeriod(r.Context(), tenantID, req.Period)
	if err != nil {
		if errors.Is(err, ErrInvalidPeriod) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalError(w, "Invoice generation failed")
		return
	}

	responses := make([]*InvoiceResponse, len(created))
	for i, inv := range created {
		responses[i] = inv.ToResponse()
	}

	response.JSON(w, http.StatusOK, &GenerateResponse{
		Period:   req.Period,
		Created:  len(created),
		Invoices: responses,
	})
}
