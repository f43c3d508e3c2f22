package customer

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mutua/takabill/pkg/middleware"
	"github.com/mutua/takabill/pkg/response"
)

// Handler handles HTTP requests for customer operations
type Handler struct {
	service *Service
}

// NewHandler creates a new customer handler with service dependency injected
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for customer endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Get("/{id}/balance", h.Balance)
	r.Put("/{id}/status", h.UpdateStatus)

	return r
}

// Create handles POST /customers
// @Summary      Register a customer
// @Description  Register a new billing customer under the caller's tenant
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body CreateCustomerRequest true "Customer registration request"
// @Success      201 {object} response.APIResponse{data=CustomerResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /customers [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.BadRequest(w, "Missing tenant")
		return
	}

	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" || req.Phone == "" {
		response.BadRequest(w, "Name and phone are required")
		return
	}
	if req.MonthlyCharge.IsNegative() {
		response.BadRequest(w, "Monthly charge cannot be negative")
		return
	}

	c, err := h.service.Create(r.Context(), tenantID, &req)
	if err != nil {
		if errors.Is(err, ErrPhoneInUse) {
			response.Conflict(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to create customer")
		return
	}

	response.JSON(w, http.StatusCreated, c.ToResponse())
}

// GetByID handles GET /customers/{id}
// @Summary      Get customer by ID
// @Tags         customers
// @Produce      json
// @Param        id path int true "Customer ID"
// @Success      200 {object} response.APIResponse{data=CustomerResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /customers/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid customer ID")
		return
	}

	c, err := h.service.GetByID(r.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get customer")
		return
	}

	response.JSON(w, http.StatusOK, c.ToResponse())
}

// List handles GET /customers
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]CustomerResponse}
// @Router       /customers [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	customers, total, err := h.service.List(r.Context(), tenantID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list customers")
		return
	}

	responses := make([]*CustomerResponse, len(customers))
	for i, c := range customers {
		responses[i] = c.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	response.JSONWithMeta(w, http.StatusOK, responses, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Balance handles GET /customers/{id}/balance
// @Summary      Get a customer's closing balance
// @Description  Positive means the customer owes money, negative means credit
// @Tags         customers
// @Produce      json
// @Param        id path int true "Customer ID"
// @Success      200 {object} response.APIResponse{data=BalanceResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /customers/{id}/balance [get]
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid customer ID")
		return
	}

	balance, err := h.service.Balance(r.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get balance")
		return
	}

	response.JSON(w, http.StatusOK, &BalanceResponse{
		CustomerID:     id,
		ClosingBalance: balance.StringFixed(2),
	})
}

// UpdateStatus handles PUT /customers/{id}/status
// @Summary      Update customer status
// @Description  Activate or deactivate a customer; customers are never deleted
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path int true "Customer ID"
// @Param        request body UpdateStatusRequest true "Status update request"
// @Success      200 {object} response.APIResponse{data=CustomerResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /customers/{id}/status [put]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid customer ID")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	c, err := h.service.UpdateStatus(r.Context(), tenantID, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrCustomerNotFound):
			response.NotFound(w, err.Error())
		default:
			response.InternalError(w, "Failed to update customer status")
		}
		return
	}

	response.JSON(w, http.StatusOK, c.ToResponse())
}
