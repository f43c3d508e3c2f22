package settlement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mutua/takabill/pkg/middleware"
	"github.com/mutua/takabill/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
	repo    *Repository
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service, repo *Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

// Routes returns the router for settlement and receipt endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/payments", h.RecordPayment)
	r.Post("/settle", h.Settle)
	r.Get("/receipts/{id}", h.GetReceipt)
	r.Get("/receipts/payment/{paymentID}", h.GetReceiptByPayment)
	r.Get("/receipts/customer/{customerID}", h.ListReceipts)

	return r
}

func (h *Handler) writeSettlementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidMode):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrPaymentNotFound), errors.Is(err, ErrCustomerNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrTenantMismatch):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrAlreadyReceipted), errors.Is(err, ErrConcurrencyConflict):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, "Settlement failed")
	}
}

// RecordPayment handles POST /settlements/payments
// @Summary      Record and settle a manual payment
// @Description  Creates a payment entry (cash, bank, cheque) and settles it against the customer's open invoices
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body RecordPaymentRequest true "Manual payment entry"
// @Success      201 {object} response.APIResponse{data=ReceiptResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /settlements/payments [post]
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.GetTenantID(r.Context())
	if !ok {
		response.BadRequest(w, "Missing tenant")
		return
	}

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if req.PaidByName == "" {
		req.PaidByName = middleware.GetOperator(r.Context())
	}

	receipt, err := h.service.RecordPayment(r.Context(), tenantID, &req)
	if err != nil {
		h.writeSettlementError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, receipt.ToResponse())
}

// Settle handles POST /settlements/settle
// @Summary      Settle an existing payment
// @Description  Runs settlement for a recorded payment that has not been receipted yet
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body SettleRequest true "Settle request"
// @Success      200 {object} response.APIResponse{data=ReceiptResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /settlements/settle [post]
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	paymentID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		response.BadRequest(w, "Invalid payment ID")
		return
	}

	receipt, err := h.service.Settle(r.Context(), tenantID, paymentID)
	if err != nil {
		h.writeSettlementError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, receipt.ToResponse())
}

// GetReceipt handles GET /settlements/receipts/{id}
// @Summary      Get receipt by ID
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Receipt ID"
// @Success      200 {object} response.APIResponse{data=ReceiptResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/receipts/{id} [get]
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid receipt ID")
		return
	}

	receipt, err := h.repo.GetByID(r.Context(), tenantID, id)
	if err != nil {
		response.InternalError(w, "Failed to get receipt")
		return
	}
	if receipt == nil {
		response.NotFound(w, "receipt not found")
		return
	}

	response.JSON(w, http.StatusOK, receipt.ToResponse())
}

// GetReceiptByPayment handles GET /settlements/receipts/payment/{paymentID}
// @Summary      Get the receipt issued for a payment
// @Tags         settlements
// @Produce      json
// @Param        paymentID path string true "Payment ID"
// @Success      200 {object} response.APIResponse{data=ReceiptResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/receipts/payment/{paymentID} [get]
func (h *Handler) GetReceiptByPayment(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := middleware.GetTenantID(r.Context())

	paymentID, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		response.BadRequest(w, "Invalid payment ID")
		return
	}

	receipt, err := h.repo.GetByPaymentID(r.Context(), tenantID, paymentID)
	if err != nil {
		response.InternalError(w, "Failed to get receipt")
		return
	}
	if receipt == nil {
		response.NotFound(w, "no receipt for payment")
		return
	}

	response.JSON(w, http.StatusOK, receipt.ToResponse())
}

// ListReceipts handles GET /settlements/receipts/customer/{customerID}
// @Summary      List a customer's receipts
// @Tags         settlements
// @Produce      json
// @Param        customerID path int true "Customer ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]ReceiptResponse}
// @Router       /settlements/receipts/customer/{customerID} [get]
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
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

	receipts, total, err := h.repo.ListByCustomer(r.Context(), tenantID, customerID, perPage, (page-1)*perPage)
	if err != nil {
		response.InternalError(w, "Failed to list receipts")
		return
	}

	responses := make([]*ReceiptResponse, len(receipts))
	for i, rcpt := range receipts {
		responses[i] = rcpt.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, responses, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}
