package mpesa

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mutua/takabill/internal/customer"
	"github.com/mutua/takabill/internal/payment"
	"github.com/mutua/takabill/internal/settlement"
	"github.com/mutua/takabill/internal/tenant"
)

// Handler receives mobile-money payment notifications.
//
// The provider retries callbacks on timeout, so the handler must answer fast
// and be safe to call repeatedly: the payment row is stored keyed by the
// provider transaction ID, a duplicate is acknowledged as success without a
// second row, and settlement runs asynchronously with failures logged for
// manual reconciliation.
type Handler struct {
	tenants     *tenant.Repository
	customers   *customer.Repository
	payments    *payment.Repository
	settlements *settlement.Service
}

// NewHandler creates a new webhook handler
func NewHandler(tenants *tenant.Repository, customers *customer.Repository, payments *payment.Repository, settlements *settlement.Service) *Handler {
	return &Handler{
		tenants:     tenants,
		customers:   customers,
		payments:    payments,
		settlements: settlements,
	}
}

// Routes returns the router for webhook endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/mpesa/{shortcode}", h.Callback)
	return r
}

func writeAck(w http.ResponseWriter, status int, ack CallbackResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ack)
}

// Callback handles POST /webhooks/mpesa/{shortcode}
// @Summary      Mobile-money payment notification
// @Description  Stores the payment keyed by provider transaction ID and settles it asynchronously; duplicates are acknowledged as no-ops
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        shortcode path string true "Paybill shortcode"
// @Param        request body CallbackRequest true "Payment notification"
// @Success      200 {object} CallbackResponse
// @Router       /webhooks/mpesa/{shortcode} [post]
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	shortcode := chi.URLParam(r, "shortcode")

	var req CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAck(w, http.StatusBadRequest, ackRejected)
		return
	}
	if req.TransactionID == "" || !req.Amount.IsPositive() {
		writeAck(w, http.StatusBadRequest, ackRejected)
		return
	}

	t, err := h.tenants.GetByShortcode(r.Context(), shortcode)
	if err != nil {
		log.Printf("[Mpesa] Tenant lookup failed for shortcode %s: %v", shortcode, err)
		writeAck(w, http.StatusInternalServerError, ackRejected)
		return
	}
	if t == nil {
		log.Printf("[Mpesa] Callback for unknown shortcode %s (txn %s)", shortcode, req.TransactionID)
		writeAck(w, http.StatusOK, ackRejected)
		return
	}

	// Match the customer by the bill reference (their registered phone).
	// No match is not an error: the payment is stored unmatched for the
	// reconciliation screen.
	var customerID *int64
	matched, err := h.customers.GetByPhone(r.Context(), t.ID, req.BillReference)
	if err != nil {
		log.Printf("[Mpesa] Customer lookup failed for txn %s: %v", req.TransactionID, err)
		writeAck(w, http.StatusInternalServerError, ackRejected)
		return
	}
	if matched != nil {
		customerID = &matched.ID
	}

	p, err := h.payments.Create(r.Context(), payment.CreateParams{
		TenantID:    t.ID,
		CustomerID:  customerID,
		Amount:      req.Amount,
		Mode:        payment.ModeMpesa,
		ExternalRef: req.TransactionID,
		PayerName:   req.PayerName,
		PayerPhone:  req.PayerPhone,
	})
	if errors.Is(err, payment.ErrDuplicateTransaction) {
		// Provider retry for a transaction we already hold.
		writeAck(w, http.StatusOK, ackAccepted)
		return
	}
	if err != nil {
		log.Printf("[Mpesa] Failed to store payment %s: %v", req.TransactionID, err)
		writeAck(w, http.StatusInternalServerError, ackRejected)
		return
	}

	if customerID != nil {
		tenantID, paymentID := t.ID, p.ID
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if _, err := h.settlements.Settle(ctx, tenantID, paymentID); err != nil {
				log.Printf("[Mpesa] Settlement failed for txn %s (payment %s): %v",
					req.TransactionID, paymentID, err)
			}
		}()
	}

	writeAck(w, http.StatusOK, ackAccepted)
}
