package settlement_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutua/takabill/internal/customer"
	"github.com/mutua/takabill/internal/invoice"
	"github.com/mutua/takabill/internal/payment"
	"github.com/mutua/takabill/internal/settlement"
)

// memStore is an in-memory settlement.Store. Transact holds one mutex for the
// whole unit of work, which models the row locks the real store takes: two
// settlements for the same customer never interleave. Writes are staged on the
// transaction and applied only when the callback returns nil.
type memStore struct {
	mu         sync.Mutex
	payments   map[uuid.UUID]*payment.Payment
	customers  map[int64]*customer.Customer
	invoices   map[int64]*invoice.Invoice
	receipts   map[uuid.UUID]*settlement.Receipt
	receiptNos map[string]bool

	// allNumbersTaken makes every candidate receipt number read as taken.
	allNumbersTaken bool
}

func newMemStore() *memStore {
	return &memStore{
		payments:   make(map[uuid.UUID]*payment.Payment),
		customers:  make(map[int64]*customer.Customer),
		invoices:   make(map[int64]*invoice.Invoice),
		receipts:   make(map[uuid.UUID]*settlement.Receipt),
		receiptNos: make(map[string]bool),
	}
}

func (s *memStore) addCustomer(id, tenantID int64, balance string) *customer.Customer {
	c := &customer.Customer{
		ID:             id,
		TenantID:       tenantID,
		Name:           "Test Customer",
		Phone:          "254700000001",
		CustomerType:   customer.TypePostpaid,
		MonthlyCharge:  dec("500"),
		ClosingBalance: dec(balance),
		Status:         customer.StatusActive,
	}
	s.customers[id] = c
	return c
}

func (s *memStore) addInvoice(id, tenantID, customerID int64, amount, paid string, createdAt time.Time) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:         id,
		TenantID:   tenantID,
		CustomerID: customerID,
		InvoiceNo:  invoice.NumberFor(customerID, "2026-01"),
		Period:     "2026-01",
		Amount:     dec(amount),
		AmountPaid: dec(paid),
		Status:     invoice.StatusFor(dec(amount), dec(paid)),
		CreatedAt:  createdAt,
	}
	s.invoices[id] = inv
	return inv
}

func (s *memStore) addPayment(tenantID int64, customerID *int64, amount string) *payment.Payment {
	p := &payment.Payment{
		ID:          uuid.New(),
		TenantID:    tenantID,
		CustomerID:  customerID,
		Amount:      dec(amount),
		Mode:        payment.ModeMpesa,
		ExternalRef: "TXN-" + uuid.NewString(),
		PayerName:   "Payer",
		CreatedAt:   time.Now(),
	}
	s.payments[p.ID] = p
	return p
}

func (s *memStore) Transact(ctx context.Context, fn func(settlement.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	if err := fn(tx); err != nil {
		return err
	}
	tx.apply()
	return nil
}

// Create implements settlement.PaymentRecorder.
func (s *memStore) Create(ctx context.Context, params payment.CreateParams) (*payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.payments {
		if existing.ExternalRef == params.ExternalRef {
			return nil, payment.ErrDuplicateTransaction
		}
	}

	p := &payment.Payment{
		ID:          uuid.New(),
		TenantID:    params.TenantID,
		CustomerID:  params.CustomerID,
		Amount:      params.Amount,
		Mode:        params.Mode,
		ExternalRef: params.ExternalRef,
		PayerName:   params.PayerName,
		PayerPhone:  params.PayerPhone,
		CreatedAt:   time.Now(),
	}
	s.payments[p.ID] = p

	copied := *p
	return &copied, nil
}

// GetByExternalRef implements settlement.PaymentRecorder.
func (s *memStore) GetByExternalRef(ctx context.Context, externalRef string) (*payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.ExternalRef == externalRef {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

type allocationUpdate struct {
	invoiceID int64
	applied   decimal.Decimal
	status    invoice.Status
}

type balanceUpdate struct {
	customerID int64
	balance    decimal.Decimal
}

type receiptedUpdate struct {
	paymentID uuid.UUID
	receiptID uuid.UUID
}

type memTx struct {
	s           *memStore
	allocations []allocationUpdate
	balance     *balanceUpdate
	receipt     *settlement.Receipt
	receipted   *receiptedUpdate
}

func (tx *memTx) PaymentForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	p, ok := tx.s.payments[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (tx *memTx) CustomerForUpdate(ctx context.Context, tenantID, customerID int64) (*customer.Customer, error) {
	c, ok := tx.s.customers[customerID]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (tx *memTx) OpenInvoices(ctx context.Context, tenantID, customerID int64) ([]*invoice.Invoice, error) {
	var open []*invoice.Invoice
	for _, inv := range tx.s.invoices {
		if inv.TenantID == tenantID && inv.CustomerID == customerID && inv.IsOpen() {
			copied := *inv
			open = append(open, &copied)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if !open[i].CreatedAt.Equal(open[j].CreatedAt) {
			return open[i].CreatedAt.Before(open[j].CreatedAt)
		}
		return open[i].ID < open[j].ID
	})
	return open, nil
}

func (tx *memTx) ApplyAllocation(ctx context.Context, invoiceID int64, applied decimal.Decimal, status invoice.Status) error {
	tx.allocations = append(tx.allocations, allocationUpdate{invoiceID, applied, status})
	return nil
}

func (tx *memTx) SetCustomerBalance(ctx context.Context, customerID int64, balance decimal.Decimal) error {
	tx.balance = &balanceUpdate{customerID, balance}
	return nil
}

func (tx *memTx) ReceiptNumberExists(ctx context.Context, receiptNo string) (bool, error) {
	return tx.s.allNumbersTaken || tx.s.receiptNos[receiptNo], nil
}

func (tx *memTx) InsertReceipt(ctx context.Context, receipt *settlement.Receipt) error {
	for _, existing := range tx.s.receipts {
		if existing.PaymentID == receipt.PaymentID {
			return settlement.ErrAlreadyReceipted
		}
	}
	if tx.s.receiptNos[receipt.ReceiptNo] {
		return settlement.ErrReceiptNumberTaken
	}

	copied := *receipt
	copied.Lines = append([]settlement.ReceiptLine(nil), receipt.Lines...)
	copied.CreatedAt = time.Now()
	tx.receipt = &copied
	return nil
}

func (tx *memTx) MarkReceipted(ctx context.Context, paymentID, receiptID uuid.UUID) error {
	p, ok := tx.s.payments[paymentID]
	if !ok || p.Receipted {
		return settlement.ErrAlreadyReceipted
	}
	tx.receipted = &receiptedUpdate{paymentID, receiptID}
	return nil
}

func (tx *memTx) apply() {
	for _, u := range tx.allocations {
		inv := tx.s.invoices[u.invoiceID]
		inv.AmountPaid = inv.AmountPaid.Add(u.applied)
		inv.Status = u.status
	}
	if tx.balance != nil {
		tx.s.customers[tx.balance.customerID].ClosingBalance = tx.balance.balance
	}
	if tx.receipt != nil {
		tx.s.receipts[tx.receipt.ID] = tx.receipt
		tx.s.receiptNos[tx.receipt.ReceiptNo] = true
	}
	if tx.receipted != nil {
		p := tx.s.payments[tx.receipted.paymentID]
		p.Receipted = true
		receiptID := tx.receipted.receiptID
		p.ReceiptID = &receiptID
	}
}

func newTestService(s *memStore) *settlement.Service {
	return settlement.NewService(s, s, settlement.NewNumberGenerator("RCT"), nil, nil)
}

func TestSettle_ExactPayment(t *testing.T) {
	store := newMemStore()
	c := store.addCustomer(1, 10, "500")
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	inv := store.addInvoice(100, 10, c.ID, "500", "0", day1)
	p := store.addPayment(10, &c.ID, "500")

	receipt, err := newTestService(store).Settle(context.Background(), 10, p.ID)

	require.NoError(t, err)
	require.NotNil(t, receipt)
	require.Len(t, receipt.Lines, 1)
	assert.True(t, receipt.Amount.Equal(dec("500")))
	assert.True(t, receipt.AllocatedTotal().Equal(dec("500")))
	assert.Regexp(t, `^RCT\d{7}-10$`, receipt.ReceiptNo)

	assert.Equal(t, invoice.StatusPaid, store.invoices[inv.ID].Status)
	assert.True(t, store.invoices[inv.ID].AmountPaid.Equal(dec("500")))
	assert.True(t, store.customers[c.ID].ClosingBalance.IsZero())
	assert.True(t, store.payments[p.ID].Receipted)
	require.NotNil(t, store.payments[p.ID].ReceiptID)
	assert.Equal(t, receipt.ID, *store.payments[p.ID].ReceiptID)
}

func TestSettle_OverpaymentBecomesCredit(t *testing.T) {
	store := newMemStore()
	c := store.addCustomer(1, 10, "300")
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	inv := store.addInvoice(100, 10, c.ID, "300", "0", day1)
	p := store.addPayment(10, &c.ID, "500")

	receipt, err := newTestService(store).Settle(context.Background(), 10, p.ID)

	require.NoError(t, err)
	assert.True(t, receipt.AllocatedTotal().Equal(dec("300")))
	assert.Equal(t, invoice.StatusPaid, store.invoices[inv.ID].Status)

	// The full amount is debited; the unapplied 200 stays as credit.
	assert.True(t, store.customers[c.ID].ClosingBalance.Equal(dec("-200")))
}

func TestSettle_PartialPayment(t *testing.T) {
	store := newMemStore()
	c := store.addCustomer(1, 10, "1000")
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	inv := store.addInvoice(100, 10, c.ID, "1000", "0", day1)
	p := store.addPayment(10, &c.ID, "400")

	receipt, err := newTestService(store).Settle(context.Background(), 10, p.ID)

	require.NoError(t, err)
	assert.True(t, receipt.AllocatedTotal().Equal(dec("400")))
	assert.Equal(t, invoice.StatusPartiallyPaid, store.invoices[inv.ID].Status)
	assert.True(t, store.invoices[inv.ID].AmountPaid.Equal(dec("400")))
	assert.True(t, store.customers[c.ID].ClosingBalance.Equal(dec("600")))
}

func TestSettle_NoOpenInvoices(t *testing.T) {
	store := newMemStore()
	c := store.addCustomer(1, 10, "0")
	p := store.addPayment(10, &c.ID, "250")

	receipt, err := newTestService(store).Settle(context.Background(), 10, p.ID)

	require.NoError(t, err)
	assert.Empty(t, receipt.Lines)
	assert.True(t, store.customers[c.ID].ClosingBalance.Equal(dec("-250")))
	assert.True(t, store.payments[p.ID].Receipted)
}

func TestSettle_SpreadsOldestFirst(t *testing.T) {
	store := newMemStore()
	c := store.addCustomer(1, 10, "200")
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	older := store.addInvoice(100, 10, c.ID, "100", "0", day1)
	newer := store.addInvoice(101, 10, c.ID, "100", "0", day1.AddDate(0, 1, 0))
	p := store.addPayment(10, &c.ID, "150")

	receipt, err := newTestService(store).Settle(context.Background(), 10, p.ID)

	require.NoError(t, err)
	require.Len(t, receipt.Lines, 2)
	assert.Equal(t, older.ID, receipt.Lines[0].InvoiceID)
	assert.True(t, receipt.Lines[0].Amount.Equal(dec("100")))
	assert.Equal(t, newer.ID, receipt.Lines[1].InvoiceID)
	assert.True(t, receipt.Lines[1].Amount.Equal(dec("50")))

	assert.Equal(t, invoice.StatusPaid, store.invoices[older.ID].Status)
	assert.Equal(t, invoice.StatusPartiallyPaid, store.invoices[newer.ID].Status)
	assert.True(t, store.customers[c.ID].ClosingBalance.Equal(dec("50")))
}

func TestSettle_PaymentNotFound(t *testing.T) {
	store := newMemStore()

	_, err := newTestService(store).Settle(context.Background(), 10, uuid.New())

	assert.ErrorIs(t, err, settlement.ErrPaymentNotFound)
}

func TestSettle_TenantMismatch(t *testing.T) {
	store := newMemStore()
	c := store.addCustomer(1, 10, "500")
	p := store.addPayment(10, &c.ID, "500")

	_, err := newTestService(store).Settle(context.Background(), 99, p.ID)

	assert.ErrorIs(t, err, settlement.ErrTenantMismatch)
	assert.True(t, store.customers[c.ID].ClosingBalance.Equal(dec("500")))
	assert.False(t, store.payments[p.ID].Receipted)
}

func TestSettle_UnmatchedPayment(t *testing.T) {
	store := newMemStore()
	p := store.addPayment(10, nil, "500")

	_, err := newTestService(store).Settle(context.Background(), 10, p.ID)

	assert.ErrorIs(t, err, settlement.ErrCustomerNotFound)
}

func TestSettle_SecondAttemptIsRejected(t *testing.T) {
	store := newMemStore()
	c := store.addCustomer(1, 10, "500")
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	store.addInvoice(100, 10, c.ID, "500", "0", day1)
	p := store.addPayment(10, &c.ID, "500")
	svc := newTestService(store)

	_, err := svc.Settle(context.Background(), 10, p.ID)
	require.NoError(t, err)

	_, err = svc.Settle(context.Background(), 10, p.ID)
	assert.ErrorIs(t, err, settlement.ErrAlreadyReceipted)

	// Exactly one receipt; the balance moved exactly once.
	assert.Len(t, store.receipts, 1)
	assert.True(t, store.customers[c.ID].ClosingBalance.IsZero())
}

func TestSettle_ReceiptNumberExhausted(t *testing.T) {
	store := newMemStore()
	store.allNumbersTaken = true
	c := store.addCustomer(1, 10, "500")
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	inv := store.addInvoice(100, 10, c.ID, "500", "0", day1)
	p := store.addPayment(10, &c.ID, "500")

	_, err := newTestService(store).Settle(context.Background(), 10, p.ID)

	assert.ErrorIs(t, err, settlement.ErrReceiptNumberExhausted)

	// The whole settlement rolled back.
	assert.True(t, store.customers[c.ID].ClosingBalance.Equal(dec("500")))
	assert.True(t, store.invoices[inv.ID].AmountPaid.IsZero())
	assert.False(t, store.payments[p.ID].Receipted)
	assert.Empty(t, store.receipts)
}

func TestSettle_ConcurrentPaymentsNoLostUpdate(t *testing.T) {
	store := newMemStore()
	c := store.addCustomer(1, 10, "1000")
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	first := store.addInvoice(100, 10, c.ID, "400", "0", day1)
	second := store.addInvoice(101, 10, c.ID, "600", "0", day1.AddDate(0, 1, 0))
	pa := store.addPayment(10, &c.ID, "300")
	pb := store.addPayment(10, &c.ID, "700")
	svc := newTestService(store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{pa.ID, pb.ID} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = svc.Settle(context.Background(), 10, id)
		}(i, id)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Both debits landed regardless of interleaving order.
	assert.True(t, store.customers[c.ID].ClosingBalance.IsZero())
	assert.Equal(t, invoice.StatusPaid, store.invoices[first.ID].Status)
	assert.Equal(t, invoice.StatusPaid, store.invoices[second.ID].Status)
	assert.Len(t, store.receipts, 2)
}

func TestRecordPayment_RejectsInvalidInput(t *testing.T) {
	svc := newTestService(newMemStore())

	_, err := svc.RecordPayment(context.Background(), 10, &settlement.RecordPaymentRequest{
		CustomerID: 1,
		Amount:     dec("-5"),
		Mode:       "CASH",
	})
	assert.ErrorIs(t, err, settlement.ErrInvalidAmount)

	_, err = svc.RecordPayment(context.Background(), 10, &settlement.RecordPaymentRequest{
		CustomerID: 1,
		Amount:     dec("100"),
		Mode:       "BARTER",
	})
	assert.ErrorIs(t, err, settlement.ErrInvalidMode)
}

func TestRecordPayment_ManualEntrySettles(t *testing.T) {
	store := newMemStore()
	c := store.addCustomer(1, 10, "500")
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	store.addInvoice(100, 10, c.ID, "500", "0", day1)

	receipt, err := newTestService(store).RecordPayment(context.Background(), 10, &settlement.RecordPaymentRequest{
		CustomerID: c.ID,
		Amount:     dec("500"),
		Mode:       "CASH",
		PaidByName: "John",
	})

	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.True(t, receipt.AllocatedTotal().Equal(dec("500")))
	assert.True(t, store.customers[c.ID].ClosingBalance.IsZero())

	stored := store.payments[receipt.PaymentID]
	require.NotNil(t, stored)
	assert.Equal(t, payment.ModeCash, stored.Mode)
	assert.True(t, strings.HasPrefix(stored.ExternalRef, "CASH-"))
}

func TestRecordPayment_DuplicateReference(t *testing.T) {
	store := newMemStore()
	c := store.addCustomer(1, 10, "500")
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	store.addInvoice(100, 10, c.ID, "500", "0", day1)
	svc := newTestService(store)

	req := &settlement.RecordPaymentRequest{
		CustomerID: c.ID,
		Amount:     dec("500"),
		Mode:       "BANK",
		Reference:  "SLIP-0042",
	}

	_, err := svc.RecordPayment(context.Background(), 10, req)
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), 10, req)
	assert.ErrorIs(t, err, settlement.ErrAlreadyReceipted)

	// One payment row, one receipt, one balance movement.
	assert.Len(t, store.payments, 1)
	assert.Len(t, store.receipts, 1)
	assert.True(t, store.customers[c.ID].ClosingBalance.IsZero())
}

type recordingAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingAuditor) Record(ctx context.Context, tenantID int64, customerID *int64, actor, action, details string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	return nil
}

type channelNotifier struct {
	sent chan string
}

func (n *channelNotifier) Send(ctx context.Context, tenantID int64, phone, text string) error {
	n.sent <- text
	return nil
}

func TestSettle_SideEffectsAfterCommit(t *testing.T) {
	store := newMemStore()
	c := store.addCustomer(1, 10, "500")
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	store.addInvoice(100, 10, c.ID, "500", "0", day1)
	p := store.addPayment(10, &c.ID, "500")

	auditor := &recordingAuditor{}
	notifier := &channelNotifier{sent: make(chan string, 1)}
	svc := settlement.NewService(store, store, settlement.NewNumberGenerator("RCT"), auditor, notifier)

	receipt, err := svc.Settle(context.Background(), 10, p.ID)
	require.NoError(t, err)

	auditor.mu.Lock()
	assert.Equal(t, []string{"payment.settled"}, auditor.actions)
	auditor.mu.Unlock()

	select {
	case text := <-notifier.sent:
		assert.Contains(t, text, receipt.ReceiptNo)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation SMS was never sent")
	}
}
