package settlement_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutua/takabill/internal/invoice"
	"github.com/mutua/takabill/internal/settlement"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func openInvoice(id int64, amount, paid string, createdAt time.Time) *invoice.Invoice {
	return &invoice.Invoice{
		ID:         id,
		InvoiceNo:  invoice.NumberFor(id, "2026-01"),
		Amount:     dec(amount),
		AmountPaid: dec(paid),
		Status:     invoice.StatusFor(dec(amount), dec(paid)),
		CreatedAt:  createdAt,
	}
}

func TestAllocate_ExactPayment(t *testing.T) {
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	open := []*invoice.Invoice{openInvoice(1, "500", "0", day1)}

	allocations, remainder := settlement.Allocate(dec("500"), open)

	require.Len(t, allocations, 1)
	assert.Equal(t, int64(1), allocations[0].InvoiceID)
	assert.True(t, allocations[0].Amount.Equal(dec("500")))
	assert.True(t, remainder.IsZero())
}

func TestAllocate_OldestFirst(t *testing.T) {
	// Two invoices of 100 each; paying 150 must fill the older one fully and
	// put the rest on the newer one, never the reverse.
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	open := []*invoice.Invoice{
		openInvoice(1, "100", "0", day1),
		openInvoice(2, "100", "0", day2),
	}

	allocations, remainder := settlement.Allocate(dec("150"), open)

	require.Len(t, allocations, 2)
	assert.Equal(t, int64(1), allocations[0].InvoiceID)
	assert.True(t, allocations[0].Amount.Equal(dec("100")))
	assert.Equal(t, int64(2), allocations[1].InvoiceID)
	assert.True(t, allocations[1].Amount.Equal(dec("50")))
	assert.True(t, remainder.IsZero())
}

func TestAllocate_PartialPayment(t *testing.T) {
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	open := []*invoice.Invoice{openInvoice(1, "1000", "0", day1)}

	allocations, remainder := settlement.Allocate(dec("400"), open)

	require.Len(t, allocations, 1)
	assert.True(t, allocations[0].Amount.Equal(dec("400")))
	assert.True(t, remainder.IsZero())
}

func TestAllocate_OverpaymentLeavesRemainder(t *testing.T) {
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	open := []*invoice.Invoice{openInvoice(1, "300", "0", day1)}

	allocations, remainder := settlement.Allocate(dec("500"), open)

	require.Len(t, allocations, 1)
	assert.True(t, allocations[0].Amount.Equal(dec("300")))
	assert.True(t, remainder.Equal(dec("200")))
}

func TestAllocate_NoOpenInvoices(t *testing.T) {
	allocations, remainder := settlement.Allocate(dec("250"), nil)

	assert.Empty(t, allocations)
	assert.True(t, remainder.Equal(dec("250")))
}

func TestAllocate_RespectsAmountAlreadyPaid(t *testing.T) {
	// A partially paid invoice only absorbs its outstanding portion.
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	open := []*invoice.Invoice{openInvoice(1, "1000", "600", day1)}

	allocations, remainder := settlement.Allocate(dec("500"), open)

	require.Len(t, allocations, 1)
	assert.True(t, allocations[0].Amount.Equal(dec("400")))
	assert.True(t, remainder.Equal(dec("100")))
}

func TestAllocate_Conservation(t *testing.T) {
	day1 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		payment string
		open    []*invoice.Invoice
	}{
		{"single exact", "500", []*invoice.Invoice{openInvoice(1, "500", "0", day1)}},
		{"single under", "120", []*invoice.Invoice{openInvoice(1, "500", "0", day1)}},
		{"single over", "900", []*invoice.Invoice{openInvoice(1, "500", "0", day1)}},
		{"many invoices", "650.75", []*invoice.Invoice{
			openInvoice(1, "100", "0", day1),
			openInvoice(2, "250.50", "50.50", day1.AddDate(0, 0, 1)),
			openInvoice(3, "400", "0", day1.AddDate(0, 0, 2)),
		}},
		{"no invoices", "42.42", nil},
		{"cents only", "0.01", []*invoice.Invoice{openInvoice(1, "10", "0", day1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			paymentAmount := dec(tc.payment)
			allocations, remainder := settlement.Allocate(paymentAmount, tc.open)

			total := remainder
			for _, alloc := range allocations {
				total = total.Add(alloc.Amount)
			}
			assert.True(t, total.Equal(paymentAmount),
				"sum(allocations) + remainder = %s, want %s", total, paymentAmount)

			assert.False(t, remainder.IsNegative())
			for _, alloc := range allocations {
				assert.True(t, alloc.Amount.IsPositive())
				for _, inv := range tc.open {
					if inv.ID == alloc.InvoiceID {
						assert.True(t, alloc.Amount.LessThanOrEqual(inv.Outstanding()),
							"allocation exceeds outstanding on invoice %d", inv.ID)
					}
				}
			}
		})
	}
}
