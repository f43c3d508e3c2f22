package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/mutua/takabill/internal/invoice"
)

// Allocation is the slice of one payment assigned to one invoice
type Allocation struct {
	InvoiceID int64
	InvoiceNo string
	Amount    decimal.Decimal
}

// Allocate distributes a payment amount across a customer's open invoices,
// oldest first, and returns the per-invoice allocations together with
// whatever is left over. The caller supplies the invoices already ordered by
// creation time ascending and only calls with a positive amount.
//
// Each invoice absorbs at most its outstanding balance. Any remainder after
// the last invoice is not assigned anywhere: it becomes unapplied credit on
// the customer's closing balance. The function is pure, so:
//
//	sum(allocations) + remainder == amount
//
// always holds, with no allocation exceeding its invoice's outstanding due.
func Allocate(amount decimal.Decimal, open []*invoice.Invoice) ([]Allocation, decimal.Decimal) {
	var allocations []Allocation
	remainder := amount

	for _, inv := range open {
		if !remainder.IsPositive() {
			break
		}

		applied := decimal.Min(remainder, inv.Outstanding())
		if !applied.IsPositive() {
			continue
		}

		allocations = append(allocations, Allocation{
			InvoiceID: inv.ID,
			InvoiceNo: inv.InvoiceNo,
			Amount:    applied,
		})
		remainder = remainder.Sub(applied)
	}

	return allocations, remainder
}
