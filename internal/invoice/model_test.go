package invoice_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mutua/takabill/internal/invoice"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		paid   string
		want   invoice.Status
	}{
		{"nothing paid", "500", "0", invoice.StatusUnpaid},
		{"partially paid", "500", "100", invoice.StatusPartiallyPaid},
		{"almost paid", "500", "499.99", invoice.StatusPartiallyPaid},
		{"fully paid", "500", "500", invoice.StatusPaid},
		{"overpaid never happens but derives PAID", "500", "600", invoice.StatusPaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := invoice.StatusFor(dec(tc.amount), dec(tc.paid))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOutstanding(t *testing.T) {
	inv := &invoice.Invoice{Amount: dec("1000"), AmountPaid: dec("350.50")}
	assert.True(t, inv.Outstanding().Equal(dec("649.50")))
}

func TestIsOpen(t *testing.T) {
	assert.True(t, (&invoice.Invoice{Status: invoice.StatusUnpaid}).IsOpen())
	assert.True(t, (&invoice.Invoice{Status: invoice.StatusPartiallyPaid}).IsOpen())
	assert.False(t, (&invoice.Invoice{Status: invoice.StatusPaid}).IsOpen())
	assert.False(t, (&invoice.Invoice{Status: invoice.StatusCancelled}).IsOpen())
}

func TestNumberFor(t *testing.T) {
	assert.Equal(t, "INV-2026-02-17", invoice.NumberFor(17, "2026-02"))
}

func TestValidPeriod(t *testing.T) {
	assert.True(t, invoice.ValidPeriod("2026-01"))
	assert.True(t, invoice.ValidPeriod("2026-12"))
	assert.False(t, invoice.ValidPeriod("2026-13"))
	assert.False(t, invoice.ValidPeriod("2026"))
	assert.False(t, invoice.ValidPeriod("Jan 2026"))
	assert.False(t, invoice.ValidPeriod(""))
}
