package invoice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mutua/takabill/internal/invoice"
)

func TestApplyCharge(t *testing.T) {
	cases := []struct {
		name        string
		prior       string
		charge      string
		wantStatus  invoice.Status
		wantPaid    string
		wantBalance string
	}{
		{
			name:        "no credit leaves invoice unpaid",
			prior:       "0",
			charge:      "500",
			wantStatus:  invoice.StatusUnpaid,
			wantPaid:    "0",
			wantBalance: "500",
		},
		{
			name:        "existing debt leaves invoice unpaid",
			prior:       "1200",
			charge:      "500",
			wantStatus:  invoice.StatusUnpaid,
			wantPaid:    "0",
			wantBalance: "1700",
		},
		{
			name:        "credit covering the full charge pays it on arrival",
			prior:       "-150",
			charge:      "100",
			wantStatus:  invoice.StatusPaid,
			wantPaid:    "100",
			wantBalance: "-50",
		},
		{
			name:        "credit equal to the charge pays it exactly",
			prior:       "-500",
			charge:      "500",
			wantStatus:  invoice.StatusPaid,
			wantPaid:    "500",
			wantBalance: "0",
		},
		{
			name:        "partial credit leaves invoice partially paid",
			prior:       "-200",
			charge:      "500",
			wantStatus:  invoice.StatusPartiallyPaid,
			wantPaid:    "200",
			wantBalance: "300",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := invoice.ApplyCharge(dec(tc.prior), dec(tc.charge))

			assert.Equal(t, tc.wantStatus, result.Status)
			assert.True(t, result.AmountPaid.Equal(dec(tc.wantPaid)),
				"amount paid = %s, want %s", result.AmountPaid, tc.wantPaid)
			assert.True(t, result.NewBalance.Equal(dec(tc.wantBalance)),
				"new balance = %s, want %s", result.NewBalance, tc.wantBalance)

			// The balance always moves by exactly the charge.
			assert.True(t, result.NewBalance.Sub(dec(tc.prior)).Equal(dec(tc.charge)))
		})
	}
}
