package settlement

import (
	"fmt"
	"math/rand"
)

// receiptNumberAttempts bounds the generate-check-insert loop. The unique
// constraint on receipts.receipt_no remains the final authority; this loop
// only keeps the common case collision-free.
const receiptNumberAttempts = 5

// NumberGenerator produces human-readable receipt numbers: a fixed prefix,
// seven random digits, and the tenant ID as a readability suffix. Uniqueness
// is global, not per tenant.
type NumberGenerator struct {
	Prefix string
}

// NewNumberGenerator creates a generator with the configured prefix
func NewNumberGenerator(prefix string) *NumberGenerator {
	if prefix == "" {
		prefix = "RCT"
	}
	return &NumberGenerator{Prefix: prefix}
}

// Generate returns a candidate receipt number for the tenant
func (g *NumberGenerator) Generate(tenantID int64) string {
	return fmt.Sprintf("%s%07d-%d", g.Prefix, rand.Intn(10_000_000), tenantID)
}
