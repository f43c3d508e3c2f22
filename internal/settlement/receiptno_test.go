package settlement_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mutua/takabill/internal/settlement"
)

func TestNumberGenerator_Format(t *testing.T) {
	g := settlement.NewNumberGenerator("RCT")

	pattern := regexp.MustCompile(`^RCT\d{7}-42$`)
	for i := 0; i < 50; i++ {
		number := g.Generate(42)
		assert.Regexp(t, pattern, number)
	}
}

func TestNumberGenerator_DefaultPrefix(t *testing.T) {
	g := settlement.NewNumberGenerator("")
	assert.Regexp(t, regexp.MustCompile(`^RCT\d{7}-7$`), g.Generate(7))
}

func TestNumberGenerator_TenantSuffix(t *testing.T) {
	g := settlement.NewNumberGenerator("GCB")

	assert.Regexp(t, regexp.MustCompile(`-1$`), g.Generate(1))
	assert.Regexp(t, regexp.MustCompile(`-250$`), g.Generate(250))
}
