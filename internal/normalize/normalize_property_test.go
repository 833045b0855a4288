//go:build property
// +build property

package normalize

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestCodeMappingIsTotal verifies every input maps to a valid enum value.
func TestCodeMappingIsTotal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)
	n := New(nil)

	properties.Property("payment method is always valid", prop.ForAll(
		func(raw string) bool {
			return n.PaymentMethod(raw).IsValid()
		},
		gen.AnyString(),
	))

	properties.Property("order status is always valid", prop.ForAll(
		func(raw string) bool {
			return n.OrderStatus(raw).IsValid()
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestMinorUnitsMatchesIntegerCents verifies whole-cent amounts convert exactly.
func TestMinorUnitsMatchesIntegerCents(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)
	n := New(nil)

	properties.Property("cents survive a round trip through a decimal string", prop.ForAll(
		func(cents int64) bool {
			sign := ""
			abs := cents
			if cents < 0 {
				sign = "-"
				abs = -cents
			}
			raw := fmt.Sprintf("%s%d.%02d", sign, abs/100, abs%100)
			return n.MinorUnits(raw) == cents
		},
		gen.Int64Range(-100_000_000, 100_000_000),
	))

	properties.TestingRun(t)
}
