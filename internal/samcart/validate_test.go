package samcart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/samcart-relay/pkg/errors"
)

const validEvent = `{
	"order_id": "ORD-1",
	"customer": {"email": "ana@example.com", "name": "Ana"},
	"products": [{"id": "P1", "price": 10}],
	"total": 0,
	"payment_method": "credit_card",
	"status": "paid"
}`

func TestValidateStructureAcceptsCompleteEvent(t *testing.T) {
	event := mustDecode(t, validEvent)
	require.NoError(t, ValidateStructure(context.Background(), event))
}

func TestValidateStructureAcceptsFalsyValues(t *testing.T) {
	event := mustDecode(t, `{
		"order_id": "ORD-2",
		"customer": {"email": "", "name": ""},
		"products": [],
		"total": "0",
		"payment_method": false,
		"status": ""
	}`)
	require.NoError(t, ValidateStructure(context.Background(), event))
}

func TestValidateStructureReportsMissingFields(t *testing.T) {
	event := mustDecode(t, `{
		"order_id": "ORD-3",
		"customer": {"name": "Ana"},
		"products": null,
		"payment_method": "pix",
		"status": "paid"
	}`)

	err := ValidateStructure(context.Background(), event)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"customer.email": "is required",
		"products":       "is required",
		"total":          "is required",
	}, details)
	assert.Contains(t, err.Error(), "customer.email, products, total")
}

func TestValidateStructureMissingCustomerListsLeaves(t *testing.T) {
	event := mustDecode(t, `{"order_id": "ORD-4", "products": [], "total": 1, "payment_method": "pix", "status": "paid"}`)

	err := ValidateStructure(context.Background(), event)
	require.Error(t, err)
	details := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "is required", details["customer.email"])
	assert.Equal(t, "is required", details["customer.name"])
	assert.NotContains(t, details, "customer")
}

func TestValidateStructureNonObjectCustomer(t *testing.T) {
	event := mustDecode(t, `{"order_id": "ORD-5", "customer": "ana", "products": [], "total": 1, "payment_method": "pix", "status": "paid"}`)

	err := ValidateStructure(context.Background(), event)
	require.Error(t, err)
	details := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "must be an object", details["customer"])
}

func TestValidateStructureNilEvent(t *testing.T) {
	err := ValidateStructure(context.Background(), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
