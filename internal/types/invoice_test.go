package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceStatusTransitions(t *testing.T) {
	all := []InvoiceStatus{
		InvoiceStatusPending,
		InvoiceStatusPaid,
		InvoiceStatusOverdue,
		InvoiceStatusCancelled,
	}

	allowed := map[InvoiceStatus][]InvoiceStatus{
		InvoiceStatusPending: {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
		InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusCancelled},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, target := range allowed[from] {
				if target == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestInvoiceStatusValidate(t *testing.T) {
	assert.NoError(t, InvoiceStatusPending.Validate())
	assert.NoError(t, InvoiceStatusPaid.Validate())
	assert.NoError(t, InvoiceStatusOverdue.Validate())
	assert.NoError(t, InvoiceStatusCancelled.Validate())
	assert.Error(t, InvoiceStatus("refunded").Validate())
	assert.Error(t, InvoiceStatus("").Validate())
}
