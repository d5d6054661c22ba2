package models

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPrefixedID(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
	}{
		{name: "order", kind: KindOrder},
		{name: "invoice", kind: KindInvoice},
		{name: "payment", kind: KindPayment},
		{name: "shipment", kind: KindShipment},
		{name: "notification", kind: KindNotification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := NewPrefixedID(tt.kind)
			assert.True(t, HasKind(id, tt.kind), id)
			assert.NotEqual(t, id, NewPrefixedID(tt.kind))
		})
	}
}

func TestHasKind(t *testing.T) {
	assert.False(t, HasKind("order_123", KindOrder))
	assert.False(t, HasKind(NewPrefixedID(KindInvoice), KindOrder))
	assert.False(t, HasKind("", KindOrder))
}

func TestNewTrackingNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^TRACK\d{10}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tn := NewTrackingNumber()
		assert.Regexp(t, pattern, tn)
		seen[tn] = struct{}{}
	}
	assert.Greater(t, len(seen), 95)
}

func TestNewID(t *testing.T) {
	id := GenerateUUID()
	parsed, err := NewID(id.String())
	assert.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = NewID("not-a-uuid")
	assert.Error(t, err)
}
