package models

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID represents a unique identifier
type ID string

// GenerateUUID creates a new UUID
func GenerateUUID() ID {
	return ID(uuid.New().String())
}

// NewID creates an ID from string
func NewID(id string) (ID, error) {
	_, err := uuid.Parse(id)
	if err != nil {
		return "", err
	}
	return ID(id), nil
}

// String returns string representation
func (id ID) String() string {
	return string(id)
}

// Kind names a record family. Every kind is persisted in its own table.
type Kind string

const (
	KindOrder        Kind = "order"
	KindInvoice      Kind = "invoice"
	KindPayment      Kind = "payment"
	KindShipment     Kind = "shipment"
	KindNotification Kind = "notification"
)

// Kinds lists every record kind in saga order.
func Kinds() []Kind {
	return []Kind{KindOrder, KindInvoice, KindPayment, KindShipment, KindNotification}
}

func (k Kind) String() string {
	return string(k)
}

// NewPrefixedID returns an identifier of the form <kind>_<uuid v4>.
func NewPrefixedID(kind Kind) string {
	return kind.String() + "_" + uuid.New().String()
}

// HasKind reports whether id was produced by NewPrefixedID for kind.
func HasKind(id string, kind Kind) bool {
	suffix, ok := strings.CutPrefix(id, kind.String()+"_")
	if !ok {
		return false
	}
	_, err := uuid.Parse(suffix)
	return err == nil
}

// NewTrackingNumber returns TRACK followed by ten digits taken from a random UUID.
func NewTrackingNumber() string {
	u := uuid.New()
	n := new(big.Int).SetBytes(u[:])
	n.Mod(n, big.NewInt(10_000_000_000))
	return fmt.Sprintf("TRACK%010d", n.Int64())
}

// Record is a persisted saga artifact. Each stage writes exactly one kind.
type Record interface {
	RecordKind() Kind
	RecordID() string
	RecordOrderID() string
	RecordCustomerID() string
	// RecordStatus is the status model value the record represents.
	RecordStatus() string
	RecordTime() time.Time
}
