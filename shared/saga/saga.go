package saga

// There is no orchestrator. Each stage listens on its topic and publishes the
// next event; the logical state of an order exists only as the set of records
// sharing its orderId.

// State is the logical progress of one order through the saga.
type State string

const (
	StateCreated  State = "CREATED"
	StateInvoiced State = "INVOICED"
	StatePaid     State = "PAID"
	StateShipped  State = "SHIPPED"
	// StateFailed is absorbing.
	StateFailed State = "FAILED"
)

func (s State) rank() int {
	switch s {
	case StateCreated:
		return 1
	case StateInvoiced:
		return 2
	case StatePaid:
		return 3
	case StateShipped:
		return 4
	default:
		return 0
	}
}

// Stage names the saga step that owns a status.
type Stage string

const (
	StageOrder        Stage = "order"
	StageInvoice      Stage = "invoice"
	StagePayment      Stage = "payment"
	StageShipment     Stage = "shipment"
	StageNotification Stage = "notification"
)

func (s Stage) String() string {
	return string(s)
}
