package saga

// Status is a per-stage outcome tag. It travels in event payloads and routes
// notifications.
type Status string

const (
	StatusOrderCreated     Status = "ORDER_CREATED"
	StatusOrderError       Status = "ORDER_ERROR"
	StatusInvoiceCreated   Status = "INVOICE_CREATED"
	StatusInvoiceError     Status = "INVOICE_ERROR"
	StatusPaymentConfirmed Status = "PAYMENT_CONFIRMED"
	StatusPaymentFailed    Status = "PAYMENT_FAILED"
	StatusShipped          Status = "SHIPPED"
	StatusShipmentError    Status = "SHIPMENT_ERROR"
)

// Statuses returns every member of the status model.
func Statuses() []Status {
	return []Status{
		StatusOrderCreated,
		StatusOrderError,
		StatusInvoiceCreated,
		StatusInvoiceError,
		StatusPaymentConfirmed,
		StatusPaymentFailed,
		StatusShipped,
		StatusShipmentError,
	}
}

// ParseStatus returns false for anything outside the status model.
func ParseStatus(s string) (Status, bool) {
	status := Status(s)
	if status.Stage() == "" {
		return "", false
	}
	return status, true
}

func (s Status) String() string {
	return string(s)
}

// IsError reports whether s is a failure outcome.
func (s Status) IsError() bool {
	switch s {
	case StatusOrderError, StatusInvoiceError, StatusPaymentFailed, StatusShipmentError:
		return true
	default:
		return false
	}
}

// Stage returns the stage that emits s, or "" if s is unknown.
func (s Status) Stage() Stage {
	switch s {
	case StatusOrderCreated, StatusOrderError:
		return StageOrder
	case StatusInvoiceCreated, StatusInvoiceError:
		return StageInvoice
	case StatusPaymentConfirmed, StatusPaymentFailed:
		return StagePayment
	case StatusShipped, StatusShipmentError:
		return StageShipment
	default:
		return ""
	}
}

// State returns the logical saga state reached when s is observed.
func (s Status) State() State {
	switch s {
	case StatusOrderCreated:
		return StateCreated
	case StatusInvoiceCreated:
		return StateInvoiced
	case StatusPaymentConfirmed:
		return StatePaid
	case StatusShipped:
		return StateShipped
	case StatusOrderError, StatusInvoiceError, StatusPaymentFailed, StatusShipmentError:
		return StateFailed
	default:
		return ""
	}
}

// FailureStatus returns the error status a stage reports through the error sink.
func FailureStatus(stage Stage) Status {
	switch stage {
	case StageOrder:
		return StatusOrderError
	case StageInvoice:
		return StatusInvoiceError
	case StagePayment:
		return StatusPaymentFailed
	case StageShipment:
		return StatusShipmentError
	default:
		return ""
	}
}
