package notify

import "context"

// EventKind identifies a lifecycle transition a counterparty is told about.
type EventKind string

const (
	EventRentalRequestCreated  EventKind = "rental_request_created"
	EventRentalRequestApproved EventKind = "rental_request_approved"
	EventRentalRequestRejected EventKind = "rental_request_rejected"

	EventPurchaseRequestCreated EventKind = "purchase_request_created"
	EventPurchaseAccepted       EventKind = "purchase_accepted"
	EventPurchaseRejected       EventKind = "purchase_rejected"
	EventPurchaseAutoRejected   EventKind = "purchase_auto_rejected"
)

// Event carries everything a delivery channel needs to inform one recipient.
type Event struct {
	Kind           EventKind
	RecipientID    uint
	RecipientEmail string
	RecipientName  string
	ActorName      string // counterparty that triggered the transition
	BikeLabel      string // e.g. "Honda CBR 150 (2019)"
	Price          string
	Contact        string // counterparty contact info, when relevant
	StartDate      string
	EndDate        string
	Message        string
}

// Notifier delivers an event on a best-effort basis. Implementations must
// never fail the caller: delivery problems are logged and swallowed, and
// callers invoke Notify only after their own transaction has committed.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}
