package notify

import (
	"context"

	"github.com/surimakeskilled/carrental/internal/services"
	"github.com/surimakeskilled/carrental/pkg/utils"
)

// Dispatcher fans an event out to email and the websocket hub.
// Both channels are best-effort: a failed delivery is logged, never returned.
type Dispatcher struct {
	mailer *Mailer
	hub    *services.Hub
}

// NewDispatcher creates a Dispatcher. Either channel may be nil.
func NewDispatcher(mailer *Mailer, hub *services.Hub) *Dispatcher {
	return &Dispatcher{mailer: mailer, hub: hub}
}

// Notify delivers the event without blocking the caller; SMTP has no
// deadline, so a slow mail server must never stall a request. Callers must
// invoke it only after the state transition it describes has committed.
func (d *Dispatcher) Notify(ctx context.Context, event Event) {
	go d.deliver(event)
}

func (d *Dispatcher) deliver(event Event) {
	if d.mailer != nil {
		if err := d.mailer.Send(event); err != nil {
			utils.Warn("notification email not delivered", map[string]any{
				"kind":      string(event.Kind),
				"recipient": event.RecipientID,
				"error":     err.Error(),
			})
		}
	}

	if d.hub != nil && event.RecipientID != 0 {
		d.hub.SendToUser(event.RecipientID, services.WebSocketMessage{
			Type: string(event.Kind),
			Data: map[string]any{
				"bike":      event.BikeLabel,
				"actor":     event.ActorName,
				"price":     event.Price,
				"startDate": event.StartDate,
				"endDate":   event.EndDate,
				"message":   event.Message,
			},
		})
	}
}
