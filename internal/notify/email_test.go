package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderEmailCoversAllKinds(t *testing.T) {
	kinds := []EventKind{
		EventRentalRequestCreated,
		EventRentalRequestApproved,
		EventRentalRequestRejected,
		EventPurchaseRequestCreated,
		EventPurchaseAccepted,
		EventPurchaseRejected,
		EventPurchaseAutoRejected,
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			subject, body := renderEmail(Event{
				Kind:          kind,
				RecipientName: "amit",
				ActorName:     "priya",
				BikeLabel:     "Honda CBR 150 (2019)",
				Price:         "₹2000.00",
				Contact:       "9876543210",
				StartDate:     "2026-03-01",
				EndDate:       "2026-03-05",
			})
			assert.NotEmpty(t, subject)
			assert.Contains(t, body, "amit")
			assert.True(t, strings.HasPrefix(strings.TrimSpace(body), "<!DOCTYPE html>"))
		})
	}
}

func TestRenderEmailAutoRejectMentionsOtherBuyer(t *testing.T) {
	_, body := renderEmail(Event{
		Kind:          EventPurchaseAutoRejected,
		RecipientName: "amit",
		BikeLabel:     "Royal Enfield Classic 350 (2020)",
	})
	assert.Contains(t, body, "sold to another buyer")
}

func TestMailerSendWithoutConfig(t *testing.T) {
	m := &Mailer{}
	err := m.Send(Event{Kind: EventRentalRequestCreated, RecipientEmail: "a@example.com"})
	assert.Error(t, err)

	err = m.Send(Event{Kind: EventRentalRequestCreated})
	assert.Error(t, err, "missing recipient must not attempt delivery")
}
