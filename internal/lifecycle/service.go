// Package lifecycle implements the request/approval engine of the
// marketplace: the rental and purchase state machines and the bike
// availability invariant. Every operation takes the caller's user id
// explicitly, runs as one database transaction, and dispatches
// notifications only after that transaction has committed.
package lifecycle

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/surimakeskilled/carrental/internal/models"
	"github.com/surimakeskilled/carrental/internal/notify"
	"gorm.io/gorm"
)

// Service is the lifecycle engine.
type Service struct {
	db       *gorm.DB
	notifier notify.Notifier
}

// New creates a lifecycle Service. notifier may be nil.
func New(db *gorm.DB, notifier notify.Notifier) *Service {
	return &Service{db: db, notifier: notifier}
}

// dispatch delivers events collected during a committed transaction.
// Dispatch is best-effort; the Notifier swallows delivery failures.
func (s *Service) dispatch(ctx context.Context, events []notify.Event) {
	if s.notifier == nil {
		return
	}
	for _, event := range events {
		s.notifier.Notify(ctx, event)
	}
}

func notFoundOr(err error, wrapped error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return wrapped
}

func fmtPrice(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}

func contactOf(u *models.User) string {
	if u == nil {
		return "Not provided"
	}
	if u.Mobile != "" {
		return u.Mobile
	}
	return u.Email
}
