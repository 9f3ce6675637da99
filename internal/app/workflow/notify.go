package workflow

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"comanda/internal/domain/orders"
	"comanda/internal/shared/logger"
)

// Recipient receives order status change notifications. Recipients get a
// snapshot, never the live aggregate.
type Recipient interface {
	Name() string
	Update(ctx context.Context, snap orders.Snapshot, newStatus orders.Status) error
}

// Broadcaster fans a status change out to every registered recipient in
// registration order. Names carry no uniqueness: registering the same name
// twice means two deliveries per broadcast.
type Broadcaster struct {
	mu         sync.RWMutex
	recipients []Recipient
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Register appends a recipient to the fan-out list.
func (b *Broadcaster) Register(r Recipient) {
	b.mu.Lock()
	b.recipients = append(b.recipients, r)
	b.mu.Unlock()
}

// Len returns the number of registered recipients.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.recipients)
}

// Notify delivers synchronously to all recipients. A failing recipient never
// blocks delivery to the rest; its error comes back aggregated with the
// recipient's name attached.
func (b *Broadcaster) Notify(ctx context.Context, snap orders.Snapshot, newStatus orders.Status) error {
	b.mu.RLock()
	recipients := make([]Recipient, len(b.recipients))
	copy(recipients, b.recipients)
	b.mu.RUnlock()

	var errs error
	for _, r := range recipients {
		if err := r.Update(ctx, snap, newStatus); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("recipient %s: %w", r.Name(), err))
		}
	}
	return errs
}

// StaffRecipient is an in-process recipient that logs each notification for a
// named staff member.
type StaffRecipient struct {
	name   string
	logger *logger.Logger
}

func NewStaffRecipient(name string, log *logger.Logger) *StaffRecipient {
	return &StaffRecipient{name: name, logger: log}
}

func (r *StaffRecipient) Name() string { return r.name }

func (r *StaffRecipient) Update(ctx context.Context, snap orders.Snapshot, newStatus orders.Status) error {
	r.logger.Info(ctx, "order_status_notification",
		fmt.Sprintf("order #%d changed to %q", snap.OrderID, newStatus),
		map[string]any{
			"recipient":  r.name,
			"order_id":   snap.OrderID,
			"new_status": newStatus.String(),
			"total":      snap.Total.Float(),
		})
	return nil
}
