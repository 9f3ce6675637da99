package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"comanda/internal/app/workflow"
	"comanda/internal/domain/orders"
)

// statusUpdate is the wire payload published after each committed transition.
type statusUpdate struct {
	OrderID      int64     `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	NewStatus    string    `json:"new_status"`
	Paid         bool      `json:"paid"`
	ItemCount    int       `json:"item_count"`
	Total        float64   `json:"total"`
	Timestamp    time.Time `json:"timestamp"`
}

// Recipient bridges the in-process notification fan-out to RabbitMQ so
// out-of-process parties receive the same status changes. Delivery failures
// surface as collected fan-out warnings, never as operation failures.
type Recipient struct {
	client *Client
}

var _ workflow.Recipient = (*Recipient)(nil)

// NewRecipient wraps the client.
func NewRecipient(client *Client) *Recipient {
	return &Recipient{client: client}
}

func (r *Recipient) Name() string { return "rabbitmq" }

// Update publishes the status change to the fanout exchange.
func (r *Recipient) Update(ctx context.Context, snap orders.Snapshot, newStatus orders.Status) error {
	body, err := json.Marshal(statusUpdate{
		OrderID:      snap.OrderID,
		CustomerName: snap.CustomerName,
		NewStatus:    newStatus.String(),
		Paid:         snap.Paid,
		ItemCount:    snap.ItemCount,
		Total:        snap.Total.Float(),
		Timestamp:    snap.TakenAt,
	})
	if err != nil {
		return fmt.Errorf("marshal status update: %w", err)
	}
	return r.client.Publish(ctx, body)
}
