package workflow

import (
	"context"
	"fmt"
	"strings"

	"comanda/internal/domain/orders"
	"comanda/internal/shared/logger"
)

// Outcome describes which handler acted on a dispatch request.
type Outcome struct {
	HandledBy string `json:"handled_by"`
	Role      string `json:"role"`
	Summary   string `json:"summary"`
}

// dispatchHandler pairs the role labels it accepts with its action. Matching
// is a case-insensitive exact match against each label.
type dispatchHandler struct {
	name  string
	roles []string
	act   func(order *orders.Order) string
}

func (h dispatchHandler) accepts(role string) bool {
	for _, label := range h.roles {
		if strings.EqualFold(label, role) {
			return true
		}
	}
	return false
}

// Chain routes an order to the first handler whose role set matches, with a
// terminal fallback for unassigned roles. The order of handlers is fixed at
// construction: cook, waiter, admin, fallback.
type Chain struct {
	restaurant string
	logger     *logger.Logger
	handlers   []dispatchHandler
}

// NewChain builds the dispatch chain. The restaurant name shows up in the
// waiter's service summary.
func NewChain(restaurant string, log *logger.Logger) *Chain {
	chain := &Chain{restaurant: restaurant, logger: log}
	chain.handlers = []dispatchHandler{
		{name: "cook", roles: []string{"cook", "barista"}, act: chain.cookSummary},
		{name: "waiter", roles: []string{"waiter"}, act: chain.waiterSummary},
		{name: "admin", roles: []string{"admin"}, act: chain.adminSummary},
	}
	return chain
}

// Handle walks the chain in fixed order; the first matching handler acts and
// the walk stops. Unmatched roles land on the fallback, which reports the
// unassigned role instead of silently dropping the request.
func (chain *Chain) Handle(ctx context.Context, order *orders.Order, role string) Outcome {
	for _, h := range chain.handlers {
		if !h.accepts(role) {
			continue
		}

		summary := h.act(order)
		chain.logger.Info(ctx, "order_dispatched", summary, map[string]any{
			"order_id": order.ID,
			"handler":  h.name,
			"role":     role,
		})
		return Outcome{HandledBy: h.name, Role: role, Summary: summary}
	}

	summary := fmt.Sprintf("role %q has no assigned handler for order #%d", role, order.ID)
	chain.logger.Warn(ctx, "dispatch_unassigned_role", summary, map[string]any{
		"order_id": order.ID,
		"role":     role,
	})
	return Outcome{HandledBy: "fallback", Role: role, Summary: summary}
}

func (chain *Chain) cookSummary(order *orders.Order) string {
	return fmt.Sprintf("preparing %d item(s) for order #%d", len(order.Items), order.ID)
}

func (chain *Chain) waiterSummary(order *orders.Order) string {
	return fmt.Sprintf("serving order #%d for %s at %s, total %.2f",
		order.ID, order.CustomerName, chain.restaurant, order.Total().Float())
}

func (chain *Chain) adminSummary(order *orders.Order) string {
	return fmt.Sprintf("reviewing order #%d", order.ID)
}
