package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comanda/internal/domain/orders"
)

func TestHistoryAppendsOldestFirst(t *testing.T) {
	h := NewHistory()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	first := orders.New("Mesa 4", now)
	first.ID = 1
	second := orders.New("Mesa 7", now)
	second.ID = 2

	h.Record(first, now)
	h.Record(second, now.Add(time.Minute))

	entries := h.List()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].OrderID)
	assert.Equal(t, int64(2), entries[1].OrderID)
	assert.Equal(t, 2, h.Len())
}

func TestHistoryListReturnsACopy(t *testing.T) {
	h := NewHistory()
	order := orders.New("Mesa 4", time.Now().UTC())
	order.ID = 1
	h.Record(order, time.Now().UTC())

	entries := h.List()
	entries[0].CustomerName = "tampered"

	assert.Equal(t, "Mesa 4", h.List()[0].CustomerName, "the internal log is unreachable through List")
}

func TestHistoryFindReturnsLatest(t *testing.T) {
	h := NewHistory()
	now := time.Now().UTC()

	order := orders.New("Mesa 4", now)
	order.ID = 1
	h.Record(order, now)

	require.NoError(t, order.ChangeStatus(orders.StatusCooking))
	h.Record(order, now.Add(time.Minute))

	other := orders.New("Mesa 7", now)
	other.ID = 2
	h.Record(other, now.Add(2*time.Minute))

	snap, ok := h.Find(1)
	require.True(t, ok)
	assert.Equal(t, orders.StatusCooking, snap.Status, "Find returns the most recent entry")

	_, ok = h.Find(404)
	assert.False(t, ok)
}
