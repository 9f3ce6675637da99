package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comanda/internal/domain/orders"
	"comanda/internal/ports"
)

func TestCreateOrder(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	order, err := e.svc.CreateOrder(ctx, "Mesa 4")
	require.NoError(t, err)

	assert.Equal(t, int64(1), order.ID)
	assert.Equal(t, orders.StatusReceived, order.Status)
	assert.False(t, order.Paid)

	assert.Equal(t, 1, e.history.Len(), "creation appends one history entry")
	assert.Equal(t, 0, e.rec.count(), "creation does not broadcast")
}

func TestCreateOrderRequiresCustomer(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.svc.CreateOrder(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, 0, e.history.Len())
}

func TestAddLineItemCapturesUnitPrice(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	order, err := e.svc.CreateOrder(ctx, "Mesa 4")
	require.NoError(t, err)

	order, err = e.svc.AddLineItem(ctx, order.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, orders.Money(6500), order.Items[0].UnitPrice)
	assert.Equal(t, orders.Money(13000), order.Total())

	// a later catalog price change must not rewrite the captured price
	e.catalog.setPrice(1, 9900)

	reloaded, err := e.store.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.Money(6500), reloaded.Items[0].UnitPrice)
	assert.Equal(t, orders.Money(13000), reloaded.Total())

	assert.Equal(t, 2, e.history.Len(), "create + add item")
	assert.Equal(t, 0, e.rec.count(), "item mutations do not broadcast")
}

func TestAddLineItemValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	order, err := e.svc.CreateOrder(ctx, "Mesa 4")
	require.NoError(t, err)

	_, err = e.svc.AddLineItem(ctx, order.ID, 1, 0)
	assert.Error(t, err, "quantity must be positive")

	_, err = e.svc.AddLineItem(ctx, 404, 1, 1)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = e.svc.AddLineItem(ctx, order.ID, 404, 1)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	assert.Equal(t, 1, e.history.Len(), "failed mutations leave no history entry")
}

// The end-to-end scenario: create, add one item, cook, finish, then try to
// finish again from the terminal state.
func TestLifecycleScenario(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	order, err := e.svc.CreateOrder(ctx, "Mesa 4")
	require.NoError(t, err)

	_, err = e.svc.AddLineItem(ctx, order.ID, 1, 2)
	require.NoError(t, err)

	cooked, err := e.svc.StartCooking(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCooking, cooked.Status)
	assert.Equal(t, 3, e.history.Len(), "create, add item, transition")
	assert.Equal(t, 1, e.rec.count(), "exactly one broadcast per transition")

	done, err := e.svc.FinishOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDone, done.Status)
	assert.Equal(t, 4, e.history.Len())
	assert.Equal(t, 2, e.rec.count())

	// finishing again from Done must fail atomically
	_, err = e.svc.FinishOrder(ctx, order.ID)
	var invalid *orders.InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, orders.StatusDone, invalid.From)

	assert.Equal(t, orders.StatusDone, e.store.statusOf(t, order.ID))
	assert.Equal(t, 4, e.history.Len(), "failed transition appends nothing")
	assert.Equal(t, 2, e.rec.count(), "failed transition broadcasts nothing")
}

func TestFinishFromReceivedFails(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	order, err := e.svc.CreateOrder(ctx, "Mesa 4")
	require.NoError(t, err)

	_, err = e.svc.FinishOrder(ctx, order.ID)
	var invalid *orders.InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, orders.StatusReceived, invalid.From)
	assert.Equal(t, orders.StatusDone, invalid.To)

	assert.Equal(t, orders.StatusReceived, e.store.statusOf(t, order.ID))
	assert.Equal(t, 1, e.history.Len())
	assert.Equal(t, 0, e.rec.count())
}

func TestTransitionUnknownOrder(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.svc.StartCooking(context.Background(), 404)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestMarkPaidInAnyState(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	// paying a freshly received order is allowed
	order, err := e.svc.CreateOrder(ctx, "Mesa 4")
	require.NoError(t, err)

	paid, err := e.svc.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	assert.Equal(t, orders.StatusReceived, paid.Status)
	assert.Equal(t, 2, e.history.Len())
	assert.Equal(t, 0, e.rec.count(), "payment is not a lifecycle broadcast")

	_, err = e.svc.MarkPaid(ctx, 404)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRegisterRecipient(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	before := e.fanout.Len()
	require.NoError(t, e.svc.RegisterRecipient(ctx, "Ana"))
	require.NoError(t, e.svc.RegisterRecipient(ctx, "Ana"))
	assert.Equal(t, before+2, e.fanout.Len(), "duplicate names register separately")

	assert.Error(t, e.svc.RegisterRecipient(ctx, "  "))
}

func TestConcurrentTransitionsSingleWinner(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	order, err := e.svc.CreateOrder(ctx, "Mesa 4")
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.StartCooking(ctx, order.ID)
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var invalid *orders.InvalidTransitionError
		assert.True(t, errors.As(err, &invalid), "losers fail with InvalidTransition, got %v", err)
	}

	assert.Equal(t, 1, successes, "exactly one caller wins the transition")
	assert.Equal(t, orders.StatusCooking, e.store.statusOf(t, order.ID))
	assert.Equal(t, 2, e.history.Len(), "create + the single committed transition")
	assert.Equal(t, 1, e.rec.count())
}

func TestLatestSnapshot(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	order, err := e.svc.CreateOrder(ctx, "Mesa 4")
	require.NoError(t, err)
	_, err = e.svc.StartCooking(ctx, order.ID)
	require.NoError(t, err)

	snap, ok := e.svc.LatestSnapshot(order.ID)
	require.True(t, ok)
	assert.Equal(t, orders.StatusCooking, snap.Status)

	_, ok = e.svc.LatestSnapshot(404)
	assert.False(t, ok)
}
