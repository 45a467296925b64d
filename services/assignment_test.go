package services

import (
	"sync"
	"testing"

	"food-delivery-backend/events"
	"food-delivery-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignCourier(t *testing.T) {
	w := newWorld(t)
	order := w.ready()
	before := w.cache.invalidated

	got, err := w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *w.courier.CourierID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusAssigned, got.Status)
	require.NotNil(t, got.CourierID)
	assert.Equal(t, *w.courier.CourierID, *got.CourierID)
	assert.Greater(t, w.cache.invalidated, before)

	ev := w.pub.last()
	assert.Equal(t, events.TypeCourierAssigned, ev.Type)
	assert.Equal(t, models.StatusReadyForPickup, ev.FromStatus)
	assert.Equal(t, models.StatusAssigned, ev.ToStatus)

	h := w.history(order.ID)
	assert.Equal(t, models.StatusAssigned, h[len(h)-1].ToStatus)
}

func TestAssignCourierNotReady(t *testing.T) {
	w := newWorld(t)
	order := w.advance(w.place(), models.StatusConfirmed, models.StatusPreparing)

	_, err := w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *w.courier.CourierID)
	assert.ErrorIs(t, err, models.ErrOrderNotEligible)

	stored := w.reload(order.ID)
	assert.Equal(t, models.StatusPreparing, stored.Status)
	assert.Nil(t, stored.CourierID)
}

func TestAssignCourierUnavailable(t *testing.T) {
	tests := []struct {
		name      string
		online    bool
		available bool
	}{
		{name: "offline", online: false, available: true},
		{name: "not available", online: true, available: false},
		{name: "offline and not available", online: false, available: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld(t)
			c := w.courierUser("Nia", "nia@example.com", tt.online, tt.available)
			order := w.ready()

			_, err := w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *c.CourierID)
			assert.ErrorIs(t, err, models.ErrCourierUnavailable)

			stored := w.reload(order.ID)
			assert.Equal(t, models.StatusReadyForPickup, stored.Status)
			assert.Nil(t, stored.CourierID)
		})
	}
}

func TestAssignCourierBusy(t *testing.T) {
	w := newWorld(t)
	first := w.ready()
	second := w.ready()

	_, err := w.assignment.AssignCourier(w.ctx, w.admin, first.ID, *w.courier.CourierID)
	require.NoError(t, err)

	_, err = w.assignment.AssignCourier(w.ctx, w.admin, second.ID, *w.courier.CourierID)
	assert.ErrorIs(t, err, models.ErrCourierUnavailable)
}

func TestAssignCourierUnknown(t *testing.T) {
	w := newWorld(t)
	order := w.ready()

	_, err := w.assignment.AssignCourier(w.ctx, w.admin, order.ID, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = w.assignment.AssignCourier(w.ctx, w.admin, 999, *w.courier.CourierID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAssignCourierRoles(t *testing.T) {
	w := newWorld(t)
	order := w.ready()

	_, err := w.assignment.AssignCourier(w.ctx, w.owner, order.ID, *w.courier.CourierID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = w.assignment.AssignCourier(w.ctx, w.courier2, order.ID, *w.courier.CourierID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	got, err := w.assignment.AssignCourier(w.ctx, w.courier, order.ID, *w.courier.CourierID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, got.Status)
}

func TestAssignCourierTwiceLosesSecond(t *testing.T) {
	w := newWorld(t)
	order := w.ready()

	_, err := w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *w.courier.CourierID)
	require.NoError(t, err)

	_, err = w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *w.courier2.CourierID)
	assert.ErrorIs(t, err, models.ErrOrderNotEligible)

	stored := w.reload(order.ID)
	assert.Equal(t, *w.courier.CourierID, *stored.CourierID)
}

func TestAssignCourierConcurrent(t *testing.T) {
	w := newWorld(t)
	order := w.ready()
	couriers := []uint{*w.courier.CourierID, *w.courier2.CourierID}

	var wg sync.WaitGroup
	errs := make([]error, len(couriers))
	start := make(chan struct{})
	for i, id := range couriers {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			<-start
			_, errs[i] = w.assignment.AssignCourier(w.ctx, w.admin, order.ID, id)
		}(i, id)
	}
	close(start)
	wg.Wait()

	var ok, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, models.ErrOrderNotEligible):
			lost++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, lost)

	stored := w.reload(order.ID)
	assert.Equal(t, models.StatusAssigned, stored.Status)
	require.NotNil(t, stored.CourierID)

	var assigned int
	for _, h := range w.history(order.ID) {
		if h.ToStatus == models.StatusAssigned {
			assigned++
		}
	}
	assert.Equal(t, 1, assigned)
}

func TestCommitLoserGetsConflict(t *testing.T) {
	w := newWorld(t)
	order := w.ready()

	// stale copy still believes the order is PLACED
	stale := *order
	stale.Status = models.StatusPlaced
	err := w.orders.commit(w.ctx, transition{order: &stale, to: models.StatusConfirmed, actor: w.owner})

	assert.ErrorIs(t, err, models.ErrConflict)
	assert.ErrorIs(t, err, models.ErrOrderNotEligible)
	var ce *models.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, order.ID, ce.OrderID)
	assert.Equal(t, models.StatusReadyForPickup, w.reload(order.ID).Status)
}

func TestRespondAccept(t *testing.T) {
	w := newWorld(t)
	order := w.ready()
	_, err := w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *w.courier.CourierID)
	require.NoError(t, err)

	got, err := w.assignment.Respond(w.ctx, w.courier, order.ID, models.ResponseAccept)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInTransit, got.Status)
	assert.Equal(t, *w.courier.CourierID, *got.CourierID)

	got, err = w.orders.UpdateStatus(w.ctx, w.courier, order.ID, models.StatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, got.Status)
}

func TestRespondReject(t *testing.T) {
	w := newWorld(t)
	order := w.ready()
	_, err := w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *w.courier.CourierID)
	require.NoError(t, err)

	got, err := w.assignment.Respond(w.ctx, w.courier, order.ID, models.ResponseReject)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReadyForPickup, got.Status)
	assert.Nil(t, got.CourierID)
	assert.Equal(t, events.TypeCourierUnassigned, w.pub.last().Type)

	// released orders can go to someone else
	got, err = w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *w.courier2.CourierID)
	require.NoError(t, err)
	assert.Equal(t, *w.courier2.CourierID, *got.CourierID)
}

func TestRespondErrors(t *testing.T) {
	w := newWorld(t)
	order := w.ready()

	_, err := w.assignment.Respond(w.ctx, w.courier, order.ID, "MAYBE")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = w.assignment.Respond(w.ctx, w.courier, order.ID, models.ResponseAccept)
	assert.ErrorIs(t, err, models.ErrOrderNotEligible)

	_, err = w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *w.courier.CourierID)
	require.NoError(t, err)

	_, err = w.assignment.Respond(w.ctx, w.courier2, order.ID, models.ResponseAccept)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = w.assignment.Respond(w.ctx, w.admin, order.ID, models.ResponseAccept)
	assert.ErrorIs(t, err, models.ErrForbidden)

	assert.Equal(t, models.StatusAssigned, w.reload(order.ID).Status)
}

func TestUnassignCourier(t *testing.T) {
	w := newWorld(t)
	order := w.ready()
	_, err := w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *w.courier.CourierID)
	require.NoError(t, err)

	_, err = w.assignment.UnassignCourier(w.ctx, w.owner, order.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	got, err := w.assignment.UnassignCourier(w.ctx, w.admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReadyForPickup, got.Status)
	assert.Nil(t, got.CourierID)

	_, err = w.assignment.UnassignCourier(w.ctx, w.admin, order.ID)
	assert.ErrorIs(t, err, models.ErrOrderNotEligible)
}

func TestUnassignViaStatusUpdateClearsCourier(t *testing.T) {
	w := newWorld(t)
	order := w.ready()
	_, err := w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *w.courier.CourierID)
	require.NoError(t, err)

	got, err := w.orders.UpdateStatus(w.ctx, w.admin, order.ID, models.StatusReadyForPickup, "courier no-show")
	require.NoError(t, err)
	assert.Nil(t, got.CourierID)
	assert.Nil(t, w.reload(order.ID).CourierID)
}

func TestCourierIDOnlySetWhileHeld(t *testing.T) {
	w := newWorld(t)
	order := w.place()
	check := func() {
		t.Helper()
		stored := w.reload(order.ID)
		switch stored.Status {
		case models.StatusAssigned, models.StatusInTransit:
			assert.NotNil(t, stored.CourierID, "status %s", stored.Status)
		case models.StatusDelivered:
		default:
			assert.Nil(t, stored.CourierID, "status %s", stored.Status)
		}
	}

	check()
	order = w.advance(order, models.StatusConfirmed, models.StatusPreparing, models.StatusReadyForPickup)
	check()
	_, err := w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *w.courier.CourierID)
	require.NoError(t, err)
	check()
	_, err = w.assignment.Respond(w.ctx, w.courier, order.ID, models.ResponseAccept)
	require.NoError(t, err)
	check()
	_, err = w.orders.UpdateStatus(w.ctx, w.courier, order.ID, models.StatusDelivered, "")
	require.NoError(t, err)
	assert.NotNil(t, w.reload(order.ID).CourierID)
}
