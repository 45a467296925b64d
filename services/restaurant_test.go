package services

import (
	"testing"

	"food-delivery-backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestaurantLifecycle(t *testing.T) {
	w := newWorld(t)
	svc := NewRestaurantService(w.deps)
	owner := w.user("Pia", "pia@example.com", models.RoleRestaurant)

	_, err := svc.Mine(w.ctx, owner)
	assert.ErrorIs(t, err, models.ErrNotFound)

	r, err := svc.Create(w.ctx, owner, CreateRestaurantInput{Name: "Pho Place", Cuisine: "Vietnamese", Address: "3 Side St"})
	require.NoError(t, err)
	assert.True(t, r.IsOpen)

	_, err = svc.Create(w.ctx, owner, CreateRestaurantInput{Name: "Second", Address: "4 Side St"})
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	_, err = svc.Create(w.ctx, w.customer, CreateRestaurantInput{Name: "Nope", Address: "5 Side St"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	r, err = svc.Update(w.ctx, owner, map[string]interface{}{"is_open": false, "owner_id": 1})
	require.NoError(t, err)
	assert.False(t, r.IsOpen)
	assert.Equal(t, owner.UserID, r.OwnerID)

	open, err := svc.List(w.ctx, RestaurantFilter{OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, w.restaurant.ID, open[0].ID)

	found, err := svc.List(w.ctx, RestaurantFilter{Cuisine: "viet"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, r.ID, found[0].ID)
}

func TestMenuItems(t *testing.T) {
	w := newWorld(t)
	svc := NewRestaurantService(w.deps)

	item, err := svc.AddMenuItem(w.ctx, w.owner, MenuItemInput{Name: "Shake", Price: decimal.RequireFromString("4.5"), Category: "drinks"})
	require.NoError(t, err)
	assert.True(t, item.IsAvailable)

	_, err = svc.AddMenuItem(w.ctx, w.owner, MenuItemInput{Name: "Free", Price: decimal.Zero})
	assert.ErrorIs(t, err, models.ErrValidation)

	drinks, err := svc.Menu(w.ctx, w.restaurant.ID, MenuFilter{Category: "drinks"})
	require.NoError(t, err)
	require.Len(t, drinks, 1)

	veg, err := svc.Menu(w.ctx, w.restaurant.ID, MenuFilter{VegOnly: true})
	require.NoError(t, err)
	require.Len(t, veg, 1)
	assert.Equal(t, w.fries.ID, veg[0].ID)

	updated, err := svc.UpdateMenuItem(w.ctx, w.owner, item.ID, map[string]interface{}{"price": 5.25, "restaurant_id": 42})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("5.25").Equal(updated.Price))
	assert.Equal(t, w.restaurant.ID, updated.RestaurantID)

	_, err = svc.UpdateMenuItem(w.ctx, w.owner, item.ID, map[string]interface{}{"price": -1})
	assert.ErrorIs(t, err, models.ErrValidation)

	stranger := w.user("Sam", "sam@example.com", models.RoleRestaurant)
	_, err = svc.UpdateMenuItem(w.ctx, stranger, item.ID, map[string]interface{}{"name": "Mine"})
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteMenuItem(w.ctx, stranger, item.ID), models.ErrForbidden)

	require.NoError(t, svc.DeleteMenuItem(w.ctx, w.owner, item.ID))
	_, err = svc.Menu(w.ctx, 999, MenuFilter{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMenuPriceChangeKeepsOrderSnapshot(t *testing.T) {
	w := newWorld(t)
	svc := NewRestaurantService(w.deps)
	order := w.place()

	_, err := svc.UpdateMenuItem(w.ctx, w.owner, w.burger.ID, map[string]interface{}{"price": "99.00"})
	require.NoError(t, err)

	got, err := w.orders.GetOrder(w.ctx, w.customer, order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("20.25").Equal(got.TotalPrice))
	for _, it := range got.Items {
		if it.MenuItemID == w.burger.ID {
			assert.True(t, decimal.RequireFromString("8.5").Equal(it.UnitPrice))
		}
	}
}
