package services

import (
	"context"
	"sync"
	"testing"

	"food-delivery-backend/cache"
	"food-delivery-backend/config"
	"food-delivery-backend/events"
	"food-delivery-backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, ev events.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *recordingPublisher) last() events.OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type countingCache struct {
	mu          sync.Mutex
	stored      []models.Courier
	has         bool
	gets        int
	invalidated int
}

func (c *countingCache) GetAvailable(context.Context) ([]models.Courier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if !c.has {
		return nil, cache.ErrCacheMiss
	}
	return c.stored, nil
}

func (c *countingCache) SetAvailable(_ context.Context, couriers []models.Courier) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored, c.has = couriers, true
	return nil
}

func (c *countingCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored, c.has = nil, false
	c.invalidated++
	return nil
}

// world is a seeded in-memory database with one of each actor.
type world struct {
	t     *testing.T
	ctx   context.Context
	db    *gorm.DB
	pub   *recordingPublisher
	cache *countingCache
	deps  Deps

	admin      models.Principal
	customer   models.Principal
	other      models.Principal
	owner      models.Principal
	courier    models.Principal
	courier2   models.Principal
	restaurant models.Restaurant
	burger     models.MenuItem
	fries      models.MenuItem

	orders     *OrderService
	assignment *AssignmentService
	reviews    *ReviewService
	favorites  *FavoriteService
	couriers   *CourierService
}

func newWorld(t *testing.T) *world {
	t.Helper()
	db, err := config.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)

	w := &world{
		t:     t,
		ctx:   context.Background(),
		db:    db,
		pub:   &recordingPublisher{},
		cache: &countingCache{},
	}
	w.deps = Deps{DB: db, Cache: w.cache, Publisher: w.pub}

	w.admin = w.user("Ada", "admin@example.com", models.RoleAdmin)
	w.customer = w.user("Cleo", "cleo@example.com", models.RoleCustomer)
	w.other = w.user("Otto", "otto@example.com", models.RoleCustomer)
	w.owner = w.user("Rosa", "rosa@example.com", models.RoleRestaurant)
	w.courier = w.courierUser("Kai", "kai@example.com", true, true)
	w.courier2 = w.courierUser("Lou", "lou@example.com", true, true)

	w.restaurant = models.Restaurant{OwnerID: w.owner.UserID, Name: "Burger Barn", Cuisine: "American", Address: "1 Main St", IsOpen: true}
	require.NoError(t, db.Create(&w.restaurant).Error)
	w.burger = models.MenuItem{RestaurantID: w.restaurant.ID, Name: "Burger", Price: decimal.RequireFromString("8.50"), IsAvailable: true}
	w.fries = models.MenuItem{RestaurantID: w.restaurant.ID, Name: "Fries", Price: decimal.RequireFromString("3.25"), IsAvailable: true, IsVeg: true}
	require.NoError(t, db.Create(&w.burger).Error)
	require.NoError(t, db.Create(&w.fries).Error)

	w.orders = NewOrderService(w.deps)
	w.assignment = NewAssignmentService(w.deps)
	w.reviews = NewReviewService(w.deps)
	w.favorites = NewFavoriteService(w.deps)
	w.couriers = NewCourierService(w.deps)
	return w
}

func (w *world) user(name, email string, role models.UserRole) models.Principal {
	w.t.Helper()
	u := models.User{Name: name, Email: email, PasswordHash: "x", Role: role}
	require.NoError(w.t, w.db.Create(&u).Error)
	return models.Principal{UserID: u.ID, Email: u.Email, Role: role}
}

func (w *world) courierUser(name, email string, online, available bool) models.Principal {
	w.t.Helper()
	p := w.user(name, email, models.RoleCourier)
	c := models.Courier{UserID: p.UserID, Name: name}
	require.NoError(w.t, w.db.Create(&c).Error)
	require.NoError(w.t, w.db.Model(&c).Updates(map[string]interface{}{"is_online": online, "is_available": available}).Error)
	p.CourierID = &c.ID
	return p
}

func (w *world) place() *models.Order {
	w.t.Helper()
	order, err := w.orders.PlaceOrder(w.ctx, w.customer, PlaceOrderInput{
		RestaurantID:    w.restaurant.ID,
		DeliveryAddress: "42 Elm St",
		Items: []OrderItemInput{
			{MenuItemID: w.burger.ID, Quantity: 2},
			{MenuItemID: w.fries.ID, Quantity: 1},
		},
	})
	require.NoError(w.t, err)
	return order
}

// advance walks an order along the given statuses as the restaurant owner.
func (w *world) advance(order *models.Order, to ...models.OrderStatus) *models.Order {
	w.t.Helper()
	for _, s := range to {
		var err error
		order, err = w.orders.UpdateStatus(w.ctx, w.owner, order.ID, s, "")
		require.NoError(w.t, err)
	}
	return order
}

func (w *world) ready() *models.Order {
	w.t.Helper()
	return w.advance(w.place(), models.StatusConfirmed, models.StatusPreparing, models.StatusReadyForPickup)
}

// delivered returns an order delivered by w.courier.
func (w *world) delivered() *models.Order {
	w.t.Helper()
	order := w.ready()
	_, err := w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *w.courier.CourierID)
	require.NoError(w.t, err)
	_, err = w.assignment.Respond(w.ctx, w.courier, order.ID, models.ResponseAccept)
	require.NoError(w.t, err)
	order, err = w.orders.UpdateStatus(w.ctx, w.courier, order.ID, models.StatusDelivered, "")
	require.NoError(w.t, err)
	return order
}

func (w *world) reload(id uint) models.Order {
	w.t.Helper()
	var o models.Order
	require.NoError(w.t, w.db.First(&o, id).Error)
	return o
}

func (w *world) history(id uint) []models.OrderStatusHistory {
	w.t.Helper()
	var h []models.OrderStatusHistory
	require.NoError(w.t, w.db.Where("order_id = ?", id).Order("id asc").Find(&h).Error)
	return h
}
