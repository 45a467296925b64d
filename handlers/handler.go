// Package handlers is the HTTP boundary. Handlers bind and validate input, pass the
// request's principal to a service and map domain errors to status codes.
package handlers

import (
	"context"

	"food-delivery-backend/middleware"
	"food-delivery-backend/models"
	"food-delivery-backend/services"

	"go.uber.org/zap"
)

//go:generate mockgen -destination=mocks/services.go -package=mocks . OrderService,AssignmentService,ReviewService,FavoriteService,CourierService,UserService,RestaurantService

type OrderService interface {
	PlaceOrder(ctx context.Context, p models.Principal, in services.PlaceOrderInput) (*models.Order, error)
	Reorder(ctx context.Context, p models.Principal, orderID uint) (*models.Order, error)
	ListOrders(ctx context.Context, p models.Principal, f services.OrderFilter) ([]models.Order, error)
	GetOrder(ctx context.Context, p models.Principal, orderID uint) (*models.Order, error)
	UpdateStatus(ctx context.Context, p models.Principal, orderID uint, to models.OrderStatus, note string) (*models.Order, error)
	Summary(ctx context.Context) (*services.OrderSummary, error)
}

type AssignmentService interface {
	AssignCourier(ctx context.Context, p models.Principal, orderID, courierID uint) (*models.Order, error)
	UnassignCourier(ctx context.Context, p models.Principal, orderID uint) (*models.Order, error)
	Respond(ctx context.Context, p models.Principal, orderID uint, response models.CourierResponse) (*models.Order, error)
}

type ReviewService interface {
	RateOrder(ctx context.Context, p models.Principal, orderID uint, rating int, reviewText string) (*models.Order, error)
	RateCourier(ctx context.Context, p models.Principal, orderID uint, courierID *uint, rating int, reviewText string) (*models.CourierReview, error)
	CheckCourierReview(ctx context.Context, p models.Principal, orderID, courierID uint) (*models.CourierReview, error)
}

type FavoriteService interface {
	AddFavorite(ctx context.Context, p models.Principal, orderID uint) error
	RemoveFavorite(ctx context.Context, p models.Principal, orderID uint) error
	ListFavorites(ctx context.Context, p models.Principal) ([]models.Order, error)
}

type CourierService interface {
	ListAvailable(ctx context.Context) ([]models.Courier, error)
	UpdateStatus(ctx context.Context, p models.Principal, in services.CourierStatusInput) (*models.Courier, error)
	Profile(ctx context.Context, p models.Principal) (*models.Courier, error)
	ActiveOrders(ctx context.Context, p models.Principal) ([]models.Order, error)
}

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.Account, error)
	Login(ctx context.Context, in services.LoginInput) (*services.Account, error)
	Get(ctx context.Context, userID uint) (*services.Account, error)
	List(ctx context.Context, role models.UserRole) ([]models.User, error)
	SetBanned(ctx context.Context, userID uint, banned bool) (*models.User, error)
}

type RestaurantService interface {
	Create(ctx context.Context, p models.Principal, in services.CreateRestaurantInput) (*models.Restaurant, error)
	Mine(ctx context.Context, p models.Principal) (*models.Restaurant, error)
	Update(ctx context.Context, p models.Principal, fields map[string]interface{}) (*models.Restaurant, error)
	List(ctx context.Context, f services.RestaurantFilter) ([]models.Restaurant, error)
	Get(ctx context.Context, id uint) (*models.Restaurant, error)
	Menu(ctx context.Context, restaurantID uint, f services.MenuFilter) ([]models.MenuItem, error)
	AddMenuItem(ctx context.Context, p models.Principal, in services.MenuItemInput) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, p models.Principal, itemID uint, fields map[string]interface{}) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, p models.Principal, itemID uint) error
}

// Services groups the collaborators a Handler needs.
type Services struct {
	Orders      OrderService
	Assignment  AssignmentService
	Reviews     ReviewService
	Favorites   FavoriteService
	Couriers    CourierService
	Users       UserService
	Restaurants RestaurantService
}

type Handler struct {
	orders      OrderService
	assignment  AssignmentService
	reviews     ReviewService
	favorites   FavoriteService
	couriers    CourierService
	users       UserService
	restaurants RestaurantService
	tokens      *middleware.TokenIssuer
	logger      *zap.Logger
}

func New(s Services, tokens *middleware.TokenIssuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		orders:      s.Orders,
		assignment:  s.Assignment,
		reviews:     s.Reviews,
		favorites:   s.Favorites,
		couriers:    s.Couriers,
		users:       s.Users,
		restaurants: s.Restaurants,
		tokens:      tokens,
		logger:      logger,
	}
}
