package routes

import (
	"food-delivery-backend/handlers"
	"food-delivery-backend/middleware"
	"food-delivery-backend/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler, tokens *middleware.TokenIssuer) {
	authRequired := middleware.AuthRequired(tokens)
	allRoles := []models.UserRole{models.RoleCustomer, models.RoleRestaurant, models.RoleCourier, models.RoleAdmin}

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		public.GET("/restaurants", h.ListRestaurants)
		public.GET("/restaurants/:id", h.GetRestaurant)
		public.GET("/restaurants/:id/menu", h.GetMenu)

		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(authRequired)
	{
		auth.GET("/profile", h.GetProfile)
	}

	// ── Orders (role-scoped in the service) ────────────────────────
	orders := r.Group("/api/orders")
	orders.Use(authRequired)
	{
		orders.POST("", middleware.RoleRequired(models.RoleCustomer), h.PlaceOrder)
		orders.GET("", middleware.RoleRequired(allRoles...), h.ListOrders)
		orders.GET("/:id", middleware.RoleRequired(allRoles...), h.GetOrder)
		orders.PUT("/:id/status", middleware.RoleRequired(models.RoleRestaurant, models.RoleCourier, models.RoleAdmin), h.UpdateOrderStatus)
		orders.POST("/:id/status", middleware.RoleRequired(models.RoleRestaurant, models.RoleCourier, models.RoleAdmin), h.UpdateOrderStatus)
		orders.POST("/:id/assign-courier/:courierId", middleware.RoleRequired(models.RoleAdmin, models.RoleCourier), h.AssignCourier)
		orders.POST("/:id/unassign-courier", middleware.RoleRequired(models.RoleAdmin), h.UnassignCourier)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api")
	customer.Use(authRequired, middleware.RoleRequired(models.RoleCustomer))
	{
		customer.POST("/customer/add-to-favorite-orders/:id", h.AddFavoriteOrder)
		customer.POST("/customer/remove-to-favorite-orders/:id", h.RemoveFavoriteOrder)
		customer.GET("/customer/favorite-orders", h.ListFavoriteOrders)

		customer.POST("/order/re-order/:id", h.Reorder)
		customer.POST("/order/rate-order/:id", h.RateOrder)

		customer.POST("/couriers/rate", h.RateCourier)
	}

	// ── Courier routes ─────────────────────────────────────────────
	couriers := r.Group("/api/couriers")
	couriers.Use(authRequired)
	{
		couriers.GET("/available", middleware.RoleRequired(models.RoleAdmin, models.RoleRestaurant), h.GetAvailableCouriers)
		couriers.GET("/check-review", middleware.RoleRequired(allRoles...), h.CheckCourierReview)

		courier := couriers.Group("", middleware.RoleRequired(models.RoleCourier))
		courier.GET("/me", h.GetCourierProfile)
		courier.PUT("/me/status", h.UpdateCourierStatus)
		courier.GET("/orders", h.GetMyDeliveries)
		courier.POST("/orders/:id/respond", h.RespondToAssignment)
	}

	// ── Restaurant owner routes ────────────────────────────────────
	restaurant := r.Group("/api/restaurant")
	restaurant.Use(authRequired, middleware.RoleRequired(models.RoleRestaurant))
	{
		restaurant.POST("", h.CreateRestaurant)
		restaurant.GET("", h.GetMyRestaurant)
		restaurant.PUT("", h.UpdateRestaurant)

		restaurant.POST("/menu", h.AddMenuItem)
		restaurant.PUT("/menu/:itemId", h.UpdateMenuItem)
		restaurant.DELETE("/menu/:itemId", h.DeleteMenuItem)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(authRequired, middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/summary", h.AdminGetSummary)
		admin.GET("/users", h.AdminGetAllUsers)
		admin.PUT("/users/:id/ban", h.AdminBanUser)
		admin.PUT("/users/:id/unban", h.AdminUnbanUser)
		admin.GET("/restaurants", h.AdminGetAllRestaurants)
	}
}
