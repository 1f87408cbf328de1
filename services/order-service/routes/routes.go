package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/controllers"
)

type Controllers struct {
	Orders      *controllers.OrderController
	Restaurants *controllers.RestaurantController
	Boards      *controllers.BoardController
	Events      *controllers.EventsController
}

func RegisterOrderRoutes(r *gin.Engine, h Controllers) {
	orderRoutes := r.Group("/orders")
	orderRoutes.POST("", h.Orders.AppendOrder)
	orderRoutes.GET("", h.Orders.ListOrders)
	orderRoutes.GET("/number", h.Orders.GenerateOrderNumber)
	orderRoutes.PATCH("/:orderId/status", h.Orders.SetOrderStatus)
	orderRoutes.POST("/:orderId/payment/confirm", h.Orders.ConfirmPayment)

	restaurantRoutes := r.Group("/restaurants")
	restaurantRoutes.GET("", h.Restaurants.List)
	restaurantRoutes.POST("", h.Restaurants.Create)
	restaurantRoutes.GET("/:restaurantId", h.Restaurants.Get)
	restaurantRoutes.PUT("/:restaurantId", h.Restaurants.Update)
	restaurantRoutes.DELETE("/:restaurantId", h.Restaurants.Delete)
	restaurantRoutes.GET("/:restaurantId/orders", h.Orders.ListOrdersForTenant)
	restaurantRoutes.POST("/:restaurantId/checkout", h.Orders.Checkout)
	restaurantRoutes.GET("/:restaurantId/tables", h.Restaurants.Tables)
	restaurantRoutes.PUT("/:restaurantId/tables", h.Restaurants.SaveTables)
	restaurantRoutes.GET("/:restaurantId/board", h.Boards.Board)
	restaurantRoutes.GET("/:restaurantId/events", h.Events.Stream)

	adminRoutes := r.Group("/admin")
	adminRoutes.PUT("/orders/:orderId/status", h.Orders.OverrideOrderStatus)
	adminRoutes.POST("/restaurants/:restaurantId/orders/export", h.Boards.Export)
}
