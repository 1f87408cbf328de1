package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
)

type OrderController struct {
	orders      OrderServiceAPI
	restaurants RestaurantServiceAPI
}

func NewOrderController(orders OrderServiceAPI, restaurants RestaurantServiceAPI) *OrderController {
	return &OrderController{orders: orders, restaurants: restaurants}
}

// AppendOrder stores an order built by the caller.
func (oc *OrderController) AppendOrder(c *gin.Context) {
	var order models.Order
	if !bindJSON(c, &order) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := oc.orders.AppendOrder(ctx, &order); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (oc *OrderController) ListOrders(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	orders, err := oc.orders.ListOrders(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (oc *OrderController) ListOrdersForTenant(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	orders, err := oc.orders.ListOrdersForTenant(ctx, c.Param("restaurantId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (oc *OrderController) GenerateOrderNumber(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"orderNumber": oc.orders.GenerateOrderNumber()})
}

// SetOrderStatus answers 204 for unknown ids as well.
func (oc *OrderController) SetOrderStatus(c *gin.Context) {
	var req models.StatusUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := oc.orders.SetOrderStatus(ctx, c.Param("orderId"), req.Status); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (oc *OrderController) OverrideOrderStatus(c *gin.Context) {
	var req models.StatusUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := oc.orders.OverrideOrderStatus(ctx, c.Param("orderId"), req.Status); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (oc *OrderController) ConfirmPayment(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := oc.orders.ConfirmPayment(ctx, c.Param("orderId")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (oc *OrderController) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	req.RestaurantID = c.Param("restaurantId")
	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := oc.orders.Checkout(ctx, &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}
