package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/BeckerFac/restaurant-ordering/services/common/errors"
)

type BoardController struct {
	boards      BoardServiceAPI
	restaurants RestaurantServiceAPI
	orders      OrderServiceAPI
	archiver    Archiver
}

// NewBoardController builds the board and export handlers. archiver may be
// nil, in which case export answers 503.
func NewBoardController(boards BoardServiceAPI, restaurants RestaurantServiceAPI, orders OrderServiceAPI, archiver Archiver) *BoardController {
	return &BoardController{boards: boards, restaurants: restaurants, orders: orders, archiver: archiver}
}

// Board returns the reconciled order list and table layout of a tenant.
func (bc *BoardController) Board(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	rid := c.Param("restaurantId")
	if _, err := bc.restaurants.Get(ctx, rid); err != nil {
		fail(c, err)
		return
	}
	view, err := bc.boards.Get(ctx, rid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view.Snapshot())
}

func (bc *BoardController) Export(c *gin.Context) {
	if bc.archiver == nil {
		fail(c, apperrors.New(http.StatusServiceUnavailable, "Order export is not configured", nil))
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	rid := c.Param("restaurantId")
	if _, err := bc.restaurants.Get(ctx, rid); err != nil {
		fail(c, err)
		return
	}
	orders, err := bc.orders.ListOrdersForTenant(ctx, rid)
	if err != nil {
		fail(c, err)
		return
	}
	key, err := bc.archiver.ExportTenant(ctx, rid, orders)
	if err != nil {
		fail(c, apperrors.Wrap(apperrors.ErrServiceUnavailable, err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key, "count": len(orders)})
}
