package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
)

type RestaurantController struct {
	restaurants RestaurantServiceAPI
}

func NewRestaurantController(restaurants RestaurantServiceAPI) *RestaurantController {
	return &RestaurantController{restaurants: restaurants}
}

func (rc *RestaurantController) List(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := rc.restaurants.List(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurants": list})
}

func (rc *RestaurantController) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	r, err := rc.restaurants.Get(ctx, c.Param("restaurantId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": r})
}

func (rc *RestaurantController) Create(c *gin.Context) {
	var req models.CreateRestaurantRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	r, err := rc.restaurants.Create(ctx, &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"restaurant": r})
}

func (rc *RestaurantController) Update(c *gin.Context) {
	var req models.UpdateRestaurantRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	r, err := rc.restaurants.Update(ctx, c.Param("restaurantId"), &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": r})
}

func (rc *RestaurantController) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := rc.restaurants.Delete(ctx, c.Param("restaurantId")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (rc *RestaurantController) Tables(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	tables, err := rc.restaurants.Tables(ctx, c.Param("restaurantId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

// SaveTables replaces the layout. Occupancy in the body is ignored.
func (rc *RestaurantController) SaveTables(c *gin.Context) {
	var body struct {
		Tables []models.RestaurantTable `json:"tables" binding:"required"`
	}
	if !bindJSON(c, &body) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	tables, err := rc.restaurants.SaveTables(ctx, c.Param("restaurantId"), body.Tables)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}
