package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ecomcore/orderflow/internal/httpx"
	"github.com/ecomcore/orderflow/internal/inventory"
	ord "github.com/ecomcore/orderflow/internal/order"
)

// createOrderHandler runs the placement saga for the authenticated user.
func createOrderHandler(coord *ord.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		var req ord.PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		res, err := coord.PlaceOrder(c.Request.Context(), id.UserID, req)
		if err != nil {
			writePlacementError(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

func writePlacementError(c *gin.Context, err error) {
	var ve *ord.ValidationError
	var pe *ord.ProductError
	var ce *ord.CompensationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, ord.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &ce):
		// Unrecoverable: stock is under-counted until reconciled.
		c.JSON(http.StatusInternalServerError, gin.H{"error": ce.Error()})
	case errors.As(err, &pe) && errors.Is(pe, inventory.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": pe.Error(), "product_id": pe.ProductID})
	case errors.As(err, &pe) && errors.Is(pe, inventory.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": pe.Error(), "product_id": pe.ProductID})
	case errors.Is(err, inventory.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "inventory unavailable, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func getOrderHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := httpx.IdentityFrom(c)
		o, items, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if !id.IsAdmin() && o.UserID != id.UserID {
			// Hide other users' orders rather than admitting they exist.
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": o, "items": items})
	}
}

func getOrderItemsHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := httpx.IdentityFrom(c)
		o, items, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if !id.IsAdmin() && o.UserID != id.UserID {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

// listOrdersHandler lists the caller's orders; admins see everyone's.
func listOrdersHandler(repo ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := httpx.IdentityFrom(c)
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		var (
			orders []ord.Order
			err    error
		)
		if id.IsAdmin() {
			orders, err = repo.ListAll(c.Request.Context(), limit, offset)
		} else {
			orders, err = repo.ListByUser(c.Request.Context(), id.UserID, limit, offset)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
			return
		}
		if orders == nil {
			orders = []ord.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}
