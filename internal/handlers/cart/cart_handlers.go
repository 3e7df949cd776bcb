package cart

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ndanilko/storefront/internal/logging"
	"github.com/ndanilko/storefront/internal/mykafka"
	"github.com/ndanilko/storefront/internal/service"
	"github.com/ndanilko/storefront/internal/service/token"
)

type CartHandler struct {
	Svc      *service.CartService
	Producer *mykafka.Producer
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	userID, err := token.UserID(c)
	if err != nil {
		l.Error("get_cart_error", "status", 401, "error", err)
		return err
	}

	lines, err := h.Svc.List(ctx, userID)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to retrieve cart data")
	}

	h.publish(c, userID, map[string]any{
		"type":   "get_cart",
		"userID": userID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "cart data retrieved successfully",
		"data":    lines,
	})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")

	userID, err := token.UserID(c)
	if err != nil {
		l.Error("add_to_cart_error", "status", 401, "error", err)
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.Add(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("add_to_cart_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrInsufficientStock):
			l.Warn("add_to_cart_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "not enough stock available")
		case errors.Is(err, service.ErrValidation):
			l.Warn("add_to_cart_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("add_to_cart_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	h.publish(c, userID, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": item.ProductID,
		"quantity":  item.Quantity,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "added to cart successfully",
		"data":    item,
	})
}

func (h *CartHandler) ChangeQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "patch.cart")

	userID, err := token.UserID(c)
	if err != nil {
		l.Error("change_quantity_error", "status", 401, "error", err)
		return err
	}

	var req struct {
		CartID      uint  `json:"cart_id"`
		Increase    *bool `json:"increase"`
		NewQuantity *uint `json:"new_quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("change_quantity_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	newQuantity, err := h.Svc.ChangeQuantity(ctx, userID, service.QuantityChange{
		CartID:      req.CartID,
		Increase:    req.Increase,
		NewQuantity: req.NewQuantity,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("change_quantity_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			l.Warn("change_quantity_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "cart item not found")
		default:
			l.Error("change_quantity_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	h.publish(c, userID, map[string]any{
		"type":         "cart_quantity_changed",
		"userID":       userID,
		"cartID":       req.CartID,
		"new_quantity": newQuantity,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message":     "quantity updated successfully",
		"newQuantity": newQuantity,
	})
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete.cart")

	userID, err := token.UserID(c)
	if err != nil {
		l.Error("remove_from_cart_error", "status", 401, "error", err)
		return err
	}

	var req struct {
		CartID uint `json:"cart_id"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("remove_from_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.Remove(ctx, userID, req.CartID); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("remove_from_cart_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			l.Warn("remove_from_cart_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "cart item not found")
		default:
			l.Error("remove_from_cart_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	h.publish(c, userID, map[string]any{
		"type":   "cart_item_deleted",
		"userID": userID,
		"cartID": req.CartID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "item removed successfully"})
}

func (h *CartHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.cart")

	userID, err := token.UserID(c)
	if err != nil {
		l.Error("checkout_error", "status", 401, "error", err)
		return err
	}

	if err := h.Svc.Checkout(ctx, userID); err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			l.Warn("checkout_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "cart is empty")
		default:
			l.Error("checkout_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "checkout failed")
		}
	}

	h.publish(c, userID, map[string]any{
		"type":   "checkout_completed",
		"userID": userID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "checkout completed successfully"})
}
