package handler

import (
	"net/http"

	"shopcart/internal/usecase"
	"shopcart/internal/validator"

	"github.com/labstack/echo/v4"
)

// /cart/:userId のHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

// /cart/:userId, /cart/:userId/item/:productId を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/cart")

	g.GET("/:userId", h.getCart)
	g.POST("/:userId", h.addItem)
	g.DELETE("/:userId", h.clearCart)
	g.PATCH("/:userId/item/:productId", h.updateItem)
	g.DELETE("/:userId/item/:productId", h.removeItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, err := validator.ParseID("userId", c.Param("userId"))
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	userID, err := validator.ParseID("userId", c.Param("userId"))
	if err != nil {
		return writeError(c, err)
	}

	var req validator.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := validator.ValidateAddItem(req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AddItem(c.Request().Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) updateItem(c echo.Context) error {
	userID, err := validator.ParseID("userId", c.Param("userId"))
	if err != nil {
		return writeError(c, err)
	}
	productID, err := validator.ParseID("productId", c.Param("productId"))
	if err != nil {
		return writeError(c, err)
	}

	var req validator.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := validator.ValidateUpdateQuantity(req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.UpdateItemQuantity(c.Request().Context(), userID, productID, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) removeItem(c echo.Context) error {
	userID, err := validator.ParseID("userId", c.Param("userId"))
	if err != nil {
		return writeError(c, err)
	}
	productID, err := validator.ParseID("productId", c.Param("productId"))
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), userID, productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clearCart(c echo.Context) error {
	userID, err := validator.ParseID("userId", c.Param("userId"))
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ClearCart(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
