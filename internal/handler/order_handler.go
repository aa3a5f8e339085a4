package handler

import (
	"net/http"

	"shopcart/internal/usecase"
	"shopcart/internal/validator"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/orders")

	g.POST("", h.createDirect)
	g.POST("/:userId", h.create)
	g.GET("/:userId", h.list)
	g.GET("/:userId/:orderId", h.detail)
}

// カートの中身で注文を作る
func (h *OrderHandler) create(c echo.Context) error {
	userID, err := validator.ParseID("userId", c.Param("userId"))
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// ボディの明細で注文を作る（カートは使わない）
func (h *OrderHandler) createDirect(c echo.Context) error {
	var req validator.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := validator.ValidateCreateOrder(req); err != nil {
		return writeError(c, err)
	}

	lines := make([]usecase.OrderLineInput, 0, len(req.Products))
	for _, p := range req.Products {
		lines = append(lines, usecase.OrderLineInput{ProductID: p.ProductID, Quantity: p.Quantity})
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), usecase.CreateOrderInput{UserID: req.UserID, Lines: lines})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, err := validator.ParseID("userId", c.Param("userId"))
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, err := validator.ParseID("userId", c.Param("userId"))
	if err != nil {
		return writeError(c, err)
	}
	orderID, err := validator.ParseID("orderId", c.Param("orderId"))
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.GetOrder(c.Request().Context(), userID, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
