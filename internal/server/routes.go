package server

import (
	"net/http"

	"shopcart/internal/handler"

	"github.com/labstack/echo/v4"
)

// Handlers はルート登録に使うハンドラ一式
type Handlers struct {
	Cart    *handler.CartHandler
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Cart.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.Order.RegisterRoutes(e)
}
