package handler

import (
	"context"
	"errors"
	"net/http"

	"shopcart/internal/usecase"
	"shopcart/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// writeError はusecase/validatorのエラーをHTTPステータスに変換する（ここ1か所だけ）。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	status, msg := statusOf(err)

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Int("status", status).
			Err(err).
			Msg("request failed")
	}
	return c.JSON(status, ErrorResponse{Error: msg})
}

func statusOf(err error) (int, string) {
	switch {
	//400
	case errors.Is(err, validator.ErrInvalidInput),
		errors.Is(err, usecase.ErrInvalidArgument),
		errors.Is(err, usecase.ErrEmptyCart):
		return http.StatusBadRequest, err.Error()

	//404
	case errors.Is(err, usecase.ErrProductNotFound),
		errors.Is(err, usecase.ErrCartNotFound),
		errors.Is(err, usecase.ErrItemNotFound),
		errors.Is(err, usecase.ErrOrderNotFound):
		return http.StatusNotFound, err.Error()

	//503（DB停止・競合が解消しない・タイムアウト）
	case errors.Is(err, usecase.ErrStorage),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "storage unavailable"
	}

	//500
	return http.StatusInternalServerError, "internal error"
}
