package serverutils

import "github.com/gofiber/fiber/v2"

type BaseResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

func OkResponse[T any](data T) BaseResponse[T] {
	return BaseResponse[T]{Success: true, Data: data}
}

func MessageResponse(message string) BaseResponse[any] {
	return BaseResponse[any]{Success: true, Message: message}
}

type ErrorBody struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func ErrorResponse(code int, message string) ErrorBody {
	return ErrorBody{Success: false, Code: code, Message: message}
}

// ErrorHandlerMiddleware converts panics and unhandled errors from downstream
// handlers into a JSON 500 instead of tearing down the connection.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				_ = ctx.Status(fiber.StatusInternalServerError).
					JSON(ErrorResponse(fiber.StatusInternalServerError, "internal server error"))
			}
		}()
		if err := ctx.Next(); err != nil {
			return ctx.Status(fiber.StatusInternalServerError).
				JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
		}
		return nil
	}
}
