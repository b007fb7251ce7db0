package serverutils

import (
	"errors"
	"net/http"

	"central-ai-web/pkg/backend"
	"central-ai-web/pkg/conversation"
	"central-ai-web/pkg/dashboard"
	"central-ai-web/pkg/session"
	"central-ai-web/pkg/wizard"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const (
	MsgUnavailable = "Não foi possível conectar ao servidor. Tente novamente em instantes."
	MsgInternal    = "Erro interno."
)

// Classify maps an error to a status code and a user-facing message.
func Classify(err error) (int, string) {
	var (
		fiberErr *fiber.Error
		apiErr   *backend.APIError
		valErr   validator.ValidationErrors
	)

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case errors.As(err, &valErr):
		return fiber.StatusBadRequest, valErr.Error()
	case errors.Is(err, session.ErrUnknownRole):
		return fiber.StatusForbidden, session.LoginFailureMessage(err)
	case errors.Is(err, dashboard.ErrSessionExpired):
		return fiber.StatusUnauthorized, "Sessão expirada."
	case errors.Is(err, conversation.ErrEmptyMessage):
		return fiber.StatusBadRequest, "Mensagem vazia."
	case errors.Is(err, conversation.ErrAwaitingReply),
		errors.Is(err, wizard.ErrBusy):
		return fiber.StatusConflict, "Aguarde a resposta anterior."
	case errors.Is(err, wizard.ErrInvalidTransition),
		errors.Is(err, wizard.ErrPreconditionViolated),
		errors.Is(err, conversation.ErrClosed):
		return fiber.StatusConflict, err.Error()
	case errors.As(err, &apiErr):
		if apiErr.Status >= http.StatusInternalServerError {
			return fiber.StatusBadGateway, MsgUnavailable
		}
		return apiErr.Status, backend.DetailOf(err, http.StatusText(apiErr.Status))
	case errors.Is(err, backend.ErrUnavailable):
		return fiber.StatusBadGateway, MsgUnavailable
	}
	return fiber.StatusInternalServerError, MsgInternal
}

func ErrorResponse(code int, message string) fiber.Map {
	return fiber.Map{
		"success": false,
		"code":    code,
		"message": message,
	}
}

func SuccessResponse(message string, data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"code":    fiber.StatusOK,
		"message": message,
		"data":    data,
	}
}

// ErrorHandlerMiddleware turns handler errors into the JSON envelope for API
// calls and into the error page for navigations.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code, message := Classify(err)
		if IsAPIRequest(ctx) {
			return ctx.Status(code).JSON(ErrorResponse(code, message))
		}
		return ctx.Status(code).Render("error", fiber.Map{
			"Title":   "Erro",
			"Session": CurrentSession(ctx),
			"Error":   message,
		})
	}
}
