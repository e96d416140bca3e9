package common

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/flytster-backend/internal/http/middleware"
	"github.com/ignatzorin/flytster-backend/internal/models"
	"github.com/ignatzorin/flytster-backend/internal/pkg/apperror"
)

// CurrentUser достаёт аутентифицированного пользователя из контекста.
// Отсутствие пользователя за AuthMiddleware — ошибка конфигурации
// маршрутов, а не клиента.
func CurrentUser(c *gin.Context) (*models.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, apperror.New(apperror.ErrCodeInternal, "пользователь отсутствует в контексте запроса")
	}
	return user, nil
}

// ParseUUIDParam разбирает UUID из параметра маршрута.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("параметр %s отсутствует", paramName))
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("параметр %s должен быть валидным UUID", paramName))
	}
	return parsed, nil
}

// BindJSON привязывает тело запроса, приводя ошибку привязки к 400.
func BindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.New(apperror.ErrCodeValidation, "некорректное тело запроса: "+err.Error())
	}
	return nil
}

// RespondError отдаёт ошибку через централизованный обработчик.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)
}

// RespondJSON отдаёт успешный ответ.
func RespondJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// RespondNoContent отдаёт пустой успешный ответ.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
