package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/flytster-backend/internal/dto"
	"github.com/ignatzorin/flytster-backend/internal/logger"
	"github.com/ignatzorin/flytster-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно: хэндлеры кладут
// ошибку через c.Error, а ответ формируется здесь. AppError несёт свой
// статус и текст; всё остальное маскируется как внутренняя ошибка.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		statusCode := http.StatusInternalServerError
		message := "внутренняя ошибка сервера"

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			statusCode = appErr.HTTPStatus
			message = appErr.Message
		}

		if statusCode >= http.StatusInternalServerError && logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		c.JSON(statusCode, dto.ErrorResponse{Error: message})
	}
}
