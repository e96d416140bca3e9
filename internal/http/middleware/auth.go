package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/flytster-backend/internal/models"
	"github.com/ignatzorin/flytster-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserKey       = "user"
	ContextTokenValueKey = "tokenValue"
)

// AuthMiddleware разрешает сессионный токен в пользователя. Заголовок
// Authorization несёт само значение токена, без префикса схемы.
// Любой сбой — отсутствующий заголовок, неизвестный или истёкший
// токен — даёт один и тот же ответ 403, чтобы по ответу нельзя было
// понять, существует ли токен. Истёкший токен по пути удаляется.
func AuthMiddleware(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		value := c.GetHeader("Authorization")
		if value == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "требуется авторизация"})
			return
		}

		user, err := tokens.Authenticate(c.Request.Context(), value)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "требуется авторизация"})
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextTokenValueKey, value)
		c.Next()
	}
}

// CurrentUser достаёт аутентифицированного пользователя из контекста.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	raw, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := raw.(*models.User)
	return user, ok
}

// CurrentTokenValue достаёт значение сессионного токена текущего запроса.
func CurrentTokenValue(c *gin.Context) (string, bool) {
	raw, exists := c.Get(ContextTokenValueKey)
	if !exists {
		return "", false
	}
	value, ok := raw.(string)
	return value, ok
}
